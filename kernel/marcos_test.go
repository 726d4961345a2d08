package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
)

const rw = hardware.ProtLectura | hardware.ProtEscritura

func tablaMarcosPrueba(t *testing.T, marcos int) (*TablaMarcos, *hardware.Maquina) {
	t.Helper()
	m, err := hardware.NuevaMaquina(hardware.Config{CantidadMarcos: marcos})
	require.NoError(t, err)
	return nuevaTablaMarcos(m), m
}

func TestMarcosAsignaElMenorLibre(t *testing.T) {
	tm, _ := tablaMarcosPrueba(t, 64)
	require.NoError(t, tm.Reservar(0, hardware.ProtLectura|hardware.ProtEjecucion))

	a, err := tm.Asignar(rw)
	require.NoError(t, err)
	b, err := tm.Asignar(rw)
	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)

	require.NoError(t, tm.Liberar(a))
	c, err := tm.Asignar(rw)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	assert.Equal(t, 3, tm.EnUso())
	assert.Equal(t, 61, tm.Libres())
	assert.True(t, tm.Ocupado(2))
	assert.False(t, tm.Ocupado(3))
}

func TestMarcosLiberarDejaEnCero(t *testing.T) {
	tm, m := tablaMarcosPrueba(t, 64)
	marco, err := tm.Asignar(rw)
	require.NoError(t, err)
	m.EscribirMarco(marco, 10, []byte("basura"))

	require.NoError(t, tm.Liberar(marco))

	leido := make([]byte, 6)
	m.LeerMarco(marco, 10, leido)
	assert.Equal(t, make([]byte, 6), leido)
}

func TestMarcosErrores(t *testing.T) {
	tm, _ := tablaMarcosPrueba(t, 64)

	assert.ErrorIs(t, tm.Liberar(64), ErrMarcoInvalido)
	assert.ErrorIs(t, tm.Liberar(5), ErrMarcoInvalido, "marco libre")
	assert.ErrorIs(t, tm.Reservar(-1, rw), ErrMarcoInvalido)

	require.NoError(t, tm.Reservar(7, rw))
	assert.Error(t, tm.Reservar(7, rw))
	assert.Equal(t, 1, tm.EnUso())
}

func TestMarcosSinMemoria(t *testing.T) {
	tm, _ := tablaMarcosPrueba(t, 32)
	for i := 0; i < 32; i++ {
		_, err := tm.Asignar(rw)
		require.NoError(t, err)
	}

	_, err := tm.Asignar(rw)
	assert.ErrorIs(t, err, ErrSinMemoria)
	assert.Zero(t, tm.Libres())
}
