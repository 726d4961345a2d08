package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTLBReemplazoFIFO(t *testing.T) {
	tlb := nuevaTLB(2)
	tlb.Cargar(10, EntradaTabla{Valido: true, Marco: 1})
	tlb.Cargar(11, EntradaTabla{Valido: true, Marco: 2})
	tlb.Cargar(12, EntradaTabla{Valido: true, Marco: 3})

	_, ok := tlb.Buscar(10)
	assert.False(t, ok, "la entrada más vieja se reemplaza")

	e, ok := tlb.Buscar(12)
	require.True(t, ok)
	assert.Equal(t, 3, e.Marco)

	_, ok = tlb.Buscar(11)
	assert.True(t, ok)
	assert.Equal(t, int64(2), tlb.Aciertos)
	assert.Equal(t, int64(1), tlb.Fallos)

	tlb.Vaciar()
	_, ok = tlb.Buscar(12)
	assert.False(t, ok)
}

// maquinaConVM arma una máquina con la región 0 en identidad y la primera
// página de la región 1 en el marco 40 con permisos prot
func maquinaConVM(t *testing.T, prot Proteccion) *Maquina {
	t.Helper()
	m := nuevaMaquinaPrueba(t, Config{})
	r0 := NuevaTabla(m.cfg.PaginasRegion0)
	for i := range r0 {
		r0[i] = EntradaTabla{Valido: true, Proteccion: ProtLectura | ProtEscritura, Marco: i}
	}
	r1 := NuevaTabla(m.cfg.PaginasRegion1)
	r1[0] = EntradaTabla{Valido: true, Proteccion: prot, Marco: 40}
	m.EscribirPTBR0(r0)
	m.EscribirPTBR1(r1)
	m.HabilitarVM()
	return m
}

func TestTraducir(t *testing.T) {
	m := maquinaConVM(t, ProtLectura)
	base := m.cfg.BaseRegion1()

	fisica, f := m.traducir(base+5, ProtLectura, false)
	require.Nil(t, f)
	assert.Equal(t, 40*m.cfg.TamPagina+5, fisica)

	_, f = m.traducir(base+5, ProtEscritura, false)
	require.NotNil(t, f)
	assert.Equal(t, CodigoAccErr, f.Codigo)

	_, f = m.traducir(base+m.cfg.TamPagina, ProtLectura, false)
	require.NotNil(t, f)
	assert.Equal(t, CodigoMapErr, f.Codigo)

	_, f = m.traducir(100, ProtLectura, false)
	require.NotNil(t, f, "la región 0 no es accesible en modo usuario")
	assert.Equal(t, CodigoAccErr, f.Codigo)

	fisica, f = m.traducir(100, ProtLectura, true)
	require.Nil(t, f)
	assert.Equal(t, 100, fisica)

	_, f = m.traducir(m.cfg.LimiteRegion1(), ProtLectura, true)
	require.NotNil(t, f)
	assert.Equal(t, CodigoAccErr, f.Codigo)
}

func TestEscrituraFallidaNoDejaEfectos(t *testing.T) {
	m := maquinaConVM(t, ProtLectura|ProtEscritura)
	dir := m.cfg.BaseRegion1() + m.cfg.TamPagina - 2

	err := m.EscribirVirtual(dir, []byte{1, 2, 3, 4})
	require.Error(t, err)
	var falla *Falla
	require.ErrorAs(t, err, &falla)
	assert.Equal(t, CodigoMapErr, falla.Codigo)

	buf := make([]byte, 2)
	m.LeerMarco(40, m.cfg.TamPagina-2, buf)
	assert.Equal(t, []byte{0, 0}, buf)
}

func TestProteccionString(t *testing.T) {
	assert.Equal(t, "R-X", (ProtLectura | ProtEjecucion).String())
	assert.Equal(t, "---", ProtNinguna.String())
}

func TestConfigValidar(t *testing.T) {
	assert.NoError(t, ConfigPorDefecto().Validar())

	cfg := ConfigPorDefecto()
	cfg.PaginasPilaKernel = cfg.PaginasRegion0
	assert.Error(t, cfg.Validar())

	cfg = ConfigPorDefecto()
	cfg.CantidadMarcos = cfg.PaginasRegion0 - 1
	assert.Error(t, cfg.Validar())

	cfg = ConfigPorDefecto()
	cfg.TamPagina = 60
	assert.Error(t, cfg.Validar())

	completa := Config{TamPagina: 512}.Completar()
	assert.Equal(t, 512, completa.TamPagina)
	assert.Equal(t, ConfigPorDefecto().CantidadMarcos, completa.CantidadMarcos)
	assert.Equal(t, 32*512, completa.BaseRegion1())
}
