package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProximoListoSalteaAlIdle(t *testing.T) {
	k, _ := kernelConDatos(t)
	require.Equal(t, []int{2}, k.listos.PIDs())
	assert.Same(t, k.idle, k.proximoListo(), "el idle corre si es el único listo")

	require.Equal(t, 3, k.fork())
	require.Equal(t, []int{2, 3}, k.listos.PIDs())

	assert.Equal(t, 3, k.proximoListo().PID)
	assert.Equal(t, []int{2, 3}, k.listos.PIDs(), "el idle no se mueve al final de READY")

	require.NoError(t, k.listos.Quitar(k.idle))
	require.NoError(t, k.listos.Quitar(k.procesos[3]))
	assert.Nil(t, k.proximoListo())
}
