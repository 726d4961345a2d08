package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dispositivoManual completa las transmisiones sólo cuando el test lo pide
type dispositivoManual struct {
	enviadas [][]byte
	listos   []func()
	recibir  func(linea []byte)
}

func (d *dispositivoManual) Transmitir(linea []byte, listo func()) {
	d.enviadas = append(d.enviadas, linea)
	d.listos = append(d.listos, listo)
}

func (d *dispositivoManual) Conectar(recibir func(linea []byte)) {
	d.recibir = recibir
}

func TestTerminalRecepcion(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{LargoMaxLinea: 8})
	d := &dispositivoManual{}
	require.NoError(t, m.ConectarTerminal(1, d))

	assert.False(t, m.TtyHayEntrada(1))
	d.recibir([]byte("hola\n"))
	d.recibir([]byte("una línea muy larga\n"))

	require.True(t, m.TtyHayEntrada(1))
	trap, ok := m.proximaInterrupcion()
	require.True(t, ok)
	assert.Equal(t, Trap{Tipo: TrapTtyRecepcion, Codigo: 1}, trap)

	buf := make([]byte, 64)
	n := m.TtyReceive(1, buf)
	assert.Equal(t, "hola\n", string(buf[:n]))

	n = m.TtyReceive(1, buf)
	assert.Equal(t, 8, n, "la línea se recorta al máximo")
	assert.Equal(t, 0, m.TtyReceive(1, buf))
	assert.Equal(t, 0, m.TtyReceive(7, buf))
}

func TestTerminalTransmision(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{LargoMaxLinea: 8})
	d := &dispositivoManual{}
	require.NoError(t, m.ConectarTerminal(0, d))

	require.NoError(t, m.TtyTransmit(0, []byte("abc")))
	assert.Error(t, m.TtyTransmit(0, []byte("def")), "una transmisión por vez")
	assert.Error(t, m.TtyTransmit(0, []byte("123456789")))
	assert.Error(t, m.TtyTransmit(9, []byte("x")))

	_, ok := m.proximaInterrupcion()
	assert.False(t, ok, "todavía no terminó")

	d.listos[0]()
	trap, ok := m.proximaInterrupcion()
	require.True(t, ok)
	assert.Equal(t, Trap{Tipo: TrapTtyTransmision, Codigo: 0}, trap)
	assert.Equal(t, [][]byte{[]byte("abc")}, d.enviadas)

	require.NoError(t, m.TtyTransmit(0, []byte("def")))
}

func TestConectarTerminalInexistente(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{CantidadTerminales: 2})
	assert.Error(t, m.ConectarTerminal(2, &dispositivoManual{}))
}
