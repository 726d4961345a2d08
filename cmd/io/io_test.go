package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

func TestDestinoLinea(t *testing.T) {
	tests := []struct {
		linea    string
		terminal int
		texto    string
	}{
		{"hola\n", 0, "hola\n"},
		{"2>hola\n", 2, "hola\n"},
		{"2>\n", 2, "\n"},
		{">hola\n", 0, ">hola\n"},
		{"x>hola\n", 0, "x>hola\n"},
		{"-1>hola\n", 0, "-1>hola\n"},
		{"a 3>b\n", 0, "a 3>b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.linea, func(t *testing.T) {
			terminal, texto := destinoLinea([]byte(tt.linea), 0)
			assert.Equal(t, tt.terminal, terminal)
			assert.Equal(t, tt.texto, string(texto))
		})
	}
}

// salidaLenta tarda en mostrar cada línea y anota cuántas se mostraban a la vez
type salidaLenta struct {
	mu      sync.Mutex
	enCurso int
	maximo  int
	lineas  []string
}

func (s *salidaLenta) Transmitir(linea []byte, listo func()) {
	s.mu.Lock()
	s.enCurso++
	s.maximo = max(s.maximo, s.enCurso)
	s.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	s.mu.Lock()
	s.enCurso--
	s.lineas = append(s.lineas, string(linea))
	s.mu.Unlock()
	listo()
}

func (s *salidaLenta) Conectar(func(linea []byte)) {}

func TestTransmisionesSimultaneasLimitadas(t *testing.T) {
	lenta := &salidaLenta{}
	cfgAnterior, salidaAnterior, semAnterior := config, salida, transmisiones
	t.Cleanup(func() { config, salida, transmisiones = cfgAnterior, salidaAnterior, semAnterior })
	config = &IOConfig{TransmisionesSimultaneas: 2}
	salida = lenta
	transmisiones = utils.NewSemaforo(config.TransmisionesSimultaneas)

	var wg sync.WaitGroup
	for id := 0; id < 6; id++ {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := &utils.Mensaje{Datos: map[string]interface{}{"terminal": float64(id), "datos": "x"}}
			r, err := handlerTransmitir(msg)
			assert.NoError(t, err)
			assert.Equal(t, "OK", r.(map[string]interface{})["status"])
		}()
	}
	wg.Wait()

	require.Len(t, lenta.lineas, 6)
	assert.Equal(t, 2, lenta.maximo)
	assert.Zero(t, transmisiones.Ocupados(), "cada transmisión devuelve su lugar")
}

func TestTransmisionInvalidaNoTomaLugar(t *testing.T) {
	anterior := transmisiones
	transmisiones = utils.NewSemaforo(1)
	t.Cleanup(func() { transmisiones = anterior })

	r, err := handlerTransmitir(&utils.Mensaje{Datos: map[string]interface{}{"datos": "x"}})

	require.NoError(t, err)
	assert.Equal(t, "ERROR", r.(map[string]interface{})["status"])
	assert.Zero(t, transmisiones.Ocupados())
}
