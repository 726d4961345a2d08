// Package terminales implementa los dispositivos que pueden conectarse a las
// terminales de la máquina: en memoria, la consola real y una terminal remota
// por HTTP.
package terminales

import (
	"sync"
)

// Memoria es una terminal sin dispositivo físico. Guarda lo transmitido y
// entrega las líneas que se le tipean; la transmisión termina en el acto.
type Memoria struct {
	mu            sync.Mutex
	transmisiones [][]byte
	pendientes    [][]byte
	recibir       func(linea []byte)
}

// NuevaMemoria crea la terminal con líneas ya tipeadas, que se entregan al conectarla
func NuevaMemoria(entrada ...string) *Memoria {
	t := &Memoria{}
	for _, linea := range entrada {
		t.pendientes = append(t.pendientes, []byte(linea))
	}
	return t
}

func (t *Memoria) Transmitir(linea []byte, listo func()) {
	t.mu.Lock()
	t.transmisiones = append(t.transmisiones, append([]byte(nil), linea...))
	t.mu.Unlock()
	listo()
}

func (t *Memoria) Conectar(recibir func(linea []byte)) {
	t.mu.Lock()
	t.recibir = recibir
	pendientes := t.pendientes
	t.pendientes = nil
	t.mu.Unlock()

	for _, linea := range pendientes {
		recibir(linea)
	}
}

// Tipear entrega una línea como si la escribiera un usuario
func (t *Memoria) Tipear(linea string) {
	t.mu.Lock()
	recibir := t.recibir
	if recibir == nil {
		t.pendientes = append(t.pendientes, []byte(linea))
	}
	t.mu.Unlock()

	if recibir != nil {
		recibir([]byte(linea))
	}
}

// Salida concatena todo lo transmitido
func (t *Memoria) Salida() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total []byte
	for _, tx := range t.transmisiones {
		total = append(total, tx...)
	}
	return string(total)
}

// Transmisiones devuelve cada transmisión por separado, en orden
func (t *Memoria) Transmisiones() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.transmisiones...)
}
