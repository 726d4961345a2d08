package hardware

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Dispositivo es el extremo físico de una terminal. Transmitir debe llamar a
// listo exactamente una vez al terminar, desde cualquier gorutina. Conectar
// recibe la función con la que el dispositivo entrega cada línea tipeada.
type Dispositivo interface {
	Transmitir(linea []byte, listo func())
	Conectar(recibir func(linea []byte))
}

type terminal struct {
	dispositivo   Dispositivo
	transmitiendo bool
	entrada       [][]byte
}

// ConectarTerminal asocia un dispositivo a la terminal id
func (m *Maquina) ConectarTerminal(id int, d Dispositivo) error {
	if id < 0 || id >= len(m.terminales) {
		return fmt.Errorf("la terminal %d no existe", id)
	}
	m.terminales[id].dispositivo = d
	d.Conectar(func(linea []byte) { m.recibirLinea(id, linea) })
	m.traza.WithField("terminal", id).Info("terminal conectada")
	return nil
}

func (m *Maquina) recibirLinea(id int, linea []byte) {
	if len(linea) > m.cfg.LargoMaxLinea {
		linea = linea[:m.cfg.LargoMaxLinea]
	}
	copia := append([]byte(nil), linea...)

	m.mu.Lock()
	m.terminales[id].entrada = append(m.terminales[id].entrada, copia)
	m.pendientes = append(m.pendientes, Trap{Tipo: TrapTtyRecepcion, Codigo: id})
	m.mu.Unlock()
	m.avisar()

	m.traza.WithFields(logrus.Fields{"terminal": id, "bytes": len(copia)}).Debug("línea recibida")
}

// TtyTransmit inicia la transmisión de una línea. Termina más tarde con un
// TRAP_TTY_TRANSMIT cuyo código es el id de la terminal.
func (m *Maquina) TtyTransmit(id int, datos []byte) error {
	if id < 0 || id >= len(m.terminales) {
		return fmt.Errorf("la terminal %d no existe", id)
	}
	if len(datos) > m.cfg.LargoMaxLinea {
		return fmt.Errorf("transmisión de %d bytes supera el máximo de %d", len(datos), m.cfg.LargoMaxLinea)
	}

	t := m.terminales[id]
	m.mu.Lock()
	if t.transmitiendo {
		m.mu.Unlock()
		return fmt.Errorf("la terminal %d ya tiene una transmisión en curso", id)
	}
	t.transmitiendo = true
	m.mu.Unlock()

	copia := append([]byte(nil), datos...)
	listo := func() {
		m.mu.Lock()
		t.transmitiendo = false
		m.pendientes = append(m.pendientes, Trap{Tipo: TrapTtyTransmision, Codigo: id})
		m.mu.Unlock()
		m.avisar()
	}

	m.traza.WithFields(logrus.Fields{"terminal": id, "bytes": len(copia)}).Debug("transmisión iniciada")
	if t.dispositivo == nil {
		listo()
		return nil
	}
	t.dispositivo.Transmitir(copia, listo)
	return nil
}

// TtyReceive copia en buf la línea recibida más antigua y devuelve su largo
func (m *Maquina) TtyReceive(id int, buf []byte) int {
	if id < 0 || id >= len(m.terminales) {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.terminales[id]
	if len(t.entrada) == 0 {
		return 0
	}
	linea := t.entrada[0]
	t.entrada = t.entrada[1:]
	return copy(buf, linea)
}

// TtyHayEntrada indica si la terminal tiene líneas sin leer
func (m *Maquina) TtyHayEntrada(id int) bool {
	if id < 0 || id >= len(m.terminales) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.terminales[id].entrada) > 0
}
