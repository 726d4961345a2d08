package kernel

import (
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

func (k *Kernel) terminalValida(id int) bool {
	return id >= 0 && id < k.hw.CantidadTerminales
}

// ttyRead devuelve la próxima línea de la terminal, hasta largo bytes,
// esperando a que llegue una si no hay ninguna pendiente
func (k *Kernel) ttyRead(id, dirBuf, largo int) int {
	p := k.ejecutandoAhora()
	if !k.terminalValida(id) {
		utils.Trazar(utils.TrazaUsuario, "tty_read de terminal inexistente", "pid", p.PID, "terminal", id)
		return hardware.Error
	}
	if largo < 0 || largo > k.hw.LargoMaxLinea ||
		!k.verificarBuffer(p, dirBuf, largo, hardware.ProtLectura|hardware.ProtEscritura) {
		utils.Trazar(utils.TrazaUsuario, "tty_read con buffer inválido", "pid", p.PID, "dir", dirBuf, "largo", largo)
		return hardware.Error
	}

	for !k.maquina.TtyHayEntrada(id) {
		k.bloquear(k.leyendo[id])
	}

	linea := make([]byte, k.hw.LargoMaxLinea)
	n := min(k.maquina.TtyReceive(id, linea), largo)
	k.escribirUsuario(p, dirBuf, linea[:n])
	utils.Trazar(utils.TrazaDetalle, "tty_read", "pid", p.PID, "terminal", id, "bytes", n)
	return n
}

// ttyWrite transmite el buffer completo en tramos de a lo sumo una línea. La
// terminal queda tomada por el proceso hasta terminar, así las salidas de
// distintos procesos no se intercalan.
func (k *Kernel) ttyWrite(id, dirBuf, largo int) int {
	p := k.ejecutandoAhora()
	if !k.terminalValida(id) {
		utils.Trazar(utils.TrazaUsuario, "tty_write a terminal inexistente", "pid", p.PID, "terminal", id)
		return hardware.Error
	}
	if largo < 0 || !k.verificarBuffer(p, dirBuf, largo, hardware.ProtLectura) {
		utils.Trazar(utils.TrazaUsuario, "tty_write con buffer inválido", "pid", p.PID, "dir", dirBuf, "largo", largo)
		return hardware.Error
	}
	if largo == 0 {
		return 0
	}
	datos := k.leerUsuario(p, dirBuf, largo)

	for k.escritor[id] != pidNulo {
		k.bloquear(k.esperandoEscritura[id])
	}
	k.escritor[id] = p.PID

	for enviados := 0; enviados < largo; {
		n := min(largo-enviados, k.hw.LargoMaxLinea)
		if err := k.maquina.TtyTransmit(id, datos[enviados:enviados+n]); err != nil {
			k.panico("(%d) transmitiendo a la terminal %d: %v", p.PID, id, err)
		}
		k.bloquear(k.escribiendo[id])
		enviados += n
	}

	k.escritor[id] = pidNulo
	k.despertar(k.esperandoEscritura[id])
	utils.Trazar(utils.TrazaDetalle, "tty_write", "pid", p.PID, "terminal", id, "bytes", largo)
	return largo
}

// manejarTtyRecepcion atiende TRAP_TTY_RECEIVE: despierta a un lector
func (k *Kernel) manejarTtyRecepcion(uc *hardware.ContextoUsuario) {
	id := uc.Codigo
	if !k.terminalValida(id) {
		k.panico("recepción de terminal inexistente %d", id)
	}
	if k.despertar(k.leyendo[id]) == nil {
		utils.Trazar(utils.TrazaDetalle, "Línea sin lector, queda pendiente", "terminal", id)
	}
}

// manejarTtyTransmision atiende TRAP_TTY_TRANSMIT: el escritor puede seguir
func (k *Kernel) manejarTtyTransmision(uc *hardware.ContextoUsuario) {
	id := uc.Codigo
	if !k.terminalValida(id) {
		k.panico("transmisión de terminal inexistente %d", id)
	}
	if k.despertar(k.escribiendo[id]) == nil {
		k.panico("fin de transmisión en la terminal %d sin escritor", id)
	}
}
