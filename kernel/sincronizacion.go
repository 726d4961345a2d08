package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// Interp es un objeto de sincronización entre procesos: Lock, Cvar o Pipe.
// Todos comparten el espacio de ids, tienen un dueño y una cola de espera.
type Interp interface {
	Dueno() int
	Espera() *Cola
	Tipo() string
}

type Lock struct {
	dueno    int
	poseedor int // pidNulo si está libre
	espera   *Cola
}

type Cvar struct {
	dueno  int
	espera *Cola
}

type Pipe struct {
	dueno   int
	mensaje []byte
	escrito bool // Se escribió al menos una vez
	espera  *Cola
}

func (l *Lock) Dueno() int    { return l.dueno }
func (l *Lock) Espera() *Cola { return l.espera }
func (l *Lock) Tipo() string  { return "LOCK" }

func (c *Cvar) Dueno() int    { return c.dueno }
func (c *Cvar) Espera() *Cola { return c.espera }
func (c *Cvar) Tipo() string  { return "CVAR" }

func (p *Pipe) Dueno() int    { return p.dueno }
func (p *Pipe) Espera() *Cola { return p.espera }
func (p *Pipe) Tipo() string  { return "PIPE" }

// crearInterp registra un objeto nuevo del proceso en ejecución y guarda su
// id en dirID
func (k *Kernel) crearInterp(dirID int, crear func(dueno int, espera *Cola) Interp) int {
	p := k.ejecutandoAhora()
	if !k.verificarBuffer(p, dirID, 4, hardware.ProtLectura|hardware.ProtEscritura) {
		utils.Trazar(utils.TrazaUsuario, "Puntero de id inválido", "pid", p.PID, "dir", dirID)
		return hardware.Error
	}

	id := k.proximoInterp
	k.proximoInterp++
	i := crear(p.PID, k.nuevaCola(fmt.Sprintf("INTERP_%d", id)))
	k.interps[id] = i
	k.escribirEntero(p, dirID, int32(id))

	utils.InfoLog.Info(fmt.Sprintf("(%d) - Crea %s %d", p.PID, i.Tipo(), id))
	return hardware.Exito
}

// buscarInterp devuelve el objeto id si existe, es del tipo T y p desciende de su dueño
func buscarInterp[T Interp](k *Kernel, p *PCB, id int) (T, bool) {
	var nada T
	i, ok := k.interps[id]
	if !ok {
		utils.Trazar(utils.TrazaUsuario, "Id de sincronización inexistente", "pid", p.PID, "id", id)
		return nada, false
	}
	t, ok := i.(T)
	if !ok {
		utils.Trazar(utils.TrazaUsuario, "Id de sincronización de otro tipo", "pid", p.PID, "id", id, "tipo", i.Tipo())
		return nada, false
	}
	if !k.desciendeDe(p, i.Dueno()) {
		utils.Trazar(utils.TrazaUsuario, "El proceso no desciende del dueño", "pid", p.PID, "id", id, "dueno", i.Dueno())
		return nada, false
	}
	return t, true
}

// sigueVivo indica si id sigue siendo el mismo objeto tras una espera
func (k *Kernel) sigueVivo(id int, i Interp) bool {
	actual, ok := k.interps[id]
	return ok && actual == i
}

// ===================== LOCKS =====================

func (k *Kernel) lockInit(dirID int) int {
	return k.crearInterp(dirID, func(dueno int, espera *Cola) Interp {
		return &Lock{dueno: dueno, espera: espera}
	})
}

func (k *Kernel) lockAcquire(id int) int {
	p := k.ejecutandoAhora()
	l, ok := buscarInterp[*Lock](k, p, id)
	if !ok {
		return hardware.Error
	}
	return k.adquirir(p, id, l)
}

// adquirir toma el lock o espera a que se lo entreguen
func (k *Kernel) adquirir(p *PCB, id int, l *Lock) int {
	if l.poseedor == p.PID {
		utils.Trazar(utils.TrazaUsuario, "El proceso ya tiene el lock", "pid", p.PID, "id", id)
		return hardware.Error
	}
	for l.poseedor != pidNulo && l.poseedor != p.PID {
		k.bloquear(l.espera)
		if !k.sigueVivo(id, l) {
			utils.Trazar(utils.TrazaUsuario, "El lock se liberó mientras se esperaba", "pid", p.PID, "id", id)
			return hardware.Error
		}
	}
	l.poseedor = p.PID
	return hardware.Exito
}

func (k *Kernel) lockRelease(id int) int {
	p := k.ejecutandoAhora()
	l, ok := buscarInterp[*Lock](k, p, id)
	if !ok {
		return hardware.Error
	}
	return k.soltar(p, id, l)
}

// soltar libera el lock y, si hay quien espera, se lo entrega directamente
func (k *Kernel) soltar(p *PCB, id int, l *Lock) int {
	if l.poseedor != p.PID {
		utils.Trazar(utils.TrazaUsuario, "Se libera un lock ajeno", "pid", p.PID, "id", id, "poseedor", l.poseedor)
		return hardware.Error
	}
	l.poseedor = pidNulo
	if siguiente := k.despertar(l.espera); siguiente != nil {
		l.poseedor = siguiente.PID
	}
	return hardware.Exito
}

// ===================== VARIABLES DE CONDICIÓN =====================

func (k *Kernel) cvarInit(dirID int) int {
	return k.crearInterp(dirID, func(dueno int, espera *Cola) Interp {
		return &Cvar{dueno: dueno, espera: espera}
	})
}

func (k *Kernel) cvarSignal(id int) int {
	p := k.ejecutandoAhora()
	c, ok := buscarInterp[*Cvar](k, p, id)
	if !ok {
		return hardware.Error
	}
	k.despertar(c.espera)
	return hardware.Exito
}

func (k *Kernel) cvarBroadcast(id int) int {
	p := k.ejecutandoAhora()
	c, ok := buscarInterp[*Cvar](k, p, id)
	if !ok {
		return hardware.Error
	}
	k.despertarTodos(c.espera)
	return hardware.Exito
}

// cvarWait suelta el lock, espera una señal y vuelve a tomar el lock
func (k *Kernel) cvarWait(idCvar, idLock int) int {
	p := k.ejecutandoAhora()
	c, ok := buscarInterp[*Cvar](k, p, idCvar)
	if !ok {
		return hardware.Error
	}
	l, ok := buscarInterp[*Lock](k, p, idLock)
	if !ok {
		return hardware.Error
	}
	if k.soltar(p, idLock, l) != hardware.Exito {
		return hardware.Error
	}

	k.bloquear(c.espera)
	if !k.sigueVivo(idCvar, c) || !k.sigueVivo(idLock, l) {
		utils.Trazar(utils.TrazaUsuario, "cvar_wait sobre objetos liberados", "pid", p.PID, "cvar", idCvar, "lock", idLock)
		return hardware.Error
	}
	return k.adquirir(p, idLock, l)
}

// ===================== TUBERÍAS =====================

func (k *Kernel) pipeInit(dirID int) int {
	return k.crearInterp(dirID, func(dueno int, espera *Cola) Interp {
		return &Pipe{dueno: dueno, espera: espera}
	})
}

// pipeRead espera la primera escritura y copia hasta largo bytes del último mensaje
func (k *Kernel) pipeRead(id, dirBuf, largo int) int {
	p := k.ejecutandoAhora()
	if largo < 0 || !k.verificarBuffer(p, dirBuf, largo, hardware.ProtLectura|hardware.ProtEscritura) {
		utils.Trazar(utils.TrazaUsuario, "pipe_read con buffer inválido", "pid", p.PID, "dir", dirBuf, "largo", largo)
		return hardware.Error
	}
	pipe, ok := buscarInterp[*Pipe](k, p, id)
	if !ok {
		return hardware.Error
	}

	for !pipe.escrito {
		k.bloquear(pipe.espera)
		if !k.sigueVivo(id, pipe) {
			utils.Trazar(utils.TrazaUsuario, "La tubería se liberó mientras se esperaba", "pid", p.PID, "id", id)
			return hardware.Error
		}
	}

	n := min(largo, len(pipe.mensaje))
	k.escribirUsuario(p, dirBuf, pipe.mensaje[:n])
	return n
}

// pipeWrite reemplaza el mensaje de la tubería y despierta a todos los lectores
func (k *Kernel) pipeWrite(id, dirBuf, largo int) int {
	p := k.ejecutandoAhora()
	if largo < 0 || !k.verificarBuffer(p, dirBuf, largo, hardware.ProtLectura) {
		utils.Trazar(utils.TrazaUsuario, "pipe_write con buffer inválido", "pid", p.PID, "dir", dirBuf, "largo", largo)
		return hardware.Error
	}
	pipe, ok := buscarInterp[*Pipe](k, p, id)
	if !ok {
		return hardware.Error
	}

	pipe.mensaje = k.leerUsuario(p, dirBuf, largo)
	pipe.escrito = true
	k.despertarTodos(pipe.espera)
	return largo
}

// ===================== RECLAIM =====================

// reclaim destruye un objeto del proceso en ejecución; quienes lo esperaban
// vuelven a READY y su llamada falla
func (k *Kernel) reclaim(id int) int {
	p := k.ejecutandoAhora()
	i, ok := k.interps[id]
	if !ok {
		utils.Trazar(utils.TrazaUsuario, "reclaim de id inexistente", "pid", p.PID, "id", id)
		return hardware.Error
	}
	if i.Dueno() != p.PID {
		utils.Trazar(utils.TrazaUsuario, "reclaim de un objeto ajeno", "pid", p.PID, "id", id, "dueno", i.Dueno())
		return hardware.Error
	}

	delete(k.interps, id)
	despertados := k.despertarTodos(i.Espera())
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Libera %s %d", p.PID, i.Tipo(), id), "despertados", despertados)
	return hardware.Exito
}
