package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// instalarVector registra un manejador por cada tipo de trap
func (k *Kernel) instalarVector() {
	m := k.maquina
	m.InstalarVector(hardware.TrapKernel, k.manejarSyscall)
	m.InstalarVector(hardware.TrapReloj, k.manejarReloj)
	m.InstalarVector(hardware.TrapIlegal, k.manejarFatal)
	m.InstalarVector(hardware.TrapMemoria, k.manejarMemoria)
	m.InstalarVector(hardware.TrapMatematica, k.manejarFatal)
	m.InstalarVector(hardware.TrapTtyRecepcion, k.manejarTtyRecepcion)
	m.InstalarVector(hardware.TrapTtyTransmision, k.manejarTtyTransmision)
}

// manejarSyscall decodifica la llamada: número en el código del trap,
// argumentos en R0..R2 y resultado en R0
func (k *Kernel) manejarSyscall(uc *hardware.ContextoUsuario) {
	p := k.ejecutandoAhora()
	p.Metricas.Syscalls++
	a0, a1, a2 := int(uc.Regs[0]), int(uc.Regs[1]), int(uc.Regs[2])
	utils.Trazar(utils.TrazaTrap, fmt.Sprintf("(%d) - Solicitó syscall: %s", p.PID, nombreSyscall(uc.Codigo)),
		"r0", a0, "r1", a1, "r2", a2)

	var r int
	switch uc.Codigo {
	case hardware.SyscallFork:
		r = k.fork()
	case hardware.SyscallExec:
		var reemplazado bool
		if r, reemplazado = k.exec(uc, a0, a1); reemplazado {
			return
		}
	case hardware.SyscallExit:
		k.matarEjecutando(a0)
	case hardware.SyscallWait:
		r = k.wait(a0)
	case hardware.SyscallGetPid:
		r = p.PID
	case hardware.SyscallBrk:
		r = k.crecerHeap(p, a0)
	case hardware.SyscallDelay:
		r = k.delay(a0)
	case hardware.SyscallTtyRead:
		r = k.ttyRead(a0, a1, a2)
	case hardware.SyscallTtyWrite:
		r = k.ttyWrite(a0, a1, a2)
	case hardware.SyscallPipeInit:
		r = k.pipeInit(a0)
	case hardware.SyscallPipeRead:
		r = k.pipeRead(a0, a1, a2)
	case hardware.SyscallPipeWrite:
		r = k.pipeWrite(a0, a1, a2)
	case hardware.SyscallLockInit:
		r = k.lockInit(a0)
	case hardware.SyscallLockAcquire:
		r = k.lockAcquire(a0)
	case hardware.SyscallLockRelease:
		r = k.lockRelease(a0)
	case hardware.SyscallCvarInit:
		r = k.cvarInit(a0)
	case hardware.SyscallCvarSignal:
		r = k.cvarSignal(a0)
	case hardware.SyscallCvarBroadcast:
		r = k.cvarBroadcast(a0)
	case hardware.SyscallCvarWait:
		r = k.cvarWait(a0, a1)
	case hardware.SyscallReclaim:
		r = k.reclaim(a0)
	default:
		utils.Trazar(utils.TrazaUsuario, "Syscall desconocida", "pid", p.PID, "codigo", uc.Codigo)
		r = hardware.Error
	}
	uc.Regs[0] = int32(r)
}

func nombreSyscall(codigo int) string {
	for nombre, n := range hardware.Syscalls {
		if n == codigo {
			return nombre
		}
	}
	return fmt.Sprintf("SYSCALL_%d", codigo)
}

// delay duerme al proceso en ejecución durante ticks interrupciones de reloj
func (k *Kernel) delay(ticks int) int {
	p := k.ejecutandoAhora()
	switch {
	case ticks < 0:
		utils.Trazar(utils.TrazaUsuario, "delay negativo", "pid", p.PID, "ticks", ticks)
		return hardware.Error
	case ticks == 0:
		return hardware.Exito
	}
	p.Despertar = k.ticks + int64(ticks)
	k.bloquear(k.durmiendo)
	return hardware.Exito
}

// manejarMemoria atiende TRAP_MEMORY: una falta de página justo debajo de la
// pila la hace crecer; cualquier otra mata al proceso
func (k *Kernel) manejarMemoria(uc *hardware.ContextoUsuario) {
	p := k.ejecutandoAhora()
	p.Metricas.FallosPagina++

	switch uc.Codigo {
	case hardware.CodigoMapErr:
		if !k.enRegion1(uc.Dir) {
			utils.Trazar(utils.TrazaSevera, fmt.Sprintf("(%d) - Acceso fuera de la región de usuario", p.PID), "dir", uc.Dir)
			k.matarEjecutando(hardware.Error)
		}
		indice := k.indicePagina(uc.Dir)
		if indice >= p.BasePila {
			k.panico("(%d) falta de página %d dentro de la pila (base %d)", p.PID, indice, p.BasePila)
		}
		if !k.crecerPila(p, indice) {
			k.matarEjecutando(hardware.Error)
		}
	case hardware.CodigoAccErr:
		utils.Trazar(utils.TrazaSevera, fmt.Sprintf("(%d) - Violación de protección", p.PID), "dir", uc.Dir, "pc", uc.PC)
		k.matarEjecutando(hardware.Error)
	default:
		k.panico("(%d) código de trap de memoria desconocido %d", p.PID, uc.Codigo)
	}
}

// manejarFatal atiende TRAP_ILLEGAL y TRAP_MATH matando al proceso
func (k *Kernel) manejarFatal(uc *hardware.ContextoUsuario) {
	p := k.ejecutandoAhora()
	utils.Trazar(utils.TrazaSevera, fmt.Sprintf("(%d) - %s", p.PID, hardware.NombreTrap(uc.Vector)),
		"codigo", uc.Codigo, "pc", uc.PC)
	k.matarEjecutando(hardware.Error)
}
