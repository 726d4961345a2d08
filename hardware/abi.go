package hardware

import "fmt"

// Vector de traps
const (
	TrapKernel = iota
	TrapReloj
	TrapIlegal
	TrapMemoria
	TrapMatematica
	TrapTtyRecepcion
	TrapTtyTransmision
	CantidadTraps
)

var nombresTrap = [CantidadTraps]string{
	"TRAP_KERNEL",
	"TRAP_CLOCK",
	"TRAP_ILLEGAL",
	"TRAP_MEMORY",
	"TRAP_MATH",
	"TRAP_TTY_RECEIVE",
	"TRAP_TTY_TRANSMIT",
}

// NombreTrap devuelve el nombre de un tipo de trap
func NombreTrap(tipo int) string {
	if tipo < 0 || tipo >= CantidadTraps {
		return fmt.Sprintf("TRAP_%d", tipo)
	}
	return nombresTrap[tipo]
}

// Códigos de TRAP_MEMORY
const (
	CodigoMapErr = 1 // Página sin mapear
	CodigoAccErr = 2 // Permisos insuficientes o dirección fuera de rango
)

// Valores de retorno de las llamadas al sistema
const (
	Exito = 0
	Error = -1
)

// Números de llamada al sistema (código del TRAP_KERNEL)
const (
	SyscallFork          = 1
	SyscallExec          = 2
	SyscallExit          = 3
	SyscallWait          = 4
	SyscallGetPid        = 5
	SyscallBrk           = 6
	SyscallDelay         = 7
	SyscallTtyRead       = 21
	SyscallTtyWrite      = 22
	SyscallPipeInit      = 31
	SyscallPipeRead      = 32
	SyscallPipeWrite     = 33
	SyscallLockInit      = 41
	SyscallLockAcquire   = 42
	SyscallLockRelease   = 43
	SyscallCvarInit      = 51
	SyscallCvarSignal    = 52
	SyscallCvarBroadcast = 53
	SyscallCvarWait      = 54
	SyscallReclaim       = 61
)

// Syscalls asocia el nombre usado en los programas con su número
var Syscalls = map[string]int{
	"FORK":           SyscallFork,
	"EXEC":           SyscallExec,
	"EXIT":           SyscallExit,
	"WAIT":           SyscallWait,
	"GETPID":         SyscallGetPid,
	"BRK":            SyscallBrk,
	"DELAY":          SyscallDelay,
	"TTY_READ":       SyscallTtyRead,
	"TTY_WRITE":      SyscallTtyWrite,
	"PIPE_INIT":      SyscallPipeInit,
	"PIPE_READ":      SyscallPipeRead,
	"PIPE_WRITE":     SyscallPipeWrite,
	"LOCK_INIT":      SyscallLockInit,
	"LOCK_ACQUIRE":   SyscallLockAcquire,
	"LOCK_RELEASE":   SyscallLockRelease,
	"CVAR_INIT":      SyscallCvarInit,
	"CVAR_SIGNAL":    SyscallCvarSignal,
	"CVAR_BROADCAST": SyscallCvarBroadcast,
	"CVAR_WAIT":      SyscallCvarWait,
	"RECLAIM":        SyscallReclaim,
}

// Trap es un evento que transfiere el control al kernel
type Trap struct {
	Tipo   int
	Codigo int
	Dir    int
}

func (t Trap) String() string {
	return fmt.Sprintf("%s(codigo=%d, dir=%#x)", NombreTrap(t.Tipo), t.Codigo, t.Dir)
}

// Falla es una traducción de dirección fallida
type Falla struct {
	Codigo int
	Dir    int
}

func (f *Falla) Error() string {
	motivo := "MAPERR"
	if f.Codigo == CodigoAccErr {
		motivo = "ACCERR"
	}
	return fmt.Sprintf("falla de memoria %s en %#x", motivo, f.Dir)
}

func (f *Falla) trap() *Trap {
	return &Trap{Tipo: TrapMemoria, Codigo: f.Codigo, Dir: f.Dir}
}
