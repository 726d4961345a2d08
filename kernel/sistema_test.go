package kernel

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
)

// El hijo termina con 7 si su pid es 3. El padre sale con
// estado*100 + (pid esperado - pid del fork)*10 - resultado del segundo wait.
const programaForkWait = `
.text
main:
    SYSCALL FORK
    JZ r0, hijo
    MOV r6, r0
    LOADI r0, estado
    SYSCALL WAIT
    SUB r5, r0, r6
    LOADI r0, estado
    SYSCALL WAIT
    MOV r4, r0              ; sin hijos: -1
    LOADI r1, estado
    LOAD r0, r1, 0
    LOADI r2, 100
    MUL r0, r0, r2
    LOADI r2, 10
    MUL r5, r5, r2
    ADD r0, r0, r5
    SUB r0, r0, r4
    SYSCALL EXIT
hijo:
    SYSCALL GETPID
    LOADI r2, 3
    SUB r0, r0, r2
    ADDI r0, r0, 7
    SYSCALL EXIT
.data
estado: .word 0
`

func TestForkYWait(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaForkWait}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, 701)
	assert.Equal(t, []Alma{{PID: 3, Estado: 7}, {PID: 1, Estado: 701}}, s.k.Salidas())
	assert.NotContains(t, s.k.procesos, 3)
	verificarMarcos(t, s.k)
}

const programaRoundRobin = `
.text
main:
    SYSCALL FORK
    SYSCALL FORK
ciclo:
    ADDI r1, r1, 1
    JMP ciclo
`

func TestRoundRobin(t *testing.T) {
	hw := hardware.Config{InstruccionesPorTick: 20, LimiteTicks: 80}
	s := nuevoSistema(t, hw, map[string]string{"prueba": programaRoundRobin}, nil)

	d := s.ejecutar(t, "prueba")

	require.Equal(t, hardware.DetencionLimite, d.Tipo, d.Mensaje)
	assert.EqualValues(t, 80, s.k.Ticks())
	for _, pid := range []int{1, 3, 4, 5} {
		p := s.k.procesos[pid]
		require.NotNil(t, p, "pid %d", pid)
		assert.GreaterOrEqual(t, p.Metricas.Ticks, 10, "pid %d", pid)
	}
	assert.Zero(t, s.k.idle.Metricas.Ticks, "el idle no corre si hay otro listo")
	verificarMarcos(t, s.k)
}

const programaDelay = `
.text
main:
    LOADI r0, -1
    SYSCALL DELAY
    MOV r7, r0
    LOADI r0, 0
    SYSCALL DELAY
    ADD r7, r7, r0
    LOADI r0, 5
    SYSCALL DELAY
    ADD r0, r7, r0
    SYSCALL EXIT
`

func TestDelay(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaDelay}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, hardware.Error)
	assert.GreaterOrEqual(t, s.k.Ticks(), int64(5))
	assert.Positive(t, s.k.idle.Metricas.Ticks, "mientras duerme corre el idle")
}

// El lector sale con bytes*1000 + primer byte leído
const programaTuberiaBloquea = `
.text
main:
    LOADI r0, id
    SYSCALL PIPE_INIT
    SYSCALL FORK
    JZ r0, lector
    LOADI r0, 3
    SYSCALL DELAY
    LOADI r1, id
    LOAD r0, r1, 0
    LOADI r1, texto
    LOADI r2, 4
    SYSCALL PIPE_WRITE
    LOADI r0, estado
    SYSCALL WAIT
    LOADI r1, estado
    LOAD r0, r1, 0
    SYSCALL EXIT
lector:
    LOADI r1, id
    LOAD r0, r1, 0
    LOADI r1, buffer
    LOADI r2, 8
    SYSCALL PIPE_READ
    LOADI r2, 1000
    MUL r3, r0, r2
    LOADI r1, buffer
    LOADB r4, r1, 0
    ADD r0, r3, r4
    SYSCALL EXIT
.data
id:     .word 0
estado: .word 0
texto:  .ascii "hola"
buffer: .space 8
`

func TestTuberiaLecturaEsperaLaPrimeraEscritura(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaTuberiaBloquea}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, 4*1000+'h')
}

// El hijo escribe "A" y después "B"; el padre lee cuando ya terminó, escribe
// un mensaje vacío y vuelve a leer. Sale con
// bytes1*1000 + byte1 + escritura_vacía*100 + bytes2*10.
const programaTuberiaUltimoMensaje = `
.text
main:
    LOADI r0, id
    SYSCALL PIPE_INIT
    SYSCALL FORK
    JZ r0, hijo
    LOADI r0, 0
    SYSCALL WAIT
    LOADI r1, id
    LOAD r0, r1, 0
    LOADI r1, buffer
    LOADI r2, 4
    SYSCALL PIPE_READ
    MOV r6, r0
    LOADI r1, buffer
    LOADB r5, r1, 0
    LOADI r1, id
    LOAD r0, r1, 0
    LOADI r1, buffer
    LOADI r2, 0
    SYSCALL PIPE_WRITE
    MOV r4, r0
    LOADI r1, id
    LOAD r0, r1, 0
    LOADI r1, buffer
    LOADI r2, 4
    SYSCALL PIPE_READ
    MOV r3, r0
    LOADI r2, 1000
    MUL r6, r6, r2
    ADD r6, r6, r5
    LOADI r2, 100
    MUL r4, r4, r2
    ADD r6, r6, r4
    LOADI r2, 10
    MUL r3, r3, r2
    ADD r0, r6, r3
    SYSCALL EXIT
hijo:
    LOADI r1, id
    LOAD r0, r1, 0
    LOADI r1, letras
    LOADI r2, 1
    SYSCALL PIPE_WRITE
    LOADI r1, id
    LOAD r0, r1, 0
    LOADI r1, letras
    ADDI r1, r1, 1
    LOADI r2, 1
    SYSCALL PIPE_WRITE
    LOADI r0, 0
    SYSCALL EXIT
.data
id:     .word 0
letras: .ascii "AB"
buffer: .space 4
`

func TestTuberiaGuardaSoloElUltimoMensaje(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaTuberiaUltimoMensaje}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, 1*1000+'B')
}

// El pid 3 crea la tubería y duerme; su hermano no desciende de él
const programaTuberiaAjena = `
.text
main:
    SYSCALL FORK
    JZ r0, creador
    SYSCALL FORK
    JZ r0, intruso
    LOADI r0, estado
    SYSCALL WAIT
    LOADI r1, estado
    LOAD r0, r1, 0
    SYSCALL EXIT
creador:
    LOADI r0, id
    SYSCALL PIPE_INIT
    LOADI r0, 100
    SYSCALL DELAY
    LOADI r0, 0
    SYSCALL EXIT
intruso:
    LOADI r0, 2
    SYSCALL DELAY
    LOADI r0, 1
    LOADI r1, id
    LOADI r2, 4
    SYSCALL PIPE_WRITE
    SYSCALL EXIT
.data
id:     .word 0
estado: .word 0
`

func TestTuberiaSoloParaDescendientesDelDueno(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaTuberiaAjena}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, hardware.Error)
	require.Contains(t, s.k.interps, 1)
	pipe, ok := s.k.interps[1].(*Pipe)
	require.True(t, ok)
	assert.Equal(t, 3, pipe.Dueno())
	assert.False(t, pipe.escrito)

	e := s.k.Estado()
	assert.Equal(t, []int{3}, e.Colas["DELAY"])
	assert.Equal(t, map[int]string{1: "PIPE"}, e.Sincronizacion)
	assert.Equal(t, pidRaiz, e.Ejecutando)

	ruta, err := s.k.VolcarMemoria(3)
	require.NoError(t, err)
	info, err := os.Stat(ruta)
	require.NoError(t, err)
	assert.EqualValues(t, 32*256, info.Size())

	_, err = s.k.VolcarMemoria(99)
	assert.ErrorIs(t, err, ErrProcesoInexiste)
	verificarMarcos(t, s.k)
}

// Sale con estado_hijo + r4*100 + r5*10 + r6 + r7*1000 + r3*10000, donde r7
// es soltar un lock ajeno, r4 y r5 el wait y el release posteriores, r6 el
// reclaim del lock y r3 tomar el lock ya liberado. El hijo sale con 50 menos
// su reclaim, que no le corresponde.
const programaLockCvar = `
.text
main:
    LOADI r0, lock
    SYSCALL LOCK_INIT
    LOADI r0, cvar
    SYSCALL CVAR_INIT
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL LOCK_RELEASE
    MOV r7, r0
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL LOCK_ACQUIRE
    SYSCALL FORK
    JZ r0, hijo
    LOADI r1, cvar
    LOAD r0, r1, 0
    LOADI r1, lock
    LOAD r1, r1, 0
    SYSCALL CVAR_WAIT
    MOV r4, r0
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL LOCK_RELEASE
    MOV r5, r0
    LOADI r0, estado
    SYSCALL WAIT
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL RECLAIM
    MOV r6, r0
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL LOCK_ACQUIRE
    MOV r3, r0
    LOADI r1, estado
    LOAD r0, r1, 0
    LOADI r2, 100
    MUL r4, r4, r2
    ADD r0, r0, r4
    LOADI r2, 10
    MUL r5, r5, r2
    ADD r0, r0, r5
    ADD r0, r0, r6
    LOADI r2, 1000
    MUL r7, r7, r2
    ADD r0, r0, r7
    LOADI r2, 10000
    MUL r3, r3, r2
    ADD r0, r0, r3
    SYSCALL EXIT
hijo:
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL LOCK_ACQUIRE
    LOADI r1, cvar
    LOAD r0, r1, 0
    SYSCALL CVAR_SIGNAL
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL LOCK_RELEASE
    LOADI r1, lock
    LOAD r0, r1, 0
    SYSCALL RECLAIM
    LOADI r2, 50
    SUB r0, r2, r0
    SYSCALL EXIT
.data
lock:   .word 0
cvar:   .word 0
estado: .word 0
`

func TestLockYVariableDeCondicion(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaLockCvar}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, 51-1000-10000)
	assert.Equal(t, map[int]string{2: "CVAR"}, s.k.Estado().Sincronizacion)
}

// Sale con brk(100)*1000 + brk(guarda)*100 + brk(página 29)*10 + valor leído
const programaBrk = `
.text
main:
    LOADI r0, 15872         ; página 30, justo debajo de la pila
    SYSCALL BRK
    MOV r7, r0
    LOADI r0, 15616         ; página 29
    SYSCALL BRK
    MOV r6, r0
    LOADI r0, 100
    SYSCALL BRK
    MOV r5, r0
    LOADI r1, 15616
    LOADI r2, 5
    STORE r2, r1, 0
    LOAD r3, r1, 0
    LOADI r2, 1000
    MUL r5, r5, r2
    LOADI r2, 100
    MUL r7, r7, r2
    LOADI r2, 10
    MUL r6, r6, r2
    ADD r0, r5, r7
    ADD r0, r0, r6
    ADD r0, r0, r3
    SYSCALL EXIT
`

func TestBrk(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaBrk}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, -1000-100+5)
	assert.Equal(t, 29, s.k.procesos[pidRaiz].LimiteHeap)
	verificarMarcos(t, s.k)
}

// P (pid 3) crea a C (pid 4) y termina antes que él
const programaHuerfano = `
.text
main:
    SYSCALL FORK
    JZ r0, padre
    LOADI r0, 0
    SYSCALL WAIT
    LOADI r0, 20
    SYSCALL DELAY
    LOADI r0, 0
    SYSCALL EXIT
padre:
    SYSCALL FORK
    JZ r0, nieto
    LOADI r0, 5
    SYSCALL EXIT
nieto:
    LOADI r0, 5
    SYSCALL DELAY
    LOADI r0, 9
    SYSCALL EXIT
`

func TestHuerfanoTerminaSinQueNadieLoEspere(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaHuerfano}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, 0)
	assert.Equal(t, []Alma{{PID: 3, Estado: 5}, {PID: 4, Estado: 9}, {PID: 1, Estado: 0}}, s.k.Salidas())
	inicial := s.k.procesos[pidRaiz]
	assert.Empty(t, inicial.Almas)
	assert.Zero(t, inicial.CantidadHijos)
	verificarMarcos(t, s.k)
}

// Cuatro hijos: exec de un programa inexistente, nombre nulo, argv nulo y
// uno válido. El padre suma los estados.
const programaExec = `
.text
main:
    LOADI r7, 0
    SYSCALL FORK
    JZ r0, inexistente
    SYSCALL FORK
    JZ r0, sin_nombre
    SYSCALL FORK
    JZ r0, sin_argv
    SYSCALL FORK
    JZ r0, valido
    LOADI r6, 4
esperar:
    LOADI r0, estado
    SYSCALL WAIT
    LOADI r1, estado
    LOAD r2, r1, 0
    ADD r7, r7, r2
    ADDI r6, r6, -1
    JNZ r6, esperar
    MOV r0, r7
    SYSCALL EXIT
inexistente:
    LOADI r0, nombre_malo
    LOADI r1, argv
    SYSCALL EXEC
    ADDI r0, r0, 10
    SYSCALL EXIT
sin_nombre:
    LOADI r0, 0
    LOADI r1, argv
    SYSCALL EXEC
    LOADI r0, 77
    SYSCALL EXIT
sin_argv:
    LOADI r0, nombre_hola
    LOADI r1, 0
    SYSCALL EXEC
    ADDI r0, r0, 20
    SYSCALL EXIT
valido:
    LOADI r0, nombre_hola
    LOADI r1, argv
    SYSCALL EXEC
    LOADI r0, 88
    SYSCALL EXIT
.data
estado:      .word 0
argv:        .word nombre_hola, arg_mundo, 0
nombre_malo: .asciz "noexiste"
nombre_hola: .asciz "hola"
arg_mundo:   .asciz "mundo"
`

func TestExec(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaExec}, nil)

	d := s.ejecutar(t, "prueba")

	// 9 + (-1) + 19 + argc de hola
	terminoNormal(t, d, 29)
	assert.Equal(t, "mundo", s.tty[0].Salida())
	verificarMarcos(t, s.k)
}

func TestExecDelProcesoInicialConArgumentos(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, nil, nil)

	d := s.ejecutar(t, "hola", "hola", "desde la prueba\n")

	terminoNormal(t, d, 2)
	assert.Equal(t, "desde la prueba\n", s.tty[0].Salida())
}

func TestPilaCrecePorFaltaDePagina(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, nil, nil)

	d := s.ejecutar(t, "pila")

	terminoNormal(t, d, 200)
	inicial := s.k.procesos[pidRaiz]
	assert.LessOrEqual(t, inicial.BasePila, 26)
	assert.Positive(t, inicial.Metricas.FallosPagina)
	verificarMarcos(t, s.k)
}

// Tres hijos que mueren: división por cero, escritura en el texto y lectura
// de la región del kernel
const programaViolaciones = `
.text
main:
    SYSCALL FORK
    JZ r0, divide
    SYSCALL FORK
    JZ r0, escribe_texto
    SYSCALL FORK
    JZ r0, lee_kernel
    LOADI r7, 0
    LOADI r6, 3
esperar:
    LOADI r0, estado
    SYSCALL WAIT
    LOADI r1, estado
    LOAD r2, r1, 0
    ADD r7, r7, r2
    ADDI r6, r6, -1
    JNZ r6, esperar
    MOV r0, r7
    SYSCALL EXIT
divide:
    LOADI r1, 1
    LOADI r2, 0
    DIV r3, r1, r2
    LOADI r0, 5
    SYSCALL EXIT
escribe_texto:
    LOADI r1, main
    STORE r1, r1, 0
    LOADI r0, 5
    SYSCALL EXIT
lee_kernel:
    LOADI r1, 100
    LOAD r2, r1, 0
    LOADI r0, 5
    SYSCALL EXIT
.data
estado: .word 0
`

func TestViolacionesMatanAlProceso(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaViolaciones}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, -3)
	assert.Len(t, s.k.Salidas(), 4)
	assert.Len(t, s.k.procesos, 2, "quedan init e idle")
	verificarMarcos(t, s.k)
}

func TestTtyReadEsperaUnaLinea(t *testing.T) {
	hw := hardware.Config{RetardoTick: time.Millisecond}
	s := nuevoSistema(t, hw, nil, map[int][]string{1: {"hola\n"}})

	bloqueado := make(chan bool, 1)
	volcado := make(chan error, 1)
	go func() {
		defer s.tty[1].Tipear("\n")
		for i := 0; i < 400; i++ {
			e, err := s.k.Inspeccionar()
			if err == nil && slices.Contains(e.Colas["TTY_READ_1"], pidRaiz) {
				bloqueado <- true
				_, err := s.k.SolicitarVolcado(pidRaiz)
				volcado <- err
				s.tty[1].Tipear("chau\n")
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		bloqueado <- false
		volcado <- nil
	}()

	d := s.ejecutar(t, "eco")

	terminoNormal(t, d, 0)
	require.True(t, <-bloqueado, "eco nunca esperó en la terminal")
	assert.NoError(t, <-volcado)
	assert.Equal(t, "hola\nchau\n", s.tty[1].Salida())
}

const programaEscrituraLarga = `
.text
main:
    LOADI r0, 0
    LOADI r1, buffer
    LOADI r2, 300
    SYSCALL TTY_WRITE
    SYSCALL EXIT
.data
buffer: .space 300
`

func TestTtyWriteEnTramos(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaEscrituraLarga}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, 300)
	var largos []int
	for _, tx := range s.tty[0].Transmisiones() {
		largos = append(largos, len(tx))
	}
	assert.Equal(t, []int{128, 128, 44}, largos)
}

func programaDosEscritores(largo int) string {
	return fmt.Sprintf(`
.text
main:
    SYSCALL FORK
    JZ r0, hijo
    LOADI r0, 0
    LOADI r1, letras_a
    LOADI r2, %[1]d
    SYSCALL TTY_WRITE
    MOV r7, r0
    LOADI r0, estado
    SYSCALL WAIT
    LOADI r1, estado
    LOAD r1, r1, 0
    ADD r0, r7, r1
    SYSCALL EXIT
hijo:
    LOADI r0, 0
    LOADI r1, letras_b
    LOADI r2, %[1]d
    SYSCALL TTY_WRITE
    SYSCALL EXIT
.data
estado:   .word 0
letras_a: .ascii "%[2]s"
letras_b: .ascii "%[3]s"
`, largo, strings.Repeat("a", largo), strings.Repeat("b", largo))
}

func TestTtyWriteNoIntercalaProcesos(t *testing.T) {
	hw := hardware.Config{LargoMaxLinea: 16}
	s := nuevoSistema(t, hw, map[string]string{"prueba": programaDosEscritores(40)}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, 80)
	assert.Equal(t, strings.Repeat("a", 40)+strings.Repeat("b", 40), s.tty[0].Salida())
	for _, tx := range s.tty[0].Transmisiones() {
		assert.LessOrEqual(t, len(tx), 16)
	}
}

const programaTtyInvalido = `
.text
main:
    LOADI r0, 9
    LOADI r1, buffer
    LOADI r2, 4
    SYSCALL TTY_READ
    MOV r7, r0
    LOADI r0, 0
    LOADI r1, buffer
    LOADI r2, 500
    SYSCALL TTY_READ        ; más que una línea
    ADD r7, r7, r0
    LOADI r0, 0
    LOADI r1, buffer
    LOADI r2, -1
    SYSCALL TTY_WRITE
    ADD r7, r7, r0
    LOADI r0, 0
    LOADI r1, 100
    LOADI r2, 4
    SYSCALL TTY_WRITE
    ADD r7, r7, r0
    LOADI r0, 0
    LOADI r1, buffer
    LOADI r2, 0
    SYSCALL TTY_WRITE
    ADD r0, r7, r0
    SYSCALL EXIT
.data
buffer: .space 16
`

func TestTtyArgumentosInvalidos(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, map[string]string{"prueba": programaTtyInvalido}, nil)

	d := s.ejecutar(t, "prueba")

	terminoNormal(t, d, -4)
	assert.Empty(t, s.tty[0].Transmisiones())
}

func TestProgramaInicialInexistente(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, nil, nil)

	d := s.ejecutar(t, "noexiste")

	assert.Equal(t, hardware.DetencionErrorKernel, d.Tipo)
}

func TestProgramasIncluidos(t *testing.T) {
	s := nuevoSistema(t, hardware.Config{}, nil, nil)

	d := s.ejecutar(t, "init")

	terminoNormal(t, d, 0)
	salida := s.tty[0].Salida()
	assert.Contains(t, salida, "hola desde init\n")
	assert.Contains(t, salida, "mensaje por tuberia\n")
	verificarMarcos(t, s.k)
}
