package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevaMaquinaPrueba(t *testing.T, cfg Config) *Maquina {
	t.Helper()
	m, err := NuevaMaquina(cfg)
	require.NoError(t, err)
	return m
}

// cargar escribe las instrucciones en memoria física desde la dirección 0.
// Con la memoria virtual deshabilitada la CPU las ejecuta desde ahí.
func cargar(m *Maquina, programa ...Instruccion) {
	buf := make([]byte, TamInstruccion)
	for i, ins := range programa {
		ins.Codificar(buf)
		copy(m.memoria[i*TamInstruccion:], buf)
	}
}

func pasos(t *testing.T, m *Maquina, uc *ContextoUsuario, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.Nil(t, m.paso(uc), "instrucción %d", i)
	}
}

func TestPasoAritmetica(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{})
	cargar(m,
		Instruccion{Op: OpLoadI, A: 1, Imm: 17},
		Instruccion{Op: OpLoadI, A: 2, Imm: 5},
		Instruccion{Op: OpSub, A: 3, B: 1, C: 2},
		Instruccion{Op: OpMul, A: 4, B: 3, C: 2},
		Instruccion{Op: OpDiv, A: 5, B: 1, C: 2},
		Instruccion{Op: OpMod, A: 6, B: 1, C: 2},
		Instruccion{Op: OpAddI, A: 7, B: 6, Imm: -10},
		Instruccion{Op: OpMov, A: 0, B: 7},
	)

	var uc ContextoUsuario
	pasos(t, m, &uc, 8)

	assert.Equal(t, int32(12), uc.Regs[3])
	assert.Equal(t, int32(60), uc.Regs[4])
	assert.Equal(t, int32(3), uc.Regs[5])
	assert.Equal(t, int32(2), uc.Regs[6])
	assert.Equal(t, int32(-8), uc.Regs[0])
	assert.Equal(t, 8*TamInstruccion, uc.PC)
	assert.Equal(t, int64(8), m.Ciclos())
}

func TestDivisionPorCeroNoAvanza(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{})
	cargar(m,
		Instruccion{Op: OpLoadI, A: 1, Imm: 9},
		Instruccion{Op: OpDiv, A: 3, B: 1, C: 2},
	)

	uc := ContextoUsuario{}
	pasos(t, m, &uc, 1)
	trap := m.paso(&uc)

	require.NotNil(t, trap)
	assert.Equal(t, TrapMatematica, trap.Tipo)
	assert.Equal(t, TamInstruccion, uc.PC, "el PC queda en la instrucción que falló")
	assert.Equal(t, int32(0), uc.Regs[3])
}

func TestInstruccionIlegal(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{})
	cargar(m,
		Instruccion{Op: 0xEE},
		Instruccion{Op: OpMov, A: 9, B: 0},
	)

	uc := ContextoUsuario{}
	trap := m.paso(&uc)
	require.NotNil(t, trap)
	assert.Equal(t, TrapIlegal, trap.Tipo)
	assert.Equal(t, 0xEE, trap.Codigo)

	uc.PC = TamInstruccion
	trap = m.paso(&uc)
	require.NotNil(t, trap)
	assert.Equal(t, TrapIlegal, trap.Tipo, "registro fuera de rango")
}

func TestLlamadaYRetorno(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{})
	cargar(m,
		Instruccion{Op: OpCall, Imm: 3 * TamInstruccion},
		Instruccion{Op: OpLoadI, A: 2, Imm: 2},
		Instruccion{Op: OpNop},
		Instruccion{Op: OpLoadI, A: 1, Imm: 1},
		Instruccion{Op: OpPush, A: 1},
		Instruccion{Op: OpPop, A: 3},
		Instruccion{Op: OpRet},
	)

	uc := ContextoUsuario{SP: 4096}
	pasos(t, m, &uc, 5)

	assert.Equal(t, TamInstruccion, uc.PC, "RET vuelve a la instrucción siguiente al CALL")
	assert.Equal(t, 4096, uc.SP)
	assert.Equal(t, int32(1), uc.Regs[3])

	pasos(t, m, &uc, 1)
	assert.Equal(t, int32(2), uc.Regs[2])
}

func TestSaltosCondicionales(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{})
	cargar(m,
		Instruccion{Op: OpLoadI, A: 1, Imm: 3},
		Instruccion{Op: OpAddI, A: 1, B: 1, Imm: -1},
		Instruccion{Op: OpAddI, A: 2, B: 2, Imm: 10},
		Instruccion{Op: OpJnz, A: 1, Imm: TamInstruccion},
		Instruccion{Op: OpJlt, A: 1, B: 2, Imm: 6 * TamInstruccion},
		Instruccion{Op: OpLoadI, A: 7, Imm: 99},
		Instruccion{Op: OpJz, A: 1, Imm: 0},
	)

	uc := ContextoUsuario{}
	// LOADI + 3 vueltas de 3 instrucciones + JLT + JZ
	pasos(t, m, &uc, 1+3*3+2)

	assert.Equal(t, int32(30), uc.Regs[2])
	assert.Equal(t, int32(0), uc.Regs[7], "JLT saltea el LOADI")
	assert.Equal(t, 0, uc.PC)
}

func TestSyscallAvanzaElPC(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{})
	cargar(m, Instruccion{Op: OpSyscall, Imm: SyscallGetPid})

	uc := ContextoUsuario{}
	trap := m.paso(&uc)

	require.NotNil(t, trap)
	assert.Equal(t, Trap{Tipo: TrapKernel, Codigo: SyscallGetPid}, *trap)
	assert.Equal(t, TamInstruccion, uc.PC)
}

func TestMarcoTrap(t *testing.T) {
	m := nuevaMaquinaPrueba(t, Config{})
	uc := ContextoUsuario{Vector: TrapKernel, Codigo: 22, Dir: 0x2100, PC: 0x2008, SP: 0x3ffc}
	uc.Regs[0] = -1
	uc.Regs[7] = 1234

	require.NoError(t, m.EscribirMarcoTrap(&uc))

	var leido ContextoUsuario
	require.NoError(t, m.LeerMarcoTrap(&leido))
	assert.Equal(t, uc, leido)
}

func TestInstruccionString(t *testing.T) {
	assert.Equal(t, "LOAD r1, sp, 8", Instruccion{Op: OpLoad, A: 1, B: RegistroSP, Imm: 8}.String())
	assert.Equal(t, "SYSCALL 3", Instruccion{Op: OpSyscall, Imm: 3}.String())
	assert.Equal(t, "?0xee", Instruccion{Op: 0xEE}.String())
}
