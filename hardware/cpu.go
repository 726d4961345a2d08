package hardware

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"
)

// paso ejecuta una instrucción de usuario: fetch, decode y execute. Devuelve
// el trap sincrónico que haya provocado, o nil. Una instrucción que falla no
// modifica registros ni PC, así puede reintentarse tras atender el trap.
func (m *Maquina) paso(uc *ContextoUsuario) *Trap {
	// Fetch
	var crudo [TamInstruccion]byte
	if f := m.acceder(uc.PC, crudo[:], ProtEjecucion, false, false); f != nil {
		return f.trap()
	}
	ins := Decodificar(crudo[:])
	m.ciclos++

	if m.traza.IsLevelEnabled(logrus.TraceLevel) {
		m.traza.WithField("pc", uc.PC).Trace(ins.String())
	}

	if !registrosValidos(ins) {
		return &Trap{Tipo: TrapIlegal, Codigo: int(ins.Op), Dir: uc.PC}
	}

	// Decode y Execute
	siguiente := uc.PC + TamInstruccion
	switch ins.Op {
	case OpNop:

	case OpLoadI:
		uc.fijarRegistro(ins.A, ins.Imm)

	case OpMov:
		uc.fijarRegistro(ins.A, uc.registro(ins.B))

	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		b, c := uc.registro(ins.B), uc.registro(ins.C)
		var r int32
		switch ins.Op {
		case OpAdd:
			r = b + c
		case OpSub:
			r = b - c
		case OpMul:
			r = b * c
		case OpDiv, OpMod:
			if c == 0 {
				return &Trap{Tipo: TrapMatematica, Codigo: int(ins.Op), Dir: uc.PC}
			}
			if ins.Op == OpDiv {
				r = b / c
			} else {
				r = b % c
			}
		}
		uc.fijarRegistro(ins.A, r)

	case OpAddI:
		uc.fijarRegistro(ins.A, uc.registro(ins.B)+ins.Imm)

	case OpLoad:
		var buf [4]byte
		if f := m.acceder(int(uc.registro(ins.B)+ins.Imm), buf[:], ProtLectura, false, false); f != nil {
			return f.trap()
		}
		uc.fijarRegistro(ins.A, int32(binary.LittleEndian.Uint32(buf[:])))

	case OpStore:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(uc.registro(ins.A)))
		if f := m.acceder(int(uc.registro(ins.B)+ins.Imm), buf[:], ProtEscritura, true, false); f != nil {
			return f.trap()
		}

	case OpLoadB:
		var buf [1]byte
		if f := m.acceder(int(uc.registro(ins.B)+ins.Imm), buf[:], ProtLectura, false, false); f != nil {
			return f.trap()
		}
		uc.fijarRegistro(ins.A, int32(buf[0]))

	case OpStoreB:
		buf := [1]byte{byte(uc.registro(ins.A))}
		if f := m.acceder(int(uc.registro(ins.B)+ins.Imm), buf[:], ProtEscritura, true, false); f != nil {
			return f.trap()
		}

	case OpPush:
		if t := m.apilar(uc, uc.registro(ins.A)); t != nil {
			return t
		}

	case OpPop:
		v, t := m.desapilar(uc)
		if t != nil {
			return t
		}
		uc.fijarRegistro(ins.A, v)

	case OpJmp:
		siguiente = int(ins.Imm)

	case OpJz:
		if uc.registro(ins.A) == 0 {
			siguiente = int(ins.Imm)
		}

	case OpJnz:
		if uc.registro(ins.A) != 0 {
			siguiente = int(ins.Imm)
		}

	case OpJlt:
		if uc.registro(ins.A) < uc.registro(ins.B) {
			siguiente = int(ins.Imm)
		}

	case OpCall:
		if t := m.apilar(uc, int32(siguiente)); t != nil {
			return t
		}
		siguiente = int(ins.Imm)

	case OpRet:
		v, t := m.desapilar(uc)
		if t != nil {
			return t
		}
		siguiente = int(v)

	case OpSyscall:
		uc.PC = siguiente
		return &Trap{Tipo: TrapKernel, Codigo: int(ins.Imm)}

	case OpPause:
		uc.PC = siguiente
		m.esperarInterrupcion()
		return nil

	default:
		return &Trap{Tipo: TrapIlegal, Codigo: int(ins.Op), Dir: uc.PC}
	}

	uc.PC = siguiente
	return nil
}

func (m *Maquina) apilar(uc *ContextoUsuario, v int32) *Trap {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	nuevoSP := uc.SP - 4
	if f := m.acceder(nuevoSP, buf[:], ProtEscritura, true, false); f != nil {
		return f.trap()
	}
	uc.SP = nuevoSP
	return nil
}

func (m *Maquina) desapilar(uc *ContextoUsuario) (int32, *Trap) {
	var buf [4]byte
	if f := m.acceder(uc.SP, buf[:], ProtLectura, false, false); f != nil {
		return 0, f.trap()
	}
	uc.SP += 4
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func registrosValidos(ins Instruccion) bool {
	return ins.A <= RegistroSP && ins.B <= RegistroSP && ins.C <= RegistroSP
}
