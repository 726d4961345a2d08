package hardware

import (
	"encoding/binary"
	"fmt"
)

const (
	CantidadRegistros = 8
	RegistroSP        = CantidadRegistros // Índice de operando que designa al stack pointer

	// Vector, código, dirección, PC, SP y los registros generales, 4 bytes cada uno
	TamContexto = (5 + CantidadRegistros) * 4
)

// ContextoUsuario es el estado de registros de un proceso en modo usuario,
// tal como lo ve el kernel al entrar un trap
type ContextoUsuario struct {
	Vector int
	Codigo int
	Dir    int
	PC     int
	SP     int
	Regs   [CantidadRegistros]int32
}

// Codificar serializa el contexto en buf (al menos TamContexto bytes)
func (uc *ContextoUsuario) Codificar(buf []byte) {
	le := binary.LittleEndian
	le.PutUint32(buf[0:], uint32(int32(uc.Vector)))
	le.PutUint32(buf[4:], uint32(int32(uc.Codigo)))
	le.PutUint32(buf[8:], uint32(int32(uc.Dir)))
	le.PutUint32(buf[12:], uint32(int32(uc.PC)))
	le.PutUint32(buf[16:], uint32(int32(uc.SP)))
	for i, r := range uc.Regs {
		le.PutUint32(buf[20+4*i:], uint32(r))
	}
}

// Decodificar reconstruye el contexto desde buf
func (uc *ContextoUsuario) Decodificar(buf []byte) {
	le := binary.LittleEndian
	uc.Vector = int(int32(le.Uint32(buf[0:])))
	uc.Codigo = int(int32(le.Uint32(buf[4:])))
	uc.Dir = int(int32(le.Uint32(buf[8:])))
	uc.PC = int(int32(le.Uint32(buf[12:])))
	uc.SP = int(int32(le.Uint32(buf[16:])))
	for i := range uc.Regs {
		uc.Regs[i] = int32(le.Uint32(buf[20+4*i:]))
	}
}

func (uc *ContextoUsuario) String() string {
	return fmt.Sprintf("PC=%#x SP=%#x R=%v", uc.PC, uc.SP, uc.Regs)
}

// registro lee un operando de registro (0..7 o sp)
func (uc *ContextoUsuario) registro(i uint8) int32 {
	if i == RegistroSP {
		return int32(uc.SP)
	}
	return uc.Regs[i]
}

func (uc *ContextoUsuario) fijarRegistro(i uint8, v int32) {
	if i == RegistroSP {
		uc.SP = int(v)
		return
	}
	uc.Regs[i] = v
}
