package hardware

import (
	"encoding/binary"
	"fmt"
)

// TamInstruccion es el ancho fijo de toda instrucción: op, a, b, c, inmediato de 32 bits
const TamInstruccion = 8

// Códigos de operación
const (
	OpNop     uint8 = 0x00
	OpLoadI   uint8 = 0x01
	OpMov     uint8 = 0x02
	OpAdd     uint8 = 0x03
	OpSub     uint8 = 0x04
	OpMul     uint8 = 0x05
	OpDiv     uint8 = 0x06
	OpMod     uint8 = 0x07
	OpAddI    uint8 = 0x08
	OpLoad    uint8 = 0x10
	OpStore   uint8 = 0x11
	OpLoadB   uint8 = 0x12
	OpStoreB  uint8 = 0x13
	OpPush    uint8 = 0x14
	OpPop     uint8 = 0x15
	OpJmp     uint8 = 0x20
	OpJz      uint8 = 0x21
	OpJnz     uint8 = 0x22
	OpJlt     uint8 = 0x23
	OpCall    uint8 = 0x24
	OpRet     uint8 = 0x25
	OpSyscall uint8 = 0x30
	OpPause   uint8 = 0x31
)

// Formato indica qué operandos lleva una instrucción en el código fuente
type Formato int

const (
	FormatoNada  Formato = iota // NOP
	FormatoA                    // PUSH a
	FormatoAImm                 // LOADI a, imm
	FormatoAB                   // MOV a, b
	FormatoABC                  // ADD a, b, c
	FormatoABImm                // LOAD a, b, imm
	FormatoImm                  // JMP imm
)

// Operacion describe una instrucción del repertorio
type Operacion struct {
	Codigo  uint8
	Nombre  string
	Formato Formato
}

var repertorio = []Operacion{
	{OpNop, "NOP", FormatoNada},
	{OpLoadI, "LOADI", FormatoAImm},
	{OpMov, "MOV", FormatoAB},
	{OpAdd, "ADD", FormatoABC},
	{OpSub, "SUB", FormatoABC},
	{OpMul, "MUL", FormatoABC},
	{OpDiv, "DIV", FormatoABC},
	{OpMod, "MOD", FormatoABC},
	{OpAddI, "ADDI", FormatoABImm},
	{OpLoad, "LOAD", FormatoABImm},
	{OpStore, "STORE", FormatoABImm},
	{OpLoadB, "LOADB", FormatoABImm},
	{OpStoreB, "STOREB", FormatoABImm},
	{OpPush, "PUSH", FormatoA},
	{OpPop, "POP", FormatoA},
	{OpJmp, "JMP", FormatoImm},
	{OpJz, "JZ", FormatoAImm},
	{OpJnz, "JNZ", FormatoAImm},
	{OpJlt, "JLT", FormatoABImm},
	{OpCall, "CALL", FormatoImm},
	{OpRet, "RET", FormatoNada},
	{OpSyscall, "SYSCALL", FormatoImm},
	{OpPause, "PAUSE", FormatoNada},
}

var (
	porNombre = make(map[string]Operacion)
	porCodigo = make(map[uint8]Operacion)
)

func init() {
	for _, op := range repertorio {
		porNombre[op.Nombre] = op
		porCodigo[op.Codigo] = op
	}
}

// BuscarOperacion devuelve la operación de un mnemónico
func BuscarOperacion(nombre string) (Operacion, bool) {
	op, ok := porNombre[nombre]
	return op, ok
}

// Instruccion es una instrucción decodificada
type Instruccion struct {
	Op  uint8
	A   uint8
	B   uint8
	C   uint8
	Imm int32
}

// Codificar escribe la instrucción en buf (TamInstruccion bytes)
func (i Instruccion) Codificar(buf []byte) {
	buf[0] = i.Op
	buf[1] = i.A
	buf[2] = i.B
	buf[3] = i.C
	binary.LittleEndian.PutUint32(buf[4:], uint32(i.Imm))
}

// Decodificar interpreta TamInstruccion bytes como instrucción
func Decodificar(buf []byte) Instruccion {
	return Instruccion{
		Op:  buf[0],
		A:   buf[1],
		B:   buf[2],
		C:   buf[3],
		Imm: int32(binary.LittleEndian.Uint32(buf[4:])),
	}
}

func (i Instruccion) String() string {
	op, ok := porCodigo[i.Op]
	if !ok {
		return fmt.Sprintf("?%#02x", i.Op)
	}
	switch op.Formato {
	case FormatoA:
		return fmt.Sprintf("%s %s", op.Nombre, nombreRegistro(i.A))
	case FormatoAImm:
		return fmt.Sprintf("%s %s, %d", op.Nombre, nombreRegistro(i.A), i.Imm)
	case FormatoAB:
		return fmt.Sprintf("%s %s, %s", op.Nombre, nombreRegistro(i.A), nombreRegistro(i.B))
	case FormatoABC:
		return fmt.Sprintf("%s %s, %s, %s", op.Nombre, nombreRegistro(i.A), nombreRegistro(i.B), nombreRegistro(i.C))
	case FormatoABImm:
		return fmt.Sprintf("%s %s, %s, %d", op.Nombre, nombreRegistro(i.A), nombreRegistro(i.B), i.Imm)
	case FormatoImm:
		return fmt.Sprintf("%s %d", op.Nombre, i.Imm)
	}
	return op.Nombre
}

func nombreRegistro(r uint8) string {
	if r == RegistroSP {
		return "sp"
	}
	return fmt.Sprintf("r%d", r)
}
