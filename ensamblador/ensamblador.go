// Package ensamblador traduce los programas de usuario, escritos en un
// lenguaje ensamblador orientado a líneas, a una imagen cargable en la
// región de usuario de la máquina.
package ensamblador

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
)

// Imagen es un programa ensamblado, con direcciones absolutas ya resueltas
type Imagen struct {
	Texto     []byte         // Instrucciones codificadas, a partir de BaseTexto
	Datos     []byte         // Datos inicializados, a partir de BaseDatos
	BaseTexto int
	BaseDatos int
	Entrada   int            // Dirección de la primera instrucción a ejecutar
	Simbolos  map[string]int // Etiqueta -> dirección
}

// ErrorEnsamblado indica la línea del fuente que no pudo traducirse
type ErrorEnsamblado struct {
	Linea   int
	Mensaje string
}

func (e *ErrorEnsamblado) Error() string {
	return fmt.Sprintf("línea %d: %s", e.Linea, e.Mensaje)
}

type seccion int

const (
	seccionTexto seccion = iota
	seccionDatos
)

// sentencia es una instrucción o directiva ya separada en partes
type sentencia struct {
	linea          int
	seccion        seccion
	nombre         string // Mnemónico o directiva
	operandos      []string
	cadena         []byte // Contenido de .ascii/.asciz
	desplazamiento int    // Dentro de su sección
	tam            int
}

// Ensamblar traduce fuente ubicando el texto en base y los datos en la
// primera página siguiente al texto
func Ensamblar(fuente string, base int, tamPagina int) (*Imagen, error) {
	sentencias, etiquetas, tamTexto, tamDatos, err := analizar(fuente)
	if err != nil {
		return nil, err
	}

	img := &Imagen{
		Texto:     make([]byte, tamTexto),
		Datos:     make([]byte, tamDatos),
		BaseTexto: base,
		BaseDatos: base + redondearPagina(tamTexto, tamPagina),
		Simbolos:  make(map[string]int, len(etiquetas)),
	}
	for nombre, e := range etiquetas {
		if e.seccion == seccionTexto {
			img.Simbolos[nombre] = img.BaseTexto + e.desplazamiento
		} else {
			img.Simbolos[nombre] = img.BaseDatos + e.desplazamiento
		}
	}

	img.Entrada = img.BaseTexto
	if dir, ok := img.Simbolos["main"]; ok {
		img.Entrada = dir
	}

	for _, s := range sentencias {
		if s.seccion == seccionTexto {
			err = img.emitirInstruccion(s)
		} else {
			err = img.emitirDato(s)
		}
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}

type etiqueta struct {
	seccion        seccion
	desplazamiento int
}

// analizar hace la primera pasada: separa sentencias, calcula tamaños y
// ubica las etiquetas
func analizar(fuente string) ([]sentencia, map[string]etiqueta, int, int, error) {
	var sentencias []sentencia
	etiquetas := make(map[string]etiqueta)
	actual := seccionTexto
	tam := [2]int{}

	for i, cruda := range strings.Split(fuente, "\n") {
		nro := i + 1
		linea := strings.TrimSpace(quitarComentario(cruda))

		// Etiquetas al comienzo de la línea, puede haber varias
		for {
			pos := strings.Index(linea, ":")
			if pos <= 0 || strings.ContainsAny(linea[:pos], " \t\",") {
				break
			}
			nombre := linea[:pos]
			if !esIdentificador(nombre) {
				return nil, nil, 0, 0, &ErrorEnsamblado{nro, fmt.Sprintf("etiqueta inválida %q", nombre)}
			}
			if _, repetida := etiquetas[nombre]; repetida {
				return nil, nil, 0, 0, &ErrorEnsamblado{nro, fmt.Sprintf("etiqueta repetida %q", nombre)}
			}
			etiquetas[nombre] = etiqueta{seccion: actual, desplazamiento: tam[actual]}
			linea = strings.TrimSpace(linea[pos+1:])
		}
		if linea == "" {
			continue
		}

		nombre, resto := linea, ""
		if pos := strings.IndexAny(linea, " \t"); pos >= 0 {
			nombre, resto = linea[:pos], strings.TrimSpace(linea[pos+1:])
		}
		nombre = strings.ToUpper(nombre)

		switch nombre {
		case ".TEXT":
			actual = seccionTexto
			continue
		case ".DATA":
			actual = seccionDatos
			continue
		}

		s := sentencia{linea: nro, seccion: actual, nombre: nombre, desplazamiento: tam[actual]}
		switch {
		case actual == seccionTexto:
			if strings.HasPrefix(nombre, ".") {
				return nil, nil, 0, 0, &ErrorEnsamblado{nro, fmt.Sprintf("directiva %s fuera de .data", nombre)}
			}
			s.operandos = separarOperandos(resto)
			s.tam = hardware.TamInstruccion

		case nombre == ".WORD":
			s.operandos = separarOperandos(resto)
			if len(s.operandos) == 0 {
				return nil, nil, 0, 0, &ErrorEnsamblado{nro, ".word sin valores"}
			}
			s.tam = 4 * len(s.operandos)

		case nombre == ".ASCII" || nombre == ".ASCIZ":
			cadena, err := interpretarCadena(resto)
			if err != nil {
				return nil, nil, 0, 0, &ErrorEnsamblado{nro, err.Error()}
			}
			if nombre == ".ASCIZ" {
				cadena = append(cadena, 0)
			}
			s.cadena = cadena
			s.tam = len(cadena)

		case nombre == ".SPACE":
			n, err := strconv.Atoi(resto)
			if err != nil || n < 0 {
				return nil, nil, 0, 0, &ErrorEnsamblado{nro, fmt.Sprintf(".space con tamaño inválido %q", resto)}
			}
			s.tam = n

		default:
			return nil, nil, 0, 0, &ErrorEnsamblado{nro, fmt.Sprintf("directiva desconocida %s", nombre)}
		}

		tam[actual] += s.tam
		sentencias = append(sentencias, s)
	}

	return sentencias, etiquetas, tam[seccionTexto], tam[seccionDatos], nil
}

func (img *Imagen) emitirInstruccion(s sentencia) error {
	op, ok := hardware.BuscarOperacion(s.nombre)
	if !ok {
		return &ErrorEnsamblado{s.linea, fmt.Sprintf("instrucción desconocida %s", s.nombre)}
	}

	esperados := map[hardware.Formato]int{
		hardware.FormatoNada:  0,
		hardware.FormatoA:     1,
		hardware.FormatoAImm:  2,
		hardware.FormatoAB:    2,
		hardware.FormatoABC:   3,
		hardware.FormatoABImm: 3,
		hardware.FormatoImm:   1,
	}[op.Formato]
	if len(s.operandos) != esperados {
		return &ErrorEnsamblado{s.linea, fmt.Sprintf("%s espera %d operandos, tiene %d", s.nombre, esperados, len(s.operandos))}
	}

	ins := hardware.Instruccion{Op: op.Codigo}
	var err error
	reg := func(i int) uint8 {
		if err != nil {
			return 0
		}
		var r uint8
		r, err = registro(s.operandos[i])
		return r
	}
	inm := func(i int) int32 {
		if err != nil {
			return 0
		}
		var v int32
		v, err = img.valor(s.operandos[i], op.Codigo == hardware.OpSyscall)
		return v
	}

	switch op.Formato {
	case hardware.FormatoA:
		ins.A = reg(0)
	case hardware.FormatoAImm:
		ins.A, ins.Imm = reg(0), inm(1)
	case hardware.FormatoAB:
		ins.A, ins.B = reg(0), reg(1)
	case hardware.FormatoABC:
		ins.A, ins.B, ins.C = reg(0), reg(1), reg(2)
	case hardware.FormatoABImm:
		ins.A, ins.B, ins.Imm = reg(0), reg(1), inm(2)
	case hardware.FormatoImm:
		ins.Imm = inm(0)
	}
	if err != nil {
		return &ErrorEnsamblado{s.linea, err.Error()}
	}

	ins.Codificar(img.Texto[s.desplazamiento:])
	return nil
}

func (img *Imagen) emitirDato(s sentencia) error {
	switch s.nombre {
	case ".WORD":
		for i, operando := range s.operandos {
			v, err := img.valor(operando, false)
			if err != nil {
				return &ErrorEnsamblado{s.linea, err.Error()}
			}
			pos := s.desplazamiento + 4*i
			img.Datos[pos] = byte(v)
			img.Datos[pos+1] = byte(v >> 8)
			img.Datos[pos+2] = byte(v >> 16)
			img.Datos[pos+3] = byte(v >> 24)
		}
	case ".ASCII", ".ASCIZ":
		copy(img.Datos[s.desplazamiento:], s.cadena)
	}
	return nil
}

// valor interpreta un inmediato: número, carácter entre comillas simples,
// etiqueta o, para SYSCALL, el nombre de la llamada
func (img *Imagen) valor(operando string, esSyscall bool) (int32, error) {
	if esSyscall {
		if n, ok := hardware.Syscalls[strings.ToUpper(operando)]; ok {
			return int32(n), nil
		}
	}
	if len(operando) == 3 && operando[0] == '\'' && operando[2] == '\'' {
		return int32(operando[1]), nil
	}
	if n, err := strconv.ParseInt(operando, 0, 32); err == nil {
		return int32(n), nil
	}
	if dir, ok := img.Simbolos[operando]; ok {
		return int32(dir), nil
	}
	return 0, fmt.Errorf("valor desconocido %q", operando)
}

func registro(operando string) (uint8, error) {
	o := strings.ToLower(operando)
	if o == "sp" {
		return hardware.RegistroSP, nil
	}
	if len(o) == 2 && o[0] == 'r' && o[1] >= '0' && o[1] < '0'+hardware.CantidadRegistros {
		return o[1] - '0', nil
	}
	return 0, fmt.Errorf("registro inválido %q", operando)
}

func separarOperandos(resto string) []string {
	if resto == "" {
		return nil
	}
	partes := strings.Split(resto, ",")
	for i := range partes {
		partes[i] = strings.TrimSpace(partes[i])
	}
	return partes
}

func quitarComentario(linea string) string {
	enCadena, enCaracter := false, false
	for i := 0; i < len(linea); i++ {
		switch c := linea[i]; {
		case c == '\\' && (enCadena || enCaracter):
			i++
		case c == '"' && !enCaracter:
			enCadena = !enCadena
		case c == '\'' && !enCadena:
			enCaracter = !enCaracter
		case (c == ';' || c == '#') && !enCadena && !enCaracter:
			return linea[:i]
		}
	}
	return linea
}

func interpretarCadena(literal string) ([]byte, error) {
	if len(literal) < 2 || literal[0] != '"' || literal[len(literal)-1] != '"' {
		return nil, fmt.Errorf("cadena mal formada %s", literal)
	}
	texto, err := strconv.Unquote(literal)
	if err != nil {
		return nil, fmt.Errorf("cadena mal formada %s: %v", literal, err)
	}
	return []byte(texto), nil
}

func esIdentificador(s string) bool {
	for i, c := range s {
		letra := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digito := c >= '0' && c <= '9'
		if !letra && !(digito && i > 0) {
			return false
		}
	}
	return s != ""
}

func redondearPagina(n, tamPagina int) int {
	return (n + tamPagina - 1) / tamPagina * tamPagina
}
