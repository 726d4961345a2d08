package hardware

import "strings"

// Proteccion son los permisos de una página
type Proteccion uint8

const (
	ProtLectura   Proteccion = 1 << iota
	ProtEscritura
	ProtEjecucion

	ProtNinguna Proteccion = 0
)

func (p Proteccion) String() string {
	var b strings.Builder
	for _, par := range []struct {
		bit   Proteccion
		letra byte
	}{{ProtLectura, 'R'}, {ProtEscritura, 'W'}, {ProtEjecucion, 'X'}} {
		if p&par.bit != 0 {
			b.WriteByte(par.letra)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// EntradaTabla representa una entrada de tabla de páginas
type EntradaTabla struct {
	Valido     bool
	Proteccion Proteccion
	Marco      int
}

// TablaPaginas es una tabla de páginas de una región
type TablaPaginas []EntradaTabla

// NuevaTabla crea una tabla con todas las entradas inválidas
func NuevaTabla(entradas int) TablaPaginas {
	return make(TablaPaginas, entradas)
}

// LeerMarco copia a dst el contenido físico del marco a partir de desplazamiento
func (m *Maquina) LeerMarco(marco, desplazamiento int, dst []byte) {
	inicio := marco*m.cfg.TamPagina + desplazamiento
	copy(dst, m.memoria[inicio:inicio+len(dst)])
}

// EscribirMarco escribe src en el marco a partir de desplazamiento
func (m *Maquina) EscribirMarco(marco, desplazamiento int, src []byte) {
	inicio := marco*m.cfg.TamPagina + desplazamiento
	copy(m.memoria[inicio:inicio+len(src)], src)
}

// LimpiarMarco pone en cero un marco completo
func (m *Maquina) LimpiarMarco(marco int) {
	inicio := marco * m.cfg.TamPagina
	clear(m.memoria[inicio : inicio+m.cfg.TamPagina])
}

// CopiarMarco duplica el contenido físico de un marco en otro
func (m *Maquina) CopiarMarco(origen, destino int) {
	tam := m.cfg.TamPagina
	copy(m.memoria[destino*tam:(destino+1)*tam], m.memoria[origen*tam:(origen+1)*tam])
}
