package kernel

import (
	"encoding/binary"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
)

// verificarPagina indica si dir cae en una página válida de p con todos los permisos de prot
func (k *Kernel) verificarPagina(p *PCB, dir int, prot hardware.Proteccion) bool {
	if !k.enRegion1(dir) {
		return false
	}
	e := p.TablaUsuario[k.indicePagina(dir)]
	return e.Valido && e.Proteccion&prot == prot
}

// verificarBuffer controla que los largo bytes desde dir sean accesibles con
// prot. Con largo cero sólo se controla dir.
func (k *Kernel) verificarBuffer(p *PCB, dir, largo int, prot hardware.Proteccion) bool {
	if largo < 0 {
		return false
	}
	if !k.verificarPagina(p, dir, prot) {
		return false
	}
	if largo == 0 {
		return true
	}
	ultimo := dir + largo - 1
	tam := k.hw.TamPagina
	for pag := k.indicePagina(dir) + 1; pag <= k.indicePagina(ultimo); pag++ {
		if !k.verificarPagina(p, k.hw.BaseRegion1()+pag*tam, prot) {
			return false
		}
	}
	return k.enRegion1(ultimo)
}

// verificarCadena lee una cadena terminada en NUL de a un byte, controlando
// cada página. Falla si no termina dentro de max bytes.
func (k *Kernel) verificarCadena(p *PCB, dir int, max int) (string, bool) {
	var b [1]byte
	texto := make([]byte, 0, 16)
	for i := 0; i <= max; i++ {
		if !k.verificarPagina(p, dir+i, hardware.ProtLectura) {
			return "", false
		}
		if err := k.leerDeTabla(p.TablaUsuario, dir+i, b[:]); err != nil {
			return "", false
		}
		if b[0] == 0 {
			return string(texto), true
		}
		texto = append(texto, b[0])
	}
	return "", false
}

// leerUsuario copia largo bytes de la región 1 de p; el rango ya fue verificado
func (k *Kernel) leerUsuario(p *PCB, dir, largo int) []byte {
	datos := make([]byte, largo)
	if err := k.leerDeTabla(p.TablaUsuario, dir, datos); err != nil {
		k.panico("(%d) leyendo memoria de usuario verificada: %v", p.PID, err)
	}
	return datos
}

func (k *Kernel) escribirUsuario(p *PCB, dir int, datos []byte) {
	if err := k.escribirEnTabla(p.TablaUsuario, dir, datos); err != nil {
		k.panico("(%d) escribiendo memoria de usuario verificada: %v", p.PID, err)
	}
}

func (k *Kernel) leerEntero(p *PCB, dir int) int32 {
	return int32(binary.LittleEndian.Uint32(k.leerUsuario(p, dir, 4)))
}

func (k *Kernel) escribirEntero(p *PCB, dir int, v int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	k.escribirUsuario(p, dir, buf[:])
}
