package kernel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/ensamblador"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

const extensionPrograma = ".yasm"

// leerPrograma busca el fuente por nombre, con o sin extensión
func (k *Kernel) leerPrograma(nombre string) ([]byte, error) {
	if !fs.ValidPath(nombre) {
		return nil, fmt.Errorf("%w: nombre %q", ErrProgramaInvalido, nombre)
	}
	fuente, err := fs.ReadFile(k.cfg.Programas, nombre)
	if errors.Is(err, fs.ErrNotExist) && path.Ext(nombre) != extensionPrograma {
		fuente, err = fs.ReadFile(k.cfg.Programas, nombre+extensionPrograma)
	}
	return fuente, err
}

// bloqueArgumentos arma la parte alta de la pila inicial: argc, el vector
// argv terminado en cero y las cadenas. Devuelve los bytes y la dirección
// de argc, que será el SP inicial.
func (k *Kernel) bloqueArgumentos(args []string) ([]byte, int) {
	tamCadenas := 0
	for _, a := range args {
		tamCadenas += len(a) + 1
	}
	tamCadenas = (tamCadenas + 3) &^ 3
	tam := 4 + 4*(len(args)+1) + tamCadenas

	limite := k.hw.LimiteRegion1()
	base := limite - tam
	bloque := make([]byte, tam)
	le := binary.LittleEndian

	le.PutUint32(bloque[0:], uint32(len(args)))
	cadena := 4 + 4*(len(args)+1)
	for i, a := range args {
		le.PutUint32(bloque[4+4*i:], uint32(base+cadena))
		copy(bloque[cadena:], a)
		cadena += len(a) + 1
	}
	return bloque, base
}

// cargarPrograma reemplaza la región 1 de p por el programa nombre. Todo lo
// que puede fallar sin culpa del hardware se controla antes de liberar el
// espacio viejo: así un CargaError deja al proceso intacto.
func (k *Kernel) cargarPrograma(p *PCB, nombre string, args []string) ResultadoCarga {
	fuente, err := k.leerPrograma(nombre)
	if err != nil {
		utils.Trazar(utils.TrazaUsuario, "No se pudo leer el programa", "pid", p.PID, "programa", nombre, "error", err)
		return CargaError
	}
	img, err := ensamblador.Ensamblar(string(fuente), k.hw.BaseRegion1(), k.hw.TamPagina)
	if err != nil {
		utils.Trazar(utils.TrazaUsuario, "Programa mal formado", "pid", p.PID, "programa", nombre, "error", err)
		return CargaError
	}
	if len(img.Texto) == 0 {
		utils.Trazar(utils.TrazaUsuario, "Programa sin instrucciones", "pid", p.PID, "programa", nombre)
		return CargaError
	}

	tam := k.hw.TamPagina
	paginas := func(n int) int { return (n + tam - 1) / tam }
	bloque, sp := k.bloqueArgumentos(args)
	paginasTexto := paginas(len(img.Texto))
	paginasDatos := paginas(len(img.Datos))
	paginasPila := paginas(len(bloque))

	// Texto, datos, una página de guarda y la pila
	if paginasTexto+paginasDatos+1+paginasPila > k.hw.PaginasRegion1 {
		utils.Trazar(utils.TrazaUsuario, "El programa no entra en la región de usuario", "pid", p.PID, "programa", nombre)
		return CargaError
	}
	necesarios := paginasTexto + paginasDatos + paginasPila
	if necesarios > k.marcos.Libres()+marcosUsuario(p) {
		utils.Trazar(utils.TrazaUsuario, "Memoria insuficiente para cargar el programa",
			"pid", p.PID, "programa", nombre, "necesarios", necesarios)
		return CargaError
	}

	// Desde acá el espacio viejo se pierde
	k.liberarTablaUsuario(p)

	tabla := p.TablaUsuario
	rx := hardware.ProtLectura | hardware.ProtEjecucion
	rw := hardware.ProtLectura | hardware.ProtEscritura
	mapeos := []struct {
		desde, cantidad int
		prot            hardware.Proteccion
	}{
		{0, paginasTexto, rx},
		{paginasTexto, paginasDatos, rw},
		{k.hw.PaginasRegion1 - paginasPila, paginasPila, rw},
	}
	for _, m := range mapeos {
		for i := m.desde; i < m.desde+m.cantidad; i++ {
			if err := k.mapear(tabla, i, m.prot); err != nil {
				utils.Trazar(utils.TrazaSevera, "Falla mapeando el programa", "pid", p.PID, "error", err)
				k.liberarTablaUsuario(p)
				return CargaMatar
			}
		}
	}

	for _, copia := range []struct {
		dir   int
		datos []byte
	}{
		{img.BaseTexto, img.Texto},
		{img.BaseDatos, img.Datos},
		{sp, bloque},
	} {
		if err := k.escribirEnTabla(tabla, copia.dir, copia.datos); err != nil {
			k.panico("(%d) copiando la imagen de %s: %v", p.PID, nombre, err)
		}
	}

	p.LimiteHeap = paginasTexto + paginasDatos - 1
	p.BasePila = k.hw.PaginasRegion1 - paginasPila
	p.Nombre = nombre
	p.ContextoUsuario = hardware.ContextoUsuario{PC: img.Entrada, SP: sp}
	p.ContextoUsuario.Regs[0] = int32(len(args))
	p.ContextoUsuario.Regs[1] = int32(sp + 4)

	utils.InfoLog.Info(fmt.Sprintf("(%d) - Programa cargado: %s", p.PID, nombre),
		"texto", paginasTexto, "datos", paginasDatos, "pila", paginasPila, "argc", len(args))
	return CargaExito
}
