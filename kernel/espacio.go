package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// indicePagina convierte una dirección de la región 1 en índice de su tabla
func (k *Kernel) indicePagina(dir int) int {
	return (dir - k.hw.BaseRegion1()) / k.hw.TamPagina
}

func (k *Kernel) direccionPagina(indice int) int {
	return k.hw.BaseRegion1() + indice*k.hw.TamPagina
}

func (k *Kernel) enRegion1(dir int) bool {
	return dir >= k.hw.BaseRegion1() && dir < k.hw.LimiteRegion1()
}

// cambiarEspacio instala las tablas de p en la MMU: sus marcos de pila en la
// región 0 y su tabla de usuario como PTBR1
func (k *Kernel) cambiarEspacio(p *PCB) {
	primera := k.hw.PrimeraPaginaPila()
	for i, e := range p.PilaKernel {
		k.tablaR0[primera+i] = e
	}
	k.maquina.EscribirPTBR1(p.TablaUsuario)
	k.maquina.VaciarTLB()
}

// mapear asigna un marco a la página indice de tabla
func (k *Kernel) mapear(tabla hardware.TablaPaginas, indice int, prot hardware.Proteccion) error {
	if tabla[indice].Valido {
		return fmt.Errorf("la página %d ya está mapeada", indice)
	}
	marco, err := k.marcos.Asignar(prot)
	if err != nil {
		return err
	}
	tabla[indice] = hardware.EntradaTabla{Valido: true, Proteccion: prot, Marco: marco}
	return nil
}

// desmapear libera el marco de una entrada válida y la invalida
func (k *Kernel) desmapear(tabla hardware.TablaPaginas, indice int) {
	if !tabla[indice].Valido {
		return
	}
	if err := k.marcos.Liberar(tabla[indice].Marco); err != nil {
		k.panico("liberando página %d: %v", indice, err)
	}
	tabla[indice] = hardware.EntradaTabla{}
}

// liberarTablaUsuario devuelve todos los marcos de la región 1 de p
func (k *Kernel) liberarTablaUsuario(p *PCB) {
	for i := range p.TablaUsuario {
		k.desmapear(p.TablaUsuario, i)
	}
	p.LimiteHeap = -1
	p.BasePila = k.hw.PaginasRegion1
}

// liberarEspacio devuelve todos los marcos de p, incluida su pila de kernel
func (k *Kernel) liberarEspacio(p *PCB) {
	k.liberarTablaUsuario(p)
	for i := range p.PilaKernel {
		k.desmapear(p.PilaKernel, i)
	}
}

// marcosUsuario cuenta las páginas válidas de la región 1 de p
func marcosUsuario(p *PCB) int {
	n := 0
	for _, e := range p.TablaUsuario {
		if e.Valido {
			n++
		}
	}
	return n
}

// reservarEspacio da al hijo un marco por cada página válida del padre y los
// de su pila de kernel. Si un marco falta a mitad de camino devuelve los ya
// asignados y el error de la tabla de marcos.
func (k *Kernel) reservarEspacio(padre, hijo *PCB) error {
	deshacer := func(err error) error {
		utils.Trazar(utils.TrazaUsuario, "Memoria insuficiente para el hijo",
			"pid", padre.PID, "asignados", marcosUsuario(hijo), "libres", k.marcos.Libres(), "error", err)
		k.liberarEspacio(hijo)
		return err
	}
	for i, e := range padre.TablaUsuario {
		if !e.Valido {
			continue
		}
		if err := k.mapear(hijo.TablaUsuario, i, e.Proteccion); err != nil {
			return deshacer(err)
		}
	}
	for i := range hijo.PilaKernel {
		if err := k.mapear(hijo.PilaKernel, i, hardware.ProtLectura|hardware.ProtEscritura); err != nil {
			return deshacer(err)
		}
	}
	hijo.LimiteHeap = padre.LimiteHeap
	hijo.BasePila = padre.BasePila
	return nil
}

// copiarPaginas duplica el contenido de la región 1 del padre en el hijo a
// través de la MMU. Durante cada copia la página del padre queda de sólo
// lectura y la del hijo de sólo escritura; al final se restauran y se vuelve
// al espacio del padre.
func (k *Kernel) copiarPaginas(padre, hijo *PCB) {
	for i, e := range padre.TablaUsuario {
		if !e.Valido {
			continue
		}
		dir := k.direccionPagina(i)
		protPadre := e.Proteccion
		protHijo := hijo.TablaUsuario[i].Proteccion

		padre.TablaUsuario[i].Proteccion = hardware.ProtLectura
		hijo.TablaUsuario[i].Proteccion = hardware.ProtEscritura
		k.maquina.VaciarTLB()

		if err := k.maquina.LeerVirtual(dir, k.pagina); err != nil {
			k.panico("(%d) leyendo la página %d para copiar: %v", padre.PID, i, err)
		}
		k.cambiarEspacio(hijo)
		if err := k.maquina.EscribirVirtual(dir, k.pagina); err != nil {
			k.panico("(%d) escribiendo la página %d copiada: %v", hijo.PID, i, err)
		}
		k.cambiarEspacio(padre)

		padre.TablaUsuario[i].Proteccion = protPadre
		hijo.TablaUsuario[i].Proteccion = protHijo
	}
	k.maquina.VaciarTLB()
}

// crecerHeap atiende brk: lleva el final del heap hasta la página de dir
func (k *Kernel) crecerHeap(p *PCB, dir int) int {
	if !k.enRegion1(dir) {
		utils.Trazar(utils.TrazaUsuario, "brk fuera de la región de usuario", "pid", p.PID, "dir", dir)
		return hardware.Error
	}
	indice := k.indicePagina(dir)
	if indice <= p.LimiteHeap {
		return hardware.Exito
	}
	// Siempre queda una página de guarda entre el heap y la pila
	if indice >= p.BasePila-1 {
		utils.Trazar(utils.TrazaUsuario, "brk invade la pila", "pid", p.PID, "pagina", indice, "base_pila", p.BasePila)
		return hardware.Error
	}

	nuevas := indice - p.LimiteHeap
	if k.marcos.Libres() < nuevas {
		utils.Trazar(utils.TrazaUsuario, "brk sin memoria", "pid", p.PID, "paginas", nuevas)
		return hardware.Error
	}
	for i := p.LimiteHeap + 1; i <= indice; i++ {
		if err := k.mapear(p.TablaUsuario, i, hardware.ProtLectura|hardware.ProtEscritura); err != nil {
			for j := p.LimiteHeap + 1; j < i; j++ {
				k.desmapear(p.TablaUsuario, j)
			}
			return hardware.Error
		}
	}
	p.LimiteHeap = indice
	k.maquina.VaciarTLB()
	utils.Trazar(utils.TrazaDetalle, "Heap extendido", "pid", p.PID, "limite", indice)
	return hardware.Exito
}

// crecerPila extiende la pila de usuario hacia abajo hasta la página indice.
// Falla si quedaría pegada al heap o falta memoria; en ese caso no mapea nada.
func (k *Kernel) crecerPila(p *PCB, indice int) bool {
	if indice < 0 {
		return false
	}
	for i := p.BasePila - 1; i >= indice-1 && i >= 0; i-- {
		if p.TablaUsuario[i].Valido {
			utils.Trazar(utils.TrazaSevera, "La pila alcanzaría al heap", "pid", p.PID, "pagina", indice)
			return false
		}
	}

	nuevas := p.BasePila - indice
	if k.marcos.Libres() < nuevas {
		utils.Trazar(utils.TrazaSevera, "Sin memoria para crecer la pila", "pid", p.PID, "paginas", nuevas)
		return false
	}
	for i := p.BasePila - 1; i >= indice; i-- {
		if err := k.mapear(p.TablaUsuario, i, hardware.ProtLectura|hardware.ProtEscritura); err != nil {
			k.panico("(%d) mapeando la pila: %v", p.PID, err)
		}
	}
	utils.Trazar(utils.TrazaDetalle, "Pila extendida", "pid", p.PID, "desde", indice, "hasta", p.BasePila-1)
	p.BasePila = indice
	k.maquina.VaciarTLB()
	return true
}

// copiarPilaKernel duplica los marcos de la pila de kernel de origen en los de destino
func (k *Kernel) copiarPilaKernel(origen, destino *PCB) {
	for i := range origen.PilaKernel {
		o, d := origen.PilaKernel[i], destino.PilaKernel[i]
		if !o.Valido || !d.Valido {
			k.panico("copia de pila de kernel incompleta entre (%d) y (%d)", origen.PID, destino.PID)
		}
		k.maquina.CopiarMarco(o.Marco, d.Marco)
	}
}

// escribirEnTabla copia datos a la región 1 de un espacio que no tiene por
// qué estar instalado, traduciendo con su tabla
func (k *Kernel) escribirEnTabla(tabla hardware.TablaPaginas, dir int, datos []byte) error {
	tam := k.hw.TamPagina
	for len(datos) > 0 {
		if !k.enRegion1(dir) {
			return fmt.Errorf("dirección %#x fuera de la región 1", dir)
		}
		e := tabla[k.indicePagina(dir)]
		if !e.Valido {
			return fmt.Errorf("dirección %#x sin mapear", dir)
		}
		desp := (dir - k.hw.BaseRegion1()) % tam
		n := min(tam-desp, len(datos))
		k.maquina.EscribirMarco(e.Marco, desp, datos[:n])
		datos = datos[n:]
		dir += n
	}
	return nil
}

// leerDeTabla es la lectura equivalente a escribirEnTabla
func (k *Kernel) leerDeTabla(tabla hardware.TablaPaginas, dir int, dst []byte) error {
	tam := k.hw.TamPagina
	for len(dst) > 0 {
		if !k.enRegion1(dir) {
			return fmt.Errorf("dirección %#x fuera de la región 1", dir)
		}
		e := tabla[k.indicePagina(dir)]
		if !e.Valido {
			return fmt.Errorf("dirección %#x sin mapear", dir)
		}
		desp := (dir - k.hw.BaseRegion1()) % tam
		n := min(tam-desp, len(dst))
		k.maquina.LeerMarco(e.Marco, desp, dst[:n])
		dst = dst[n:]
		dir += n
	}
	return nil
}
