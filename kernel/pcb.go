package kernel

import (
	"fmt"
	"sort"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

const (
	pidNulo = 0 // Marca de ausencia en enlaces de cola y pid de padre
	pidRaiz = 1
)

// Alma es lo que queda de un hijo terminado hasta que el padre lo espera
type Alma struct {
	PID    int `json:"pid"`
	Estado int `json:"estado"`
}

type PCB struct {
	PID    int
	PPID   int
	Nombre string

	Despertar int64 // Tick en el que sale de DELAY

	PilaKernel   hardware.TablaPaginas // Entradas de la pila del kernel en la región 0
	TablaUsuario hardware.TablaPaginas // Tabla de la región 1

	// Índices de página de la región 1: LimiteHeap es la última página del
	// heap y BasePila la más baja de la pila de usuario
	LimiteHeap int
	BasePila   int

	ContextoUsuario hardware.ContextoUsuario
	contexto        *ContextoKernel

	// Enlaces de la cola a la que pertenece, por pid
	cola      *Cola
	anterior  int
	siguiente int

	CantidadHijos int    // Hijos vivos o sin esperar
	Almas         []Alma // Hijos terminados, en orden de salida

	Metricas MetricasProceso
}

// Estado es el nombre de la cola en la que está el proceso
func (p *PCB) Estado() string {
	if p.cola == nil {
		return "SIN_COLA"
	}
	return p.cola.Nombre
}

func (p *PCB) String() string {
	return fmt.Sprintf("PCB{PID: %d, PPID: %d, Nombre: %s, Estado: %s, PC: %#x}",
		p.PID, p.PPID, p.Nombre, p.Estado(), p.ContextoUsuario.PC)
}

// nuevoPCB crea un proceso vacío con el próximo pid y lo registra
func (k *Kernel) nuevoPCB(ppid int, nombre string) *PCB {
	p := k.pcbSinRegistrar(ppid, nombre)
	k.registrar(p)
	return p
}

// pcbSinRegistrar arma un proceso vacío, todavía sin pid
func (k *Kernel) pcbSinRegistrar(ppid int, nombre string) *PCB {
	return &PCB{
		PPID:         ppid,
		Nombre:       nombre,
		PilaKernel:   hardware.NuevaTabla(k.hw.PaginasPilaKernel),
		TablaUsuario: hardware.NuevaTabla(k.hw.PaginasRegion1),
		LimiteHeap:   -1,
		BasePila:     k.hw.PaginasRegion1,
	}
}

// registrar le da a p el próximo pid y lo agrega a los procesos
func (k *Kernel) registrar(p *PCB) {
	k.ultimoPID++
	p.PID = k.ultimoPID
	p.Metricas.Creacion = k.ticks
	k.procesos[p.PID] = p

	utils.InfoLog.Info(fmt.Sprintf("(%d) - Se crea el proceso - Padre: %d", p.PID, p.PPID))
}

// BuscarPCB devuelve el proceso registrado con ese pid
func (k *Kernel) BuscarPCB(pid int) (*PCB, error) {
	p, ok := k.procesos[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrProcesoInexiste, pid)
	}
	return p, nil
}

// darDeBaja saca al proceso del registro; debe estar fuera de toda cola
func (k *Kernel) darDeBaja(p *PCB) {
	if p.cola != nil {
		k.panico("(%d) se da de baja estando en %s", p.PID, p.cola.Nombre)
	}
	delete(k.procesos, p.PID)
}

// pids devuelve los pids registrados en orden
func (k *Kernel) pids() []int {
	pids := make([]int, 0, len(k.procesos))
	for pid := range k.procesos {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// desciendeDe indica si p es el proceso dueno o uno de sus descendientes.
// Se sube por los padres hasta encontrar al dueño o un proceso huérfano.
func (k *Kernel) desciendeDe(p *PCB, dueno int) bool {
	for actual := p; actual != nil; actual = k.procesos[actual.PPID] {
		if actual.PID == dueno {
			return true
		}
		if actual.PPID <= pidNulo {
			return false
		}
	}
	return false
}
