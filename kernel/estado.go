package kernel

import (
	"errors"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
)

// EstadoProceso es la vista de un proceso para los reportes
type EstadoProceso struct {
	PID        int             `json:"pid"`
	PPID       int             `json:"ppid"`
	Nombre     string          `json:"nombre"`
	Estado     string          `json:"estado"`
	PC         int             `json:"pc"`
	Paginas    int             `json:"paginas"`
	LimiteHeap int             `json:"limite_heap"`
	BasePila   int             `json:"base_pila"`
	Hijos      int             `json:"hijos"`
	Metricas   MetricasProceso `json:"metricas"`
}

// Estado es una foto del kernel
type Estado struct {
	Ticks          int64            `json:"ticks"`
	Ejecutando     int              `json:"ejecutando"`
	Colas          map[string][]int `json:"colas"`
	Procesos       []EstadoProceso  `json:"procesos"`
	Sincronizacion map[int]string   `json:"sincronizacion"`
	MarcosLibres   int              `json:"marcos_libres"`
	MarcosEnUso    int              `json:"marcos_en_uso"`
	AciertosTLB    int64            `json:"aciertos_tlb"`
	FallosTLB      int64            `json:"fallos_tlb"`
	Salidas        []Alma           `json:"salidas"`
}

func (k *Kernel) colas() []*Cola {
	colas := []*Cola{k.ejecutando, k.listos, k.durmiendo, k.esperando}
	colas = append(colas, k.leyendo...)
	colas = append(colas, k.escribiendo...)
	colas = append(colas, k.esperandoEscritura...)
	for _, i := range k.interps {
		colas = append(colas, i.Espera())
	}
	return colas
}

// Estado arma la foto del kernel. Debe llamarse dentro de una inspección o
// con la máquina detenida.
func (k *Kernel) Estado() Estado {
	e := Estado{
		Ticks:          k.ticks,
		Ejecutando:     pidDe(k.ejecutando.Cabeza()),
		Colas:          make(map[string][]int),
		Sincronizacion: make(map[int]string, len(k.interps)),
		MarcosLibres:   k.marcos.Libres(),
		MarcosEnUso:    k.marcos.EnUso(),
		AciertosTLB:    k.maquina.TLB().Aciertos,
		FallosTLB:      k.maquina.TLB().Fallos,
		Salidas:        k.Salidas(),
	}
	for _, c := range k.colas() {
		if !c.Vacia() {
			e.Colas[c.Nombre] = c.PIDs()
		}
	}
	for id, i := range k.interps {
		e.Sincronizacion[id] = i.Tipo()
	}
	for _, pid := range k.pids() {
		p := k.procesos[pid]
		e.Procesos = append(e.Procesos, EstadoProceso{
			PID:        p.PID,
			PPID:       p.PPID,
			Nombre:     p.Nombre,
			Estado:     p.Estado(),
			PC:         p.ContextoUsuario.PC,
			Paginas:    marcosUsuario(p),
			LimiteHeap: p.LimiteHeap,
			BasePila:   p.BasePila,
			Hijos:      p.CantidadHijos,
			Metricas:   p.Metricas,
		})
	}
	return e
}

// Inspeccionar arma la foto del kernel mientras la máquina corre
func (k *Kernel) Inspeccionar() (Estado, error) {
	var e Estado
	err := k.maquina.Inspeccionar(func() { e = k.Estado() })
	if errors.Is(err, hardware.ErrMaquinaDetenida) {
		return k.Estado(), nil
	}
	return e, err
}
