// Package kernel implementa el núcleo del sistema sobre la máquina simulada:
// memoria física y virtual, procesos, planificación round robin, llamadas al
// sistema, sincronización entre procesos y el driver de terminales.
package kernel

import (
	"fmt"
	"runtime"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// Kernel reúne todo el estado del núcleo. Sólo lo toca la gorutina que tiene
// la CPU en cada momento; desde afuera se accede con Maquina.Inspeccionar.
type Kernel struct {
	cfg     Config
	hw      hardware.Config
	maquina *hardware.Maquina

	marcos  *TablaMarcos
	tablaR0 hardware.TablaPaginas

	procesos  map[int]*PCB
	ultimoPID int
	idle      *PCB

	ejecutando *Cola
	listos     *Cola
	durmiendo  *Cola
	esperando  *Cola

	// Por terminal
	leyendo            []*Cola
	escribiendo        []*Cola // El escritor actual, mientras espera el fin de la transmisión
	esperandoEscritura []*Cola
	escritor           []int // pid del dueño de la terminal, pidNulo si está libre

	interps       map[int]Interp
	proximoInterp int

	ticks   int64
	salidas []Alma // Todas las terminaciones, en orden
	pagina  []byte // Buffer de una página para copias entre espacios
}

// Nuevo crea el kernel para la máquina m. La máquina todavía no arranca.
func Nuevo(m *hardware.Maquina, cfg Config) (*Kernel, error) {
	hw := m.Config()
	if err := cfg.validar(hw.PaginasRegion0, hw.PaginasPilaKernel); err != nil {
		return nil, err
	}

	k := &Kernel{
		cfg:           cfg,
		hw:            hw,
		maquina:       m,
		procesos:      make(map[int]*PCB),
		interps:       make(map[int]Interp),
		proximoInterp: 1,
		pagina:        make([]byte, hw.TamPagina),
	}
	k.marcos = nuevaTablaMarcos(m)
	k.ejecutando = k.nuevaCola("EXEC")
	k.listos = k.nuevaCola("READY")
	k.durmiendo = k.nuevaCola("DELAY")
	k.esperando = k.nuevaCola("WAIT")

	for i := 0; i < hw.CantidadTerminales; i++ {
		k.leyendo = append(k.leyendo, k.nuevaCola(fmt.Sprintf("TTY_READ_%d", i)))
		k.escribiendo = append(k.escribiendo, k.nuevaCola(fmt.Sprintf("TTY_WRITE_%d", i)))
		k.esperandoEscritura = append(k.esperandoEscritura, k.nuevaCola(fmt.Sprintf("TTY_WRITE_WAIT_%d", i)))
	}
	k.escritor = make([]int, hw.CantidadTerminales)

	return k, nil
}

func (k *Kernel) nuevaCola(nombre string) *Cola {
	return nuevaCola(nombre, k.procesos)
}

// Ejecutar arranca la máquina con programa como proceso inicial y bloquea
// hasta que se detiene
func (k *Kernel) Ejecutar(programa string, args []string) hardware.Detencion {
	d := k.maquina.Encender(func(uc *hardware.ContextoUsuario) {
		k.arrancar(uc, programa, args)
	})
	utils.InfoLog.Info("Máquina detenida", "tipo", d.Tipo.String(), "estado", d.Estado, "mensaje", d.Mensaje)
	return d
}

// Maquina devuelve el hardware sobre el que corre el kernel
func (k *Kernel) Maquina() *hardware.Maquina {
	return k.maquina
}

// Salidas devuelve las terminaciones registradas. Sólo es seguro llamarla
// con la máquina detenida o dentro de una inspección.
func (k *Kernel) Salidas() []Alma {
	return append([]Alma(nil), k.salidas...)
}

// Ticks devuelve la cantidad de interrupciones de reloj atendidas
func (k *Kernel) Ticks() int64 {
	return k.ticks
}

// panico registra un error de programación del kernel, detiene la máquina y
// termina la gorutina actual. No retorna.
func (k *Kernel) panico(formato string, args ...any) {
	msg := fmt.Sprintf(formato, args...)
	utils.Trazar(utils.TrazaErrorKernel, msg)
	k.maquina.Detener(hardware.Detencion{Tipo: hardware.DetencionErrorKernel, Estado: hardware.Error, Mensaje: msg})
	runtime.Goexit()
}

// detener apaga la máquina a propósito. No retorna.
func (k *Kernel) detener(estado int, formato string, args ...any) {
	msg := fmt.Sprintf(formato, args...)
	utils.Trazar(utils.TrazaCritica, msg, "estado", estado)
	k.maquina.Detener(hardware.Detencion{Tipo: hardware.DetencionNormal, Estado: estado, Mensaje: msg})
	runtime.Goexit()
}

// ejecutandoAhora es el proceso dueño de la CPU
func (k *Kernel) ejecutandoAhora() *PCB {
	p := k.ejecutando.Cabeza()
	if p == nil {
		k.panico("no hay proceso en ejecución")
	}
	return p
}

func (k *Kernel) encolar(p *PCB, c *Cola) {
	if err := c.Agregar(p); err != nil {
		k.panico("%v", err)
	}
}

func (k *Kernel) desencolar(p *PCB, c *Cola) {
	if err := c.Quitar(p); err != nil {
		k.panico("%v", err)
	}
}

// mover pasa a p de una cola a otra registrando la transición
func (k *Kernel) mover(p *PCB, desde, hacia *Cola) {
	k.desencolar(p, desde)
	k.encolar(p, hacia)
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Pasa del estado %s al estado %s", p.PID, desde.Nombre, hacia.Nombre))
}
