package kernel

import (
	"runtime"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// ContextoKernel es el camino de kernel suspendido de un proceso. Cada
// proceso corre su parte de kernel en una gorutina propia; sólo una avanza a
// la vez y la CPU se pasa de una a otra por el canal reanudar. Un contexto
// recién capturado todavía no tiene gorutina: la primera vez que se lo
// reanuda se lanza entrada.
type ContextoKernel struct {
	reanudar chan struct{}
	entrada  func()
}

// capturarContexto prepara el contexto de kernel de un proceso nuevo, que al
// ser elegido por primera vez ejecuta entrada
func (k *Kernel) capturarContexto(p *PCB, entrada func()) {
	p.contexto = &ContextoKernel{
		reanudar: make(chan struct{}, 1),
		entrada:  entrada,
	}
}

// reanudar entrega la CPU al contexto de p
func (k *Kernel) reanudar(p *PCB) {
	ctx := p.contexto
	if ctx == nil {
		k.panico("(%d) no tiene contexto de kernel", p.PID)
	}
	if entrada := ctx.entrada; entrada != nil {
		ctx.entrada = nil
		go entrada()
		return
	}
	ctx.reanudar <- struct{}{}
}

// estacionar suspende la gorutina de p hasta que alguien la reanude. Si la
// máquina se apaga mientras tanto, la gorutina termina.
func (k *Kernel) estacionar(p *PCB) {
	select {
	case <-p.contexto.reanudar:
	case <-k.maquina.Detenida():
		runtime.Goexit()
	}
}

// cambiarContexto es el único punto de planificación: saca a siguiente de
// desde, lo pone en ejecución y, si hacia no es nil, manda ahí al proceso
// que estaba ejecutando y lo suspende hasta que vuelva a ser elegido. Con
// hacia en nil el proceso actual ya dejó la cola de ejecución y el cambio no
// tiene vuelta.
func (k *Kernel) cambiarContexto(siguiente *PCB, desde, hacia *Cola) {
	if siguiente == nil {
		k.panico("no hay proceso para ejecutar en %s", desde.Nombre)
	}
	actual := k.ejecutando.Cabeza()

	k.desencolar(siguiente, desde)
	if hacia != nil {
		if actual == nil {
			k.panico("cambio de contexto sin proceso en ejecución")
		}
		k.mover(actual, k.ejecutando, hacia)
	}
	k.encolar(siguiente, k.ejecutando)
	utils.InfoLog.Info("Cambio de contexto", "desde", pidDe(actual), "hacia", siguiente.PID, "origen", desde.Nombre)

	if hacia == nil {
		k.cambiarSinRetorno(siguiente)
		return
	}
	k.cambiarContextoKernel(actual, siguiente)
}

// cambiarContextoKernel instala el espacio de entrante, le pasa la CPU y
// suspende a saliente. Retorna cuando saliente vuelve a ser elegido.
func (k *Kernel) cambiarContextoKernel(saliente, entrante *PCB) {
	if saliente == entrante {
		return
	}
	k.verificarPilaKernel(entrante)
	k.cambiarEspacio(entrante)
	k.reanudar(entrante)
	k.estacionar(saliente)
}

// cambiarSinRetorno pasa la CPU a entrante y termina la gorutina actual,
// cuyo proceso ya no existe
func (k *Kernel) cambiarSinRetorno(entrante *PCB) {
	k.verificarPilaKernel(entrante)
	k.cambiarEspacio(entrante)
	k.reanudar(entrante)
	runtime.Goexit()
}

// verificarPilaKernel detiene la máquina si p no tiene toda su pila de kernel mapeada
func (k *Kernel) verificarPilaKernel(p *PCB) {
	for i, e := range p.PilaKernel {
		if !e.Valido {
			k.panico("(%d) pila de kernel incompleta: página %d sin mapear", p.PID, i)
		}
	}
}

func pidDe(p *PCB) int {
	if p == nil {
		return pidNulo
	}
	return p.PID
}
