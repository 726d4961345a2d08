package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// fork crea un hijo con copia de la región 1 y de la pila de kernel del
// proceso en ejecución. El hijo queda en READY y, al ser elegido, vuelve a
// modo usuario desde el marco de trap copiado con 0 en R0. Sin memoria
// suficiente no se registra ningún proceso ni se consume un pid.
func (k *Kernel) fork() int {
	padre := k.ejecutandoAhora()
	hijo := k.pcbSinRegistrar(padre.PID, padre.Nombre)

	if err := k.reservarEspacio(padre, hijo); err != nil {
		utils.Trazar(utils.TrazaUsuario, "fork sin memoria", "pid", padre.PID, "error", err)
		return hardware.Error
	}
	k.registrar(hijo)

	k.copiarPaginas(padre, hijo)
	k.copiarPilaKernel(padre, hijo)
	hijo.ContextoUsuario = padre.ContextoUsuario
	k.capturarContexto(hijo, k.retornoDeFork(hijo))

	padre.CantidadHijos++
	padre.Metricas.Forks++
	k.encolar(hijo, k.listos)
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Fork: hijo (%d)", padre.PID, hijo.PID))
	return hijo.PID
}

// retornoDeFork es la primera ejecución del hijo: su pila de kernel ya está
// instalada y tiene el marco de trap del padre
func (k *Kernel) retornoDeFork(hijo *PCB) func() {
	return func() {
		var uc hardware.ContextoUsuario
		if err := k.maquina.LeerMarcoTrap(&uc); err != nil {
			k.panico("(%d) leyendo el marco de trap heredado: %v", hijo.PID, err)
		}
		uc.Regs[0] = 0
		hijo.ContextoUsuario = uc
		k.maquina.EjecutarUsuario(&uc)
	}
}

// exec reemplaza el programa del proceso en ejecución. Devuelve true si el
// contexto de usuario fue reemplazado; si no, resultado es el valor para R0.
func (k *Kernel) exec(uc *hardware.ContextoUsuario, dirNombre, dirArgv int) (resultado int, reemplazado bool) {
	p := k.ejecutandoAhora()

	nombre, ok := k.verificarCadena(p, dirNombre, k.cfg.LargoMaxNombre)
	if !ok {
		utils.Trazar(utils.TrazaSevera, "exec con nombre inválido", "pid", p.PID, "dir", dirNombre)
		k.matarEjecutando(hardware.Error)
	}

	var args []string
	for i := 0; ; i++ {
		dir := dirArgv + 4*i
		if !k.verificarBuffer(p, dir, 4, hardware.ProtLectura) {
			utils.Trazar(utils.TrazaUsuario, "exec con argv inválido", "pid", p.PID, "dir", dir)
			return hardware.Error, false
		}
		ptr := int(k.leerEntero(p, dir))
		if ptr == 0 {
			break
		}
		if i >= k.cfg.MaxArgumentos {
			utils.Trazar(utils.TrazaUsuario, "exec con demasiados argumentos", "pid", p.PID)
			return hardware.Error, false
		}
		arg, ok := k.verificarCadena(p, ptr, k.cfg.LargoMaxArgumento)
		if !ok {
			utils.Trazar(utils.TrazaSevera, "exec con argumento inválido", "pid", p.PID, "indice", i)
			k.matarEjecutando(hardware.Error)
		}
		args = append(args, arg)
	}

	switch k.cargarPrograma(p, nombre, args) {
	case CargaError:
		return hardware.Error, false
	case CargaMatar:
		k.matarEjecutando(hardware.Error)
	}

	k.cambiarEspacio(p)
	*uc = p.ContextoUsuario
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Exec: %s", p.PID, nombre), "args", args)
	return hardware.Exito, true
}

// wait devuelve el pid del primer hijo terminado, esperando si no hay
// ninguno, y guarda su estado en dirEstado si es un puntero válido
func (k *Kernel) wait(dirEstado int) int {
	p := k.ejecutandoAhora()
	if p.CantidadHijos == 0 {
		utils.Trazar(utils.TrazaUsuario, "wait sin hijos", "pid", p.PID)
		return hardware.Error
	}

	for len(p.Almas) == 0 {
		k.bloquear(k.esperando)
	}
	alma := p.Almas[0]
	p.Almas = p.Almas[1:]
	p.CantidadHijos--

	if k.verificarBuffer(p, dirEstado, 4, hardware.ProtLectura|hardware.ProtEscritura) {
		k.escribirEntero(p, dirEstado, int32(alma.Estado))
	} else {
		utils.Trazar(utils.TrazaUsuario, "wait con puntero de estado inválido, no se guarda", "pid", p.PID, "dir", dirEstado)
	}
	return alma.PID
}

// matarEjecutando termina al proceso en ejecución con estado. No retorna.
func (k *Kernel) matarEjecutando(estado int) {
	p := k.ejecutandoAhora()
	if p.PID == pidRaiz {
		k.destruirMetricas(p, estado)
		k.salidas = append(k.salidas, Alma{PID: p.PID, Estado: estado})
		k.detener(estado, "terminó el proceso inicial")
	}

	k.despertarPadre(p)
	k.desencolar(p, k.ejecutando)
	k.destruirPCB(p, estado)

	k.cambiarContexto(k.proximoListo(), k.listos, nil)
}

// despertarPadre pasa a READY al padre de p si está esperando en wait
func (k *Kernel) despertarPadre(p *PCB) {
	padre, ok := k.procesos[p.PPID]
	if ok && k.esperando.Contiene(padre) {
		k.mover(padre, k.esperando, k.listos)
	}
}

// destruirPCB libera todo lo que tiene p, deja su alma al padre si vive y
// lo saca del registro. p ya no está en ninguna cola.
func (k *Kernel) destruirPCB(p *PCB, estado int) {
	k.destruirMetricas(p, estado)
	k.liberarEspacio(p)
	p.Almas = nil

	alma := Alma{PID: p.PID, Estado: estado}
	k.salidas = append(k.salidas, alma)
	if padre, ok := k.procesos[p.PPID]; ok {
		padre.Almas = append(padre.Almas, alma)
	} else {
		utils.Trazar(utils.TrazaDetalle, "Proceso huérfano, nadie lo espera", "pid", p.PID)
	}

	k.darDeBaja(p)
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Finaliza el proceso - Estado: %d", p.PID, estado))
}
