package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// arrancar es el arranque del kernel: prepara la memoria, crea el proceso
// inicial y el idle, y deja en uc el contexto con el que la máquina entra a
// modo usuario. Corre con la memoria virtual deshabilitada.
func (k *Kernel) arrancar(uc *hardware.ContextoUsuario, programa string, args []string) {
	if err := k.inicializarMemoria(); err != nil {
		k.panico("inicializando la memoria: %v", err)
	}
	k.instalarVector()

	inicial := k.crearInicial()
	k.crearIdle(inicial)

	if len(args) == 0 {
		args = []string{programa}
	}
	if r := k.cargarPrograma(inicial, programa, args); r != CargaExito {
		k.panico("no se pudo cargar el programa inicial %s: %s", programa, r)
	}
	k.cambiarEspacio(inicial)
	*uc = inicial.ContextoUsuario

	utils.InfoLog.Info("Kernel iniciado",
		"programa", programa,
		"marcos_libres", k.marcos.Libres(),
		"marcos_totales", k.marcos.Cantidad())
}

// inicializarMemoria reserva la imagen del kernel y la pila de arranque,
// arma la tabla de la región 0 con mapeo identidad y habilita la memoria virtual
func (k *Kernel) inicializarMemoria() error {
	k.tablaR0 = hardware.NuevaTabla(k.hw.PaginasRegion0)

	texto := k.cfg.PaginasTextoKernel
	datos := k.cfg.PaginasDatosKernel
	rx := hardware.ProtLectura | hardware.ProtEjecucion
	rw := hardware.ProtLectura | hardware.ProtEscritura

	reservar := func(pagina int, prot hardware.Proteccion) error {
		if err := k.marcos.Reservar(pagina, prot); err != nil {
			return err
		}
		k.tablaR0[pagina] = hardware.EntradaTabla{Valido: true, Proteccion: prot, Marco: pagina}
		return nil
	}
	for i := 0; i < texto; i++ {
		if err := reservar(i, rx); err != nil {
			return err
		}
	}
	for i := texto; i < texto+datos; i++ {
		if err := reservar(i, rw); err != nil {
			return err
		}
	}
	for i := k.hw.PrimeraPaginaPila(); i < k.hw.PaginasRegion0; i++ {
		if err := reservar(i, rw); err != nil {
			return fmt.Errorf("pila de arranque: %w", err)
		}
	}

	k.maquina.EscribirPTBR0(k.tablaR0)
	k.maquina.EscribirPTBR1(hardware.NuevaTabla(k.hw.PaginasRegion1))
	k.maquina.HabilitarVM()
	return nil
}

// crearInicial arma el proceso 1 sobre la pila de arranque y lo pone a ejecutar
func (k *Kernel) crearInicial() *PCB {
	p := k.nuevoPCB(pidNulo, "init")
	primera := k.hw.PrimeraPaginaPila()
	copy(p.PilaKernel, k.tablaR0[primera:])
	k.capturarContexto(p, nil)
	k.encolar(p, k.ejecutando)
	k.cambiarEspacio(p)
	return p
}

// crearIdle arma el proceso idle con una copia de la pila del inicial. Su
// programa se carga la primera vez que se lo elige.
func (k *Kernel) crearIdle(inicial *PCB) {
	idle := k.nuevoPCB(pidNulo, k.cfg.ProgramaIdle)
	for i := range idle.PilaKernel {
		if err := k.mapear(idle.PilaKernel, i, hardware.ProtLectura|hardware.ProtEscritura); err != nil {
			k.panico("sin memoria para la pila del idle: %v", err)
		}
	}
	k.copiarPilaKernel(inicial, idle)
	k.capturarContexto(idle, k.entradaIdle)
	k.encolar(idle, k.listos)
	k.idle = idle
}

func (k *Kernel) entradaIdle() {
	idle := k.idle
	nombre := k.cfg.ProgramaIdle
	if r := k.cargarPrograma(idle, nombre, []string{nombre}); r != CargaExito {
		k.panico("no se pudo cargar el programa idle %s: %s", nombre, r)
	}
	k.cambiarEspacio(idle)
	uc := idle.ContextoUsuario
	k.maquina.EjecutarUsuario(&uc)
}
