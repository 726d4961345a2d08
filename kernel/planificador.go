package kernel

import (
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// manejarReloj atiende TRAP_CLOCK: despierta a los procesos cuyo DELAY venció
// y, si hay otro proceso listo, rota la CPU. El proceso idle sólo se elige
// cuando es el único listo.
func (k *Kernel) manejarReloj(uc *hardware.ContextoUsuario) {
	k.ticks++
	actual := k.ejecutandoAhora()
	actual.Metricas.Ticks++
	utils.Trazar(utils.TrazaTrap, "Tick", "tick", k.ticks, "pid", actual.PID)

	k.despertarDormidos()

	siguiente := k.proximoListo()
	if siguiente == nil || siguiente == k.idle {
		return
	}

	actual.ContextoUsuario = *uc
	k.cambiarContexto(siguiente, k.listos, k.listos)
	*uc = k.ejecutandoAhora().ContextoUsuario
}

// proximoListo es el primer proceso de READY que no es el idle, o el idle
// si no hay otro. El idle queda en su lugar de READY y nunca se elige
// habiendo otro listo, así el reloj cambia de proceso en el mismo tick en que
// lo encuentra. Los bloqueos y exit eligen igual.
func (k *Kernel) proximoListo() *PCB {
	for _, p := range k.listos.Procesos() {
		if p != k.idle {
			return p
		}
	}
	return k.listos.Cabeza()
}

// despertarDormidos pasa a READY, en orden de llegada, a los procesos cuyo tick de despertar llegó
func (k *Kernel) despertarDormidos() {
	for _, p := range k.durmiendo.Procesos() {
		if p.Despertar <= k.ticks {
			k.mover(p, k.durmiendo, k.listos)
		}
	}
}

// bloquear suspende al proceso en ejecución en la cola c y le pasa la CPU
// al próximo listo. Retorna cuando el proceso vuelve a ejecutar.
func (k *Kernel) bloquear(c *Cola) {
	k.cambiarContexto(k.proximoListo(), k.listos, c)
}

// despertar pasa a READY a la cabeza de c, si hay
func (k *Kernel) despertar(c *Cola) *PCB {
	p := c.Cabeza()
	if p != nil {
		k.mover(p, c, k.listos)
	}
	return p
}

// despertarTodos pasa a READY a todos los procesos de c, en orden
func (k *Kernel) despertarTodos(c *Cola) int {
	n := 0
	for k.despertar(c) != nil {
		n++
	}
	return n
}
