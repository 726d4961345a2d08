package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// EntradaMarco registra si un marco físico está en uso y con qué permisos se pidió
type EntradaMarco struct {
	EnUso      bool
	Proteccion hardware.Proteccion
}

// TablaMarcos administra la memoria física de a un marco
type TablaMarcos struct {
	marcos  []EntradaMarco
	enUso   int
	maquina *hardware.Maquina
}

func nuevaTablaMarcos(m *hardware.Maquina) *TablaMarcos {
	return &TablaMarcos{
		marcos:  make([]EntradaMarco, m.Config().CantidadMarcos),
		maquina: m,
	}
}

// Reservar marca como usado un marco concreto (imagen del kernel y pila de arranque)
func (t *TablaMarcos) Reservar(marco int, prot hardware.Proteccion) error {
	if !t.Valido(marco) {
		return fmt.Errorf("%w: %d", ErrMarcoInvalido, marco)
	}
	if t.marcos[marco].EnUso {
		return fmt.Errorf("el marco %d ya está en uso", marco)
	}
	t.marcos[marco] = EntradaMarco{EnUso: true, Proteccion: prot}
	t.enUso++
	return nil
}

// Asignar entrega el marco libre de menor número
func (t *TablaMarcos) Asignar(prot hardware.Proteccion) (int, error) {
	for i := range t.marcos {
		if !t.marcos[i].EnUso {
			t.marcos[i] = EntradaMarco{EnUso: true, Proteccion: prot}
			t.enUso++
			utils.Trazar(utils.TrazaDetalle, "Marco asignado", "marco", i, "prot", prot.String())
			return i, nil
		}
	}
	utils.Trazar(utils.TrazaUsuario, "No hay marcos libres", "total_marcos", len(t.marcos))
	return 0, ErrSinMemoria
}

// Liberar devuelve un marco y lo deja en cero
func (t *TablaMarcos) Liberar(marco int) error {
	if !t.Valido(marco) || !t.marcos[marco].EnUso {
		return fmt.Errorf("%w: %d", ErrMarcoInvalido, marco)
	}
	t.maquina.LimpiarMarco(marco)
	t.marcos[marco] = EntradaMarco{}
	t.enUso--
	utils.Trazar(utils.TrazaDetalle, "Marco liberado", "marco", marco)
	return nil
}

// Valido indica si el número corresponde a un marco físico
func (t *TablaMarcos) Valido(marco int) bool {
	return marco >= 0 && marco < len(t.marcos)
}

// Ocupado indica si el marco está asignado
func (t *TablaMarcos) Ocupado(marco int) bool {
	return t.Valido(marco) && t.marcos[marco].EnUso
}

func (t *TablaMarcos) Libres() int {
	return len(t.marcos) - t.enUso
}

func (t *TablaMarcos) EnUso() int {
	return t.enUso
}

func (t *TablaMarcos) Cantidad() int {
	return len(t.marcos)
}
