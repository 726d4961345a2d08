package kernel

import "fmt"

// Cola es una lista circular doblemente enlazada de procesos. Los enlaces
// guardan pids y se resuelven contra el registro de procesos, así un PCB
// pertenece a lo sumo a una cola.
type Cola struct {
	Nombre   string
	cabeza   int
	tam      int
	procesos map[int]*PCB
}

func nuevaCola(nombre string, procesos map[int]*PCB) *Cola {
	return &Cola{Nombre: nombre, procesos: procesos}
}

// Cabeza devuelve el primer proceso, o nil si la cola está vacía
func (c *Cola) Cabeza() *PCB {
	if c.tam == 0 {
		return nil
	}
	return c.procesos[c.cabeza]
}

func (c *Cola) Tam() int {
	return c.tam
}

func (c *Cola) Vacia() bool {
	return c.tam == 0
}

// Contiene indica si p está en esta cola
func (c *Cola) Contiene(p *PCB) bool {
	return p != nil && p.cola == c
}

// Agregar pone a p al final
func (c *Cola) Agregar(p *PCB) error {
	if p.cola != nil {
		return fmt.Errorf("%w: (%d) está en %s, no se puede agregar a %s", ErrYaEncolado, p.PID, p.cola.Nombre, c.Nombre)
	}

	if c.tam == 0 {
		p.anterior, p.siguiente = p.PID, p.PID
		c.cabeza = p.PID
	} else {
		primero := c.procesos[c.cabeza]
		ultimo := c.procesos[primero.anterior]
		p.anterior, p.siguiente = ultimo.PID, primero.PID
		ultimo.siguiente = p.PID
		primero.anterior = p.PID
	}
	p.cola = c
	c.tam++
	return nil
}

// Quitar saca a p de cualquier posición de la cola
func (c *Cola) Quitar(p *PCB) error {
	if c.tam == 0 {
		return fmt.Errorf("%w: %s, quitando a (%d)", ErrColaVacia, c.Nombre, p.PID)
	}
	if p.cola != c {
		return fmt.Errorf("%w: (%d) no está en %s", ErrNoPertenece, p.PID, c.Nombre)
	}

	if c.tam == 1 {
		c.cabeza = pidNulo
	} else {
		anterior := c.procesos[p.anterior]
		siguiente := c.procesos[p.siguiente]
		anterior.siguiente = siguiente.PID
		siguiente.anterior = anterior.PID
		if c.cabeza == p.PID {
			c.cabeza = siguiente.PID
		}
	}
	p.cola = nil
	p.anterior, p.siguiente = pidNulo, pidNulo
	c.tam--
	return nil
}

// Procesos devuelve los miembros desde la cabeza
func (c *Cola) Procesos() []*PCB {
	lista := make([]*PCB, 0, c.tam)
	pid := c.cabeza
	for i := 0; i < c.tam; i++ {
		p := c.procesos[pid]
		lista = append(lista, p)
		pid = p.siguiente
	}
	return lista
}

// PIDs devuelve los pids de los miembros desde la cabeza
func (c *Cola) PIDs() []int {
	pids := make([]int, 0, c.tam)
	for _, p := range c.Procesos() {
		pids = append(pids, p.PID)
	}
	return pids
}
