package utils

// Semaforo limita cuántas operaciones corren a la vez; Tomar bloquea mientras
// no quede lugar
type Semaforo struct {
	lugares chan struct{}
}

// NewSemaforo crea un semáforo con la cantidad de lugares dada, al menos uno
func NewSemaforo(lugares int) *Semaforo {
	return &Semaforo{lugares: make(chan struct{}, max(lugares, 1))}
}

func (s *Semaforo) Tomar() {
	s.lugares <- struct{}{}
}

// IntentarTomar toma un lugar sólo si hay uno libre
func (s *Semaforo) IntentarTomar() bool {
	select {
	case s.lugares <- struct{}{}:
		return true
	default:
		return false
	}
}

// Soltar devuelve un lugar. Sin lugares tomados no hace nada.
func (s *Semaforo) Soltar() {
	select {
	case <-s.lugares:
	default:
	}
}

// Ocupados devuelve cuántos lugares están tomados
func (s *Semaforo) Ocupados() int {
	return len(s.lugares)
}

func (s *Semaforo) Capacidad() int {
	return cap(s.lugares)
}
