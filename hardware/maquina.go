package hardware

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ManejadorTrap atiende un trap con el contexto de usuario interrumpido
type ManejadorTrap func(uc *ContextoUsuario)

// TipoDetencion clasifica el motivo por el que se apagó la máquina
type TipoDetencion int

const (
	DetencionNormal      TipoDetencion = iota // El proceso raíz terminó
	DetencionErrorKernel                      // Error de programación del kernel
	DetencionLimite                           // Se alcanzó el límite de ticks
	DetencionHardware                         // Uso inválido del hardware
)

func (t TipoDetencion) String() string {
	switch t {
	case DetencionNormal:
		return "NORMAL"
	case DetencionErrorKernel:
		return "ERROR_KERNEL"
	case DetencionLimite:
		return "LIMITE_TICKS"
	case DetencionHardware:
		return "HARDWARE"
	}
	return fmt.Sprintf("DETENCION_%d", int(t))
}

// Detencion describe el apagado de la máquina
type Detencion struct {
	Tipo    TipoDetencion
	Estado  int
	Mensaje string
}

var ErrMaquinaDetenida = errors.New("la máquina está detenida")

type solicitud struct {
	fn    func()
	listo chan struct{}
}

// Maquina es la computadora simulada: una CPU, memoria física, MMU con
// dos regiones, reloj, terminales y vector de traps
type Maquina struct {
	cfg     Config
	memoria []byte

	ptbr0        TablaPaginas
	ptbr1        TablaPaginas
	vmHabilitada bool
	tlb          *TLB

	vector [CantidadTraps]ManejadorTrap

	ciclos      int64
	proximoTick int64
	ticks       int64

	terminales []*terminal

	mu         sync.Mutex // Protege pendientes y las líneas recibidas de las terminales
	pendientes []Trap
	avisos     chan struct{}

	inspecciones chan solicitud

	detenida   chan struct{}
	detenerUna sync.Once
	motivo     Detencion

	traza *logrus.Logger
}

// NuevaMaquina crea una máquina apagada con la configuración dada
func NuevaMaquina(cfg Config) (*Maquina, error) {
	cfg = cfg.Completar()
	if err := cfg.Validar(); err != nil {
		return nil, err
	}

	traza := logrus.New()
	traza.SetOutput(io.Discard)

	m := &Maquina{
		cfg:          cfg,
		memoria:      make([]byte, cfg.TamMemoria()),
		tlb:          nuevaTLB(cfg.EntradasTLB),
		proximoTick:  int64(cfg.InstruccionesPorTick),
		terminales:   make([]*terminal, cfg.CantidadTerminales),
		avisos:       make(chan struct{}, 1),
		inspecciones: make(chan solicitud),
		detenida:     make(chan struct{}),
		traza:        traza,
	}
	for i := range m.terminales {
		m.terminales[i] = &terminal{}
	}
	return m, nil
}

// Config devuelve la configuración efectiva
func (m *Maquina) Config() Config {
	return m.cfg
}

// UsarTraza reemplaza el logger de traza del hardware
func (m *Maquina) UsarTraza(traza *logrus.Logger) {
	m.traza = traza
}

// InstalarVector registra el manejador de un tipo de trap
func (m *Maquina) InstalarVector(tipo int, manejador ManejadorTrap) {
	m.vector[tipo] = manejador
}

// Ciclos devuelve la cantidad de instrucciones de usuario ejecutadas
func (m *Maquina) Ciclos() int64 {
	return m.ciclos
}

// Encender arranca la máquina: corre inicio (el arranque del kernel) y luego
// el programa de usuario que haya dejado en el contexto. Bloquea hasta que la
// máquina se detiene.
func (m *Maquina) Encender(inicio func(uc *ContextoUsuario)) Detencion {
	m.traza.WithFields(logrus.Fields{
		"marcos":         m.cfg.CantidadMarcos,
		"tam_pagina":     m.cfg.TamPagina,
		"instr_por_tick": m.cfg.InstruccionesPorTick,
	}).Info("máquina encendida")

	go func() {
		var uc ContextoUsuario
		inicio(&uc)
		m.EjecutarUsuario(&uc)
	}()

	<-m.detenida
	return m.motivo
}

// Detener apaga la máquina. Sólo la primera llamada tiene efecto. Quien la
// llama desde una gorutina de la máquina debe terminarla a continuación.
func (m *Maquina) Detener(d Detencion) {
	m.detenerUna.Do(func() {
		m.motivo = d
		m.traza.WithFields(logrus.Fields{
			"tipo":   d.Tipo.String(),
			"estado": d.Estado,
			"ciclos": m.ciclos,
		}).Warn("máquina detenida: " + d.Mensaje)
		close(m.detenida)
	})
}

// Detenida se cierra cuando la máquina se apaga
func (m *Maquina) Detenida() <-chan struct{} {
	return m.detenida
}

// Motivo devuelve el motivo de la detención; sólo es válido tras Detenida
func (m *Maquina) Motivo() Detencion {
	return m.motivo
}

// EjecutarUsuario es el ciclo de la CPU en modo usuario: entre instrucciones
// atiende inspecciones e interrupciones, y cada trap se despacha por el vector
// sobre uc. No retorna: la gorutina termina cuando la máquina se detiene.
func (m *Maquina) EjecutarUsuario(uc *ContextoUsuario) {
	for {
		select {
		case <-m.detenida:
			runtime.Goexit()
		default:
		}

		m.atenderInspecciones()

		if t, ok := m.proximaInterrupcion(); ok {
			m.entrarTrap(t, uc)
			continue
		}

		if t := m.paso(uc); t != nil {
			m.entrarTrap(*t, uc)
		}
	}
}

func (m *Maquina) entrarTrap(t Trap, uc *ContextoUsuario) {
	uc.Vector = t.Tipo
	uc.Codigo = t.Codigo
	uc.Dir = t.Dir

	m.traza.WithFields(logrus.Fields{
		"trap":   NombreTrap(t.Tipo),
		"codigo": t.Codigo,
		"dir":    fmt.Sprintf("%#x", t.Dir),
		"pc":     fmt.Sprintf("%#x", uc.PC),
	}).Debug("entrada a trap")

	if err := m.EscribirMarcoTrap(uc); err != nil {
		m.Detener(Detencion{Tipo: DetencionHardware, Estado: Error,
			Mensaje: fmt.Sprintf("no se pudo apilar el marco de trap: %v", err)})
		runtime.Goexit()
	}

	manejador := m.vector[t.Tipo]
	if manejador == nil {
		m.Detener(Detencion{Tipo: DetencionHardware, Estado: Error,
			Mensaje: "trap sin manejador: " + NombreTrap(t.Tipo)})
		runtime.Goexit()
	}
	manejador(uc)
}

// EscribirMarcoTrap guarda el contexto en el tope de la pila del kernel vigente
func (m *Maquina) EscribirMarcoTrap(uc *ContextoUsuario) error {
	var buf [TamContexto]byte
	uc.Codificar(buf[:])
	return m.EscribirVirtual(m.cfg.LimitePilaKernel()-TamContexto, buf[:])
}

// LeerMarcoTrap recupera el contexto guardado en el tope de la pila del kernel vigente
func (m *Maquina) LeerMarcoTrap(uc *ContextoUsuario) error {
	var buf [TamContexto]byte
	if err := m.LeerVirtual(m.cfg.LimitePilaKernel()-TamContexto, buf[:]); err != nil {
		return err
	}
	uc.Decodificar(buf[:])
	return nil
}

// proximaInterrupcion entrega primero las de dispositivos y luego el reloj
func (m *Maquina) proximaInterrupcion() (Trap, bool) {
	m.mu.Lock()
	if len(m.pendientes) > 0 {
		t := m.pendientes[0]
		m.pendientes = m.pendientes[1:]
		m.mu.Unlock()
		return t, true
	}
	m.mu.Unlock()

	if m.ciclos >= m.proximoTick {
		m.proximoTick = m.ciclos + int64(m.cfg.InstruccionesPorTick)
		m.ticks++
		if m.cfg.LimiteTicks > 0 && m.ticks > m.cfg.LimiteTicks {
			m.Detener(Detencion{Tipo: DetencionLimite, Estado: Error,
				Mensaje: fmt.Sprintf("límite de %d ticks alcanzado", m.cfg.LimiteTicks)})
			runtime.Goexit()
		}
		return Trap{Tipo: TrapReloj}, true
	}
	return Trap{}, false
}

func (m *Maquina) interrumpir(t Trap) {
	m.mu.Lock()
	m.pendientes = append(m.pendientes, t)
	m.mu.Unlock()
	m.avisar()
}

func (m *Maquina) avisar() {
	select {
	case m.avisos <- struct{}{}:
	default:
	}
}

func (m *Maquina) hayPendientes() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pendientes) > 0
}

// esperarInterrupcion implementa PAUSE: la CPU queda ociosa hasta la
// próxima interrupción. Sin retardo configurado el reloj se adelanta.
func (m *Maquina) esperarInterrupcion() {
	if m.hayPendientes() {
		return
	}
	if m.cfg.RetardoTick > 0 {
		temporizador := time.NewTimer(m.cfg.RetardoTick)
		defer temporizador.Stop()
		select {
		case <-temporizador.C:
		case <-m.avisos:
			return
		case s := <-m.inspecciones:
			m.ejecutarInspeccion(s)
			return
		case <-m.detenida:
			runtime.Goexit()
		}
	}
	m.ciclos = m.proximoTick
}

// Inspeccionar ejecuta fn en la gorutina que tiene la CPU, en el límite entre
// dos instrucciones. Es la única forma segura de leer el estado del kernel
// desde otra gorutina mientras la máquina corre.
func (m *Maquina) Inspeccionar(fn func()) error {
	s := solicitud{fn: fn, listo: make(chan struct{})}
	select {
	case m.inspecciones <- s:
	case <-m.detenida:
		return ErrMaquinaDetenida
	}
	select {
	case <-s.listo:
		return nil
	case <-m.detenida:
		return ErrMaquinaDetenida
	}
}

func (m *Maquina) atenderInspecciones() {
	for {
		select {
		case s := <-m.inspecciones:
			m.ejecutarInspeccion(s)
		default:
			return
		}
	}
}

func (m *Maquina) ejecutarInspeccion(s solicitud) {
	s.fn()
	close(s.listo)
}
