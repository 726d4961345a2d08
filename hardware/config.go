package hardware

import (
	"fmt"
	"time"
)

// Config describe la geometría y los tiempos de la máquina simulada
type Config struct {
	TamPagina            int           // Tamaño de página y de marco en bytes
	PaginasRegion0       int           // Páginas de la región del kernel
	PaginasRegion1       int           // Páginas de la región de usuario
	PaginasPilaKernel    int           // Páginas reservadas a la pila del kernel (tope de la región 0)
	CantidadMarcos       int           // Marcos de memoria física
	EntradasTLB          int           // Capacidad de la TLB
	InstruccionesPorTick int           // Instrucciones de usuario entre interrupciones de reloj
	RetardoTick          time.Duration // Espera real de un PAUSE hasta el próximo tick (0 = sin espera)
	LimiteTicks          int64         // Detiene la máquina al superar este número de ticks (0 = sin límite)
	CantidadTerminales   int
	LargoMaxLinea        int
}

// ConfigPorDefecto devuelve una máquina chica, suficiente para los programas de ejemplo
func ConfigPorDefecto() Config {
	return Config{
		TamPagina:            256,
		PaginasRegion0:       32,
		PaginasRegion1:       32,
		PaginasPilaKernel:    2,
		CantidadMarcos:       128,
		EntradasTLB:          16,
		InstruccionesPorTick: 200,
		CantidadTerminales:   4,
		LargoMaxLinea:        128,
	}
}

// Completar rellena con valores por defecto los campos en cero
func (c Config) Completar() Config {
	def := ConfigPorDefecto()
	if c.TamPagina <= 0 {
		c.TamPagina = def.TamPagina
	}
	if c.PaginasRegion0 <= 0 {
		c.PaginasRegion0 = def.PaginasRegion0
	}
	if c.PaginasRegion1 <= 0 {
		c.PaginasRegion1 = def.PaginasRegion1
	}
	if c.PaginasPilaKernel <= 0 {
		c.PaginasPilaKernel = def.PaginasPilaKernel
	}
	if c.CantidadMarcos <= 0 {
		c.CantidadMarcos = def.CantidadMarcos
	}
	if c.EntradasTLB <= 0 {
		c.EntradasTLB = def.EntradasTLB
	}
	if c.InstruccionesPorTick <= 0 {
		c.InstruccionesPorTick = def.InstruccionesPorTick
	}
	if c.CantidadTerminales <= 0 {
		c.CantidadTerminales = def.CantidadTerminales
	}
	if c.LargoMaxLinea <= 0 {
		c.LargoMaxLinea = def.LargoMaxLinea
	}
	return c
}

// Validar controla que la geometría sea coherente
func (c Config) Validar() error {
	if c.TamPagina < TamContexto || c.TamPagina%TamInstruccion != 0 {
		return fmt.Errorf("tamaño de página inválido: %d", c.TamPagina)
	}
	if c.PaginasPilaKernel >= c.PaginasRegion0 {
		return fmt.Errorf("la pila del kernel (%d páginas) no entra en la región 0 (%d páginas)",
			c.PaginasPilaKernel, c.PaginasRegion0)
	}
	if c.CantidadMarcos < c.PaginasRegion0 {
		return fmt.Errorf("la memoria física (%d marcos) no alcanza para mapear la región 0 (%d páginas)",
			c.CantidadMarcos, c.PaginasRegion0)
	}
	return nil
}

// BaseRegion1 es la primera dirección virtual de la región de usuario
func (c Config) BaseRegion1() int {
	return c.PaginasRegion0 * c.TamPagina
}

// LimiteRegion1 es la primera dirección fuera de la región de usuario
func (c Config) LimiteRegion1() int {
	return c.BaseRegion1() + c.PaginasRegion1*c.TamPagina
}

// PrimeraPaginaPila es el índice de región 0 de la página más baja de la pila del kernel
func (c Config) PrimeraPaginaPila() int {
	return c.PaginasRegion0 - c.PaginasPilaKernel
}

// LimitePilaKernel es la dirección del tope de la pila del kernel
func (c Config) LimitePilaKernel() int {
	return c.PaginasRegion0 * c.TamPagina
}

func (c Config) TamMemoria() int {
	return c.CantidadMarcos * c.TamPagina
}
