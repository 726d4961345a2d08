package main

import (
	"io/fs"
	"os"
	"time"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/kernel"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/programas"
)

// KernelConfig define la configuración del módulo Kernel
type KernelConfig struct {
	IPKernel           string `json:"IP_KERNEL"`
	PortKernel         int    `json:"PUERTO_KERNEL"`
	IPIO               string `json:"IP_IO,omitempty"`
	PortIO             int    `json:"PUERTO_IO,omitempty"`
	LogLevel           string `json:"LOG_LEVEL"`
	TrazaHardware      string `json:"TRAZA_HARDWARE,omitempty"` // Archivo de traza; vacío = error estándar
	NivelTrazaHardware string `json:"NIVEL_TRAZA_HARDWARE,omitempty"`

	TamPagina            int `json:"TAM_PAGINA"`
	PaginasRegion0       int `json:"PAGINAS_REGION_0"`
	PaginasRegion1       int `json:"PAGINAS_REGION_1"`
	PaginasPilaKernel    int `json:"PAGINAS_PILA_KERNEL"`
	PaginasTextoKernel   int `json:"PAGINAS_TEXTO_KERNEL"`
	PaginasDatosKernel   int `json:"PAGINAS_DATOS_KERNEL"`
	CantidadMarcos       int `json:"CANTIDAD_MARCOS"`
	EntradasTLB          int `json:"ENTRADAS_TLB"`
	InstruccionesPorTick int `json:"INSTRUCCIONES_POR_TICK"`
	RetardoTick          int `json:"RETARDO_TICK"` // ms
	LimiteTicks          int `json:"LIMITE_TICKS,omitempty"`
	CantidadTerminales   int `json:"CANTIDAD_TERMINALES"`
	LargoMaxLinea        int `json:"LARGO_MAX_LINEA"`

	ModoTerminal  string `json:"MODO_TERMINAL"` // memoria, consola o remota
	ProgramasPath string `json:"PROGRAMAS_PATH,omitempty"`
	ProgramaIdle  string `json:"PROGRAMA_IDLE,omitempty"`
	DumpPath      string `json:"DUMP_PATH,omitempty"`
}

const (
	modoMemoria = "memoria"
	modoConsola = "consola"
	modoRemota  = "remota"
)

// configHardware traduce la configuración del módulo a la de la máquina;
// los campos en cero toman los valores por defecto
func (c *KernelConfig) configHardware() hardware.Config {
	return hardware.Config{
		TamPagina:            c.TamPagina,
		PaginasRegion0:       c.PaginasRegion0,
		PaginasRegion1:       c.PaginasRegion1,
		PaginasPilaKernel:    c.PaginasPilaKernel,
		CantidadMarcos:       c.CantidadMarcos,
		EntradasTLB:          c.EntradasTLB,
		InstruccionesPorTick: c.InstruccionesPorTick,
		RetardoTick:          time.Duration(c.RetardoTick) * time.Millisecond,
		LimiteTicks:          int64(c.LimiteTicks),
		CantidadTerminales:   c.CantidadTerminales,
		LargoMaxLinea:        c.LargoMaxLinea,
	}.Completar()
}

func (c *KernelConfig) configKernel() kernel.Config {
	cfg := kernel.ConfigPorDefecto()
	if c.PaginasTextoKernel > 0 {
		cfg.PaginasTextoKernel = c.PaginasTextoKernel
	}
	if c.PaginasDatosKernel > 0 {
		cfg.PaginasDatosKernel = c.PaginasDatosKernel
	}
	if c.ProgramaIdle != "" {
		cfg.ProgramaIdle = c.ProgramaIdle
	}
	if c.DumpPath != "" {
		cfg.RutaDumps = c.DumpPath
	}
	cfg.Programas = c.programas()
	return cfg
}

// programas usa el directorio configurado o, si no hay, los programas embebidos
func (c *KernelConfig) programas() fs.FS {
	if c.ProgramasPath == "" {
		return programas.FS
	}
	return os.DirFS(c.ProgramasPath)
}
