package kernel

import (
	"fmt"
	"io/fs"
)

// Config reúne los parámetros del kernel que no dependen del hardware
type Config struct {
	PaginasTextoKernel int    // Marcos bajos que ocupa la imagen del kernel, R|X
	PaginasDatosKernel int    // Marcos siguientes, R|W
	ProgramaIdle       string // Nombre del programa que corre el proceso idle
	LargoMaxNombre     int    // Máximo de un nombre de programa, sin el NUL
	LargoMaxArgumento  int    // Máximo de cada argumento de exec, sin el NUL
	MaxArgumentos      int
	RutaDumps          string // Directorio de los volcados de memoria
	Programas          fs.FS  // Fuentes de los programas de usuario
}

// ConfigPorDefecto devuelve la configuración usada por el módulo kernel
func ConfigPorDefecto() Config {
	return Config{
		PaginasTextoKernel: 4,
		PaginasDatosKernel: 4,
		ProgramaIdle:       "idle",
		LargoMaxNombre:     32,
		LargoMaxArgumento:  256,
		MaxArgumentos:      16,
		RutaDumps:          "dumps",
	}
}

func (c Config) validar(paginasRegion0, paginasPila int) error {
	if c.Programas == nil {
		return fmt.Errorf("no hay sistema de archivos de programas")
	}
	if c.PaginasTextoKernel < 0 || c.PaginasDatosKernel < 0 {
		return fmt.Errorf("tamaño de imagen del kernel inválido")
	}
	if c.PaginasTextoKernel+c.PaginasDatosKernel+paginasPila > paginasRegion0 {
		return fmt.Errorf("la imagen del kernel (%d páginas) y su pila (%d) no entran en la región 0 (%d)",
			c.PaginasTextoKernel+c.PaginasDatosKernel, paginasPila, paginasRegion0)
	}
	if c.LargoMaxNombre <= 0 || c.LargoMaxArgumento <= 0 || c.MaxArgumentos <= 0 {
		return fmt.Errorf("límites de exec inválidos")
	}
	return nil
}
