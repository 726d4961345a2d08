package terminales

import (
	"fmt"
	"sync"

	tty "github.com/mattn/go-tty"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// Consola conecta una terminal de la máquina al TTY real del proceso
type Consola struct {
	io      *tty.TTY
	prefijo string
	mu      sync.Mutex // Serializa las escrituras a la salida
}

// AbrirConsola abre el TTY del proceso; con ruta no vacía abre ese dispositivo
func AbrirConsola(ruta string, prefijo string) (*Consola, error) {
	var (
		t   *tty.TTY
		err error
	)
	if ruta == "" {
		t, err = tty.Open()
	} else {
		t, err = tty.OpenDevice(ruta)
	}
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir la consola: %w", err)
	}
	return &Consola{io: t, prefijo: prefijo}, nil
}

func (c *Consola) Transmitir(linea []byte, listo func()) {
	go func() {
		c.mu.Lock()
		if c.prefijo != "" {
			c.io.Output().WriteString(c.prefijo)
		}
		if _, err := c.io.Output().Write(linea); err != nil {
			utils.ErrorLog.Error("Error escribiendo en la consola", "error", err)
		}
		c.mu.Unlock()
		listo()
	}()
}

func (c *Consola) Conectar(recibir func(linea []byte)) {
	go func() {
		buf := make([]byte, 1024)
		for {
			linea, err := c.leerLinea(buf)
			if err != nil {
				utils.InfoLog.Info("Consola cerrada", "error", err)
				return
			}
			recibir(linea)
		}
	}()
}

// leerLinea lee hasta el fin de línea inclusive, descartando los caracteres
// de control y lo que no entre en buf
func (c *Consola) leerLinea(buf []byte) ([]byte, error) {
	n, descartados := 0, 0
	for {
		r, err := c.io.Input().Read(buf[n : n+1])
		if err != nil {
			return nil, err
		}
		if r == 0 {
			continue
		}
		switch {
		case buf[n] == '\r' || buf[n] == '\n':
			buf[n] = '\n'
			if descartados > 0 {
				utils.InfoLog.Warn("Línea de consola truncada", "descartados", descartados)
			}
			return append([]byte(nil), buf[:n+1]...), nil
		case buf[n] < 32:
		case n == len(buf)-2:
			descartados++
		default:
			n++
		}
	}
}

func (c *Consola) Cerrar() error {
	return c.io.Close()
}
