package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

func main() {
	// Inicializar loggers
	utils.InicializarLogger("INFO", "kernel")

	utils.InfoLog.Info("Kernel iniciando", "args", os.Args)

	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Uso: %s <archivo_configuracion> <programa> [argumentos...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s configs/kernel.json init\n", os.Args[0])
		os.Exit(1)
	}

	configPath := os.Args[1]
	programa := os.Args[2]
	args := os.Args[2:]

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		utils.ErrorLog.Error("El archivo de configuración no existe", "archivo", configPath)
		os.Exit(1)
	}

	if err := inicializarKernel(configPath); err != nil {
		utils.ErrorLog.Error("Error durante la inicialización del Kernel", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		utils.InfoLog.Info("Ctrl+C recibido. Finalizando Kernel")
		apagar()
		os.Exit(130)
	}()
	go func() {
		if err, ok := <-erroresServer; ok {
			utils.ErrorLog.Error("El servidor HTTP terminó", "error", err)
		}
	}()

	utils.InfoLog.Info("Kernel listo, arrancando la máquina", "programa", programa, "args", args)
	d := nucleo.Ejecutar(programa, args)

	utils.InfoLog.Info("Máquina detenida",
		"motivo", d.Tipo.String(),
		"estado", d.Estado,
		"mensaje", d.Mensaje,
		"ticks", nucleo.Ticks())
	for _, alma := range nucleo.Salidas() {
		utils.InfoLog.Info(fmt.Sprintf("## (%d) - Finalizó con estado %d", alma.PID, alma.Estado))
	}
	mostrarTerminales()
	apagar()
	os.Exit(codigoSalida(d))
}

// codigoSalida traduce la detención de la máquina al código del proceso
func codigoSalida(d hardware.Detencion) int {
	if d.Tipo != hardware.DetencionNormal {
		return 1
	}
	return d.Estado & 0xff
}

// mostrarTerminales imprime lo transmitido a las terminales sin dispositivo
func mostrarTerminales() {
	ids := make([]int, 0, len(enMemoria))
	for id := range enMemoria {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if salida := enMemoria[id].Salida(); salida != "" {
			fmt.Printf("--- terminal %d ---\n%s", id, salida)
		}
	}
}

func apagar() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := kernelModulo.Server.Detener(ctx); err != nil {
		utils.ErrorLog.Error("Error cerrando el servidor HTTP", "error", err)
	}
	if consola != nil {
		consola.Cerrar()
	}
}
