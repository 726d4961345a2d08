package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/terminales"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

var (
	modulo       *utils.Modulo
	kernelClient *utils.HTTPClient
)

func main() {
	// Verificar argumentos mínimos
	if len(os.Args) < 2 {
		fmt.Println("Uso: ./io <ruta_configuracion>")
		fmt.Println("Ejemplo: ./io configs/io.json")
		os.Exit(1)
	}

	rutaConfig := os.Args[1]

	// Verificar que el archivo de configuración existe
	if _, err := os.Stat(rutaConfig); os.IsNotExist(err) {
		fmt.Printf("Error: El archivo de configuración '%s' no existe\n", rutaConfig)
		os.Exit(1)
	}

	if err := inicializarModulo(rutaConfig); err != nil {
		utils.ErrorLog.Error("Error inicializando el módulo IO", "error", err)
		os.Exit(1)
	}

	// Mantener vivo el proceso
	select {}
}

func inicializarModulo(rutaConfig string) error {
	modulo = utils.NuevoModulo("IO")

	utils.InicializarLogger("INFO", "IO")
	config = utils.CargarConfiguracion[IOConfig](rutaConfig)
	utils.InicializarLogger(config.LogLevel, "IO")
	transmisiones = utils.NewSemaforo(config.TransmisionesSimultaneas)

	utils.InfoLog.Info("Módulo IO inicializado",
		"config_path", rutaConfig,
		"ip", config.IPIO,
		"puerto", config.PortIO,
		"nivel_log", config.LogLevel,
		"transmisiones_simultaneas", transmisiones.Capacidad())

	consola, err := terminales.AbrirConsola(config.Dispositivo, "")
	if err != nil {
		return err
	}
	salida = consola

	registrarHandlers()
	modulo.IniciarServidor(config.IPIO, config.PortIO)

	kernelClient = utils.NewHTTPClient(config.IPKernel, config.PortKernel, "IO->Kernel")
	datosHandshake := map[string]interface{}{
		"nombre": "IO",
		"tipo":   "IO",
		"ip":     config.IPIO,
		"puerto": config.PortIO,
	}

	// Las líneas tipeadas se envían recién con el kernel conectado
	go func() {
		if err := kernelClient.ConectarConReintentos("Kernel", datosHandshake, 0, 2*time.Second); err != nil {
			utils.ErrorLog.Error("No se pudo conectar con Kernel", "error", err)
			return
		}
		salida.Conectar(notificarLineaAKernel)
	}()
	utils.InfoLog.Info("Conectando a Kernel", "ip", config.IPKernel, "puerto", config.PortKernel)
	return nil
}

func registrarHandlers() {
	modulo.RegistrarHandler(utils.MensajeHandshake, "handshake", handlerHandshake)
	modulo.RegistrarHandler(utils.MensajeTransmitir, "default", handlerTransmitir)

	utils.InfoLog.Info("Handlers registrados correctamente")
}
