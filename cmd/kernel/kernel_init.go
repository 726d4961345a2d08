package main

import (
	"fmt"
	"os"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/kernel"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/terminales"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

var (
	kernelModulo  *utils.Modulo
	kernelConfig  *KernelConfig
	nucleo        *kernel.Kernel
	ioClient      *utils.HTTPClient
	remotas       []*terminales.Remota
	enMemoria     map[int]*terminales.Memoria
	consola       *terminales.Consola
	erroresServer <-chan error
)

// inicializarKernel arma la máquina, conecta las terminales y levanta el servidor
func inicializarKernel(configPath string) error {
	kernelModulo = utils.NuevoModulo("Kernel")
	kernelConfig = utils.CargarConfiguracion[KernelConfig](configPath)

	utils.InicializarLogger(kernelConfig.LogLevel, "Kernel")
	utils.InfoLog.Info("Inicializando Kernel", "config_path", configPath)

	maquina, err := hardware.NuevaMaquina(kernelConfig.configHardware())
	if err != nil {
		return fmt.Errorf("configuración de hardware inválida: %w", err)
	}

	nivel := kernelConfig.NivelTrazaHardware
	if nivel == "" {
		nivel = "warn"
	}
	traza, err := hardware.NuevaTraza(kernelConfig.TrazaHardware, nivel, os.Stderr)
	if err != nil {
		return fmt.Errorf("no se pudo abrir la traza del hardware: %w", err)
	}
	maquina.UsarTraza(traza)

	nucleo, err = kernel.Nuevo(maquina, kernelConfig.configKernel())
	if err != nil {
		return fmt.Errorf("configuración del kernel inválida: %w", err)
	}

	if err := conectarTerminales(maquina); err != nil {
		return err
	}

	registrarHandlers()
	erroresServer = kernelModulo.IniciarServidor(kernelConfig.IPKernel, kernelConfig.PortKernel)

	utils.InfoLog.Info("Kernel inicializado correctamente",
		"marcos", maquina.Config().CantidadMarcos,
		"terminales", maquina.Config().CantidadTerminales,
		"modo_terminal", kernelConfig.ModoTerminal)
	return nil
}

// conectarTerminales asocia un dispositivo a cada terminal según el modo.
// En modo consola la terminal 0 es el TTY real y el resto quedan en memoria.
func conectarTerminales(m *hardware.Maquina) error {
	cantidad := m.Config().CantidadTerminales

	switch kernelConfig.ModoTerminal {
	case modoRemota:
		ioClient = utils.NewHTTPClient(kernelConfig.IPIO, kernelConfig.PortIO, "Kernel->IO")
		if err := ioClient.VerificarConexion(); err != nil {
			utils.InfoLog.Warn("El módulo IO todavía no responde", "error", err)
		}
		for i := 0; i < cantidad; i++ {
			r := terminales.NuevaRemota(i, ioClient)
			remotas = append(remotas, r)
			if err := m.ConectarTerminal(i, r); err != nil {
				return err
			}
		}
		return nil

	case modoConsola:
		var err error
		consola, err = terminales.AbrirConsola("", "")
		if err != nil {
			return err
		}
		if err := m.ConectarTerminal(0, consola); err != nil {
			return err
		}
		return conectarEnMemoria(m, 1, cantidad)

	case modoMemoria, "":
		return conectarEnMemoria(m, 0, cantidad)
	}
	return fmt.Errorf("modo de terminal desconocido: %s", kernelConfig.ModoTerminal)
}

func conectarEnMemoria(m *hardware.Maquina, desde, hasta int) error {
	enMemoria = make(map[int]*terminales.Memoria)
	for i := desde; i < hasta; i++ {
		t := terminales.NuevaMemoria()
		enMemoria[i] = t
		if err := m.ConectarTerminal(i, t); err != nil {
			return err
		}
	}
	return nil
}

// registrarHandlers registra todos los manejadores HTTP
func registrarHandlers() {
	kernelModulo.RegistrarHandler(utils.MensajeHandshake, "handshake", HandlerHandshake)
	kernelModulo.RegistrarHandler(utils.MensajeLineaRecibida, "default", HandlerLineaRecibida)
	kernelModulo.RegistrarHandler(utils.MensajeEstado, "default", HandlerEstado)
	kernelModulo.RegistrarHandler(utils.MensajeMemoryDump, "default", HandlerMemoryDump)

	utils.InfoLog.Info("Handlers registrados correctamente")
}
