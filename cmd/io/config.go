package main

import "github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"

// Estructura de configuración para IO
type IOConfig struct {
	IPIO               string `json:"IP_IO"`
	PortIO             int    `json:"PUERTO_IO"`
	IPKernel           string `json:"IP_KERNEL"`
	PortKernel         int    `json:"PUERTO_KERNEL"`
	LogLevel           string `json:"LOG_LEVEL"`
	RetardoBase        int    `json:"RETARDO_BASE"` // ms por transmisión
	TerminalPorDefecto int    `json:"TERMINAL_POR_DEFECTO"`
	Dispositivo        string `json:"DISPOSITIVO,omitempty"` // TTY a abrir; vacío = el del proceso

	TransmisionesSimultaneas int `json:"TRANSMISIONES_SIMULTANEAS"` // Terminales que se muestran a la vez
}

// Variables globales
var (
	config        *IOConfig
	transmisiones *utils.Semaforo
)
