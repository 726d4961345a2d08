package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// Modulo representa un módulo del sistema con su servidor HTTP
type Modulo struct {
	Nombre      string
	Server      *HTTPServer
	Clientes    map[string]*HTTPClient
	HandlerFunc map[int]map[string]HTTPHandlerFunc
}

// NuevoModulo crea una nueva instancia de un módulo
func NuevoModulo(nombre string) *Modulo {
	return &Modulo{
		Nombre:      nombre,
		Clientes:    make(map[string]*HTTPClient),
		HandlerFunc: make(map[int]map[string]HTTPHandlerFunc),
	}
}

// RegistrarHandler registra un handler para un tipo de mensaje y operación.
// La operación "default" atiende las que no tengan uno propio.
func (m *Modulo) RegistrarHandler(tipo int, operacion string, handler HTTPHandlerFunc) {
	if _, existe := m.HandlerFunc[tipo]; !existe {
		m.HandlerFunc[tipo] = make(map[string]HTTPHandlerFunc)
	}
	m.HandlerFunc[tipo][operacion] = handler
}

// despachar elige el handler según la operación del mensaje
func despachar(tipo int, handlersPorOperacion map[string]HTTPHandlerFunc) HTTPHandlerFunc {
	return func(msg *Mensaje) (interface{}, error) {
		operacion := msg.Operacion
		if operacion == "" {
			operacion = "default"
		}

		handler, existe := handlersPorOperacion[operacion]
		if !existe {
			handler, existe = handlersPorOperacion["default"]
			if !existe {
				slog.Error("No hay handler para operación", "tipo", tipo, "operacion", operacion)
				return nil, fmt.Errorf("no hay handler para operación %s", operacion)
			}
		}
		return handler(msg)
	}
}

// IniciarServidor crea el servidor HTTP del módulo y lo pone a escuchar en
// segundo plano. Un error al escuchar se informa por el canal devuelto.
func (m *Modulo) IniciarServidor(ip string, puerto int) <-chan error {
	m.Server = NewHTTPServer(ip, puerto, m.Nombre)
	for tipo, handlersPorOperacion := range m.HandlerFunc {
		m.Server.RegisterHTTPHandler(tipo, despachar(tipo, handlersPorOperacion))
	}

	errores := make(chan error, 1)
	go func() {
		if err := m.Server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error al iniciar servidor HTTP", "error", err)
			errores <- err
		}
		close(errores)
	}()

	slog.Info("Servidor HTTP iniciado", "módulo", m.Nombre, "dirección", fmt.Sprintf("%s:%d", ip, puerto))
	return errores
}

// CargarConfiguracion lee el JSON de ruta; termina el proceso si no puede
func CargarConfiguracion[T any](ruta string) *T {
	slog.Info("Cargando configuración", "ruta", ruta)

	absPath, err := filepath.Abs(ruta)
	if err != nil {
		slog.Error("Error obteniendo ruta absoluta", "error", err, "ruta", ruta)
		os.Exit(1)
	}

	file, err := os.Open(absPath)
	if err != nil {
		slog.Error("Error abriendo archivo de configuración", "error", err, "archivo", absPath)
		os.Exit(1)
	}
	defer file.Close()

	config, err := DecodificarConfiguracion[T](file)
	if err != nil {
		slog.Error("Error decodificando configuración", "error", err, "archivo", absPath)
		os.Exit(1)
	}

	slog.Info("Configuración cargada correctamente")
	return config
}

// DecodificarConfiguracion decodifica un JSON rechazando claves desconocidas
func DecodificarConfiguracion[T any](r io.Reader) (*T, error) {
	var config T
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("configuración inválida: %w", err)
	}
	return &config, nil
}

// ============================================================================
// Constantes para tipos de mensajes entre módulos
// ============================================================================
const (
	// === COMUNICACIÓN BÁSICA (1-9) ===
	MensajeHandshake = 1 // Conexión inicial
	MensajeOperacion = 2 // Operaciones genéricas

	// === MEMORIA (10-19) ===
	MensajeMemoryDump = 15 // Volcado de la región de usuario de un proceso

	// === TERMINALES (40-49) ===
	MensajeTransmitir    = 40 // Kernel -> IO: mostrar una línea
	MensajeLineaRecibida = 41 // IO -> Kernel: línea tipeada por el usuario

	// === ESTADO DEL KERNEL (50-59) ===
	MensajeEstado = 50 // Colas, procesos y marcos
)
