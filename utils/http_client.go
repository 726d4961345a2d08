package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Mensaje representa un mensaje genérico entre módulos
type Mensaje struct {
	Tipo      int         `json:"tipo"`
	Operacion string      `json:"operacion"`
	Origen    string      `json:"origen"`
	Datos     interface{} `json:"datos"`
}

// HTTPClient representa un cliente HTTP para comunicación entre módulos
type HTTPClient struct {
	BaseURL string
	Nombre  string
	client  *http.Client
}

// NewHTTPClient crea un nuevo cliente HTTP
func NewHTTPClient(ip string, puerto int, nombre string) *HTTPClient {
	return NewHTTPClientURL(fmt.Sprintf("http://%s:%d", ip, puerto), nombre)
}

// NewHTTPClientURL crea un cliente hacia una URL base ya armada
func NewHTTPClientURL(baseURL string, nombre string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Nombre:  nombre,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// EnviarHTTPMensaje envía un mensaje a través de HTTP
func (c *HTTPClient) EnviarHTTPMensaje(tipo int, operacion string, datos interface{}) (interface{}, error) {
	mensaje := Mensaje{
		Tipo:      tipo,
		Operacion: operacion,
		Origen:    c.Nombre,
		Datos:     datos,
	}

	jsonData, err := json.Marshal(mensaje)
	if err != nil {
		return nil, fmt.Errorf("error al serializar mensaje: %w", err)
	}

	resp, err := c.client.Post(
		fmt.Sprintf("%s/mensaje", c.BaseURL),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("error al enviar mensaje HTTP a %s: %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("respuesta HTTP no exitosa: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var resultado interface{}
	if err := json.NewDecoder(resp.Body).Decode(&resultado); err != nil {
		return nil, fmt.Errorf("error al decodificar respuesta: %w", err)
	}

	return resultado, nil
}

// VerificarConexion verifica si un módulo está disponible
func (c *HTTPClient) VerificarConexion() error {
	resp, err := c.client.Get(fmt.Sprintf("%s/health", c.BaseURL))
	if err != nil {
		return fmt.Errorf("error al verificar conexión con %s: %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("estado inesperado al verificar conexión: %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("error al decodificar respuesta de verificación: %w", err)
	}

	slog.Info("Conexión verificada", "destino", c.BaseURL, "módulo", result["module"])
	return nil
}

// ConectarConReintentos envía el handshake hasta que el destino responda o
// se agoten los intentos (0 = sin límite)
func (c *HTTPClient) ConectarConReintentos(destino string, datos map[string]interface{}, intentos int, espera time.Duration) error {
	InfoLog.Info("Iniciando conexión", "destino", destino)

	var err error
	for i := 1; intentos == 0 || i <= intentos; i++ {
		if _, err = c.EnviarHTTPMensaje(MensajeHandshake, "handshake", datos); err == nil {
			InfoLog.Info("Conexión establecida", "destino", destino)
			return nil
		}
		InfoLog.Warn("Reintentando conexión", "destino", destino, "intento", i, "próximo_en", espera.String())
		time.Sleep(espera)
	}
	return fmt.Errorf("no se pudo conectar con %s: %w", destino, err)
}
