package utils

import (
	"fmt"
	"time"
)

// AplicarRetardo aplica un retardo simulado y lo registra
func AplicarRetardo(operacion string, duracion time.Duration) {
	if duracion <= 0 {
		return
	}
	InfoLog.Debug("Aplicando retardo", "operación", operacion, "duración", duracion.String())
	time.Sleep(duracion)
}

func datosMensaje(msg *Mensaje) (map[string]interface{}, error) {
	datos, ok := msg.Datos.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("formato de datos inválido en mensaje de %s", msg.Origen)
	}
	return datos, nil
}

// ExtraerEntero obtiene un campo numérico de los datos del mensaje
func ExtraerEntero(msg *Mensaje, clave string) (int, error) {
	datos, err := datosMensaje(msg)
	if err != nil {
		return 0, err
	}
	// JSON decodifica los números como float64
	v, ok := datos[clave].(float64)
	if !ok {
		return 0, fmt.Errorf("falta el campo numérico %q", clave)
	}
	return int(v), nil
}

// ExtraerTexto obtiene un campo de texto de los datos del mensaje
func ExtraerTexto(msg *Mensaje, clave string) (string, error) {
	datos, err := datosMensaje(msg)
	if err != nil {
		return "", err
	}
	v, ok := datos[clave].(string)
	if !ok {
		return "", fmt.Errorf("falta el campo de texto %q", clave)
	}
	return v, nil
}
