package main

import (
	"fmt"
	"time"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// Handler para handshake
func handlerHandshake(msg *utils.Mensaje) (interface{}, error) {
	utils.InfoLog.Info("Handshake recibido", "origen", msg.Origen)
	return map[string]interface{}{"status": "OK"}, nil
}

// handlerTransmitir muestra una línea que el kernel transmite a una terminal.
// Responde cuando la línea terminó de escribirse. Como mucho
// TRANSMISIONES_SIMULTANEAS terminales transmiten a la vez, el resto espera.
func handlerTransmitir(msg *utils.Mensaje) (interface{}, error) {
	id, err := utils.ExtraerEntero(msg, "terminal")
	if err != nil {
		utils.ErrorLog.Warn("Transmisión sin terminal válida", "error", err)
		return map[string]interface{}{"status": "ERROR", "mensaje": err.Error()}, nil
	}
	datos, err := utils.ExtraerTexto(msg, "datos")
	if err != nil {
		utils.ErrorLog.Warn("Transmisión sin datos", "terminal", id, "error", err)
		return map[string]interface{}{"status": "ERROR", "mensaje": err.Error()}, nil
	}

	if !transmisiones.IntentarTomar() {
		utils.InfoLog.Debug(fmt.Sprintf("Terminal: %d - Transmisión en espera", id), "en_curso", transmisiones.Ocupados())
		transmisiones.Tomar()
	}
	defer transmisiones.Soltar()

	utils.InfoLog.Info(fmt.Sprintf("Terminal: %d - Inicio de transmisión - Bytes: %d", id, len(datos)))
	utils.AplicarRetardo("transmision", time.Duration(config.RetardoBase)*time.Millisecond)
	mostrar(id, []byte(datos))
	utils.InfoLog.Info(fmt.Sprintf("Terminal: %d - Fin de transmisión", id))

	return map[string]interface{}{
		"status":  "OK",
		"mensaje": "Transmisión completada",
	}, nil
}
