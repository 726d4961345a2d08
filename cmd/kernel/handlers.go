package main

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// HandlerHandshake registra al módulo que se conecta
func HandlerHandshake(msg *utils.Mensaje) (interface{}, error) {
	utils.InfoLog.Info("Handshake recibido", "origen", msg.Origen)

	datosMap, ok := msg.Datos.(map[string]interface{})
	if !ok {
		utils.ErrorLog.Error("Datos inválidos en handshake", "datos", fmt.Sprintf("%v", msg.Datos))
		return map[string]interface{}{"status": "ERROR", "message": "Datos inválidos"}, nil
	}

	if datosMap["tipo"] == "IO" {
		if kernelConfig.ModoTerminal != modoRemota {
			utils.InfoLog.Warn("Módulo IO conectado pero las terminales no son remotas", "origen", msg.Origen)
		}
		return map[string]interface{}{
			"status":     "OK",
			"message":    "IO registrado",
			"terminales": len(remotas),
		}, nil
	}

	utils.InfoLog.Info("Handshake genérico completado", "origen", msg.Origen)
	return map[string]interface{}{"status": "OK", "message": "Handshake recibido"}, nil
}

// HandlerLineaRecibida entrega a la máquina una línea tipeada en el módulo IO
func HandlerLineaRecibida(msg *utils.Mensaje) (interface{}, error) {
	id, err := utils.ExtraerEntero(msg, "terminal")
	if err != nil {
		return map[string]interface{}{"status": "ERROR", "mensaje": err.Error()}, nil
	}
	linea, err := utils.ExtraerTexto(msg, "linea")
	if err != nil {
		return map[string]interface{}{"status": "ERROR", "mensaje": err.Error()}, nil
	}

	if id < 0 || id >= len(remotas) {
		utils.ErrorLog.Warn("Línea para una terminal que no es remota", "terminal", id)
		return map[string]interface{}{"status": "ERROR", "mensaje": "Terminal inexistente"}, nil
	}
	if !remotas[id].Entregar([]byte(linea)) {
		return map[string]interface{}{"status": "ERROR", "mensaje": "Terminal no conectada"}, nil
	}

	utils.InfoLog.Debug("Línea recibida del módulo IO", "terminal", id, "bytes", len(linea))
	return map[string]interface{}{"status": "OK"}, nil
}

// HandlerEstado devuelve la foto del kernel
func HandlerEstado(msg *utils.Mensaje) (interface{}, error) {
	estado, err := nucleo.Inspeccionar()
	if err != nil {
		return nil, err
	}
	return estado, nil
}

// HandlerMemoryDump vuelca la región de usuario de un proceso a un archivo
func HandlerMemoryDump(msg *utils.Mensaje) (interface{}, error) {
	pid, err := utils.ExtraerEntero(msg, "pid")
	if err != nil {
		return map[string]interface{}{"status": "ERROR", "mensaje": err.Error()}, nil
	}

	ruta, err := nucleo.SolicitarVolcado(pid)
	if err != nil {
		utils.ErrorLog.Error("Error en memory dump", "pid", pid, "error", err)
		return map[string]interface{}{"status": "ERROR", "mensaje": err.Error()}, nil
	}
	return map[string]interface{}{"status": "OK", "archivo": ruta}, nil
}
