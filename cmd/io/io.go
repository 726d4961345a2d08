package main

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// salida es el dispositivo donde se muestran las transmisiones y se tipean
// las líneas para el kernel
var salida hardware.Dispositivo

// mostrar escribe la línea con el prefijo de su terminal y espera a que termine
func mostrar(id int, linea []byte) {
	listo := make(chan struct{})
	salida.Transmitir(append([]byte(fmt.Sprintf("[tty%d] ", id)), linea...), func() { close(listo) })
	<-listo
}

// destinoLinea separa el prefijo "N>" que elige la terminal destino; sin
// prefijo la línea va a la terminal por defecto
func destinoLinea(linea []byte, porDefecto int) (int, []byte) {
	i := bytes.IndexByte(linea, '>')
	if i <= 0 {
		return porDefecto, linea
	}
	id, err := strconv.Atoi(string(linea[:i]))
	if err != nil || id < 0 {
		return porDefecto, linea
	}
	return id, linea[i+1:]
}

// notificarLineaAKernel envía al kernel una línea tipeada
func notificarLineaAKernel(linea []byte) {
	id, texto := destinoLinea(linea, config.TerminalPorDefecto)
	datos := map[string]interface{}{
		"terminal": id,
		"linea":    string(texto),
	}

	if kernelClient == nil {
		utils.ErrorLog.Error("Cliente de Kernel no inicializado")
		return
	}

	respuesta, err := kernelClient.EnviarHTTPMensaje(utils.MensajeLineaRecibida, "LINEA", datos)
	if err != nil {
		utils.ErrorLog.Error("Error enviando línea a Kernel", "error", err.Error(), "terminal", id)
		return
	}
	if r, ok := respuesta.(map[string]interface{}); ok && r["status"] != "OK" {
		utils.ErrorLog.Warn("Kernel rechazó la línea", "terminal", id, "mensaje", r["mensaje"])
		return
	}
	utils.InfoLog.Info(fmt.Sprintf("Terminal: %d - Línea enviada - Bytes: %d", id, len(texto)))
}
