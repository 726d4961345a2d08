package terminales

import (
	"sync"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// Remota es una terminal atendida por el módulo IO a través de HTTP. Lo que
// el kernel transmite se envía al módulo; lo que el módulo recibe del usuario
// llega por Entregar.
type Remota struct {
	ID      int
	cliente *utils.HTTPClient

	mu      sync.Mutex
	recibir func(linea []byte)
}

func NuevaRemota(id int, cliente *utils.HTTPClient) *Remota {
	return &Remota{ID: id, cliente: cliente}
}

func (r *Remota) Transmitir(linea []byte, listo func()) {
	datos := map[string]interface{}{
		"terminal": r.ID,
		"datos":    string(linea),
	}
	// La máquina no inicia otra transmisión en esta terminal hasta que se llame a listo
	go func() {
		if _, err := r.cliente.EnviarHTTPMensaje(utils.MensajeTransmitir, "TRANSMITIR", datos); err != nil {
			utils.ErrorLog.Error("Error enviando transmisión a la terminal remota", "terminal", r.ID, "error", err)
		}
		// La transmisión termina aunque falle, el kernel no reintenta
		listo()
	}()
}

func (r *Remota) Conectar(recibir func(linea []byte)) {
	r.mu.Lock()
	r.recibir = recibir
	r.mu.Unlock()
}

// Entregar pasa a la máquina una línea tipeada en la terminal remota
func (r *Remota) Entregar(linea []byte) bool {
	r.mu.Lock()
	recibir := r.recibir
	r.mu.Unlock()
	if recibir == nil {
		return false
	}
	recibir(linea)
	return true
}
