package kernel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/hardware"
	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// VolcarMemoria escribe en un archivo la región 1 completa de un proceso,
// con ceros en las páginas sin mapear, y devuelve la ruta. Debe llamarse
// dentro de una inspección o con la máquina detenida.
func (k *Kernel) VolcarMemoria(pid int) (string, error) {
	p, err := k.BuscarPCB(pid)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(k.cfg.RutaDumps, 0755); err != nil {
		return "", fmt.Errorf("error al crear directorio para dumps: %w", err)
	}
	nombreArchivo := fmt.Sprintf("%d-%s.dmp", pid, time.Now().Format("20060102-150405.000"))
	ruta := filepath.Join(k.cfg.RutaDumps, nombreArchivo)

	tam := k.hw.TamPagina
	contenido := make([]byte, len(p.TablaUsuario)*tam)
	for i, e := range p.TablaUsuario {
		if e.Valido {
			k.maquina.LeerMarco(e.Marco, 0, contenido[i*tam:(i+1)*tam])
		}
	}

	if err := os.WriteFile(ruta, contenido, 0644); err != nil {
		return "", fmt.Errorf("error al escribir en archivo de dump: %w", err)
	}

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d Memory Dump solicitado", pid))
	utils.InfoLog.Info("Memory dump completado", "pid", pid, "archivo", ruta, "paginas", marcosUsuario(p))
	return ruta, nil
}

// SolicitarVolcado hace el volcado desde otra gorutina, en el próximo límite
// entre instrucciones
func (k *Kernel) SolicitarVolcado(pid int) (string, error) {
	var (
		ruta       string
		errVolcado error
	)
	err := k.maquina.Inspeccionar(func() { ruta, errVolcado = k.VolcarMemoria(pid) })
	if errors.Is(err, hardware.ErrMaquinaDetenida) {
		return k.VolcarMemoria(pid)
	}
	if err != nil {
		return "", err
	}
	return ruta, errVolcado
}
