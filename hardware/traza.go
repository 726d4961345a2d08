package hardware

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// NuevaTraza crea el logger de traza del hardware. Con ruta vacía escribe
// en salida; nivel acepta los nombres de logrus (trace, debug, info, warn...).
func NuevaTraza(ruta string, nivel string, salida io.Writer) (*logrus.Logger, error) {
	traza := logrus.New()
	traza.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	lvl, err := logrus.ParseLevel(nivel)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	traza.SetLevel(lvl)

	if ruta == "" {
		traza.SetOutput(salida)
		return traza, nil
	}

	if err := os.MkdirAll(filepath.Dir(ruta), 0755); err != nil {
		return nil, err
	}
	archivo, err := os.Create(ruta)
	if err != nil {
		return nil, err
	}
	traza.SetOutput(archivo)
	return traza, nil
}
