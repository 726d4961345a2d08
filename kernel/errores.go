package kernel

import "errors"

var (
	ErrSinMemoria       = errors.New("no hay marcos libres")
	ErrMarcoInvalido    = errors.New("marco inválido")
	ErrColaVacia        = errors.New("la cola está vacía")
	ErrNoPertenece      = errors.New("el proceso no pertenece a la cola")
	ErrYaEncolado       = errors.New("el proceso ya está en una cola")
	ErrProgramaInvalido = errors.New("programa inválido")
	ErrProcesoInexiste  = errors.New("el proceso no existe")
)

// ResultadoCarga es el desenlace de cargar un programa en un proceso
type ResultadoCarga int

const (
	CargaExito ResultadoCarga = iota
	CargaError                // No se tocó el proceso, el llamador recibe ERROR
	CargaMatar                // El espacio viejo ya se liberó, el proceso debe morir
)

func (r ResultadoCarga) String() string {
	switch r {
	case CargaExito:
		return "EXITO"
	case CargaError:
		return "ERROR"
	case CargaMatar:
		return "MATAR"
	}
	return "DESCONOCIDO"
}
