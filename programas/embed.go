// Package programas contiene los programas de usuario que trae el sistema
package programas

import "embed"

// FS guarda los fuentes; el cargador los busca por nombre, con o sin ".yasm"
//
//go:embed *.yasm
var FS embed.FS
