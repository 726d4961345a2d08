package utils

import (
	"context"
	"log/slog"
	"os"
)

// Niveles de traza del kernel, ubicados sobre la escala de slog
const (
	TrazaErrorKernel slog.Level = slog.LevelError + 4 // Error de programación del kernel
	TrazaCritica     slog.Level = slog.LevelError     // Detiene la máquina a propósito
	TrazaSevera      slog.Level = slog.LevelWarn      // Mata a un proceso de usuario
	TrazaUsuario     slog.Level = slog.LevelInfo      // Argumento inválido de usuario, se devuelve error
	TrazaDetalle     slog.Level = slog.LevelDebug
	TrazaTrap        slog.Level = slog.LevelDebug - 4
)

var (
	InfoLog  = slog.Default()
	ErrorLog = slog.Default()
)

// InicializarLogger configura los loggers globales
func InicializarLogger(logLevel string, moduleName string) {
	var level slog.Level

	switch logLevel {
	case "trace", "TRACE":
		level = TrazaTrap
	case "debug", "DEBUG":
		level = slog.LevelDebug
	case "info", "INFO":
		level = slog.LevelInfo
	case "warn", "WARN":
		level = slog.LevelWarn
	case "error", "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: nombrarNiveles,
	})

	logger := slog.New(handler).With("modulo", moduleName)

	InfoLog = logger
	ErrorLog = logger
}

// nombrarNiveles muestra los niveles propios con nombre en lugar de "ERROR+4"
func nombrarNiveles(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	switch a.Value.Any().(slog.Level) {
	case TrazaErrorKernel:
		a.Value = slog.StringValue("KERNEL")
	case TrazaTrap:
		a.Value = slog.StringValue("TRAP")
	}
	return a
}

// Trazar registra un mensaje del kernel con uno de los niveles de traza
func Trazar(nivel slog.Level, msg string, args ...any) {
	logger := InfoLog
	if nivel >= slog.LevelError {
		logger = ErrorLog
	}
	logger.Log(context.Background(), nivel, msg, args...)
}
