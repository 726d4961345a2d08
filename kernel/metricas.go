package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-yalnix-LosCuervosXeneizes/utils"
)

// MetricasProceso acumula contadores de un proceso durante su vida
type MetricasProceso struct {
	Creacion     int64 `json:"creacion"` // Tick de creación
	Ticks        int   `json:"ticks"`    // Interrupciones de reloj recibidas mientras ejecutaba
	Syscalls     int   `json:"syscalls"`
	FallosPagina int   `json:"fallos_pagina"`
	Forks        int   `json:"forks"`
}

// destruirMetricas registra las métricas finales de un proceso que termina
func (k *Kernel) destruirMetricas(p *PCB, estado int) {
	m := p.Metricas
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Métricas: TICKS (%d), SYSCALLS (%d), FALLOS_PAGINA (%d), FORKS (%d), VIDA (%d)",
		p.PID, m.Ticks, m.Syscalls, m.FallosPagina, m.Forks, k.ticks-m.Creacion), "estado", estado)
}
