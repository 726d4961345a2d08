package hardware

// entradaTLB guarda una traducción ya resuelta
type entradaTLB struct {
	Pagina  int // Número de página virtual global (dirección / tamaño de página)
	Entrada EntradaTabla
	Carga   int64 // Para reemplazo FIFO
}

// TLB es la caché de traducciones de la MMU, con reemplazo FIFO
type TLB struct {
	entradas []entradaTLB
	contador int64
	Aciertos int64
	Fallos   int64
}

func nuevaTLB(capacidad int) *TLB {
	t := &TLB{entradas: make([]entradaTLB, capacidad)}
	t.Vaciar()
	return t
}

// Buscar devuelve la entrada cacheada para una página
func (t *TLB) Buscar(pagina int) (EntradaTabla, bool) {
	for _, e := range t.entradas {
		if e.Pagina == pagina {
			t.Aciertos++
			return e.Entrada, true
		}
	}
	t.Fallos++
	return EntradaTabla{}, false
}

// Cargar agrega una traducción reemplazando la más vieja si no hay lugar
func (t *TLB) Cargar(pagina int, entrada EntradaTabla) {
	t.contador++
	victima := 0
	for i, e := range t.entradas {
		if e.Pagina == -1 {
			victima = i
			break
		}
		if e.Carga < t.entradas[victima].Carga {
			victima = i
		}
	}
	t.entradas[victima] = entradaTLB{Pagina: pagina, Entrada: entrada, Carga: t.contador}
}

// Vaciar invalida todas las traducciones
func (t *TLB) Vaciar() {
	for i := range t.entradas {
		t.entradas[i] = entradaTLB{Pagina: -1}
	}
}

// traducir resuelve una dirección virtual a física verificando permisos.
// Con la memoria virtual deshabilitada las direcciones son físicas.
func (m *Maquina) traducir(dir int, acceso Proteccion, modoKernel bool) (int, *Falla) {
	if !m.vmHabilitada {
		if dir < 0 || dir >= len(m.memoria) {
			return 0, &Falla{Codigo: CodigoAccErr, Dir: dir}
		}
		return dir, nil
	}

	tam := m.cfg.TamPagina
	if dir < 0 || dir >= m.cfg.LimiteRegion1() {
		return 0, &Falla{Codigo: CodigoAccErr, Dir: dir}
	}

	var tabla TablaPaginas
	pagina := dir / tam
	indice := pagina
	if dir < m.cfg.BaseRegion1() {
		if !modoKernel {
			return 0, &Falla{Codigo: CodigoAccErr, Dir: dir}
		}
		tabla = m.ptbr0
	} else {
		tabla = m.ptbr1
		indice = pagina - m.cfg.PaginasRegion0
	}

	entrada, ok := m.tlb.Buscar(pagina)
	if !ok {
		if indice >= len(tabla) || !tabla[indice].Valido {
			return 0, &Falla{Codigo: CodigoMapErr, Dir: dir}
		}
		entrada = tabla[indice]
		m.tlb.Cargar(pagina, entrada)
	}

	if entrada.Proteccion&acceso != acceso {
		return 0, &Falla{Codigo: CodigoAccErr, Dir: dir}
	}
	fisica := entrada.Marco*tam + dir%tam
	if fisica < 0 || fisica >= len(m.memoria) {
		return 0, &Falla{Codigo: CodigoAccErr, Dir: dir}
	}
	return fisica, nil
}

// acceder copia entre buf y la memoria virtual desde dir. Las escrituras
// traducen todas las direcciones antes de modificar un solo byte, así una
// instrucción que falla no deja efectos parciales.
func (m *Maquina) acceder(dir int, buf []byte, acceso Proteccion, escribir, modoKernel bool) *Falla {
	if !escribir {
		for i := range buf {
			fisica, f := m.traducir(dir+i, acceso, modoKernel)
			if f != nil {
				return f
			}
			buf[i] = m.memoria[fisica]
		}
		return nil
	}

	fisicas := make([]int, len(buf))
	for i := range buf {
		fisica, f := m.traducir(dir+i, acceso, modoKernel)
		if f != nil {
			return f
		}
		fisicas[i] = fisica
	}
	for i, fisica := range fisicas {
		m.memoria[fisica] = buf[i]
	}
	return nil
}

// LeerVirtual lee en modo kernel desde una dirección virtual
func (m *Maquina) LeerVirtual(dir int, dst []byte) error {
	if f := m.acceder(dir, dst, ProtLectura, false, true); f != nil {
		return f
	}
	return nil
}

// EscribirVirtual escribe en modo kernel en una dirección virtual
func (m *Maquina) EscribirVirtual(dir int, src []byte) error {
	if f := m.acceder(dir, src, ProtEscritura, true, true); f != nil {
		return f
	}
	return nil
}

// EscribirPTBR0 fija la tabla de la región 0
func (m *Maquina) EscribirPTBR0(tabla TablaPaginas) {
	m.ptbr0 = tabla
}

// EscribirPTBR1 fija la tabla de la región 1
func (m *Maquina) EscribirPTBR1(tabla TablaPaginas) {
	m.ptbr1 = tabla
}

// VaciarTLB invalida la TLB completa
func (m *Maquina) VaciarTLB() {
	m.tlb.Vaciar()
	m.traza.WithField("aciertos", m.tlb.Aciertos).Trace("TLB vaciada")
}

// HabilitarVM activa la traducción de direcciones
func (m *Maquina) HabilitarVM() {
	m.vmHabilitada = true
	m.tlb.Vaciar()
	m.traza.Info("memoria virtual habilitada")
}

// TLB expone la caché de traducciones para métricas
func (m *Maquina) TLB() *TLB {
	return m.tlb
}
