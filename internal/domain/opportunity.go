package domain

import "time"

// Opportunity es una detección de un ciclo: un mercado × tamaño objetivo
// donde ambas patas se llenan por completo. Qualifies indica edge neto > 0.
type Opportunity struct {
	ID          string
	Timestamp   time.Time
	MarketID    string
	MarketTitle string
	TargetSize  float64

	VWAPYes   float64
	VWAPNo    float64
	YesLevels int // profundidad del book consumida por la pata YES
	NoLevels  int

	FeeRateYes      float64
	FeeRateNo       float64
	RawEdge         float64
	FeeAdjustedEdge float64
	EffectiveCost   float64
	Qualifies       bool
}

// Key devuelve la clave de persistencia de la oportunidad.
func (o Opportunity) Key() PersistenceKey {
	return PersistenceKey{MarketID: o.MarketID, TargetSize: o.TargetSize}
}

// CycleReport resume un ciclo de escaneo para el notifier.
type CycleReport struct {
	Cycle         int
	StartedAt     time.Time
	Duration      time.Duration
	Markets       int // mercados listados
	Skipped       int // mercados sin books tras agotar retries
	Evaluated     int // pares mercado × tamaño con ambas patas llenas
	Opportunities []Opportunity
	Opened        int
	Closed        []PersistenceRecord
	OpenCount     int // lifecycles abiertos tras reconciliar
}

// CycleSummary es la fila persistida de un ciclo: solo conteos.
type CycleSummary struct {
	Cycle         int
	StartedAt     time.Time
	Duration      time.Duration
	Markets       int
	Skipped       int
	Evaluated     int
	Opportunities int
	Qualifying    int
	Opened        int
	Closed        int
	OpenCount     int
}

// Summary reduce el reporte a sus conteos.
func (r CycleReport) Summary() CycleSummary {
	s := CycleSummary{
		Cycle:         r.Cycle,
		StartedAt:     r.StartedAt,
		Duration:      r.Duration,
		Markets:       r.Markets,
		Skipped:       r.Skipped,
		Evaluated:     r.Evaluated,
		Opportunities: len(r.Opportunities),
		Opened:        r.Opened,
		Closed:        len(r.Closed),
		OpenCount:     r.OpenCount,
	}
	for _, o := range r.Opportunities {
		if o.Qualifies {
			s.Qualifying++
		}
	}
	return s
}
