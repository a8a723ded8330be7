package domain

import (
	"fmt"
	"time"
)

// PersistenceState es el estado de un lifecycle de oportunidad.
type PersistenceState int

const (
	StateOpen PersistenceState = iota
	StateClosed
)

func (s PersistenceState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("PersistenceState(%d)", int(s))
	}
}

// PersistenceKey identifica un lifecycle: mercado × tamaño objetivo.
type PersistenceKey struct {
	MarketID   string
	TargetSize float64
}

func (k PersistenceKey) String() string {
	return fmt.Sprintf("%s@%g", k.MarketID, k.TargetSize)
}

// PersistenceRecord registra cuánto tiempo un par mercado × tamaño se mantuvo
// rentable de forma continua. Una vez CLOSED es inmutable; una reaparición
// del mismo key abre un record nuevo.
type PersistenceRecord struct {
	ID               string
	Key              PersistenceKey
	MarketTitle      string
	State            PersistenceState
	FirstSeen        time.Time
	LastSeen         time.Time
	Duration         time.Duration // LastSeen - FirstSeen, fijado al cerrar
	ObservationCount int
	AvgEdge          float64
	MinEdge          float64
	MaxEdge          float64
}
