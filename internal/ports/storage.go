package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// RecordSink recibe los resultados del scanner. Es append-only.
type RecordSink interface {
	// AppendOpportunity registra una detección rentable de un ciclo.
	AppendOpportunity(ctx context.Context, opp domain.Opportunity) error

	// AppendPersistenceRecord registra un lifecycle ya cerrado.
	AppendPersistenceRecord(ctx context.Context, rec domain.PersistenceRecord) error

	// AppendCycle registra el resumen de un ciclo completado.
	AppendCycle(ctx context.Context, cycle domain.CycleSummary) error
}

// Storage es el datastore durable: sink + lectura para el reporte offline.
type Storage interface {
	RecordSink

	// ListOpportunities devuelve todas las detecciones, más recientes primero.
	ListOpportunities(ctx context.Context) ([]domain.Opportunity, error)

	// ListPersistenceRecords devuelve los lifecycles cerrados, más largos primero.
	ListPersistenceRecords(ctx context.Context) ([]domain.PersistenceRecord, error)

	// ListCycles devuelve los resúmenes de ciclo en orden cronológico.
	ListCycles(ctx context.Context) ([]domain.CycleSummary, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
