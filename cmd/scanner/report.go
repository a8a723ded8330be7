package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alejandrodnm/polyarb/internal/adapters/notify"
	"github.com/alejandrodnm/polyarb/internal/analytics"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// runReport lee el datastore y imprime el reporte de analíticas.
func runReport(ctx context.Context, store ports.Storage, console *notify.Console, thresholds []float64) error {
	opps, err := store.ListOpportunities(ctx)
	if err != nil {
		return fmt.Errorf("runReport: %w", err)
	}
	recs, err := store.ListPersistenceRecords(ctx)
	if err != nil {
		return fmt.Errorf("runReport: %w", err)
	}
	cycles, err := store.ListCycles(ctx)
	if err != nil {
		return fmt.Errorf("runReport: %w", err)
	}

	console.PrintReport(analytics.Build(opps, recs, cycles, thresholds))
	return nil
}

// runExport vuelca el log de detecciones a un CSV.
func runExport(ctx context.Context, store ports.Storage, path string) error {
	opps, err := store.ListOpportunities(ctx)
	if err != nil {
		return fmt.Errorf("runExport: %w", err)
	}
	if len(opps) == 0 {
		slog.Warn("no opportunities to export")
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("runExport: create %q: %w", path, err)
	}
	if err := notify.WriteOpportunitiesCSV(f, opps); err != nil {
		f.Close()
		return fmt.Errorf("runExport: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("runExport: close %q: %w", path, err)
	}

	slog.Info("opportunities exported", "count", len(opps), "file", path)
	return nil
}
