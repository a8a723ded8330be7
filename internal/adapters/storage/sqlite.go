package storage

// sqlite.go: log append-only de la medición.
//
//   - `opportunities`: una fila por detección (mercado × tamaño × ciclo). Nunca se actualiza.
//   - `persistence_records`: una fila por lifecycle cerrado. Los OPEN viven solo en memoria.
//   - `cycles`: resumen ligero por ciclo, para normalizar las analíticas por scan.
//
// Los tiempos se guardan como TEXT de ancho fijo en UTC (ordenable como string)
// y las duraciones en milisegundos.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
    id                TEXT PRIMARY KEY,
    scanned_at        TEXT    NOT NULL,
    market_id         TEXT    NOT NULL,
    market_title      TEXT,
    target_size       REAL    NOT NULL,
    vwap_yes          REAL    NOT NULL,
    vwap_no           REAL    NOT NULL,
    yes_levels        INTEGER NOT NULL DEFAULT 0,
    no_levels         INTEGER NOT NULL DEFAULT 0,
    fee_rate_yes      REAL    NOT NULL DEFAULT 0,
    fee_rate_no       REAL    NOT NULL DEFAULT 0,
    raw_edge          REAL    NOT NULL,
    fee_adjusted_edge REAL    NOT NULL,
    effective_cost    REAL    NOT NULL,
    qualifies         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS persistence_records (
    id                TEXT PRIMARY KEY,
    market_id         TEXT    NOT NULL,
    market_title      TEXT,
    target_size       REAL    NOT NULL,
    first_seen        TEXT    NOT NULL,
    last_seen         TEXT    NOT NULL,
    duration_ms       INTEGER NOT NULL,
    observation_count INTEGER NOT NULL,
    avg_edge          REAL    NOT NULL,
    min_edge          REAL    NOT NULL,
    max_edge          REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle         INTEGER NOT NULL,
    started_at    TEXT    NOT NULL,
    duration_ms   INTEGER NOT NULL,
    markets       INTEGER NOT NULL DEFAULT 0,
    skipped       INTEGER NOT NULL DEFAULT 0,
    evaluated     INTEGER NOT NULL DEFAULT 0,
    opportunities INTEGER NOT NULL DEFAULT 0,
    qualifying    INTEGER NOT NULL DEFAULT 0,
    opened        INTEGER NOT NULL DEFAULT 0,
    closed        INTEGER NOT NULL DEFAULT 0,
    open_count    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_opp_scanned ON opportunities(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_opp_market  ON opportunities(market_id, target_size);
CREATE INDEX IF NOT EXISTS idx_pr_duration ON persistence_records(duration_ms DESC);
CREATE INDEX IF NOT EXISTS idx_cycles_at   ON cycles(started_at);
`

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// AppendOpportunity inserta una detección. Si no trae ID se le asigna uno.
func (s *SQLiteStorage) AppendOpportunity(ctx context.Context, opp domain.Opportunity) error {
	if opp.ID == "" {
		opp.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO opportunities
			(id, scanned_at, market_id, market_title, target_size,
			 vwap_yes, vwap_no, yes_levels, no_levels, fee_rate_yes, fee_rate_no,
			 raw_edge, fee_adjusted_edge, effective_cost, qualifies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opp.ID,
		formatTime(opp.Timestamp),
		opp.MarketID,
		opp.MarketTitle,
		opp.TargetSize,
		opp.VWAPYes,
		opp.VWAPNo,
		opp.YesLevels,
		opp.NoLevels,
		opp.FeeRateYes,
		opp.FeeRateNo,
		opp.RawEdge,
		opp.FeeAdjustedEdge,
		opp.EffectiveCost,
		boolToInt(opp.Qualifies),
	)
	if err != nil {
		return fmt.Errorf("storage.AppendOpportunity: %s: %w", opp.Key(), err)
	}
	return nil
}

// AppendPersistenceRecord inserta un lifecycle cerrado. Los OPEN se rechazan:
// un record solo se escribe una vez, cuando ya es inmutable.
func (s *SQLiteStorage) AppendPersistenceRecord(ctx context.Context, rec domain.PersistenceRecord) error {
	if rec.State != domain.StateClosed {
		return fmt.Errorf("storage.AppendPersistenceRecord: %s: record is %s", rec.Key, rec.State)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persistence_records
			(id, market_id, market_title, target_size, first_seen, last_seen,
			 duration_ms, observation_count, avg_edge, min_edge, max_edge)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Key.MarketID,
		rec.MarketTitle,
		rec.Key.TargetSize,
		formatTime(rec.FirstSeen),
		formatTime(rec.LastSeen),
		rec.Duration.Milliseconds(),
		rec.ObservationCount,
		rec.AvgEdge,
		rec.MinEdge,
		rec.MaxEdge,
	)
	if err != nil {
		return fmt.Errorf("storage.AppendPersistenceRecord: %s: %w", rec.Key, err)
	}
	return nil
}

// AppendCycle inserta el resumen de un ciclo.
func (s *SQLiteStorage) AppendCycle(ctx context.Context, c domain.CycleSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
			(cycle, started_at, duration_ms, markets, skipped, evaluated,
			 opportunities, qualifying, opened, closed, open_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Cycle,
		formatTime(c.StartedAt),
		c.Duration.Milliseconds(),
		c.Markets,
		c.Skipped,
		c.Evaluated,
		c.Opportunities,
		c.Qualifying,
		c.Opened,
		c.Closed,
		c.OpenCount,
	)
	if err != nil {
		return fmt.Errorf("storage.AppendCycle: cycle %d: %w", c.Cycle, err)
	}
	return nil
}

// ListOpportunities devuelve todas las detecciones, más recientes primero.
func (s *SQLiteStorage) ListOpportunities(ctx context.Context) ([]domain.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scanned_at, market_id, market_title, target_size,
		       vwap_yes, vwap_no, yes_levels, no_levels, fee_rate_yes, fee_rate_no,
		       raw_edge, fee_adjusted_edge, effective_cost, qualifies
		FROM opportunities
		ORDER BY scanned_at DESC, market_id, target_size
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListOpportunities: query: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var scannedAt string
		var title sql.NullString
		var qualifies int

		if err := rows.Scan(
			&opp.ID,
			&scannedAt,
			&opp.MarketID,
			&title,
			&opp.TargetSize,
			&opp.VWAPYes,
			&opp.VWAPNo,
			&opp.YesLevels,
			&opp.NoLevels,
			&opp.FeeRateYes,
			&opp.FeeRateNo,
			&opp.RawEdge,
			&opp.FeeAdjustedEdge,
			&opp.EffectiveCost,
			&qualifies,
		); err != nil {
			return nil, fmt.Errorf("storage.ListOpportunities: scan row: %w", err)
		}
		if opp.Timestamp, err = parseTime(scannedAt); err != nil {
			return nil, fmt.Errorf("storage.ListOpportunities: %s: %w", opp.ID, err)
		}
		opp.MarketTitle = title.String
		opp.Qualifies = qualifies == 1
		opps = append(opps, opp)
	}
	return opps, rows.Err()
}

// ListPersistenceRecords devuelve los lifecycles cerrados, más largos primero.
func (s *SQLiteStorage) ListPersistenceRecords(ctx context.Context) ([]domain.PersistenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, market_title, target_size, first_seen, last_seen,
		       duration_ms, observation_count, avg_edge, min_edge, max_edge
		FROM persistence_records
		ORDER BY duration_ms DESC, first_seen
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListPersistenceRecords: query: %w", err)
	}
	defer rows.Close()

	var recs []domain.PersistenceRecord
	for rows.Next() {
		rec := domain.PersistenceRecord{State: domain.StateClosed}
		var firstSeen, lastSeen string
		var title sql.NullString
		var durationMs int64

		if err := rows.Scan(
			&rec.ID,
			&rec.Key.MarketID,
			&title,
			&rec.Key.TargetSize,
			&firstSeen,
			&lastSeen,
			&durationMs,
			&rec.ObservationCount,
			&rec.AvgEdge,
			&rec.MinEdge,
			&rec.MaxEdge,
		); err != nil {
			return nil, fmt.Errorf("storage.ListPersistenceRecords: scan row: %w", err)
		}
		if rec.FirstSeen, err = parseTime(firstSeen); err != nil {
			return nil, fmt.Errorf("storage.ListPersistenceRecords: %s: %w", rec.ID, err)
		}
		if rec.LastSeen, err = parseTime(lastSeen); err != nil {
			return nil, fmt.Errorf("storage.ListPersistenceRecords: %s: %w", rec.ID, err)
		}
		rec.MarketTitle = title.String
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ListCycles devuelve los resúmenes de ciclo en orden cronológico.
func (s *SQLiteStorage) ListCycles(ctx context.Context) ([]domain.CycleSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cycle, started_at, duration_ms, markets, skipped, evaluated,
		       opportunities, qualifying, opened, closed, open_count
		FROM cycles
		ORDER BY started_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListCycles: query: %w", err)
	}
	defer rows.Close()

	var cycles []domain.CycleSummary
	for rows.Next() {
		var c domain.CycleSummary
		var startedAt string
		var durationMs int64
		if err := rows.Scan(
			&c.Cycle,
			&startedAt,
			&durationMs,
			&c.Markets,
			&c.Skipped,
			&c.Evaluated,
			&c.Opportunities,
			&c.Qualifying,
			&c.Opened,
			&c.Closed,
			&c.OpenCount,
		); err != nil {
			return nil, fmt.Errorf("storage.ListCycles: scan row: %w", err)
		}
		if c.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("storage.ListCycles: cycle %d: %w", c.Cycle, err)
		}
		c.Duration = time.Duration(durationMs) * time.Millisecond
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
