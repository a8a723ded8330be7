// Package redisstream replica las detecciones en Redis streams para que otros
// procesos las consuman en vivo. Es un sink opcional: SQLite sigue siendo el
// registro durable.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/redis/go-redis/v9"
)

// streamMaxLen es la longitud aproximada máxima de cada stream (XADD MAXLEN ~).
const streamMaxLen int64 = 10000

// streamAdder es el subconjunto de redis.Cmdable que usa el sink.
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Config contiene los parámetros de conexión.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // los streams son <prefix>:opportunities, <prefix>:persistence, <prefix>:cycles
}

// Sink implementa ports.RecordSink escribiendo un evento JSON por registro.
type Sink struct {
	rdb    streamAdder
	closer func() error
	prefix string
}

// New conecta con Redis, verifica la conexión con PING y devuelve el sink.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redisstream.New: ping %s: %w", cfg.Addr, err)
	}
	s := newSink(rdb, cfg.Prefix)
	s.closer = rdb.Close
	return s, nil
}

func newSink(rdb streamAdder, prefix string) *Sink {
	if prefix == "" {
		prefix = "polyarb"
	}
	return &Sink{rdb: rdb, prefix: prefix, closer: func() error { return nil }}
}

// OpportunitiesStream devuelve el nombre del stream de detecciones.
func (s *Sink) OpportunitiesStream() string { return s.prefix + ":opportunities" }

// PersistenceStream devuelve el nombre del stream de lifecycles cerrados.
func (s *Sink) PersistenceStream() string { return s.prefix + ":persistence" }

// CyclesStream devuelve el nombre del stream de resúmenes de ciclo.
func (s *Sink) CyclesStream() string { return s.prefix + ":cycles" }

// AppendOpportunity publica una detección.
func (s *Sink) AppendOpportunity(ctx context.Context, opp domain.Opportunity) error {
	if err := s.append(ctx, s.OpportunitiesStream(), newOpportunityEvent(opp)); err != nil {
		return fmt.Errorf("redisstream.AppendOpportunity: %s: %w", opp.Key(), err)
	}
	return nil
}

// AppendPersistenceRecord publica un lifecycle cerrado.
func (s *Sink) AppendPersistenceRecord(ctx context.Context, rec domain.PersistenceRecord) error {
	if err := s.append(ctx, s.PersistenceStream(), newPersistenceEvent(rec)); err != nil {
		return fmt.Errorf("redisstream.AppendPersistenceRecord: %s: %w", rec.Key, err)
	}
	return nil
}

// AppendCycle publica el resumen de un ciclo.
func (s *Sink) AppendCycle(ctx context.Context, c domain.CycleSummary) error {
	if err := s.append(ctx, s.CyclesStream(), newCycleEvent(c)); err != nil {
		return fmt.Errorf("redisstream.AppendCycle: cycle %d: %w", c.Cycle, err)
	}
	return nil
}

// Close cierra la conexión con Redis.
func (s *Sink) Close() error {
	return s.closer()
}

func (s *Sink) append(ctx context.Context, stream string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"payload": payload,
		},
	}
	if err := s.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}

// --- eventos ---

type opportunityEvent struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	MarketID        string    `json:"market_id"`
	MarketTitle     string    `json:"market_title"`
	TargetSize      float64   `json:"target_size"`
	VWAPYes         float64   `json:"vwap_yes"`
	VWAPNo          float64   `json:"vwap_no"`
	YesLevels       int       `json:"yes_levels"`
	NoLevels        int       `json:"no_levels"`
	RawEdge         float64   `json:"raw_edge"`
	FeeAdjustedEdge float64   `json:"fee_adjusted_edge"`
	EffectiveCost   float64   `json:"effective_cost"`
	Qualifies       bool      `json:"qualifies"`
}

func newOpportunityEvent(o domain.Opportunity) opportunityEvent {
	return opportunityEvent{
		ID:              o.ID,
		Timestamp:       o.Timestamp.UTC(),
		MarketID:        o.MarketID,
		MarketTitle:     o.MarketTitle,
		TargetSize:      o.TargetSize,
		VWAPYes:         o.VWAPYes,
		VWAPNo:          o.VWAPNo,
		YesLevels:       o.YesLevels,
		NoLevels:        o.NoLevels,
		RawEdge:         o.RawEdge,
		FeeAdjustedEdge: o.FeeAdjustedEdge,
		EffectiveCost:   o.EffectiveCost,
		Qualifies:       o.Qualifies,
	}
}

type persistenceEvent struct {
	ID               string    `json:"id"`
	MarketID         string    `json:"market_id"`
	MarketTitle      string    `json:"market_title"`
	TargetSize       float64   `json:"target_size"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
	DurationSeconds  float64   `json:"duration_seconds"`
	ObservationCount int       `json:"observation_count"`
	AvgEdge          float64   `json:"avg_edge"`
	MinEdge          float64   `json:"min_edge"`
	MaxEdge          float64   `json:"max_edge"`
}

func newPersistenceEvent(r domain.PersistenceRecord) persistenceEvent {
	return persistenceEvent{
		ID:               r.ID,
		MarketID:         r.Key.MarketID,
		MarketTitle:      r.MarketTitle,
		TargetSize:       r.Key.TargetSize,
		FirstSeen:        r.FirstSeen.UTC(),
		LastSeen:         r.LastSeen.UTC(),
		DurationSeconds:  r.Duration.Seconds(),
		ObservationCount: r.ObservationCount,
		AvgEdge:          r.AvgEdge,
		MinEdge:          r.MinEdge,
		MaxEdge:          r.MaxEdge,
	}
}

type cycleEvent struct {
	Cycle         int       `json:"cycle"`
	StartedAt     time.Time `json:"started_at"`
	DurationMs    int64     `json:"duration_ms"`
	Markets       int       `json:"markets"`
	Skipped       int       `json:"skipped"`
	Evaluated     int       `json:"evaluated"`
	Opportunities int       `json:"opportunities"`
	Qualifying    int       `json:"qualifying"`
	Opened        int       `json:"opened"`
	Closed        int       `json:"closed"`
	OpenCount     int       `json:"open_count"`
}

func newCycleEvent(c domain.CycleSummary) cycleEvent {
	return cycleEvent{
		Cycle:         c.Cycle,
		StartedAt:     c.StartedAt.UTC(),
		DurationMs:    c.Duration.Milliseconds(),
		Markets:       c.Markets,
		Skipped:       c.Skipped,
		Evaluated:     c.Evaluated,
		Opportunities: c.Opportunities,
		Qualifying:    c.Qualifying,
		Opened:        c.Opened,
		Closed:        c.Closed,
		OpenCount:     c.OpenCount,
	}
}
