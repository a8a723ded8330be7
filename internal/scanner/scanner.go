package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
	"github.com/alejandrodnm/polyarb/internal/tracker"
	"github.com/google/uuid"
)

const (
	defaultWorkers  = 8
	sinkRetryWait   = 200 * time.Millisecond
	defaultInterval = 10 * time.Second
)

// Config contiene la configuración del scanner. Se pasa por valor y no cambia.
type Config struct {
	ScanInterval time.Duration
	TargetSizes  []float64 // USDC por pata
	Fees         domain.FeeRates
	Workers      int // fetches de books en paralelo
}

// Scanner es el orquestador del loop de escaneo: el único componente con I/O y timing.
type Scanner struct {
	cfg      Config
	markets  ports.MarketProvider
	books    ports.BookProvider
	notifier ports.Notifier
	sinks    []ports.RecordSink
	tracker  *tracker.Tracker
	analyzer *Analyzer
	filter   *Filter

	cycles    int
	now       func() time.Time
	newID     func() string
	retryWait time.Duration
}

// New crea un Scanner con todas las dependencias inyectadas.
// sinks recibe las detecciones y los lifecycles cerrados (SQLite, Redis...).
func New(
	cfg Config,
	markets ports.MarketProvider,
	books ports.BookProvider,
	notifier ports.Notifier,
	sinks ...ports.RecordSink,
) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = defaultInterval
	}
	return &Scanner{
		cfg:       cfg,
		markets:   markets,
		books:     books,
		notifier:  notifier,
		sinks:     sinks,
		tracker:   tracker.New(),
		analyzer:  NewAnalyzer(cfg.Fees),
		filter:    NewFilter(),
		now:       time.Now,
		newID:     uuid.NewString,
		retryWait: sinkRetryWait,
	}
}

// Run ejecuta ciclos hasta que el contexto se cancele. Cada ciclo termina
// antes de dormir el intervalo; la cancelación se observa entre ciclos.
// Los lifecycles OPEN se abandonan al salir, no se cierran.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.ScanInterval,
		"sizes", s.cfg.TargetSizes,
		"fee_yes", s.cfg.Fees.Yes,
		"fee_no", s.cfg.Fees.No,
		"workers", s.cfg.Workers,
	)

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			slog.Error("scan cycle failed", "err", err)
		}
		if ctx.Err() != nil {
			slog.Info("scanner stopped", "open_lifecycles", s.tracker.Len())
			return nil
		}

		t := time.NewTimer(s.cfg.ScanInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			slog.Info("scanner stopped", "open_lifecycles", s.tracker.Len())
			return nil
		case <-t.C:
		}
	}
}

// RunOnce ejecuta exactamente un ciclo: persiste, notifica y devuelve el reporte.
// Si el listado de mercados falla el ciclo cuenta igual, sin nada que califique,
// y el error se devuelve después de persistir los cierres.
func (s *Scanner) RunOnce(ctx context.Context) (domain.CycleReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.CycleReport{}, fmt.Errorf("scanner.RunOnce: %w", err)
	}
	report, cycleErr := s.cycle(ctx)

	// Un ciclo empezado se termina: las escrituras no dependen de la cancelación.
	wctx := context.WithoutCancel(ctx)
	s.persist(wctx, report)

	if s.notifier != nil {
		if err := s.notifier.Notify(wctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	if cycleErr != nil {
		return report, cycleErr
	}

	slog.Debug("scan cycle complete",
		"cycle", report.Cycle,
		"markets", report.Markets,
		"skipped", report.Skipped,
		"opportunities", len(report.Opportunities),
		"closed", len(report.Closed),
		"open", report.OpenCount,
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report, nil
}

// OpenLifecycles devuelve los records OPEN actuales.
func (s *Scanner) OpenLifecycles() []domain.PersistenceRecord {
	return s.tracker.Open()
}

// cycle hace list → filter → fetch → analyze → reconcile.
// Siempre reconcilia: un mercado sin books (o un listado fallido) no califica,
// así que sus lifecycles OPEN se cierran.
func (s *Scanner) cycle(ctx context.Context) (domain.CycleReport, error) {
	s.cycles++
	start := s.now()
	report := domain.CycleReport{Cycle: s.cycles, StartedAt: start}

	markets, listErr := s.markets.ListActiveMarkets(ctx)
	if listErr != nil {
		listErr = fmt.Errorf("scanner.cycle: list markets: %w", listErr)
		markets = nil
	}
	eligible := s.filter.Apply(markets)
	report.Markets = len(eligible)

	fetched := s.fetchBooks(ctx, eligible)
	observedAt := s.now()

	var observations []tracker.Observation
	for _, mb := range fetched {
		if mb.err != nil {
			report.Skipped++
			slog.Debug("market skipped", "market", mb.market.ConditionID, "err", mb.err)
			continue
		}

		for _, size := range s.cfg.TargetSizes {
			report.Evaluated++
			opp, ok := s.analyzer.Evaluate(mb.market, mb.yes, mb.no, size, observedAt)
			if !ok {
				slog.Debug("insufficient liquidity",
					"market", mb.market.ConditionID,
					"size", size,
					"yes_depth", mb.yes.AskDepthUSDC(),
					"no_depth", mb.no.AskDepthUSDC(),
					"best_ask_yes", mb.yes.BestAsk(),
					"best_ask_no", mb.no.BestAsk(),
				)
				continue
			}
			if opp.Qualifies {
				opp.ID = s.newID()
				observations = append(observations, tracker.Observation{
					Key:         opp.Key(),
					MarketTitle: opp.MarketTitle,
					Edge:        opp.FeeAdjustedEdge,
				})
			}
			report.Opportunities = append(report.Opportunities, opp)
		}
	}

	if report.Skipped > 0 {
		slog.Warn("markets skipped after retries", "count", report.Skipped, "of", len(eligible))
	}

	res := s.tracker.Reconcile(observedAt, observations)
	for _, rec := range res.Updated {
		slog.Debug("lifecycle extended",
			"key", rec.Key.String(),
			"observations", rec.ObservationCount,
			"open_for", rec.LastSeen.Sub(rec.FirstSeen),
			"avg_edge", rec.AvgEdge,
		)
	}
	report.Opened = len(res.Opened)
	report.Closed = res.Closed
	report.OpenCount = s.tracker.Len()
	report.Duration = s.now().Sub(start)
	return report, listErr
}

// persist escribe las detecciones que califican, los lifecycles cerrados y el
// resumen del ciclo en cada sink. Los errores se registran y no abortan.
func (s *Scanner) persist(ctx context.Context, report domain.CycleReport) {
	for _, sink := range s.sinks {
		for _, opp := range report.Opportunities {
			if !opp.Qualifies {
				continue
			}
			s.writeWithRetry(ctx, "append opportunity", opp.Key().String(), func(ctx context.Context) error {
				return sink.AppendOpportunity(ctx, opp)
			})
		}
		for _, rec := range report.Closed {
			s.writeWithRetry(ctx, "append persistence record", rec.Key.String(), func(ctx context.Context) error {
				return sink.AppendPersistenceRecord(ctx, rec)
			})
		}
		s.writeWithRetry(ctx, "append cycle", fmt.Sprintf("cycle %d", report.Cycle), func(ctx context.Context) error {
			return sink.AppendCycle(ctx, report.Summary())
		})
	}
}

// writeWithRetry reintenta una sola vez. Perder un registro es preferible a
// parar la medición.
func (s *Scanner) writeWithRetry(ctx context.Context, op, key string, fn func(context.Context) error) {
	err := fn(ctx)
	if err == nil {
		return
	}
	slog.Debug("datastore write failed, retrying", "op", op, "key", key, "err", err)

	if s.retryWait > 0 {
		time.Sleep(s.retryWait)
	}
	if err := fn(ctx); err != nil {
		slog.Warn("datastore write dropped", "op", op, "key", key, "err", err)
	}
}
