// Package tracker mantiene los lifecycles de oportunidades entre ciclos de escaneo.
//
// Cada key (mercado × tamaño) pasa por absent → OPEN → CLOSED. CLOSED es
// terminal: si el key vuelve a calificar más tarde se abre un record nuevo
// con su propio FirstSeen, nunca se reabre el anterior.
package tracker

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/google/uuid"
)

// Observation es un key que calificó en el ciclo actual, con su edge neto.
type Observation struct {
	Key         domain.PersistenceKey
	MarketTitle string
	Edge        float64
}

// Result es lo que produjo una reconciliación.
type Result struct {
	Opened  []domain.PersistenceRecord
	Updated []domain.PersistenceRecord
	Closed  []domain.PersistenceRecord // a emitir al datastore, exactamente una vez
}

// Tracker es el dueño exclusivo del registro de records OPEN.
type Tracker struct {
	mu    sync.Mutex
	open  map[domain.PersistenceKey]*domain.PersistenceRecord
	newID func() string
}

// New crea un Tracker vacío.
func New() *Tracker {
	return &Tracker{
		open:  make(map[domain.PersistenceKey]*domain.PersistenceRecord),
		newID: uuid.NewString,
	}
}

// Reconcile aplica el qualifying set de un ciclo:
//   - key sin record OPEN → se abre uno con count=1
//   - key con record OPEN → LastSeen=now, count++, media móvil del edge
//   - record OPEN cuyo key no está en el set → CLOSED y se devuelve en Closed
//
// Un key ausente cierra su record aunque la causa sea un fetch fallido: un
// lifecycle nunca cubre un ciclo en el que no se observó.
// Si un key aparece varias veces en qualifying solo cuenta la primera.
func (t *Tracker) Reconcile(now time.Time, qualifying []Observation) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res Result
	seen := make(map[domain.PersistenceKey]bool, len(qualifying))

	for _, obs := range qualifying {
		if seen[obs.Key] {
			continue
		}
		seen[obs.Key] = true

		rec, ok := t.open[obs.Key]
		if !ok {
			rec = &domain.PersistenceRecord{
				ID:               t.newID(),
				Key:              obs.Key,
				MarketTitle:      obs.MarketTitle,
				State:            domain.StateOpen,
				FirstSeen:        now,
				LastSeen:         now,
				ObservationCount: 1,
				AvgEdge:          obs.Edge,
				MinEdge:          obs.Edge,
				MaxEdge:          obs.Edge,
			}
			t.open[obs.Key] = rec
			res.Opened = append(res.Opened, *rec)
			continue
		}

		rec.LastSeen = now
		rec.ObservationCount++
		rec.AvgEdge += (obs.Edge - rec.AvgEdge) / float64(rec.ObservationCount)
		rec.MinEdge = min(rec.MinEdge, obs.Edge)
		rec.MaxEdge = max(rec.MaxEdge, obs.Edge)
		if obs.MarketTitle != "" {
			rec.MarketTitle = obs.MarketTitle
		}
		res.Updated = append(res.Updated, *rec)
	}

	for key, rec := range t.open {
		if seen[key] {
			continue
		}
		rec.State = domain.StateClosed
		rec.Duration = rec.LastSeen.Sub(rec.FirstSeen)
		res.Closed = append(res.Closed, *rec)
		delete(t.open, key)
	}
	slices.SortFunc(res.Closed, compareRecords)

	return res
}

// Open devuelve una copia de los records abiertos ordenada por key.
// Al apagar el proceso estos records se abandonan: no se cierran a la fuerza.
func (t *Tracker) Open() []domain.PersistenceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.PersistenceRecord, 0, len(t.open))
	for _, rec := range t.open {
		out = append(out, *rec)
	}
	slices.SortFunc(out, compareRecords)
	return out
}

// Len devuelve cuántos lifecycles están abiertos.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

func compareRecords(a, b domain.PersistenceRecord) int {
	if c := cmp.Compare(a.Key.MarketID, b.Key.MarketID); c != 0 {
		return c
	}
	return cmp.Compare(a.Key.TargetSize, b.Key.TargetSize)
}
