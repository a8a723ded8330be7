package tracker

import (
	"fmt"
	"testing"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const interval = 10 * time.Second

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTracker() *Tracker {
	tr := New()
	n := 0
	tr.newID = func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
	return tr
}

func key(market string, size float64) domain.PersistenceKey {
	return domain.PersistenceKey{MarketID: market, TargetSize: size}
}

func obs(market string, size, edge float64) Observation {
	return Observation{Key: key(market, size), MarketTitle: "Will " + market + " happen?", Edge: edge}
}

func cycleAt(i int) time.Time { return t0.Add(time.Duration(i) * interval) }

func TestReconcile_OpensNewRecord(t *testing.T) {
	tr := newTestTracker()

	res := tr.Reconcile(t0, []Observation{obs("0xa", 50, 0.01)})

	require.Len(t, res.Opened, 1)
	assert.Empty(t, res.Updated)
	assert.Empty(t, res.Closed)

	rec := res.Opened[0]
	assert.Equal(t, domain.StateOpen, rec.State)
	assert.Equal(t, t0, rec.FirstSeen)
	assert.Equal(t, t0, rec.LastSeen)
	assert.Equal(t, 1, rec.ObservationCount)
	assert.InDelta(t, 0.01, rec.AvgEdge, 1e-12)
	assert.Equal(t, 1, tr.Len())
}

func TestReconcile_ThreeCyclesThenAbsent(t *testing.T) {
	tr := newTestTracker()
	edges := []float64{0.010, 0.020, 0.030}

	for i, e := range edges {
		res := tr.Reconcile(cycleAt(i), []Observation{obs("0xa", 50, e)})
		assert.Empty(t, res.Closed)
	}
	res := tr.Reconcile(cycleAt(3), nil)

	require.Len(t, res.Closed, 1)
	rec := res.Closed[0]
	assert.Equal(t, domain.StateClosed, rec.State)
	assert.Equal(t, 3, rec.ObservationCount)
	assert.Equal(t, 2*interval, rec.Duration)
	assert.Equal(t, cycleAt(0), rec.FirstSeen)
	assert.Equal(t, cycleAt(2), rec.LastSeen)
	assert.InDelta(t, 0.02, rec.AvgEdge, 1e-12)
	assert.InDelta(t, 0.01, rec.MinEdge, 1e-12)
	assert.InDelta(t, 0.03, rec.MaxEdge, 1e-12)
	assert.Zero(t, tr.Len())

	// Cerrado una sola vez
	res = tr.Reconcile(cycleAt(4), nil)
	assert.Empty(t, res.Closed)
}

func TestReconcile_SingleAppearance(t *testing.T) {
	tr := newTestTracker()

	tr.Reconcile(t0, []Observation{obs("0xa", 200, 0.004)})
	res := tr.Reconcile(cycleAt(1), nil)

	require.Len(t, res.Closed, 1)
	assert.Equal(t, time.Duration(0), res.Closed[0].Duration)
	assert.Equal(t, 1, res.Closed[0].ObservationCount)
}

func TestReconcile_ReappearanceStartsFreshRecord(t *testing.T) {
	tr := newTestTracker()

	tr.Reconcile(cycleAt(0), []Observation{obs("0xa", 50, 0.01)})
	first := tr.Reconcile(cycleAt(1), nil)
	reopened := tr.Reconcile(cycleAt(2), []Observation{obs("0xa", 50, 0.02)})
	second := tr.Reconcile(cycleAt(3), nil)

	require.Len(t, first.Closed, 1)
	require.Len(t, reopened.Opened, 1)
	require.Len(t, second.Closed, 1)

	a, b := first.Closed[0], second.Closed[0]
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.FirstSeen, b.FirstSeen)
	assert.Equal(t, cycleAt(2), b.FirstSeen)
	assert.Equal(t, 1, b.ObservationCount)
	assert.Equal(t, time.Duration(0), b.Duration)
}

func TestReconcile_KeysAreIndependentPerSize(t *testing.T) {
	tr := newTestTracker()

	tr.Reconcile(t0, []Observation{obs("0xa", 50, 0.01), obs("0xa", 200, 0.005)})
	res := tr.Reconcile(cycleAt(1), []Observation{obs("0xa", 50, 0.01)})

	require.Len(t, res.Closed, 1)
	assert.Equal(t, key("0xa", 200), res.Closed[0].Key)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, key("0xa", 50), res.Updated[0].Key)
	assert.Equal(t, 2, res.Updated[0].ObservationCount)
}

func TestReconcile_DuplicateKeyCountsOnce(t *testing.T) {
	tr := newTestTracker()

	res := tr.Reconcile(t0, []Observation{obs("0xa", 50, 0.01), obs("0xa", 50, 0.09)})

	require.Len(t, res.Opened, 1)
	assert.InDelta(t, 0.01, res.Opened[0].AvgEdge, 1e-12)
	assert.Equal(t, 1, tr.Len())
}

func TestReconcile_AbsentForAnyReasonCloses(t *testing.T) {
	tr := newTestTracker()

	// 0xa califica, su fetch falla un ciclo (ausente del set) y vuelve a calificar
	tr.Reconcile(cycleAt(0), []Observation{obs("0xa", 50, 0.01)})
	gap := tr.Reconcile(cycleAt(1), nil)
	back := tr.Reconcile(cycleAt(2), []Observation{obs("0xa", 50, 0.02)})
	end := tr.Reconcile(cycleAt(3), nil)

	require.Len(t, gap.Closed, 1)
	assert.Equal(t, 1, gap.Closed[0].ObservationCount)
	assert.Equal(t, time.Duration(0), gap.Closed[0].Duration)
	assert.Equal(t, cycleAt(0), gap.Closed[0].LastSeen)

	require.Len(t, back.Opened, 1)
	assert.Empty(t, back.Updated)

	require.Len(t, end.Closed, 1)
	assert.Equal(t, cycleAt(2), end.Closed[0].FirstSeen)
	assert.Equal(t, 1, end.Closed[0].ObservationCount)
	assert.NotEqual(t, gap.Closed[0].ID, end.Closed[0].ID)
}

func TestReconcile_ClosedSortedByKey(t *testing.T) {
	tr := newTestTracker()
	tr.Reconcile(t0, []Observation{obs("0xc", 50, 0.01), obs("0xa", 200, 0.01), obs("0xa", 50, 0.01)})

	res := tr.Reconcile(cycleAt(1), nil)

	require.Len(t, res.Closed, 3)
	assert.Equal(t, key("0xa", 50), res.Closed[0].Key)
	assert.Equal(t, key("0xa", 200), res.Closed[1].Key)
	assert.Equal(t, key("0xc", 50), res.Closed[2].Key)
}

func TestReconcile_AtMostOneOpenPerKey(t *testing.T) {
	tr := newTestTracker()
	for i := 0; i < 20; i++ {
		var q []Observation
		if i%3 != 2 {
			q = append(q, obs("0xa", 50, 0.01))
		}
		q = append(q, obs("0xb", 50, 0.02))
		tr.Reconcile(cycleAt(i), q)

		keys := map[domain.PersistenceKey]int{}
		for _, rec := range tr.Open() {
			keys[rec.Key]++
			assert.GreaterOrEqual(t, rec.ObservationCount, 1)
		}
		for k, n := range keys {
			assert.Equal(t, 1, n, "key %s", k)
		}
	}
}

func TestOpen_ReturnsCopies(t *testing.T) {
	tr := newTestTracker()
	tr.Reconcile(t0, []Observation{obs("0xa", 50, 0.01)})

	open := tr.Open()
	open[0].ObservationCount = 99

	assert.Equal(t, 1, tr.Open()[0].ObservationCount)
}
