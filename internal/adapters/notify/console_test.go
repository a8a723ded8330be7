package notify_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alejandrodnm/polyarb/internal/adapters/notify"
	"github.com/alejandrodnm/polyarb/internal/analytics"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 30, 5, 0, time.UTC)

func makeOpp(title string, size, edge float64) domain.Opportunity {
	return domain.Opportunity{
		ID:              "opp-" + title,
		Timestamp:       t0,
		MarketID:        "0xtest",
		MarketTitle:     title,
		TargetSize:      size,
		VWAPYes:         0.48,
		VWAPNo:          0.49,
		YesLevels:       1,
		NoLevels:        2,
		RawEdge:         edge + 0.015,
		FeeAdjustedEdge: edge,
		EffectiveCost:   1 - edge,
		Qualifies:       edge > 0,
	}
}

func makeReport(opps ...domain.Opportunity) domain.CycleReport {
	return domain.CycleReport{
		Cycle:         4,
		StartedAt:     t0,
		Duration:      1234567 * time.Microsecond,
		Markets:       412,
		Skipped:       2,
		Evaluated:     780,
		Opportunities: opps,
		Opened:        1,
		OpenCount:     3,
	}
}

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	r := makeReport(
		makeOpp("Will BTC hit 100k?", 50, 0.012),
		makeOpp("Will Trump win?", 200, 0.031),
	)
	require.NoError(t, n.Notify(context.Background(), r))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"), "una línea por ciclo")
	assert.Contains(t, out, "[12:30:05] #4 412 mkts (2 skipped)")
	assert.Contains(t, out, "2 net+")
	assert.Contains(t, out, "open:3 +1 -0")
	assert.Contains(t, out, "1.235s")
	// el mejor edge va primero
	assert.Less(t, strings.Index(out, "Will Trump win?"), strings.Index(out, "Will BTC hit 100k?"))
	assert.Contains(t, out, "+3.10%")
}

func TestConsole_Notify_NonASCIITitleStaysValidUTF8(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	title := "¿Ganará España la Eurocopa de fútbol 2028?"
	require.NoError(t, n.Notify(context.Background(), makeReport(makeOpp(title, 50, 0.02))))

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "¿Ganará España la…")
}

func TestConsole_Notify_NoOpportunities(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.Notify(context.Background(), makeReport()))
	assert.Contains(t, buf.String(), "no opportunities")
}

func TestConsole_Notify_LongTitleShortened(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	long := strings.Repeat("word ", 20)
	require.NoError(t, n.Notify(context.Background(), makeReport(makeOpp(long, 50, 0.01))))
	assert.Contains(t, buf.String(), "…")
}

func TestConsole_Notify_TableWithClosed(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	r := makeReport(makeOpp("Rain in Madrid", 50, 0.02))
	r.Closed = []domain.PersistenceRecord{{
		Key:              domain.PersistenceKey{MarketID: "0xold", TargetSize: 200},
		MarketTitle:      "Old market",
		State:            domain.StateClosed,
		Duration:         20 * time.Second,
		ObservationCount: 3,
		AvgEdge:          0.015,
	}}
	require.NoError(t, n.Notify(context.Background(), r))

	out := buf.String()
	assert.Contains(t, out, "Rain in Madrid")
	assert.Contains(t, out, "0.4800")
	assert.Contains(t, out, "+2.000%")
	assert.Contains(t, out, "Old market $200 lasted 20s over 3 obs")
}

func TestConsole_PrintReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	n.PrintReport(analytics.Build(nil, nil, nil, []float64{0.01}))
	assert.Contains(t, buf.String(), "POLYARB - OPPORTUNITY ANALYSIS")
	assert.Contains(t, buf.String(), "No opportunities found in database.")
}

func TestConsole_PrintReport(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	opps := []domain.Opportunity{
		makeOpp("Rain in Madrid", 50, 0.012),
		makeOpp("Rain in Madrid", 200, 0.006),
	}
	opps[1].Timestamp = t0.Add(2 * time.Hour)
	recs := []domain.PersistenceRecord{{
		Key:              domain.PersistenceKey{MarketID: "0xtest", TargetSize: 50},
		MarketTitle:      "Rain in Madrid",
		State:            domain.StateClosed,
		Duration:         45 * time.Second,
		ObservationCount: 5,
		AvgEdge:          0.01,
	}}

	n.PrintReport(analytics.Build(opps, recs, make([]domain.CycleSummary, 4), []float64{0.005, 0.01}))

	out := buf.String()
	assert.Contains(t, out, "Total opportunities logged: 2")
	assert.Contains(t, out, "EDGE DISTRIBUTION")
	assert.Contains(t, out, "BY TARGET SIZE")
	assert.Contains(t, out, "30-60s")
	assert.Contains(t, out, "45.0s")
	assert.Contains(t, out, "TOP MARKETS BY OPPORTUNITY COUNT")
	assert.Contains(t, out, "2026-03-01 12:30:05 UTC")
	assert.Contains(t, out, "1.0 opportunities/hour")
	assert.Contains(t, out, "Scan cycles:     4")
}

func TestWriteOpportunitiesCSV(t *testing.T) {
	var buf bytes.Buffer
	opps := []domain.Opportunity{makeOpp("Rain, in Madrid", 50, 0.0155)}

	require.NoError(t, notify.WriteOpportunitiesCSV(&buf, opps))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "fee_adjusted_edge", rows[0][12])

	row := rows[1]
	assert.Equal(t, "Rain, in Madrid", row[3], "las comas se escapan")
	assert.Equal(t, "2026-03-01T12:30:05.000Z", row[1])
	assert.Equal(t, "50", row[4])
	assert.Equal(t, "0.0155", row[12])
	assert.Equal(t, "true", row[14])
}
