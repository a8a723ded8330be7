// Package analytics resume offline el log de detecciones y lifecycles.
// Los umbrales de edge solo existen aquí: no afectan a la detección.
package analytics

import (
	"sort"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const topN = 10

// Report es el resultado de Build. Todos los porcentajes van en [0, 100].
type Report struct {
	TotalOpportunities int
	Qualifying         int

	Thresholds []ThresholdRow
	Sizes      []SizeRow

	Lifecycles     int
	AvgDuration    time.Duration
	MedianDuration time.Duration
	Durations      []BucketRow
	Longest        []domain.PersistenceRecord // top 10 por duración

	TopMarkets []MarketRow // top 10 por número de detecciones
	TimeSeries TimeSeries
}

// ThresholdRow cuenta las detecciones con edge neto >= Threshold.
type ThresholdRow struct {
	Threshold float64
	Count     int
	Pct       float64
}

// SizeRow agrega el edge neto de las detecciones de un tamaño objetivo.
type SizeRow struct {
	TargetSize float64
	Count      int
	AvgEdge    float64
	MedianEdge float64
	MaxEdge    float64
}

// BucketRow es un tramo del histograma de duraciones.
type BucketRow struct {
	Label string
	Min   time.Duration
	Max   time.Duration // 0 = sin límite superior
	Count int
	Pct   float64
}

// MarketRow agrega las detecciones de un mercado.
type MarketRow struct {
	MarketID    string
	MarketTitle string
	Count       int
	AvgEdge     float64
	MaxEdge     float64
}

// TimeSeries resume la ventana temporal cubierta por el log.
type TimeSeries struct {
	First    time.Time
	Last     time.Time
	Span     time.Duration
	Cycles   int
	PerHour  float64 // detecciones por hora; 0 si Span == 0
	PerCycle float64 // detecciones por ciclo; 0 si no hay ciclos registrados
}

// durationBuckets son tramos semiabiertos [Min, Max).
var durationBuckets = []BucketRow{
	{Label: "0-10s", Min: 0, Max: 10 * time.Second},
	{Label: "10-30s", Min: 10 * time.Second, Max: 30 * time.Second},
	{Label: "30-60s", Min: 30 * time.Second, Max: 60 * time.Second},
	{Label: "60-120s", Min: 60 * time.Second, Max: 120 * time.Second},
	{Label: ">120s", Min: 120 * time.Second},
}

// Build calcula el reporte. No modifica los slices de entrada.
func Build(opps []domain.Opportunity, recs []domain.PersistenceRecord, cycles []domain.CycleSummary, thresholds []float64) Report {
	r := Report{
		TotalOpportunities: len(opps),
		Lifecycles:         len(recs),
	}
	for _, o := range opps {
		if o.Qualifies {
			r.Qualifying++
		}
	}

	r.Thresholds = thresholdRows(opps, thresholds)
	r.Sizes = sizeRows(opps)
	r.Durations = bucketRows(recs)
	r.Longest = longest(recs, topN)
	r.AvgDuration, r.MedianDuration = durationStats(recs)
	r.TopMarkets = topMarkets(opps, topN)
	r.TimeSeries = timeSeries(opps, cycles)
	return r
}

func thresholdRows(opps []domain.Opportunity, thresholds []float64) []ThresholdRow {
	sorted := append([]float64(nil), thresholds...)
	sort.Float64s(sorted)

	rows := make([]ThresholdRow, 0, len(sorted))
	for _, th := range sorted {
		row := ThresholdRow{Threshold: th}
		for _, o := range opps {
			if o.FeeAdjustedEdge >= th {
				row.Count++
			}
		}
		row.Pct = pct(row.Count, len(opps))
		rows = append(rows, row)
	}
	return rows
}

func sizeRows(opps []domain.Opportunity) []SizeRow {
	edges := make(map[float64][]float64)
	for _, o := range opps {
		edges[o.TargetSize] = append(edges[o.TargetSize], o.FeeAdjustedEdge)
	}

	rows := make([]SizeRow, 0, len(edges))
	for size, es := range edges {
		sort.Float64s(es)
		sum := 0.0
		for _, e := range es {
			sum += e
		}
		rows = append(rows, SizeRow{
			TargetSize: size,
			Count:      len(es),
			AvgEdge:    sum / float64(len(es)),
			MedianEdge: median(es),
			MaxEdge:    es[len(es)-1],
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TargetSize < rows[j].TargetSize })
	return rows
}

func bucketRows(recs []domain.PersistenceRecord) []BucketRow {
	rows := make([]BucketRow, len(durationBuckets))
	copy(rows, durationBuckets)
	for _, rec := range recs {
		for i := range rows {
			if rec.Duration >= rows[i].Min && (rows[i].Max == 0 || rec.Duration < rows[i].Max) {
				rows[i].Count++
				break
			}
		}
	}
	for i := range rows {
		rows[i].Pct = pct(rows[i].Count, len(recs))
	}
	return rows
}

func longest(recs []domain.PersistenceRecord, n int) []domain.PersistenceRecord {
	sorted := append([]domain.PersistenceRecord(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Duration != sorted[j].Duration {
			return sorted[i].Duration > sorted[j].Duration
		}
		return sorted[i].FirstSeen.Before(sorted[j].FirstSeen)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func durationStats(recs []domain.PersistenceRecord) (avg, med time.Duration) {
	if len(recs) == 0 {
		return 0, 0
	}
	secs := make([]float64, len(recs))
	sum := 0.0
	for i, rec := range recs {
		secs[i] = rec.Duration.Seconds()
		sum += secs[i]
	}
	sort.Float64s(secs)
	avg = time.Duration(sum / float64(len(secs)) * float64(time.Second))
	med = time.Duration(median(secs) * float64(time.Second))
	return avg, med
}

func topMarkets(opps []domain.Opportunity, n int) []MarketRow {
	byMarket := make(map[string]*MarketRow)
	var order []string
	sums := make(map[string]float64)

	for _, o := range opps {
		row, ok := byMarket[o.MarketID]
		if !ok {
			row = &MarketRow{MarketID: o.MarketID, MarketTitle: o.MarketTitle, MaxEdge: o.FeeAdjustedEdge}
			byMarket[o.MarketID] = row
			order = append(order, o.MarketID)
		}
		row.Count++
		sums[o.MarketID] += o.FeeAdjustedEdge
		if o.FeeAdjustedEdge > row.MaxEdge {
			row.MaxEdge = o.FeeAdjustedEdge
		}
		if row.MarketTitle == "" {
			row.MarketTitle = o.MarketTitle
		}
	}

	rows := make([]MarketRow, 0, len(order))
	for _, id := range order {
		row := *byMarket[id]
		row.AvgEdge = sums[id] / float64(row.Count)
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].MarketID < rows[j].MarketID
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func timeSeries(opps []domain.Opportunity, cycles []domain.CycleSummary) TimeSeries {
	ts := TimeSeries{Cycles: len(cycles)}
	for i, o := range opps {
		if i == 0 || o.Timestamp.Before(ts.First) {
			ts.First = o.Timestamp
		}
		if i == 0 || o.Timestamp.After(ts.Last) {
			ts.Last = o.Timestamp
		}
	}
	ts.Span = ts.Last.Sub(ts.First)
	if ts.Span > 0 {
		ts.PerHour = float64(len(opps)) / ts.Span.Hours()
	}
	if len(cycles) > 0 {
		ts.PerCycle = float64(len(opps)) / float64(len(cycles))
	}
	return ts
}

// median asume xs ordenado. Con n par promedia los dos centrales.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

func pct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
