package notify

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/polyarb/internal/analytics"
	"github.com/olekukonko/tablewriter"
)

const ruler = "======================================================================"

// PrintReport imprime el reporte offline de detecciones y persistencia.
func (c *Console) PrintReport(r analytics.Report) {
	fmt.Fprintf(c.out, "\n%s\n  POLYARB - OPPORTUNITY ANALYSIS\n%s\n", ruler, ruler)

	if r.TotalOpportunities == 0 && r.Lifecycles == 0 {
		fmt.Fprintln(c.out, "\n  No opportunities found in database.")
		fmt.Fprintln(c.out, "  Run the scanner first to collect data.")
		fmt.Fprintln(c.out)
		return
	}

	fmt.Fprintf(c.out, "\n  Total opportunities logged: %d (%d net positive)\n",
		r.TotalOpportunities, r.Qualifying)

	c.printThresholds(r)
	c.printSizes(r)
	c.printPersistence(r)
	c.printTopMarkets(r)
	c.printTimeSeries(r)

	fmt.Fprintf(c.out, "\n%s\n\n", ruler)
}

func (c *Console) printThresholds(r analytics.Report) {
	if len(r.Thresholds) == 0 {
		return
	}
	fmt.Fprintln(c.out, "\n  --- EDGE DISTRIBUTION ---")
	table := tablewriter.NewWriter(c.out)
	table.Header("Net edge", "Count", "Share")
	for _, row := range r.Thresholds {
		table.Append(
			fmt.Sprintf(">= %.1f%%", row.Threshold*100),
			fmt.Sprintf("%d", row.Count),
			fmt.Sprintf("%.1f%%", row.Pct),
		)
	}
	table.Render()
}

func (c *Console) printSizes(r analytics.Report) {
	if len(r.Sizes) == 0 {
		return
	}
	fmt.Fprintln(c.out, "\n  --- BY TARGET SIZE ---")
	table := tablewriter.NewWriter(c.out)
	table.Header("Size", "Count", "Avg", "Median", "Max")
	for _, row := range r.Sizes {
		table.Append(
			fmt.Sprintf("$%.0f", row.TargetSize),
			fmt.Sprintf("%d", row.Count),
			fmt.Sprintf("%.3f%%", row.AvgEdge*100),
			fmt.Sprintf("%.3f%%", row.MedianEdge*100),
			fmt.Sprintf("%.3f%%", row.MaxEdge*100),
		)
	}
	table.Render()
}

func (c *Console) printPersistence(r analytics.Report) {
	fmt.Fprintln(c.out, "\n  --- PERSISTENCE ---")
	if r.Lifecycles == 0 {
		fmt.Fprintln(c.out, "  No persistence data available.")
		return
	}
	fmt.Fprintf(c.out, "  Closed lifecycles: %d  avg %s  median %s\n",
		r.Lifecycles, r.AvgDuration.Round(time.Second/10), r.MedianDuration.Round(time.Second/10))

	table := tablewriter.NewWriter(c.out)
	table.Header("Duration", "Count", "Share")
	for _, b := range r.Durations {
		table.Append(b.Label, fmt.Sprintf("%d", b.Count), fmt.Sprintf("%.1f%%", b.Pct))
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  Top %d longest-lasting:\n", len(r.Longest))
	longest := tablewriter.NewWriter(c.out)
	longest.Header("#", "Market", "Size", "Duration", "Obs", "Avg", "Min", "Max")
	for i, rec := range r.Longest {
		longest.Append(
			fmt.Sprintf("%d", i+1),
			marketLabel(rec.MarketTitle, rec.Key.MarketID),
			fmt.Sprintf("$%.0f", rec.Key.TargetSize),
			fmt.Sprintf("%.1fs", rec.Duration.Seconds()),
			fmt.Sprintf("%d", rec.ObservationCount),
			fmt.Sprintf("%.2f%%", rec.AvgEdge*100),
			fmt.Sprintf("%.2f%%", rec.MinEdge*100),
			fmt.Sprintf("%.2f%%", rec.MaxEdge*100),
		)
	}
	longest.Render()
}

func (c *Console) printTopMarkets(r analytics.Report) {
	if len(r.TopMarkets) == 0 {
		return
	}
	fmt.Fprintln(c.out, "\n  --- TOP MARKETS BY OPPORTUNITY COUNT ---")
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Count", "Avg", "Max")
	for i, m := range r.TopMarkets {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(marketLabel(m.MarketTitle, m.MarketID), 55),
			fmt.Sprintf("%d", m.Count),
			fmt.Sprintf("%.3f%%", m.AvgEdge*100),
			fmt.Sprintf("%.3f%%", m.MaxEdge*100),
		)
	}
	table.Render()
}

func (c *Console) printTimeSeries(r analytics.Report) {
	ts := r.TimeSeries
	if r.TotalOpportunities == 0 {
		return
	}
	fmt.Fprintln(c.out, "\n  --- TIME SERIES ---")
	fmt.Fprintf(c.out, "  First detection: %s\n", ts.First.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(c.out, "  Last detection:  %s\n", ts.Last.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(c.out, "  Span:            %.2f hours (%.2f days)\n", ts.Span.Hours(), ts.Span.Hours()/24)
	if ts.PerHour > 0 {
		fmt.Fprintf(c.out, "  Avg rate:        %.1f opportunities/hour\n", ts.PerHour)
	}
	if ts.Cycles > 0 {
		fmt.Fprintf(c.out, "  Scan cycles:     %d (%.2f opportunities/cycle)\n", ts.Cycles, ts.PerCycle)
	}
}
