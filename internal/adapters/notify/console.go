package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// Con table=true imprime además la tabla de detecciones y cierres de cada ciclo.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el resumen del ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, r domain.CycleReport) error {
	c.printCompact(r)
	if c.table && (len(r.Opportunities) > 0 || len(r.Closed) > 0) {
		c.printCycleTables(r)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r domain.CycleReport) {
	s := r.Summary()

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] #%d %d mkts", r.StartedAt.Format("15:04:05"), r.Cycle, r.Markets)
	if r.Skipped > 0 {
		fmt.Fprintf(&sb, " (%d skipped)", r.Skipped)
	}
	fmt.Fprintf(&sb, " %d evals → %d net+ | open:%d +%d -%d | %s",
		r.Evaluated, s.Qualifying, r.OpenCount, r.Opened, len(r.Closed), r.Duration.Round(time.Millisecond))

	if s.Qualifying == 0 {
		sb.WriteString(" | no opportunities")
		fmt.Fprintln(c.out, sb.String())
		return
	}

	shown := 0
	for _, opp := range bestFirst(r.Opportunities) {
		if shown >= 3 || !opp.Qualifies {
			break
		}
		fmt.Fprintf(&sb, " | %s $%.0f %+.2f%%",
			compactName(opp.MarketTitle, 25), opp.TargetSize, opp.FeeAdjustedEdge*100)
		shown++
	}
	fmt.Fprintln(c.out, sb.String())
}

// printCycleTables imprime las detecciones y los lifecycles cerrados del ciclo.
func (c *Console) printCycleTables(r domain.CycleReport) {
	if len(r.Opportunities) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Market", "Size", "VWAP Y", "VWAP N", "Lvls", "Raw", "Net", "Q")
		for i, opp := range bestFirst(r.Opportunities) {
			if i >= maxTableRows {
				break
			}
			q := "-"
			if opp.Qualifies {
				q = "✓"
			}
			table.Append(
				fmt.Sprintf("%d", i+1),
				marketLabel(opp.MarketTitle, opp.MarketID),
				fmt.Sprintf("$%.0f", opp.TargetSize),
				fmt.Sprintf("%.4f", opp.VWAPYes),
				fmt.Sprintf("%.4f", opp.VWAPNo),
				fmt.Sprintf("%d/%d", opp.YesLevels, opp.NoLevels),
				fmt.Sprintf("%+.3f%%", opp.RawEdge*100),
				fmt.Sprintf("%+.3f%%", opp.FeeAdjustedEdge*100),
				q,
			)
		}
		table.Render()
	}

	if len(r.Closed) > 0 {
		fmt.Fprintln(c.out, "  closed:")
		for _, rec := range r.Closed {
			fmt.Fprintf(c.out, "  - %s $%.0f lasted %s over %d obs, avg %+.3f%%\n",
				marketLabel(rec.MarketTitle, rec.Key.MarketID), rec.Key.TargetSize,
				rec.Duration, rec.ObservationCount, rec.AvgEdge*100)
		}
	}
}

// --- helpers ---

const maxTableRows = 20

// bestFirst devuelve una copia ordenada por edge neto desc.
func bestFirst(opps []domain.Opportunity) []domain.Opportunity {
	sorted := append([]domain.Opportunity(nil), opps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FeeAdjustedEdge > sorted[j].FeeAdjustedEdge
	})
	return sorted
}

func marketLabel(title, id string) string {
	return domain.TruncateQuestion(title, id, 38)
}

func truncate(s string, maxLen int) string {
	return domain.Truncate(s, maxLen)
}

// compactName corta en el último espacio si queda al menos la mitad del texto.
func compactName(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	cut := string(r[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
