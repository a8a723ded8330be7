package notify

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

var csvHeader = []string{
	"id", "timestamp", "market_id", "market_title", "target_size",
	"vwap_yes", "vwap_no", "yes_levels", "no_levels",
	"fee_rate_yes", "fee_rate_no", "raw_edge", "fee_adjusted_edge", "effective_cost", "qualifies",
}

// WriteOpportunitiesCSV escribe el log de detecciones como CSV con cabecera.
func WriteOpportunitiesCSV(w io.Writer, opps []domain.Opportunity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("notify.WriteOpportunitiesCSV: header: %w", err)
	}
	for _, o := range opps {
		row := []string{
			o.ID,
			o.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			o.MarketID,
			o.MarketTitle,
			formatFloat(o.TargetSize),
			formatFloat(o.VWAPYes),
			formatFloat(o.VWAPNo),
			strconv.Itoa(o.YesLevels),
			strconv.Itoa(o.NoLevels),
			formatFloat(o.FeeRateYes),
			formatFloat(o.FeeRateNo),
			formatFloat(o.RawEdge),
			formatFloat(o.FeeAdjustedEdge),
			formatFloat(o.EffectiveCost),
			strconv.FormatBool(o.Qualifies),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("notify.WriteOpportunitiesCSV: %s: %w", o.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("notify.WriteOpportunitiesCSV: flush: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
