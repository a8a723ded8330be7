package scanner

import (
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Analyzer simula la compra de ambas patas y calcula el edge.
type Analyzer struct {
	fees domain.FeeRates
}

// NewAnalyzer crea un Analyzer con los fees por pata dados.
func NewAnalyzer(fees domain.FeeRates) *Analyzer {
	return &Analyzer{fees: fees}
}

// Evaluate simula la compra de size USDC en el lado ask de cada book.
// Devuelve ok=false si alguna pata no se llena por completo: liquidez
// insuficiente no es un error.
func (a *Analyzer) Evaluate(market domain.Market, yesBook, noBook domain.OrderBook, size float64, now time.Time) (domain.Opportunity, bool) {
	yes := domain.SimulateFill(yesBook.Asks, size)
	if !yes.FullyFilled {
		return domain.Opportunity{}, false
	}
	no := domain.SimulateFill(noBook.Asks, size)
	if !no.FullyFilled {
		return domain.Opportunity{}, false
	}

	edge := domain.ComputeEdge(yes, no, a.fees)
	return domain.Opportunity{
		Timestamp:       now,
		MarketID:        market.ConditionID,
		MarketTitle:     market.Question,
		TargetSize:      size,
		VWAPYes:         yes.VWAP,
		VWAPNo:          no.VWAP,
		YesLevels:       yes.Levels,
		NoLevels:        no.Levels,
		FeeRateYes:      a.fees.Yes,
		FeeRateNo:       a.fees.No,
		RawEdge:         edge.Raw,
		FeeAdjustedEdge: edge.FeeAdjusted,
		EffectiveCost:   edge.EffectiveCost,
		Qualifies:       edge.Qualifies,
	}, true
}
