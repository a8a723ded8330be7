package scanner

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func makeBook(tokenID string, asks ...domain.BookEntry) domain.OrderBook {
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    []domain.BookEntry{{Price: 0.01, Size: 1000}},
		Asks:    asks,
	}
}

func testMarket(id string) domain.Market {
	return domain.Market{
		ConditionID: id,
		Question:    "Question " + id,
		Active:      true,
		Tokens: [2]domain.Token{
			{TokenID: id + "-yes", Outcome: "Yes"},
			{TokenID: id + "-no", Outcome: "No"},
		},
	}
}

var defaultFees = domain.FeeRates{Yes: 0.015, No: 0.015}

func TestAnalyzer_Evaluate_Qualifies(t *testing.T) {
	a := NewAnalyzer(defaultFees)
	yes := makeBook("y", domain.BookEntry{Price: 0.48, Size: 1000})
	no := makeBook("n", domain.BookEntry{Price: 0.49, Size: 1000})

	opp, ok := a.Evaluate(testMarket("0xa"), yes, no, 50, t0)
	require.True(t, ok)

	assert.Equal(t, "0xa", opp.MarketID)
	assert.Equal(t, "Question 0xa", opp.MarketTitle)
	assert.InDelta(t, 50, opp.TargetSize, 1e-12)
	assert.True(t, opp.Timestamp.Equal(t0))
	assert.InDelta(t, 0.48, opp.VWAPYes, 1e-12)
	assert.InDelta(t, 0.49, opp.VWAPNo, 1e-12)
	assert.InDelta(t, 0.03, opp.RawEdge, 1e-12)
	// 1 - 0.97 × 1.015
	assert.InDelta(t, 0.01545, opp.FeeAdjustedEdge, 1e-12)
	assert.InDelta(t, 0.98455, opp.EffectiveCost, 1e-12)
	assert.True(t, opp.Qualifies)
	assert.Equal(t, 1, opp.YesLevels)
	assert.InDelta(t, 0.015, opp.FeeRateYes, 1e-12)
}

func TestAnalyzer_Evaluate_RawEdgeEatenByFees(t *testing.T) {
	a := NewAnalyzer(defaultFees)
	yes := makeBook("y", domain.BookEntry{Price: 0.485, Size: 1000})
	no := makeBook("n", domain.BookEntry{Price: 0.502, Size: 1000})

	opp, ok := a.Evaluate(testMarket("0xa"), yes, no, 50, t0)
	require.True(t, ok)
	assert.InDelta(t, 0.013, opp.RawEdge, 1e-12)
	assert.Less(t, opp.FeeAdjustedEdge, 0.0)
	assert.False(t, opp.Qualifies)
}

func TestAnalyzer_Evaluate_WalksTheBook(t *testing.T) {
	a := NewAnalyzer(defaultFees)
	// $60: 100 × 0.48 = $48, después 24 × 0.50 = $12
	yes := makeBook("y", domain.BookEntry{Price: 0.48, Size: 100}, domain.BookEntry{Price: 0.50, Size: 50})
	no := makeBook("n", domain.BookEntry{Price: 0.40, Size: 1000})

	opp, ok := a.Evaluate(testMarket("0xa"), yes, no, 60, t0)
	require.True(t, ok)
	assert.InDelta(t, 60.0/124.0, opp.VWAPYes, 1e-12)
	assert.Equal(t, 2, opp.YesLevels)
	assert.Equal(t, 1, opp.NoLevels)
}

func TestAnalyzer_Evaluate_InsufficientLiquidity(t *testing.T) {
	a := NewAnalyzer(defaultFees)
	deep := makeBook("y", domain.BookEntry{Price: 0.40, Size: 1000})
	thin := makeBook("n", domain.BookEntry{Price: 0.40, Size: 10}) // $4

	_, ok := a.Evaluate(testMarket("0xa"), deep, thin, 50, t0)
	assert.False(t, ok)

	_, ok = a.Evaluate(testMarket("0xa"), thin, deep, 50, t0)
	assert.False(t, ok)

	_, ok = a.Evaluate(testMarket("0xa"), makeBook("y"), deep, 50, t0)
	assert.False(t, ok, "book vacío")
}
