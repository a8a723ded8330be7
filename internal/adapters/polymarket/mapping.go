package polymarket

import (
	"sort"
	"strconv"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// mapGammaMarkets convierte los DTOs de Gamma a domain.Market.
func mapGammaMarkets(raw []gammaMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		markets = append(markets, mapGammaMarket(r))
	}
	return markets
}

// mapGammaMarket convierte un gammaMarket a domain.Market. Solo los dos primeros
// tokens cuentan; los mercados no binarios los descarta el scanner.
func mapGammaMarket(r gammaMarket) domain.Market {
	m := domain.Market{
		ConditionID: r.ConditionID,
		Question:    r.Question,
		Slug:        r.Slug,
		Active:      r.Active,
		Closed:      r.Closed,
	}
	if m.ConditionID == "" {
		m.ConditionID = r.ID
	}

	for i, id := range r.ClobTokenIDs {
		if i >= 2 {
			break
		}
		m.Tokens[i].TokenID = id
		if i < len(r.Outcomes) {
			m.Tokens[i].Outcome = r.Outcomes[i]
		}
	}
	if len(r.ClobTokenIDs) > 2 {
		// Mercado multi-outcome: no es un par YES/NO.
		m.Tokens = [2]domain.Token{}
	}
	return m
}

// mapOrderBook convierte la respuesta de /book a domain.OrderBook.
func mapOrderBook(r orderBookResponse) domain.OrderBook {
	return domain.OrderBook{
		TokenID: r.AssetID,
		Bids:    mapBookEntries(r.Bids, false),
		Asks:    mapBookEntries(r.Asks, true),
	}
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
