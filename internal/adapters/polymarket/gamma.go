package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100
)

// ListActiveMarkets devuelve los mercados activos y no cerrados de Gamma.
// Pagina con offset hasta que una página viene vacía o se alcanza maxMarkets.
func (c *Client) ListActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	var all []domain.Market

	for offset := 0; len(all) < c.maxMarkets; offset += gammaPageSize {
		url := fmt.Sprintf("%s%s?active=true&closed=false&limit=%d&offset=%d",
			c.gammaBase, gammaMarketsPath, gammaPageSize, offset)

		var page gammaMarketsResponse
		if err := c.get(ctx, c.gammaLimiter, url, &page); err != nil {
			return nil, fmt.Errorf("gamma.ListActiveMarkets: offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		all = append(all, mapGammaMarkets(page)...)

		slog.Debug("fetched gamma markets page",
			"offset", offset,
			"count", len(page),
			"total", len(all),
		)

		if len(page) < gammaPageSize {
			break
		}
	}

	if len(all) > c.maxMarkets {
		all = all[:c.maxMarkets]
	}

	slog.Debug("active markets fetched", "total", len(all))
	return all, nil
}
