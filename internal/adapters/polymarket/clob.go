package polymarket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const bookPath = "/book"

// FetchOrderBook obtiene el orderbook de un token con GET /book?token_id=.
// Los niveles se devuelven ordenados: asks de menor a mayor, bids de mayor a menor.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	u := c.clobBase + bookPath + "?token_id=" + url.QueryEscape(tokenID)

	var resp orderBookResponse
	if err := c.get(ctx, c.bookLimiter, u, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.FetchOrderBook %s: %w", shortID(tokenID), err)
	}

	book := mapOrderBook(resp)
	if book.TokenID == "" {
		book.TokenID = tokenID
	}
	return book, nil
}

// shortID acorta token IDs (≈77 dígitos) para logs y errores.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:8] + "..." + id[len(id)-4:]
}
