package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// BookProvider obtiene orderbooks del CLOB.
type BookProvider interface {
	// FetchOrderBook devuelve el book (bids y asks) de un token.
	// Los errores transitorios ya vienen reintentados con backoff.
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}
