package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// MarketProvider obtiene los mercados activos del venue.
type MarketProvider interface {
	// ListActiveMarkets devuelve los mercados activos y no cerrados.
	// Pagina automáticamente hasta el límite configurado.
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
}
