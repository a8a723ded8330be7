package scanner

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"golang.org/x/sync/errgroup"
)

// marketBooks es el resultado del fetch de un mercado. err != nil significa
// que su estado este ciclo es desconocido.
type marketBooks struct {
	market domain.Market
	yes    domain.OrderBook
	no     domain.OrderBook
	err    error
}

// fetchBooks obtiene los books YES y NO de cada mercado con a lo sumo
// cfg.Workers requests en vuelo. Cada goroutine escribe solo su propio slot;
// el resultado conserva el orden de markets.
func (s *Scanner) fetchBooks(ctx context.Context, markets []domain.Market) []marketBooks {
	out := make([]marketBooks, len(markets))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, m := range markets {
		i, m := i, m // copia por iteración (go < 1.22)
		g.Go(func() error {
			out[i] = s.fetchMarket(ctx, m)
			return nil
		})
	}
	_ = g.Wait() // los errores van en cada slot

	return out
}

func (s *Scanner) fetchMarket(ctx context.Context, m domain.Market) marketBooks {
	mb := marketBooks{market: m}
	if err := ctx.Err(); err != nil {
		mb.err = err
		return mb
	}

	yes, err := s.books.FetchOrderBook(ctx, m.YesToken().TokenID)
	if err != nil {
		mb.err = fmt.Errorf("yes book: %w", err)
		return mb
	}
	no, err := s.books.FetchOrderBook(ctx, m.NoToken().TokenID)
	if err != nil {
		mb.err = fmt.Errorf("no book: %w", err)
		return mb
	}
	mb.yes, mb.no = yes, no
	return mb
}
