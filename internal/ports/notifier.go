package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Notifier presenta el resultado de cada ciclo al usuario.
type Notifier interface {
	// Notify recibe el resumen del ciclo recién terminado.
	Notify(ctx context.Context, report domain.CycleReport) error
}
