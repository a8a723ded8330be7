package scanner

import (
	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Filter descarta los mercados que no se pueden evaluar como par YES/NO.
type Filter struct{}

// NewFilter crea un Filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Apply devuelve los mercados activos, abiertos y binarios, sin duplicados.
// Conserva el orden de entrada.
func (f *Filter) Apply(markets []domain.Market) []domain.Market {
	result := make([]domain.Market, 0, len(markets))
	seen := make(map[string]bool, len(markets))
	for _, m := range markets {
		if !f.passes(m) || seen[m.ConditionID] {
			continue
		}
		seen[m.ConditionID] = true
		result = append(result, m)
	}
	return result
}

func (f *Filter) passes(m domain.Market) bool {
	if m.ConditionID == "" {
		return false
	}
	if !m.Active || m.Closed {
		return false
	}
	return m.IsBinary()
}
