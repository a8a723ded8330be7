package polymarket

import (
	"encoding/json"
	"fmt"
)

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- CLOB API ---

// orderBookResponse es la respuesta de GET /book.
type orderBookResponse struct {
	Market  string         `json:"market"`
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket contiene la metadata de un mercado.
type gammaMarket struct {
	ID           string     `json:"id"`
	ConditionID  string     `json:"conditionId"`
	Question     string     `json:"question"`
	Slug         string     `json:"slug"`
	Active       bool       `json:"active"`
	Closed       bool       `json:"closed"`
	ClobTokenIDs stringList `json:"clobTokenIds"`
	Outcomes     stringList `json:"outcomes"`
}

// stringList acepta tanto un array JSON como un array codificado dentro de un
// string, que es como Gamma devuelve clobTokenIds y outcomes: "[\"1\", \"2\"]".
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("stringList: %w", err)
	}
	if encoded == "" {
		*s = nil
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return fmt.Errorf("stringList: decode %q: %w", encoded, err)
	}
	*s = list
	return nil
}
