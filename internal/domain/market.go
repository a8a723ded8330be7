package domain

import "strings"

// Market representa un mercado de predicción binario en Polymarket.
// Se vuelve a leer en cada ciclo: los mercados aparecen y se cierran.
type Market struct {
	ConditionID string
	Question    string
	Slug        string
	Tokens      [2]Token
	Active      bool
	Closed      bool
}

// Token es uno de los dos lados del mercado (YES/NO).
type Token struct {
	TokenID string
	Outcome string // "Yes" | "No"
}

// YesToken devuelve el token YES del mercado.
// Si ningún outcome se llama "Yes", asume el orden posicional [YES, NO].
func (m Market) YesToken() Token {
	for _, t := range m.Tokens {
		if strings.EqualFold(t.Outcome, "yes") {
			return t
		}
	}
	return m.Tokens[0]
}

// NoToken devuelve el token NO del mercado.
func (m Market) NoToken() Token {
	for _, t := range m.Tokens {
		if strings.EqualFold(t.Outcome, "no") {
			return t
		}
	}
	return m.Tokens[1]
}

// IsBinary devuelve true si el mercado tiene los dos token IDs.
func (m Market) IsBinary() bool {
	return m.Tokens[0].TokenID != "" && m.Tokens[1].TokenID != "" &&
		m.Tokens[0].TokenID != m.Tokens[1].TokenID
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen runas.
// Si la pregunta está vacía usa los primeros caracteres del conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		q = conditionID
		if r := []rune(q); len(r) > 20 {
			q = string(r[:20]) + "..."
		}
	}
	return Truncate(q, maxLen)
}

// Truncate corta s a maxLen runas como mucho, terminando en "..." si recorta.
// Nunca parte una runa UTF-8.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
