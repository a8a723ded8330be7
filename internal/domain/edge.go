package domain

// FeeRates son los fees taker por pata, modelados como un recargo proporcional
// plano sobre el precio de ejecución. Es una simplificación de la curva real
// de Polymarket, que depende de la probabilidad del outcome.
type FeeRates struct {
	Yes float64
	No  float64
}

// Edge es el margen de comprar ambas patas frente al payout garantizado de $1.
type Edge struct {
	Raw           float64 // 1 - (vwapYes + vwapNo)
	FeeAdjusted   float64 // 1 - (vwapYes·(1+feeYes) + vwapNo·(1+feeNo))
	EffectiveCost float64 // coste por $1 de payout, fees incluidos
	Qualifies     bool    // FeeAdjusted > 0
}

// ComputeEdge calcula el edge bruto y neto de fees para dos fills del mismo tamaño.
// Solo tiene sentido cuando ambos lados están FullyFilled; el caller es quien
// descarta los mercados sin liquidez suficiente.
func ComputeEdge(yes, no FillResult, fees FeeRates) Edge {
	cost := yes.VWAP*(1+fees.Yes) + no.VWAP*(1+fees.No)
	adjusted := 1 - cost
	return Edge{
		Raw:           1 - (yes.VWAP + no.VWAP),
		FeeAdjusted:   adjusted,
		EffectiveCost: cost,
		Qualifies:     adjusted > 0,
	}
}
