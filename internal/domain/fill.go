package domain

// fillEpsilon absorbe el polvo de coma flotante al restar niveles completos.
const fillEpsilon = 1e-9

// FillResult es el resultado de simular una compra a mercado contra un lado del book.
type FillResult struct {
	Requested   float64 // USDC objetivo
	FilledValue float64 // USDC efectivamente consumidos (≤ Requested)
	FilledSize  float64 // shares obtenidas
	VWAP        float64 // FilledValue / FilledSize, 0 si no se llenó nada
	Levels      int     // niveles del book tocados
	FullyFilled bool
}

// SimulateFill recorre los niveles en el orden dado (mejor precio primero)
// hasta gastar target USDC. El último nivel puede consumirse parcialmente para
// que el valor llenado coincida exactamente con target.
//
// Un book vacío o un target no positivo devuelven un resultado vacío, no un error.
// Niveles con precio o tamaño no positivos se ignoran.
func SimulateFill(levels []BookEntry, target float64) FillResult {
	res := FillResult{Requested: target}
	if target <= 0 {
		return res
	}

	remaining := target
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		if lvl.Price <= 0 || lvl.Size <= 0 {
			continue
		}

		levelValue := lvl.Price * lvl.Size
		if levelValue <= remaining {
			res.FilledSize += lvl.Size
			res.FilledValue += levelValue
			remaining -= levelValue
			if remaining < fillEpsilon {
				remaining = 0
			}
		} else {
			// Fill parcial de este nivel
			res.FilledSize += remaining / lvl.Price
			res.FilledValue += remaining
			remaining = 0
		}
		res.Levels++
	}

	res.FullyFilled = remaining <= 0
	if res.FilledSize > 0 {
		res.VWAP = res.FilledValue / res.FilledSize
	}
	return res
}
