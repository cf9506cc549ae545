package strategy

import (
	"math"

	"github.com/shopspring/decimal"
)

const pricePlaces = 2

var (
	decOne     = decimal.NewFromInt(1)
	decHundred = decimal.NewFromInt(100)
)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// RoundPrice rounds to paise.
func RoundPrice(val float64) float64 {
	return decToFloat(decFromFloat(val).Round(pricePlaces))
}

// offsetPct returns base moved by pct percent, up or down, rounded to paise.
func offsetPct(base, pct float64, up bool) float64 {
	factor := decFromFloat(pct).Div(decHundred)
	if up {
		factor = decOne.Add(factor)
	} else {
		factor = decOne.Sub(factor)
	}
	return decToFloat(decFromFloat(base).Mul(factor).Round(pricePlaces))
}

// scale returns base multiplied by ratio, rounded to paise.
func scale(base, ratio float64) float64 {
	return decToFloat(decFromFloat(base).Mul(decFromFloat(ratio)).Round(pricePlaces))
}
