package market

import "strings"

// Instrument pairs a display name with the symbol the data source expects,
// e.g. {"NIFTY50", "^NSEI"} or {"RELIANCE", "RELIANCE.NS"}.
type Instrument struct {
	Name   string `json:"name" yaml:"name" mapstructure:"name"`
	Symbol string `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
}

// Normalize trims both fields and upper-cases the display name.
func (i Instrument) Normalize() Instrument {
	return Instrument{
		Name:   strings.ToUpper(strings.TrimSpace(i.Name)),
		Symbol: strings.TrimSpace(i.Symbol),
	}
}

func (i Instrument) String() string {
	if i.Symbol == "" || i.Symbol == i.Name {
		return i.Name
	}
	return i.Name + "(" + i.Symbol + ")"
}
