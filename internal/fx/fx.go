// Package fx converts stored figures between reporting currencies.
package fx

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/bankfacts/internal/model"
)

// DefaultUSDToHKD is the built-in peg-band rate used until a custom rate is set.
const DefaultUSDToHKD = 7.82

// Source tells whether the rate is the built-in default or user supplied.
type Source string

const (
	SourceDefault Source = "default"
	SourceCustom  Source = "custom"
)

// Config is the currency-rate configuration.
type Config struct {
	USDToHKD    float64   `json:"usdToHkd" mapstructure:"usd_to_hkd"`
	Source      Source    `json:"source" mapstructure:"source"`
	LastUpdated time.Time `json:"lastUpdated" mapstructure:"-"`
}

// Default returns the built-in rate configuration.
func Default() Config {
	return Config{USDToHKD: DefaultUSDToHKD, Source: SourceDefault}
}

// Convert converts value between currencies. Percentages never convert.
// Pairs without a configured rate return the value unchanged and ok=false.
func (c Config) Convert(value float64, unit model.Unit, from, to model.Currency) (float64, bool) {
	if unit.IsPercent() || from == to || to == "" {
		return value, true
	}
	rate := c.USDToHKD
	if rate <= 0 {
		rate = DefaultUSDToHKD
	}
	v := decimal.NewFromFloat(value)
	r := decimal.NewFromFloat(rate)

	switch {
	case from == model.CurrencyHKD && to == model.CurrencyUSD:
		return v.Div(r).InexactFloat64(), true
	case from == model.CurrencyUSD && to == model.CurrencyHKD:
		return v.Mul(r).InexactFloat64(), true
	default:
		return value, false
	}
}

// ToStorage converts a value entered in the display currency back into the
// currency the fact is stored in.
func (c Config) ToStorage(entered float64, unit model.Unit, stored, display model.Currency) float64 {
	v, _ := c.Convert(entered, unit, display, stored)
	return v
}
