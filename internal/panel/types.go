package panel

import (
	"fmt"
	"math"
	"time"
)

// Float is a nullable float64. The zero value is "missing".
type Float struct {
	Float64 float64 `json:"value"`
	Valid   bool    `json:"valid"`
}

// NewFloat returns a valid Float holding v.
func NewFloat(v float64) Float {
	return Float{Float64: v, Valid: true}
}

// Missing returns the missing Float.
func Missing() Float {
	return Float{}
}

// String formats the value for reports; missing values render empty.
func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return fmt.Sprintf("%.6f", f.Float64)
}

// Key uniquely identifies one observation within a panel.
type Key struct {
	EntityID int       `json:"entity_id"`
	Period   time.Time `json:"period"`
}

func (k Key) String() string {
	return fmt.Sprintf("(%d, %s)", k.EntityID, k.Period.Format("2006-01-02"))
}

// Observation is one security-month row of the panel. EntityID is the
// provider's permanent security identifier (permno); Period is normalized to
// the first day of the calendar month.
type Observation struct {
	EntityID     int       `json:"entity_id"`
	Period       time.Time `json:"period"`
	Ret          Float     `json:"ret"`       // monthly return including distributions
	RetX         Float     `json:"retx"`      // monthly return excluding distributions
	Price        Float     `json:"price"`     // signed; negative marks a quote-derived price
	SharesOut    Float     `json:"shares_out"`
	ShareCode    int       `json:"share_code"`
	ExchangeCode int       `json:"exchange_code"`
	DelistRet    Float     `json:"delist_ret"`
	DelistCode   int       `json:"delist_code"`
}

// Key returns the (entity, period) key of the observation.
func (o Observation) Key() Key {
	return Key{EntityID: o.EntityID, Period: o.Period}
}

// MarketValue is the market capitalization |price| * shares outstanding.
// The provider reports negative prices when the bid/ask midpoint stands in
// for a missing close, so the price is absoluted before multiplying. Missing
// price or shares yield a missing market value.
func (o Observation) MarketValue() Float {
	if !o.Price.Valid || !o.SharesOut.Valid {
		return Missing()
	}
	return NewFloat(math.Abs(o.Price.Float64) * o.SharesOut.Float64)
}

// NormalizePeriod maps any timestamp to the canonical monthly grid point:
// midnight UTC on the first day of its calendar month.
func NormalizePeriod(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the number of whole calendar months from a to b on
// the normalized grid. Negative when b precedes a.
func MonthsBetween(a, b time.Time) int {
	a, b = NormalizePeriod(a), NormalizePeriod(b)
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
