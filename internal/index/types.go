package index

import (
	"time"

	"crspindex/internal/panel"
)

// MonthlyValue holds the four computed return figures for one calendar month.
// Field names carry the "computed" suffix in exports so the series can be
// merged against the provider's reported reference series without collision.
type MonthlyValue struct {
	Period time.Time `json:"period"`

	EqualWeightedRet  panel.Float `json:"ew_ret_computed"`  // equal-weighted, with distributions
	EqualWeightedRetX panel.Float `json:"ew_retx_computed"` // equal-weighted, without distributions
	ValueWeightedRet  panel.Float `json:"vw_ret_computed"`  // value-weighted, with distributions
	ValueWeightedRetX panel.Float `json:"vw_retx_computed"` // value-weighted, without distributions
}

// ReturnKind selects which return field an aggregation reads.
type ReturnKind int

const (
	// WithDistributions is the total return including dividends.
	WithDistributions ReturnKind = iota
	// WithoutDistributions is the price-only return.
	WithoutDistributions
)

func (k ReturnKind) String() string {
	switch k {
	case WithDistributions:
		return "ret"
	case WithoutDistributions:
		return "retx"
	default:
		return "unknown"
	}
}

// returnField reads the selected return from an observation.
func returnField(o panel.Observation, kind ReturnKind) panel.Float {
	if kind == WithoutDistributions {
		return o.RetX
	}
	return o.Ret
}
