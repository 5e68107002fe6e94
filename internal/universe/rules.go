// Package universe selects the security-month observations eligible for index
// inclusion. Eligibility is a pure function of the share category code and the
// exchange code against a rule table; the table ships with provider defaults
// and can be overridden from configuration since the provider revises its code
// sets over time.
package universe

import "fmt"

// Rules holds the accepted share category and exchange code sets.
type Rules struct {
	ShareCodes    []int `yaml:"share_codes"`
	ExchangeCodes []int `yaml:"exchange_codes"`

	shareSet    map[int]struct{}
	exchangeSet map[int]struct{}
}

// DefaultRules returns the provider-default eligibility table.
//
// Share codes keep ordinary common equity: first digit 1 (common shares),
// 2 (certificates) and 4 (shares of beneficial interest), second digit 0 or 1.
// This excludes ADRs (3x), units (7x), non-US incorporations (x2), Americus
// Trust components (x3), closed-end funds (x4, x5) and REITs (x8), as well as
// rights, warrants and preferred stock which carry other first digits.
// Exchange codes cover the three primary venues: 1 NYSE, 2 AMEX, 3 NASDAQ.
func DefaultRules() Rules {
	return Rules{
		ShareCodes:    []int{10, 11, 20, 21, 40, 41},
		ExchangeCodes: []int{1, 2, 3},
	}
}

// Compile builds the lookup sets and validates the table. Must be called once
// before Eligible; Filter compiles a copy automatically.
func (r *Rules) Compile() error {
	if len(r.ShareCodes) == 0 {
		return fmt.Errorf("universe rules: empty share code set")
	}
	if len(r.ExchangeCodes) == 0 {
		return fmt.Errorf("universe rules: empty exchange code set")
	}
	r.shareSet = make(map[int]struct{}, len(r.ShareCodes))
	for _, c := range r.ShareCodes {
		if c <= 0 {
			return fmt.Errorf("universe rules: invalid share code %d", c)
		}
		r.shareSet[c] = struct{}{}
	}
	r.exchangeSet = make(map[int]struct{}, len(r.ExchangeCodes))
	for _, c := range r.ExchangeCodes {
		if c <= 0 {
			return fmt.Errorf("universe rules: invalid exchange code %d", c)
		}
		r.exchangeSet[c] = struct{}{}
	}
	return nil
}

// EligibleCodes reports whether the code pair passes the table. Unknown or
// zero codes fail closed.
func (r *Rules) EligibleCodes(shareCode, exchangeCode int) bool {
	if r.shareSet == nil || r.exchangeSet == nil {
		return false
	}
	if _, ok := r.shareSet[shareCode]; !ok {
		return false
	}
	_, ok := r.exchangeSet[exchangeCode]
	return ok
}
