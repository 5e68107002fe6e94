package universe

import (
	"fmt"

	"crspindex/internal/panel"
)

// Filter returns the subset of the panel eligible for index inclusion under
// the rule table. The input is not mutated; the output preserves the input's
// relative order, so an (entity, period) sorted panel stays sorted. Applying
// Filter twice yields the same result as once.
func Filter(obs []panel.Observation, rules Rules) ([]panel.Observation, error) {
	if err := rules.Compile(); err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	out := make([]panel.Observation, 0, len(obs))
	for _, o := range obs {
		if rules.EligibleCodes(o.ShareCode, o.ExchangeCode) {
			out = append(out, o)
		}
	}
	return out, nil
}
