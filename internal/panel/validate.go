package panel

import (
	"fmt"
	"sort"
	"strings"
)

// DuplicateKeyError reports (entity, period) keys that appear more than once.
// Duplicate keys make weighting ambiguous, so the calculator treats this as a
// fatal precondition failure rather than deduplicating silently.
type DuplicateKeyError struct {
	Keys []Key
}

func (e *DuplicateKeyError) Error() string {
	shown := e.Keys
	more := ""
	if len(shown) > 10 {
		more = fmt.Sprintf(" and %d more", len(shown)-10)
		shown = shown[:10]
	}
	parts := make([]string, len(shown))
	for i, k := range shown {
		parts[i] = k.String()
	}
	return fmt.Sprintf("duplicate (entity, period) keys: %s%s", strings.Join(parts, ", "), more)
}

// ValidateUnique checks that every (entity, period) key occurs at most once.
// Returns a *DuplicateKeyError listing the offending keys in deterministic
// order, or nil.
func ValidateUnique(obs []Observation) error {
	seen := make(map[Key]int, len(obs))
	var dups []Key
	for _, o := range obs {
		k := o.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Slice(dups, func(i, j int) bool {
		if dups[i].EntityID != dups[j].EntityID {
			return dups[i].EntityID < dups[j].EntityID
		}
		return dups[i].Period.Before(dups[j].Period)
	})
	return &DuplicateKeyError{Keys: dups}
}

// ValidatePeriods checks that every observation period sits on the canonical
// monthly grid. The dataset loader normalizes on read, so a violation here
// means the panel bypassed the loader.
func ValidatePeriods(obs []Observation) error {
	for _, o := range obs {
		if !o.Period.Equal(NormalizePeriod(o.Period)) {
			return fmt.Errorf("observation %s: period not normalized to first of month", o.Key())
		}
	}
	return nil
}

// SortByKey orders the panel by (entity, period), each security's history
// contiguous and chronological, for deterministic output.
func SortByKey(obs []Observation) {
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].EntityID != obs[j].EntityID {
			return obs[i].EntityID < obs[j].EntityID
		}
		return obs[i].Period.Before(obs[j].Period)
	})
}
