package trade

import "sort"

// Share is the fraction attributed to one country.
type Share struct {
	Country string  `json:"country"`
	Value   float64 `json:"value"`
}

// Shares is an ordered share table.
type Shares []Share

// Sum returns the total of all values.
func (s Shares) Sum() float64 {
	total := 0.0
	for _, sh := range s {
		total += sh.Value
	}
	return total
}

// Get returns the value for country.
func (s Shares) Get(country string) (float64, bool) {
	for _, sh := range s {
		if sh.Country == country {
			return sh.Value, true
		}
	}
	return 0, false
}

// Has reports whether country is listed.
func (s Shares) Has(country string) bool {
	_, ok := s.Get(country)
	return ok
}

// Countries returns the listed countries in table order.
func (s Shares) Countries() []string {
	out := make([]string, len(s))
	for i, sh := range s {
		out[i] = sh.Country
	}
	return out
}

// Normalized returns a copy scaled to sum to 1. A zero table is returned
// unchanged.
func (s Shares) Normalized() Shares {
	total := s.Sum()
	out := make(Shares, len(s))
	copy(out, s)
	if total == 0 {
		return out
	}
	for i := range out {
		out[i].Value /= total
	}
	return out
}

// sortDescending orders by value, highest first, ties by country code.
func (s Shares) sortDescending() {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Value != s[j].Value {
			return s[i].Value > s[j].Value
		}
		return s[i].Country < s[j].Country
	})
}

// cutoffLimit returns the length of the smallest prefix of a descending,
// normalized table whose cumulative share exceeds cutoff.
func cutoffLimit(s Shares, cutoff float64) int {
	cum := 0.0
	for i, sh := range s {
		cum += sh.Value
		if cum > cutoff {
			return i + 1
		}
	}
	return len(s)
}

// withCutoff keeps the significant prefix of a normalized table and folds
// the rest into RoW. RoW is always present in the result.
func withCutoff(normalized Shares, cutoff float64) Shares {
	sorted := make(Shares, len(normalized))
	copy(sorted, normalized)
	sorted.sortDescending()

	limit := cutoffLimit(sorted, cutoff)
	kept := sorted[:limit:limit]
	remainder := sorted[limit:].Sum()

	for i := range kept {
		if kept[i].Country == RoW {
			kept[i].Value += remainder
			return kept
		}
	}
	return append(kept, Share{Country: RoW, Value: remainder})
}

// ConsumerShare is the supplier distribution of one consuming country.
type ConsumerShare struct {
	Consumer string `json:"consumer"`
	Partners Shares `json:"partners"`
}

//Personal.AI order the ending
