// Package geography picks the template location a country-specific copy is
// derived from.
package geography

import "strings"

// Well-known aggregate locations.
const (
	RoW = "RoW"
	GLO = "GLO"
	CH  = "CH"
	RER = "RER"

	EuropeWithoutSwitzerland = "Europe without Switzerland"
)

// Resolution tags how a template location was chosen.
type Resolution int

const (
	ExactMatch Resolution = iota
	RegionMatch
	RoWFallback
	GlobalFallback
	ArbitraryFallback
)

var resolutionNames = [...]string{"exact", "region", "row", "global", "arbitrary"}

func (r Resolution) String() string {
	if r < 0 || int(r) >= len(resolutionNames) {
		return "unknown"
	}
	return resolutionNames[r]
}

// MarshalText renders the resolution by name.
func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Query asks which location a copy of technology for commodity at Target
// should be derived from, given the locations the technology exists in.
type Query struct {
	Commodity  string
	Technology string
	Target     string
	Possible   []string
}

// Assignment is the outcome of a resolution.
type Assignment struct {
	Commodity  string     `json:"commodity"`
	Technology string     `json:"technology"`
	Target     string     `json:"target"`
	Source     string     `json:"source"`
	Resolution Resolution `json:"resolution"`
}

// Resolver answers geography questions against the country→regions table.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	countryToRegions map[string][]string
}

// NewResolver wraps an ordered country→regions table.
func NewResolver(countryToRegions map[string][]string) *Resolver {
	if countryToRegions == nil {
		countryToRegions = map[string][]string{}
	}
	return &Resolver{countryToRegions: countryToRegions}
}

// Resolve selects the template location for q. The chain is: the target
// itself (never for RoW), the first of its regions that exists, RoW, GLO,
// then the first possible location. ok is false when q.Possible is empty.
func (r *Resolver) Resolve(q Query) (Assignment, bool) {
	a := Assignment{Commodity: q.Commodity, Technology: q.Technology, Target: q.Target}
	if len(q.Possible) == 0 {
		return a, false
	}
	a.Source, a.Resolution = r.resolve(q.Target, q.Possible)
	return a, true
}

func (r *Resolver) resolve(target string, possible []string) (string, Resolution) {
	if target != RoW && contains(possible, target) {
		return target, ExactMatch
	}
	for _, region := range r.countryToRegions[target] {
		if contains(possible, region) {
			return region, RegionMatch
		}
	}
	if contains(possible, RoW) {
		return RoW, RoWFallback
	}
	if contains(possible, GLO) {
		return GLO, GlobalFallback
	}
	return possible[0], ArbitraryFallback
}

// Regions returns the ordered regions country belongs to.
func (r *Resolver) Regions(country string) []string {
	return r.countryToRegions[country]
}

// IsCountry reports whether location is a key of the table.
func (r *Resolver) IsCountry(location string) bool {
	_, ok := r.countryToRegions[location]
	return ok
}

// CountryOf maps a country or sub-country location ("CA-QC") to its
// country, or "" for anything else.
func (r *Resolver) CountryOf(location string) string {
	if r.IsCountry(location) {
		return location
	}
	if i := strings.Index(location, "-"); i > 0 {
		if parent := location[:i]; r.IsCountry(parent) {
			return parent
		}
	}
	return ""
}

// IsEuropean reports whether country's first region is RER.
func (r *Resolver) IsEuropean(country string) bool {
	regions := r.countryToRegions[country]
	return len(regions) > 0 && regions[0] == RER
}

// ParentCountry returns the part of a sub-country location before "-".
func ParentCountry(location string) (string, bool) {
	i := strings.Index(location, "-")
	if i <= 0 {
		return "", false
	}
	return location[:i], true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Contains reports whether v is listed.
func Contains(list []string, v string) bool { return contains(list, v) }

//Personal.AI order the ending
