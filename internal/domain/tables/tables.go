// Package tables holds the static lookup tables a regionalization run needs
// for one database version.
package tables

import (
	"sort"
)

// Heat flows that are substituted per country.
const (
	HeatDistrictNaturalGas     = "heat, district or industrial, natural gas"
	HeatDistrictOtherThanNG    = "heat, district or industrial, other than natural gas"
	HeatSmallScaleOtherThanNG  = "heat, central or small-scale, other than natural gas"
	MunicipalSolidWaste        = "municipal solid waste"
	SpatializedBiosphereDB     = "biosphere3_spatialized_flows"
	RegionalizedDatabaseSuffix = " regionalized"
)

// HeatFlows lists the heat products in substitution order.
var HeatFlows = []string{HeatDistrictNaturalGas, HeatDistrictOtherThanNG, HeatSmallScaleOtherThanNG}

// ProductTechnology is a (reference product, activity name) pair.
type ProductTechnology struct {
	Product    string
	Technology string
}

// Tables is an immutable set of lookups for one version.
type Tables struct {
	Version string

	ProductToHS          map[string]string
	HSToExiobase         map[string]string
	CountryToRegions     map[string][]string
	ElectricityGeos      []string
	AluminiumGeos        []string
	WasteGeos            []string
	HeatGeos             map[string][]string
	ComtradeToEcoinvent  map[string]string
	ComtradeToExiobase   map[string]string
	NoInputs             map[ProductTechnology]struct{}
	RelevantNonTraded    []string
	RegioinventGeos      []string
	SpatializedBaseFlows map[string][]string
}

// IsTraded reports whether product has an HS code.
func (t *Tables) IsTraded(product string) bool {
	_, ok := t.ProductToHS[product]
	return ok
}

// HSCode returns the commodity code of product.
func (t *Tables) HSCode(product string) string { return t.ProductToHS[product] }

// TradedProducts returns the traded products sorted by name.
func (t *Tables) TradedProducts() []string {
	out := make([]string, 0, len(t.ProductToHS))
	for p := range t.ProductToHS {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Excluded reports whether (product, technology) is flagged as having no
// relevant inputs.
func (t *Tables) Excluded(product, technology string) bool {
	_, ok := t.NoInputs[ProductTechnology{Product: product, Technology: technology}]
	return ok
}

// HeatGeosFor returns the locations that have a production process for
// heatFlow.
func (t *Tables) HeatGeosFor(heatFlow string) []string { return t.HeatGeos[heatFlow] }

// SpatializedCompartments returns the compartments a base flow is
// spatialized for.
func (t *Tables) SpatializedCompartments(base string) ([]string, bool) {
	c, ok := t.SpatializedBaseFlows[base]
	return c, ok
}

//Personal.AI order the ending
