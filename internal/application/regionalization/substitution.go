package regionalization

import (
	"strings"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// Category is a family of inputs rewired to a country-appropriate provider.
type Category int

const (
	CategoryElectricity Category = iota
	CategoryAluminiumElectricity
	CategoryCobaltElectricity
	CategoryWaste
	CategoryHeatNaturalGas
	CategoryHeatOtherThanNG
	CategoryHeatSmallScale
)

var categoryNames = [...]string{
	"electricity", "aluminium_electricity", "cobalt_electricity", "waste",
	"heat_natural_gas", "heat_other_than_ng", "heat_small_scale",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// heatCategories maps each heat flow to its category, in substitution order.
var heatCategories = []struct {
	flow     string
	category Category
}{
	{tables.HeatDistrictNaturalGas, CategoryHeatNaturalGas},
	{tables.HeatDistrictOtherThanNG, CategoryHeatOtherThanNG},
	{tables.HeatSmallScaleOtherThanNG, CategoryHeatSmallScale},
}

func (c Category) heatFlow() (string, bool) {
	for _, h := range heatCategories {
		if h.category == c {
			return h.flow, true
		}
	}
	return "", false
}

// Locations where the generic electricity provider is a market group.
var electricityMarketGroups = map[string]struct{}{
	"BR": {}, "CA": {}, "CN": {}, "GLO": {}, "IN": {}, "RAF": {},
	"RAS": {}, "RER": {}, "RLA": {}, "RME": {}, "RNA": {}, "US": {},
}

// Countries whose heat markets are split into sub-country exchanges.
var subCountryHeat = map[string]struct{}{"CA": {}, "US": {}, "CN": {}, "BR": {}, "IN": {}}

var electricitySuffixes = []string{", for Swiss Federal Railways", ", renewable energy products"}

// Substituter rewires the energy and waste inputs of a regionalized copy to
// providers of its country. Providers always come from the source index.
type Substituter struct {
	source *lci.Index
	tables *tables.Tables
	geo    *geography.Resolver
}

// NewSubstituter builds a Substituter over the source partition.
func NewSubstituter(source *lci.Index, tbl *tables.Tables, geo *geography.Resolver) *Substituter {
	return &Substituter{source: source, tables: tbl, geo: geo}
}

// Substitute applies every category present in p in the fixed order: one
// of aluminium, cobalt or generic electricity, then waste, then each heat
// flow.
func (s *Substituter) Substitute(p *lci.Process, country string) error {
	var electricity []Category
	switch {
	case s.Present(p, CategoryAluminiumElectricity):
		electricity = []Category{CategoryAluminiumElectricity}
	case s.Present(p, CategoryCobaltElectricity):
		electricity = []Category{CategoryCobaltElectricity}
	case s.Present(p, CategoryElectricity):
		electricity = []Category{CategoryElectricity}
	}
	order := electricity
	if s.Present(p, CategoryWaste) {
		order = append(order, CategoryWaste)
	}
	for _, h := range heatCategories {
		if s.Present(p, h.category) {
			order = append(order, h.category)
		}
	}
	for _, c := range order {
		if err := s.Apply(p, country, c); err != nil {
			return err
		}
	}
	return nil
}

// Present reports whether p has a technosphere input that triggers c.
func (s *Substituter) Present(p *lci.Process, c Category) bool {
	for _, e := range p.Technosphere() {
		switch c {
		case CategoryAluminiumElectricity:
			if strings.Contains(e.Name, "electricity") && strings.Contains(e.Name, "aluminium") {
				return true
			}
		case CategoryCobaltElectricity:
			if strings.Contains(e.Name, "electricity") && strings.Contains(e.Name, "cobalt") {
				return true
			}
		case CategoryElectricity:
			if strings.Contains(e.Name, "electricity") && strings.Contains(e.Name, "voltage") {
				return true
			}
		case CategoryWaste:
			if e.Product == tables.MunicipalSolidWaste {
				return true
			}
		default:
			if flow, ok := c.heatFlow(); ok && e.Product == flow {
				return true
			}
		}
	}
	return false
}

// Apply rewires the inputs of category c in p for country. Inputs are
// matched, checked for a single unit, summed and removed; the summed amount
// is re-added against the provider chosen for country.
func (s *Substituter) Apply(p *lci.Process, country string, c Category) error {
	switch c {
	case CategoryElectricity:
		return s.electricity(p, country)
	case CategoryAluminiumElectricity:
		return s.aluminiumElectricity(p, country)
	case CategoryCobaltElectricity:
		return s.cobaltElectricity(p)
	case CategoryWaste:
		return s.waste(p, country)
	}
	if _, ok := c.heatFlow(); ok {
		return s.heat(p, country, c)
	}
	return errors.Newf(errors.ErrCodeValidation, "unknown substitution category %d", int(c))
}

// ---------------------------------------------------------------------------
// Electricity
// ---------------------------------------------------------------------------

func isGenericElectricity(e *lci.Exchange) bool {
	return strings.Contains(e.Name, "electricity") &&
		strings.Contains(e.Name, "voltage") &&
		!strings.Contains(e.Name, "aluminium") &&
		!strings.Contains(e.Name, "cobalt") &&
		!strings.Contains(e.Name, "network")
}

func (s *Substituter) electricity(p *lci.Process, country string) error {
	matched := matching(p, isGenericElectricity)
	if len(matched) == 0 {
		return nil
	}
	unit, err := singleUnit(p, matched, CategoryElectricity)
	if err != nil {
		return err
	}
	region := s.electricityRegion(country)
	for _, product := range distinctProducts(matched) {
		removed := p.RemoveExchanges(func(e *lci.Exchange) bool {
			return e.Type == lci.Technosphere && e.Product == product && isGenericElectricity(e)
		})
		activity := lci.MarketForPrefix + product
		if _, ok := electricityMarketGroups[region]; ok {
			activity = lci.MarketGroupForPrefix + product
		}
		provided, activity := stripElectricitySuffixes(product), stripElectricitySuffixes(activity)
		if err := s.link(p, sum(removed), unit, provided, region, activity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Substituter) electricityRegion(country string) string {
	geos := s.tables.ElectricityGeos
	if geography.Contains(geos, country) {
		return country
	}
	if parent, ok := geography.ParentCountry(country); ok {
		if geography.Contains(geos, parent) {
			return parent
		}
		return geography.GLO
	}
	if region, ok := s.firstRegionIn(country, geos); ok {
		return region
	}
	return geography.GLO
}

func stripElectricitySuffixes(s string) string {
	for _, suffix := range electricitySuffixes {
		if i := strings.Index(s, suffix); i >= 0 {
			s = s[:i]
		}
	}
	return s
}

func isAluminiumElectricity(e *lci.Exchange) bool {
	return strings.Contains(e.Name, "electricity") &&
		strings.Contains(e.Name, "aluminium") &&
		strings.Contains(e.Name, "voltage")
}

func (s *Substituter) aluminiumElectricity(p *lci.Process, country string) error {
	matched := matching(p, isAluminiumElectricity)
	if len(matched) == 0 {
		return nil
	}
	unit, err := singleUnit(p, matched, CategoryAluminiumElectricity)
	if err != nil {
		return err
	}
	region := geography.RoW
	if geography.Contains(s.tables.AluminiumGeos, country) {
		region = country
	} else if r, ok := s.firstRegionIn(country, s.tables.AluminiumGeos); ok {
		region = r
	}
	for _, product := range distinctProducts(matched) {
		removed := p.RemoveExchanges(func(e *lci.Exchange) bool {
			return e.Type == lci.Technosphere && e.Product == product && strings.Contains(e.Name, "aluminium")
		})
		if err := s.link(p, sum(removed), unit, product, region, lci.MarketForPrefix+product); err != nil {
			return err
		}
	}
	return nil
}

func isCobaltElectricity(e *lci.Exchange) bool {
	return strings.Contains(e.Name, "electricity") && strings.Contains(e.Name, "cobalt")
}

func (s *Substituter) cobaltElectricity(p *lci.Process) error {
	matched := matching(p, isCobaltElectricity)
	if len(matched) == 0 {
		return nil
	}
	unit, err := singleUnit(p, matched, CategoryCobaltElectricity)
	if err != nil {
		return err
	}
	for _, product := range distinctProducts(matched) {
		removed := p.RemoveExchanges(func(e *lci.Exchange) bool {
			return e.Type == lci.Technosphere && e.Product == product && strings.Contains(e.Name, "cobalt")
		})
		if err := s.link(p, sum(removed), unit, product, geography.GLO, lci.MarketForPrefix+product); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Waste
// ---------------------------------------------------------------------------

func isWaste(e *lci.Exchange) bool { return e.Product == tables.MunicipalSolidWaste }

func (s *Substituter) waste(p *lci.Process, country string) error {
	matched := matching(p, isWaste)
	if len(matched) == 0 {
		return nil
	}
	unit, err := singleUnit(p, matched, CategoryWaste)
	if err != nil {
		return err
	}
	removed := p.RemoveExchanges(func(e *lci.Exchange) bool { return e.Type == lci.Technosphere && isWaste(e) })

	region, activity := geography.RoW, lci.MarketForPrefix+tables.MunicipalSolidWaste
	switch {
	case geography.Contains(s.tables.WasteGeos, country):
		region = country
	case s.geo.IsEuropean(country):
		region = geography.EuropeWithoutSwitzerland
		activity = lci.MarketGroupForPrefix + tables.MunicipalSolidWaste
	}
	return s.link(p, sum(removed), unit, tables.MunicipalSolidWaste, region, activity)
}

// ---------------------------------------------------------------------------
// Heat
// ---------------------------------------------------------------------------

// heatSlot is a provider of heat in a regional heat market.
type heatSlot struct {
	name     string
	location string
}

// heatMix is an insertion-ordered heatSlot → amount map.
type heatMix struct {
	order  []heatSlot
	amount map[heatSlot]float64
}

func newHeatMix() *heatMix { return &heatMix{amount: make(map[heatSlot]float64)} }

func (m *heatMix) set(k heatSlot, v float64) {
	if _, ok := m.amount[k]; !ok {
		m.order = append(m.order, k)
	}
	m.amount[k] = v
}

func (m *heatMix) total() float64 {
	t := 0.0
	for _, k := range m.order {
		t += m.amount[k]
	}
	return t
}

func (s *Substituter) heat(p *lci.Process, country string, c Category) error {
	flow, _ := c.heatFlow()
	isHeat := func(e *lci.Exchange) bool { return e.Product == flow }
	matched := matching(p, isHeat)
	if len(matched) == 0 {
		return nil
	}
	unit, err := singleUnit(p, matched, c)
	if err != nil {
		return err
	}
	removed := p.RemoveExchanges(func(e *lci.Exchange) bool { return e.Type == lci.Technosphere && isHeat(e) })
	quantity := sum(removed)

	european := s.geo.IsEuropean(country)
	regionHeat := geography.RoW
	switch {
	case country == geography.CH:
		regionHeat = geography.CH
	case european:
		regionHeat = geography.EuropeWithoutSwitzerland
	}
	target := country
	if !geography.Contains(s.tables.HeatGeosFor(flow), target) {
		target = geography.RoW
		if european {
			target = geography.EuropeWithoutSwitzerland
		}
	}

	mix := newHeatMix()
	if _, ok := subCountryHeat[target]; ok {
		for _, market := range s.source.ByProduct(flow) {
			if market.Location != regionHeat || !lci.IsMarketName(market.Name) {
				continue
			}
			for _, e := range market.Technosphere() {
				if e.Product == flow && strings.Contains(e.Location, target) {
					mix.set(heatSlot{name: e.Name, location: e.Location}, e.Amount)
				}
			}
		}
		if target == "CA" && flow != tables.HeatSmallScaleOtherThanNG {
			if err := s.quebecCorrection(mix, flow); err != nil {
				return err
			}
		}
	} else {
		for _, market := range s.source.ByProduct(flow) {
			if market.Location != regionHeat || !strings.Contains(market.Name, "market for") {
				continue
			}
			for _, e := range market.Technosphere() {
				if e.Product == flow && e.Location == target {
					mix.set(heatSlot{name: e.Name, location: target}, e.Amount)
				}
			}
		}
	}

	total := mix.total()
	if len(mix.order) == 0 || total == 0 {
		return errors.Newf(errors.ErrCodeHeatMixEmpty, "no heat providers for %s at %s", flow, target).
			WithDetail(p.Key.String())
	}
	for _, k := range mix.order {
		if err := s.link(p, mix.amount[k]/total*quantity, unit, flow, k.location, k.name); err != nil {
			return err
		}
	}
	return nil
}

// quebecCorrection rescales a Canadian heat mix by the RoW share of the
// global heat market and adds the global market's CA-QC provider.
func (s *Substituter) quebecCorrection(mix *heatMix, flow string) error {
	var global *lci.Process
	for _, market := range s.source.ByProduct(flow) {
		if market.Location == geography.GLO && lci.IsMarketName(market.Name) {
			global = market
			break
		}
	}
	if global == nil {
		return errors.Newf(errors.ErrCodeMarketNotFound, "no global market for %s", flow)
	}
	var row, quebec *lci.Exchange
	for _, e := range global.Exchanges {
		if row == nil && e.Location == geography.RoW {
			row = e
		}
		if quebec == nil && e.Location == "CA-QC" {
			quebec = e
		}
	}
	if row == nil || quebec == nil {
		return errors.Newf(errors.ErrCodeMarketNotFound, "global market for %s lacks RoW or CA-QC providers", flow).
			WithDetail(global.Key.String())
	}
	for _, k := range mix.order {
		mix.amount[k] *= row.Amount
	}
	mix.set(heatSlot{name: quebec.Name, location: "CA-QC"}, quebec.Amount)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// link appends a technosphere input of amount from the source provider
// (product, location, activity).
func (s *Substituter) link(p *lci.Process, amount float64, unit, product, location, activity string) error {
	provider, ok := s.source.Lookup(product, location, activity)
	if !ok {
		return errors.Newf(errors.ErrCodeProviderNotFound, "no provider %q for %q at %s", activity, product, location).
			WithDetail(p.Key.String())
	}
	p.AddExchange(&lci.Exchange{
		Amount:   amount,
		Type:     lci.Technosphere,
		Product:  product,
		Name:     activity,
		Unit:     unit,
		Location: location,
		Input:    provider.Key,
	})
	return nil
}

// firstRegionIn returns the first region of country listed in geos. RoW and
// unknown locations have none.
func (s *Substituter) firstRegionIn(country string, geos []string) (string, bool) {
	if country == geography.RoW {
		return "", false
	}
	for _, region := range s.geo.Regions(country) {
		if geography.Contains(geos, region) {
			return region, true
		}
	}
	return "", false
}

func matching(p *lci.Process, pred func(*lci.Exchange) bool) []*lci.Exchange {
	var out []*lci.Exchange
	for _, e := range p.Technosphere() {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func singleUnit(p *lci.Process, matched []*lci.Exchange, c Category) (string, error) {
	unit := matched[0].Unit
	for _, e := range matched[1:] {
		if e.Unit != unit {
			return "", errors.Newf(errors.ErrCodeUnitMismatch, "%s inputs use units %q and %q", c, unit, e.Unit).
				WithDetail(p.Key.String())
		}
	}
	return unit, nil
}

func distinctProducts(exchanges []*lci.Exchange) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range exchanges {
		if _, ok := seen[e.Product]; ok {
			continue
		}
		seen[e.Product] = struct{}{}
		out = append(out, e.Product)
	}
	return out
}

func sum(exchanges []*lci.Exchange) float64 {
	t := 0.0
	for _, e := range exchanges {
		t += e.Amount
	}
	return t
}

//Personal.AI order the ending
