package regionalization

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

const cloneComment = "This process is a regionalized adaptation of the following process of the ecoinvent database: " +
	"%s | %s | %s. No amount values were modified in the regionalization process, only the origin of the flows."

const productionMarketComment = "This process represents the global production market for %s. The shares come from " +
	"export data from the BACI database for the commodity %s. Data from BACI is already in physical units. An average " +
	"of the 5 last years of export trade available data is taken (in general from 2018 to 2022). Domestic production " +
	"was extracted/estimated from %s. Countries are taken until %g%% of the global production amounts are covered. " +
	"The rest of the data is aggregated in a RoW (Rest-of-the-World) region."

const tonKilometer = "ton kilometer"

// FirstOrderStage clones the producing technologies of every traded product
// into its significant producer countries, rewires their energy and waste
// inputs, and blends the clones into a global production market. It then
// regionalizes the relevant non-traded products.
//
// Reads: Trade, Source, Tables, Resolver. Writes: Arena, CreatedGeographies,
// TechnologyShares, Transport, Units, Audit.
type FirstOrderStage struct{}

// Name implements Stage.
func (FirstOrderStage) Name() StageName { return StageFirstOrder }

// Run implements Stage.
func (s FirstOrderStage) Run(ctx context.Context, pc *PipelineContext) error {
	sub := NewSubstituter(pc.Source, pc.Tables, pc.Resolver)
	for _, product := range pc.Tables.TradedProducts() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := regionalizeTraded(pc, sub, product); err != nil {
			return err
		}
	}
	for _, product := range pc.Tables.RelevantNonTraded {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := regionalizeNonTraded(pc, sub, product); err != nil {
			return err
		}
	}
	pc.Logger.Info("first-order regionalization done",
		logging.Stage(string(StageFirstOrder)),
		logging.Count("clones", pc.Audit.Created[KindClone]),
		logging.Count("production_markets", pc.Audit.Created[KindProductionMarket]),
		logging.Count("technology_mixes", pc.Audit.Created[KindTechnologyMix]))
	return nil
}

func regionalizeTraded(pc *PipelineContext, sub *Substituter, product string) error {
	log := pc.Logger.With(logging.Stage(string(StageFirstOrder)), logging.Commodity(product))
	cmd := pc.Tables.HSCode(product)

	producers := pc.Trade.ProducerShares(cmd, pc.Settings.Cutoff)
	if len(producers) == 0 {
		log.Warn("no production data, commodity skipped", logging.String("hs_code", cmd))
		pc.Audit.RecordSkipped(product)
		return nil
	}
	possible := possibilities(pc.Source.Technologies(product))
	if possible.Len() == 0 {
		log.Warn("no production technology in source, commodity skipped")
		pc.Audit.RecordSkipped(product)
		return nil
	}

	markets := pc.Source.Markets(product)
	shares, err := technologyShares(pc, product, possible, markets)
	if err != nil {
		return err
	}
	pc.TechnologyShares[product] = shares
	pc.Transport[product] = transportLegs(pc.Source, markets)

	template := pc.Source.Technologies(product)[0]
	market := &lci.Process{
		Key:              pc.Arena.NextKey(),
		Name:             lci.ProductionMarketName(product),
		ReferenceProduct: product,
		Location:         geography.GLO,
		Unit:             template.Unit,
		Type:             lci.ProcessType,
		Comment: fmt.Sprintf(productionMarketComment, product, cmd, pc.Trade.DomesticSource(cmd),
			math.Round(pc.Settings.Cutoff*10000)/100),
	}
	market.AddExchange(lci.NewProductionExchange(market, 1.0))
	pc.Units[product] = market.Unit

	for _, ts := range shares {
		for _, producer := range producers {
			clone, ok, err := cloneTechnology(pc, sub, product, ts.Technology, producer.Country, possible)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			market.AddExchange(&lci.Exchange{
				Amount:   producer.Value * ts.Share,
				Type:     lci.Technosphere,
				Product:  product,
				Name:     clone.Name,
				Unit:     clone.Unit,
				Location: clone.Location,
				Input:    clone.Key,
			})
		}
	}
	for _, leg := range pc.Transport[product] {
		market.AddExchange(leg.Exchange())
	}
	if err := pc.Arena.Add(market); err != nil {
		return err
	}
	pc.Audit.RecordCreated(KindProductionMarket)
	pc.CreatedGeographies[product] = producers.Countries()
	log.Debug("production market built", logging.Count("producers", len(producers)), logging.Count("technologies", len(shares)))
	return nil
}

// cloneTechnology copies the best template of technology for country into
// the arena and rewires it. ok is false when the technology has no template
// anywhere.
func cloneTechnology(pc *PipelineContext, sub *Substituter, product, technology, country string,
	possible *geography.Possibilities) (*lci.Process, bool, error) {
	asg, ok := pc.Resolver.Resolve(geography.Query{
		Commodity:  product,
		Technology: technology,
		Target:     country,
		Possible:   possible.Locations(technology),
	})
	if !ok {
		return nil, false, nil
	}
	template, ok := pc.Source.Technology(product, technology, asg.Source)
	if !ok {
		return nil, false, errors.Newf(errors.ErrCodeTemplateNotFound, "no template %q at %s", technology, asg.Source).
			WithDetail(product)
	}
	recordAssignment(pc, asg)

	clone := pc.Arena.CloneFrom(template, country)
	clone.Comment = fmt.Sprintf(cloneComment, template.Name, product, template.Location)
	if err := sub.Substitute(clone, country); err != nil {
		return nil, false, err
	}
	pc.Audit.RecordCreated(KindClone)
	return clone, true, nil
}

func recordAssignment(pc *PipelineContext, asg geography.Assignment) {
	pc.Audit.RecordAssignment(asg)
	fields := []logging.Field{
		logging.Commodity(asg.Commodity),
		logging.Technology(asg.Technology),
		logging.Location(asg.Target),
		logging.String("template_location", asg.Source),
		logging.String("resolution", asg.Resolution.String()),
	}
	switch asg.Resolution {
	case geography.ExactMatch:
	case geography.ArbitraryFallback:
		pc.Logger.Warn("arbitrary template location", fields...)
	default:
		pc.Logger.Debug("fallback template location", fields...)
	}
}

func possibilities(technologies []*lci.Process) *geography.Possibilities {
	p := geography.NewPossibilities()
	for _, t := range technologies {
		p.Add(t.Name, t.Location)
	}
	return p
}

// technologyShares weighs each technology by its summed supply in the
// product's source markets.
func technologyShares(pc *PipelineContext, product string, possible *geography.Possibilities,
	markets []*lci.Process) ([]TechnologyShare, error) {
	amounts := make(map[string]float64, possible.Len())
	for _, m := range markets {
		for _, e := range m.Exchanges {
			if e.Product != product {
				continue
			}
			if _, ok := indexOf(possible.Technologies(), e.Name); ok {
				amounts[e.Name] += e.Amount
			}
		}
	}
	total := 0.0
	for _, v := range amounts {
		total += v
	}

	techs := possible.Technologies()
	shares := make([]TechnologyShare, 0, len(techs))
	if total == 0 {
		if !pc.Settings.EqualSplitFallback {
			return nil, errors.Newf(errors.ErrCodeTechShareZero, "markets of %q give no technology supply", product)
		}
		pc.Logger.Warn("no technology supply in markets, splitting equally",
			logging.Commodity(product), logging.Count("technologies", len(techs)))
		for _, t := range techs {
			shares = append(shares, TechnologyShare{Technology: t, Share: 1 / float64(len(techs))})
		}
		return shares, nil
	}
	for _, t := range techs {
		shares = append(shares, TechnologyShare{Technology: t, Share: amounts[t] / total})
	}
	return shares, nil
}

// transportLegs averages the transport inputs of markets per provider.
func transportLegs(source *lci.Index, markets []*lci.Process) []TransportLeg {
	var order []lci.Key
	legs := make(map[lci.Key]*TransportLeg)
	for _, m := range markets {
		for _, e := range m.Technosphere() {
			if !strings.Contains(e.Name, "transport") || e.Unit != tonKilometer || !lci.IsMarketName(e.Name) {
				continue
			}
			leg, ok := legs[e.Input]
			if !ok {
				leg = &TransportLeg{Input: e.Input, Product: e.Product, Name: e.Name, Unit: e.Unit, Location: e.Location}
				if provider, found := source.Get(e.Input); found {
					leg.Product = provider.ReferenceProduct
				}
				legs[e.Input] = leg
				order = append(order, e.Input)
			}
			leg.Amount += e.Amount
		}
	}
	out := make([]TransportLeg, 0, len(order))
	for _, k := range order {
		leg := *legs[k]
		if len(markets) > 1 {
			leg.Amount /= float64(len(markets))
		}
		out = append(out, leg)
	}
	return out
}

func indexOf(list []string, v string) (int, bool) {
	for i, s := range list {
		if s == v {
			return i, true
		}
	}
	return -1, false
}

// producerCountries is the set form of CreatedGeographies[product].
func producerCountries(pc *PipelineContext, product string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, c := range pc.CreatedGeographies[product] {
		out[c] = struct{}{}
	}
	return out
}

//Personal.AI order the ending
