package regionalization

import (
	"context"
	"fmt"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
)

const consumptionMarketComment = "This process represents the consumption market of %s in %s. The shares were " +
	"determined based on two aspects. The imports of the commodity %s taken from the BACI database (average over " +
	"the years 2018, 2019, 2020, 2021, 2022). The domestic consumption data was extracted/estimated from %s."

// ConsumptionStage builds, for every traded product and each significant
// consumer country, a market blending the producer clones by import share.
//
// Reads: Trade, Tables, Arena, CreatedGeographies, TechnologyShares,
// Transport, Units. Writes: Arena, Audit.
type ConsumptionStage struct{}

// Name implements Stage.
func (ConsumptionStage) Name() StageName { return StageConsumption }

// Run implements Stage.
func (ConsumptionStage) Run(ctx context.Context, pc *PipelineContext) error {
	clones := cloneIndex(pc.Arena)
	for _, product := range pc.Tables.TradedProducts() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := pc.CreatedGeographies[product]; !ok {
			continue
		}
		if err := buildConsumptionMarkets(pc, clones, product); err != nil {
			return err
		}
	}
	pc.Logger.Info("consumption markets built",
		logging.Stage(string(StageConsumption)),
		logging.Count("consumption_markets", pc.Audit.Created[KindConsumptionMarket]))
	return nil
}

func buildConsumptionMarkets(pc *PipelineContext, clones map[lci.Triple]*lci.Process, product string) error {
	log := pc.Logger.With(logging.Stage(string(StageConsumption)), logging.Commodity(product))
	cmd := pc.Tables.HSCode(product)
	consumers := pc.Trade.ConsumerShares(cmd, pc.Settings.Cutoff)
	if len(consumers) == 0 {
		log.Warn("no consumption data, commodity skipped", logging.String("hs_code", cmd))
		pc.Audit.RecordSkipped(product)
		return nil
	}
	producers := producerCountries(pc, product)
	source := pc.Trade.DomesticSource(cmd)

	for _, consumer := range consumers {
		market := &lci.Process{
			Key:              pc.Arena.NextKey(),
			Name:             lci.ConsumptionMarketName(product),
			ReferenceProduct: product,
			Location:         consumer.Consumer,
			Unit:             pc.Units[product],
			Type:             lci.ProcessType,
			Comment:          fmt.Sprintf(consumptionMarketComment, product, consumer.Consumer, cmd, source),
		}
		market.AddExchange(lci.NewProductionExchange(market, 1.0))

		for _, partner := range consumer.Partners {
			location := geography.RoW
			if _, ok := producers[partner.Country]; ok {
				location = partner.Country
			}
			for _, ts := range pc.TechnologyShares[product] {
				clone, ok := clones[lci.Triple{Product: product, Location: location, Name: ts.Technology}]
				if !ok {
					log.Debug("no clone for partner",
						logging.Technology(ts.Technology), logging.Location(location))
					continue
				}
				market.AddExchange(&lci.Exchange{
					Amount:   partner.Value * ts.Share,
					Type:     lci.Technosphere,
					Product:  product,
					Name:     clone.Name,
					Unit:     clone.Unit,
					Location: location,
					Input:    clone.Key,
				})
			}
		}
		for _, leg := range pc.Transport[product] {
			market.AddExchange(leg.Exchange())
		}
		lci.MergeDuplicateInputs(market)

		if err := pc.Arena.Add(market); err != nil {
			return err
		}
		pc.Audit.RecordCreated(KindConsumptionMarket)
	}
	log.Debug("consumption markets built", logging.Count("consumers", len(consumers)))
	return nil
}

// cloneIndex indexes the clones of the arena by (product, location, name).
// Markets and mixes are left out.
func cloneIndex(a *lci.Arena) map[lci.Triple]*lci.Process {
	out := make(map[lci.Triple]*lci.Process)
	for _, p := range a.Processes() {
		if lci.IsSyntheticMarket(p.Name) {
			continue
		}
		t := lci.Triple{Product: p.ReferenceProduct, Location: p.Location, Name: p.Name}
		if _, ok := out[t]; !ok {
			out[t] = p
		}
	}
	return out
}

// marketIndex indexes created records whose name satisfies match by
// (product, location).
func marketIndex(a *lci.Arena, match func(string) bool) map[lci.Triple]*lci.Process {
	out := make(map[lci.Triple]*lci.Process)
	for _, p := range a.Processes() {
		if !match(p.Name) {
			continue
		}
		t := lci.Triple{Product: p.ReferenceProduct, Location: p.Location}
		if _, ok := out[t]; !ok {
			out[t] = p
		}
	}
	return out
}

//Personal.AI order the ending
