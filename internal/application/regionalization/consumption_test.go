package regionalization_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/domain/lci"
)

func consumptionMarkets(pc *regionalization.PipelineContext) map[string]*lci.Process {
	out := make(map[string]*lci.Process)
	for _, p := range pc.Arena.Processes() {
		if lci.IsConsumptionMarket(p.Name) {
			out[p.Location] = p
		}
	}
	return out
}

// inputsByOrigin sums the steel inputs of a market per (technology, location).
func inputsByOrigin(p *lci.Process) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range p.Technosphere() {
		if e.Product == steel {
			out[e.Name+"@"+e.Location] += e.Amount
		}
	}
	return out
}

func TestConsumption_MarketsPerSignificantConsumer(t *testing.T) {
	pc, _ := newContext(settings())
	require.NoError(t, runUpTo(t, pc, regionalization.StageConsumption))

	markets := consumptionMarkets(pc)
	require.Len(t, markets, 3)
	assert.Contains(t, markets, "DE")
	assert.Contains(t, markets, "US")
	assert.Contains(t, markets, "RoW")
	assert.NotContains(t, markets, "BR")
	assert.Equal(t, 3, pc.Audit.Created[regionalization.KindConsumptionMarket])

	for loc, m := range markets {
		require.NoError(t, m.Validate(), loc)
		assert.Equal(t, "kilogram", m.Unit)
		assert.InDelta(t, 1.0, technosphereSum(m, func(e *lci.Exchange) bool { return e.Product == steel }), 1e-9, loc)
		assert.InDelta(t, 0.1, technosphereSum(m, func(e *lci.Exchange) bool { return e.Product == transport }), 1e-12, loc)
		assert.False(t, lci.HasDuplicateInputs(m), loc)
	}
}

func TestConsumption_PartnersMapToProducerClones(t *testing.T) {
	pc, _ := newContext(settings())
	require.NoError(t, runUpTo(t, pc, regionalization.StageConsumption))
	markets := consumptionMarkets(pc)

	// DE imports from FR (a producer) and ZA (folded into RoW).
	de := inputsByOrigin(markets["DE"])
	assert.InDelta(t, 0.45, de[converter+"@FR"], 1e-12)
	assert.InDelta(t, 0.30, de[electric+"@FR"], 1e-12)
	assert.InDelta(t, 0.15, de[converter+"@RoW"], 1e-12)
	assert.InDelta(t, 0.10, de[electric+"@RoW"], 1e-12)
	assert.Len(t, de, 4)
	assert.Contains(t, markets["DE"].Comment, "consumption market of steel in DE")

	// BR is below the cutoff, so its supply from DE lands in RoW.
	row := inputsByOrigin(markets["RoW"])
	assert.InDelta(t, 0.6, row[converter+"@DE"], 1e-12)
	assert.InDelta(t, 0.4, row[electric+"@DE"], 1e-12)

	for _, e := range markets["US"].Technosphere() {
		if e.Product != steel {
			continue
		}
		clone, ok := pc.Arena.Get(e.Input)
		require.True(t, ok)
		assert.Equal(t, "DE", clone.Location)
	}
}

//Personal.AI order the ending
