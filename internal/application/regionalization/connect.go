package regionalization

import (
	"context"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
)

// ConnectStage rewires the source partition to the created records: inputs
// of country-located source processes go to the consumption markets and
// technology mixes of their country, and inputs naming a regionalized
// production process go to the created clone.
//
// Reads: Source, Arena, Resolver, Tables. Writes: Source records, Connected,
// Audit.
type ConnectStage struct{}

// Name implements Stage.
func (ConnectStage) Name() StageName { return StageConnect }

// Run implements Stage.
func (ConnectStage) Run(ctx context.Context, pc *PipelineContext) error {
	l := newLinker(pc)
	touched := func(p *lci.Process) { pc.Connected[p.Key] = p }

	for _, p := range pc.Source.Processes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		country := pc.Resolver.CountryOf(p.Location)
		if country == "" || country == geography.CH {
			continue
		}
		if connectToMarkets(pc, l, p, country) {
			touched(p)
		}
		if lci.MergeDuplicateInputs(p) > 0 {
			touched(p)
		}
	}

	clones := cloneIndex(pc.Arena)
	redirected := 0
	for _, p := range pc.Source.Processes() {
		for _, e := range p.Technosphere() {
			if !pc.Tables.IsTraded(e.Product) || e.Location == geography.RoW || e.Location == geography.CH {
				continue
			}
			c, ok := clones[lci.Triple{Product: e.Product, Location: e.Location, Name: e.Name}]
			if !ok {
				continue
			}
			e.Input = c.Key
			redirected++
			touched(p)
		}
	}

	pc.Audit.ConnectedProcesses = len(pc.Connected)
	pc.Logger.Info("source connected",
		logging.Stage(string(StageConnect)),
		logging.Count("processes", len(pc.Connected)),
		logging.Count("redirected_to_clones", redirected))
	return nil
}

// connectToMarkets links the traded and regionalized inputs of a source
// process located in country and reports whether anything changed.
func connectToMarkets(pc *PipelineContext, l *linker, p *lci.Process, country string) bool {
	changed := false
	for _, e := range p.Technosphere() {
		var target *lci.Process
		switch {
		case pc.Tables.IsTraded(e.Product):
			m, ok := l.consumptionMarket(e.Product, country)
			if !ok {
				continue
			}
			target = m
		case l.isRegionalized(e.Product):
			m, ok := l.mix(e.Product, country, true)
			if !ok {
				continue
			}
			target = m
		default:
			continue
		}
		redirect(e, target)
		changed = true
	}
	return changed
}

//Personal.AI order the ending
