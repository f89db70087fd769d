package regionalization

import (
	"context"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// SecondOrderStage links the inputs of created records to the created
// consumption markets and technology mixes, prunes technology mixes nobody
// uses, and merges duplicate inputs.
//
// Reads: Tables, Arena, Settings.PruneDepth. Writes: Arena, Audit.
type SecondOrderStage struct{}

// Name implements Stage.
func (SecondOrderStage) Name() StageName { return StageSecondOrder }

// Run implements Stage.
func (SecondOrderStage) Run(ctx context.Context, pc *PipelineContext) error {
	l := newLinker(pc)

	for _, p := range pc.Arena.Processes() {
		if !l.isTradedProducer(p) {
			continue
		}
		if err := l.link(p, true); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.linkMixes()

	pruned := prune(pc, l, pc.Settings.PruneDepth)
	pc.Audit.Pruned = pruned
	l = newLinker(pc)

	for _, p := range pc.Arena.Processes() {
		if !l.isNonTradedClone(p) {
			continue
		}
		if err := l.link(p, false); err != nil {
			return err
		}
	}

	merged := 0
	for _, p := range pc.Arena.Processes() {
		merged += lci.MergeDuplicateInputs(p)
	}
	pc.Logger.Info("second-order linking done",
		logging.Stage(string(StageSecondOrder)),
		logging.Count("pruned", pruned),
		logging.Count("merged_exchanges", merged),
		logging.Count("records", pc.Arena.Len()))
	return nil
}

// linker holds the lookups of one linking pass.
type linker struct {
	pc          *PipelineContext
	consumption map[lci.Triple]*lci.Process
	mixes       map[lci.Triple]*lci.Process
	clones      map[lci.Triple]*lci.Process
	products    map[string]struct{}
	consumed    map[string]struct{}
}

func newLinker(pc *PipelineContext) *linker {
	l := &linker{
		pc:          pc,
		consumption: marketIndex(pc.Arena, lci.IsConsumptionMarket),
		mixes:       marketIndex(pc.Arena, lci.IsTechnologyMix),
		clones:      cloneIndex(pc.Arena),
		products:    pc.regionalizedProducts(),
		consumed:    make(map[string]struct{}),
	}
	for t := range l.consumption {
		l.consumed[t.Product] = struct{}{}
	}
	return l
}

func (l *linker) isTradedProducer(p *lci.Process) bool {
	return !lci.IsSyntheticMarket(p.Name) && l.pc.Tables.IsTraded(p.ReferenceProduct)
}

func (l *linker) isNonTradedClone(p *lci.Process) bool {
	return !lci.IsSyntheticMarket(p.Name) && !l.pc.Tables.IsTraded(p.ReferenceProduct)
}

func (l *linker) isRegionalized(product string) bool {
	_, ok := l.products[product]
	return ok
}

// consumptionMarket returns the consumption market of product at location,
// or the RoW one.
func (l *linker) consumptionMarket(product, location string) (*lci.Process, bool) {
	if m, ok := l.consumption[lci.Triple{Product: product, Location: location}]; ok {
		return m, true
	}
	m, ok := l.consumption[lci.Triple{Product: product, Location: geography.RoW}]
	return m, ok
}

// mix returns the technology mix of product at location, falling back to
// the RoW mix when fallback is set.
func (l *linker) mix(product, location string, fallback bool) (*lci.Process, bool) {
	if m, ok := l.mixes[lci.Triple{Product: product, Location: location}]; ok {
		return m, true
	}
	if !fallback {
		return nil, false
	}
	m, ok := l.mixes[lci.Triple{Product: product, Location: geography.RoW}]
	return m, ok
}

// link points the technosphere inputs of p at created markets. Traded
// inputs of a product with consumption markets must find one at p's
// location or RoW; regionalized non-traded inputs go to a technology mix
// when one exists.
func (l *linker) link(p *lci.Process, mixFallback bool) error {
	for _, e := range p.Technosphere() {
		switch {
		case l.pc.Tables.IsTraded(e.Product):
			if _, ok := l.consumed[e.Product]; !ok {
				continue
			}
			m, ok := l.consumptionMarket(e.Product, p.Location)
			if !ok {
				return errors.Newf(errors.ErrCodeMarketNotFound, "no consumption market for %q at %s or RoW",
					e.Product, p.Location).WithDetail(p.Key.String())
			}
			redirect(e, m)
		case l.isRegionalized(e.Product):
			if m, ok := l.mix(e.Product, p.Location, mixFallback); ok {
				redirect(e, m)
			}
		}
	}
	return nil
}

// linkMixes points each technology input of a mix at the clone of the same
// technology at the mix's location.
func (l *linker) linkMixes() {
	for _, mix := range l.mixes {
		for _, e := range mix.Technosphere() {
			if c, ok := l.clones[lci.Triple{Product: e.Product, Location: mix.Location, Name: e.Name}]; ok {
				redirect(e, c)
			}
		}
	}
}

func redirect(e *lci.Exchange, target *lci.Process) {
	e.Input = target.Key
	e.Name = target.Name
	e.Location = target.Location
}

// ---------------------------------------------------------------------------
// Pruning
// ---------------------------------------------------------------------------

// prune removes technology mixes that no traded producer reaches within
// depth hops, except RoW mixes, together with the non-traded clones only
// they referenced. It returns the number of removed records.
func prune(pc *PipelineContext, l *linker, depth int) int {
	if depth <= 0 {
		return 0
	}
	keptMixes := make(map[lci.Key]struct{})
	keptClones := make(map[lci.Key]struct{})

	for _, p := range pc.Arena.Processes() {
		if lci.IsTechnologyMix(p.Name) && p.Location == geography.RoW {
			keptMixes[p.Key] = struct{}{}
		}
	}
	var frontier []*lci.Process
	for _, p := range pc.Arena.Processes() {
		if !l.isTradedProducer(p) {
			continue
		}
		frontier = append(frontier, markMixes(pc, p.Technosphere(), keptMixes)...)
	}
	for mixKey := range keptMixes {
		if mix, ok := pc.Arena.Get(mixKey); ok && mix.Location == geography.RoW {
			frontier = append(frontier, mix)
		}
	}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var clones []*lci.Process
		for _, mix := range frontier {
			for _, e := range mix.Technosphere() {
				c, ok := pc.Arena.Get(e.Input)
				if !ok || !l.isNonTradedClone(c) {
					continue
				}
				if _, seen := keptClones[c.Key]; !seen {
					keptClones[c.Key] = struct{}{}
					clones = append(clones, c)
				}
			}
		}
		if level == depth {
			break
		}
		frontier = frontier[:0]
		for _, c := range clones {
			var targets []*lci.Exchange
			for _, e := range c.Technosphere() {
				if l.isRegionalized(e.Product) && !pc.Tables.IsTraded(e.Product) {
					targets = append(targets, e)
				}
			}
			for _, e := range targets {
				m, ok := l.mix(e.Product, c.Location, false)
				if !ok {
					continue
				}
				if _, seen := keptMixes[m.Key]; !seen {
					keptMixes[m.Key] = struct{}{}
					frontier = append(frontier, m)
				}
			}
		}
	}

	return pc.Arena.Retain(func(p *lci.Process) bool {
		switch {
		case lci.IsTechnologyMix(p.Name):
			_, ok := keptMixes[p.Key]
			return ok
		case l.isNonTradedClone(p):
			_, ok := keptClones[p.Key]
			return ok
		}
		return true
	})
}

// markMixes adds the created mixes referenced by exchanges to kept and
// returns the newly added ones.
func markMixes(pc *PipelineContext, exchanges []*lci.Exchange, kept map[lci.Key]struct{}) []*lci.Process {
	var added []*lci.Process
	for _, e := range exchanges {
		m, ok := pc.Arena.Get(e.Input)
		if !ok || !lci.IsTechnologyMix(m.Name) {
			continue
		}
		if _, seen := kept[m.Key]; !seen {
			kept[m.Key] = struct{}{}
			added = append(added, m)
		}
	}
	return added
}

//Personal.AI order the ending
