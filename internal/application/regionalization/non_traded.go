package regionalization

import (
	"fmt"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
)

// regionalizeNonTraded clones every technology of a non-traded product into
// each geography of the output, then builds one technology mix per
// geography from the closest source market.
func regionalizeNonTraded(pc *PipelineContext, sub *Substituter, product string) error {
	log := pc.Logger.With(logging.Stage(string(StageFirstOrder)), logging.Commodity(product))
	possible := possibilities(pc.Source.Technologies(product))

	kept := 0
	for _, technology := range possible.Technologies() {
		if pc.Tables.Excluded(product, technology) {
			log.Debug("technology excluded", logging.Technology(technology))
			continue
		}
		kept++
		for _, geo := range pc.Tables.RegioinventGeos {
			if _, _, err := cloneTechnology(pc, sub, product, technology, geo, possible); err != nil {
				return err
			}
		}
	}
	if kept == 0 {
		log.Debug("no technology to regionalize")
		return nil
	}

	for _, geo := range pc.Tables.RegioinventGeos {
		template, asg, ok := mixTemplate(pc, product, geo)
		if !ok {
			log.Warn("no market to derive a technology mix from", logging.Location(geo))
			continue
		}
		if asg.Resolution != geography.ExactMatch {
			recordAssignment(pc, asg)
		}
		mix := pc.Arena.CloneFrom(template, geo)
		mix.Comment = fmt.Sprintf(cloneComment, template.Name, product, template.Location)
		mix.Name = lci.TechnologyMixName(product)
		if prod := mix.Production(); prod != nil {
			prod.Name = mix.Name
		}
		pc.Audit.RecordCreated(KindTechnologyMix)
	}
	return nil
}

// mixTemplate picks the source market a technology mix at geo is copied
// from: geo itself, its first region with a market (not for RoW), RoW, GLO,
// then any copyable market.
func mixTemplate(pc *PipelineContext, product, geo string) (*lci.Process, geography.Assignment, bool) {
	asg := geography.Assignment{Commodity: product, Technology: "market for", Target: geo}
	pick := func(loc string, r geography.Resolution) (*lci.Process, geography.Assignment, bool) {
		m, ok := pc.Source.CopyableMarket(product, loc)
		if !ok {
			return nil, asg, false
		}
		asg.Source, asg.Resolution = loc, r
		return m, asg, true
	}

	if m, a, ok := pick(geo, geography.ExactMatch); ok {
		return m, a, true
	}
	if geo != geography.RoW {
		for _, region := range pc.Resolver.Regions(geo) {
			if m, a, ok := pick(region, geography.RegionMatch); ok {
				return m, a, true
			}
		}
	}
	if m, a, ok := pick(geography.RoW, geography.RoWFallback); ok {
		return m, a, true
	}
	if m, a, ok := pick(geography.GLO, geography.GlobalFallback); ok {
		return m, a, true
	}
	for _, m := range pc.Source.ByProduct(product) {
		if lci.IsCopyableMarketName(m.Name) {
			asg.Source, asg.Resolution = m.Location, geography.ArbitraryFallback
			return m, asg, true
		}
	}
	return nil, asg, false
}

//Personal.AI order the ending
