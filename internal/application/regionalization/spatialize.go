package regionalization

import (
	"context"
	"strings"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
)

// SpatializeStage points the elementary flows of created records at the
// flow variant of their location.
//
// Reads: Tables, Flows, Arena. Writes: Arena, Audit.
type SpatializeStage struct{}

// Name implements Stage.
func (SpatializeStage) Name() StageName { return StageSpatialize }

// Run implements Stage.
func (SpatializeStage) Run(ctx context.Context, pc *PipelineContext) error {
	rewritten, missing := 0, 0
	for _, p := range pc.Arena.Processes() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, e := range p.Biosphere() {
			switch spatializeExchange(pc, e, p.Location) {
			case flowRewritten:
				rewritten++
			case flowMissing:
				missing++
			}
		}
	}
	pc.Audit.UnspatializedFlows = missing
	pc.Logger.Info("elementary flows spatialized",
		logging.Stage(string(StageSpatialize)),
		logging.Count("rewritten", rewritten),
		logging.Count("missing_variants", missing))
	return nil
}

type flowOutcome int

const (
	flowUntouched flowOutcome = iota
	flowRewritten
	flowMissing
)

// baseFlowName strips the trailing ", <location>" segment of a spatialized
// flow name. A name without a comma has an empty base.
func baseFlowName(name string) string {
	i := strings.LastIndex(name, ", ")
	if i < 0 {
		return ""
	}
	return name[:i]
}

// spatializeExchange rewrites e to the variant of its flow at location when
// the flow is spatialized in e's compartment and the variant exists.
func spatializeExchange(pc *PipelineContext, e *lci.Exchange, location string) flowOutcome {
	base := baseFlowName(e.Name)
	compartments, ok := pc.Tables.SpatializedCompartments(base)
	if !ok || !geography.Contains(compartments, e.Compartment()) {
		return flowUntouched
	}
	name := base + ", " + location
	k, ok := pc.Flows.Lookup(name, e.Categories)
	if !ok {
		pc.Logger.Debug("no spatialized flow variant",
			logging.String("flow", name), logging.String("compartment", e.Compartment()))
		return flowMissing
	}
	e.Name = name
	e.Input = k
	return flowRewritten
}

//Personal.AI order the ending
