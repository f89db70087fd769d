// Package regionalization turns a generic LCI partition into country-specific
// process variants linked through trade-weighted production and consumption
// markets.
//
// The run is a strictly ordered sequence of stages sharing one
// PipelineContext:
//
//	format → first_order → consumption → second_order → spatialize → connect → validate
//
// Each stage documents the context fields it reads and writes. Nothing inside
// a stage blocks or runs concurrently; I/O happens before the first stage and
// after the last one, in Service.Run.
package regionalization

import (
	"strings"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// ---------------------------------------------------------------------------
// Stage names
// ---------------------------------------------------------------------------

// StageName identifies a pipeline stage.
type StageName string

const (
	StageFormat      StageName = "format"
	StageFirstOrder  StageName = "first_order"
	StageConsumption StageName = "consumption"
	StageSecondOrder StageName = "second_order"
	StageSpatialize  StageName = "spatialize"
	StageConnect     StageName = "connect"
	StageValidate    StageName = "validate"
)

// StageOrder is the only order in which stages may run.
var StageOrder = []StageName{
	StageFormat,
	StageFirstOrder,
	StageConsumption,
	StageSecondOrder,
	StageSpatialize,
	StageConnect,
	StageValidate,
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// Settings are the per-run knobs of the pipeline.
type Settings struct {
	// SourceDatabase is the name of the unspatialized source partition.
	SourceDatabase string
	OutputDatabase string
	Cutoff         float64
	// PruneDepth bounds how far unreferenced technology mixes and their
	// clones are followed before removal. Zero disables pruning.
	PruneDepth         int
	EqualSplitFallback bool
}

// SpatializedDatabase is the partition the pipeline reads templates from and
// connects to.
func (s Settings) SpatializedDatabase() string {
	return s.SourceDatabase + tables.RegionalizedDatabaseSuffix
}

// ---------------------------------------------------------------------------
// Shared state
// ---------------------------------------------------------------------------

// TechnologyShare is the weight of one technology in the supply of a product.
type TechnologyShare struct {
	Technology string  `json:"technology"`
	Share      float64 `json:"share"`
}

// TransportLeg is an averaged transport input of a product's source markets.
type TransportLeg struct {
	Input    lci.Key
	Product  string
	Name     string
	Unit     string
	Location string
	Amount   float64
}

// Exchange returns the leg as a technosphere exchange.
func (t TransportLeg) Exchange() *lci.Exchange {
	return &lci.Exchange{
		Amount:   t.Amount,
		Type:     lci.Technosphere,
		Product:  t.Product,
		Name:     t.Name,
		Unit:     t.Unit,
		Location: t.Location,
		Input:    t.Input,
	}
}

// FlowRegistry indexes the spatialized biosphere flows by name and
// categories.
type FlowRegistry struct {
	byName map[string]lci.Key
	keys   lci.FlowSet
}

// NewFlowRegistry indexes flows. The first flow of a (name, categories) pair
// wins.
func NewFlowRegistry(flows []lci.Flow) *FlowRegistry {
	r := &FlowRegistry{
		byName: make(map[string]lci.Key, len(flows)),
		keys:   lci.NewFlowSet(flows),
	}
	for _, f := range flows {
		k := flowSlot(f.Name, f.Categories)
		if _, ok := r.byName[k]; !ok {
			r.byName[k] = f.Key
		}
	}
	return r
}

func flowSlot(name string, categories []string) string {
	return name + "\x1f" + strings.Join(categories, "\x1f")
}

// Lookup returns the key of the flow with this name and categories.
func (r *FlowRegistry) Lookup(name string, categories []string) (lci.Key, bool) {
	k, ok := r.byName[flowSlot(name, categories)]
	return k, ok
}

// Has implements lci.KeySet.
func (r *FlowRegistry) Has(k lci.Key) bool { return r.keys.Has(k) }

// Len returns the number of registered flows.
func (r *FlowRegistry) Len() int { return len(r.keys) }

// PipelineContext is the state threaded through the stages of one run.
// Fields above the blank line are inputs and never change during a run.
type PipelineContext struct {
	Settings Settings
	Tables   *tables.Tables
	Resolver *geography.Resolver
	Source   *lci.Index
	Flows    *FlowRegistry
	Logger   logging.Logger

	// Trade is set by the format stage.
	Trade *trade.Dataset
	// Arena holds every record the run creates.
	Arena *lci.Arena
	// CreatedGeographies lists, per traded product, the producers that got
	// a regionalized clone (RoW included).
	CreatedGeographies map[string][]string
	// TechnologyShares is the technology distribution of each traded product.
	TechnologyShares map[string][]TechnologyShare
	// Transport holds the averaged transport legs of each traded product.
	Transport map[string][]TransportLeg
	// Units is the unit of each traded product's production market.
	Units map[string]string
	// Connected holds the source records rewritten by the connect stage.
	Connected map[lci.Key]*lci.Process
	Audit     *Audit

	completed []StageName
}

// NewPipelineContext builds a fresh context. Codes of created records come
// from codes, or random uuids when nil.
func NewPipelineContext(settings Settings, tbl *tables.Tables, source *lci.Index, flows []lci.Flow,
	codes lci.CodeGenerator, logger logging.Logger) *PipelineContext {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PipelineContext{
		Settings:           settings,
		Tables:             tbl,
		Resolver:           geography.NewResolver(tbl.CountryToRegions),
		Source:             source,
		Flows:              NewFlowRegistry(flows),
		Logger:             logger,
		Arena:              lci.NewArenaWithCodes(settings.OutputDatabase, codes),
		CreatedGeographies: make(map[string][]string),
		TechnologyShares:   make(map[string][]TechnologyShare),
		Transport:          make(map[string][]TransportLeg),
		Units:              make(map[string]string),
		Connected:          make(map[lci.Key]*lci.Process),
		Audit:              NewAudit(),
	}
}

// Completed returns the stages that finished, in order.
func (pc *PipelineContext) Completed() []StageName {
	return append([]StageName(nil), pc.completed...)
}

// begin checks that stage is the next one in StageOrder.
func (pc *PipelineContext) begin(stage StageName) error {
	next := len(pc.completed)
	if next >= len(StageOrder) || StageOrder[next] != stage {
		expected := "none"
		if next < len(StageOrder) {
			expected = string(StageOrder[next])
		}
		return errors.Newf(errors.ErrCodeStageOrder, "stage %s cannot run now, expected %s", stage, expected)
	}
	return nil
}

func (pc *PipelineContext) finish(stage StageName) {
	pc.completed = append(pc.completed, stage)
}

// regionalizedProducts returns the reference products of created records.
func (pc *PipelineContext) regionalizedProducts() map[string]struct{} {
	out := make(map[string]struct{})
	for _, p := range pc.Arena.Processes() {
		out[p.ReferenceProduct] = struct{}{}
	}
	return out
}

//Personal.AI order the ending
