package regionalization

import (
	"time"

	"github.com/turtacn/regioinvent/internal/domain/geography"
)

// Kinds of created records, as counted in the audit.
const (
	KindClone             = "clone"
	KindProductionMarket  = "production_market"
	KindConsumptionMarket = "consumption_market"
	KindTechnologyMix     = "technology_mix"
)

// StageTiming is the wall time of one stage.
type StageTiming struct {
	Stage    StageName     `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Audit is the report of one run.
type Audit struct {
	RunID          string    `json:"run_id"`
	SourceDatabase string    `json:"source_database"`
	OutputDatabase string    `json:"output_database"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`

	// Arbitrary lists every template chosen without any geographic reason.
	Arbitrary   []geography.Assignment `json:"arbitrary_assignments"`
	Resolutions map[string]int         `json:"resolutions"`
	Created     map[string]int         `json:"created"`
	Pruned      int                    `json:"pruned"`
	// Skipped lists commodities left out for lack of trade data or
	// templates.
	Skipped            []string      `json:"skipped_commodities,omitempty"`
	UnspatializedFlows int           `json:"unspatialized_flows"`
	ConnectedProcesses int           `json:"connected_processes"`
	Stages             []StageTiming `json:"stages"`
}

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// NewAudit returns an empty report.
func NewAudit() *Audit {
	return &Audit{
		Status:      StatusRunning,
		Resolutions: make(map[string]int),
		Created:     make(map[string]int),
	}
}

// RecordAssignment counts a resolution and keeps arbitrary ones.
func (a *Audit) RecordAssignment(asg geography.Assignment) {
	a.Resolutions[asg.Resolution.String()]++
	if asg.Resolution == geography.ArbitraryFallback {
		a.Arbitrary = append(a.Arbitrary, asg)
	}
}

// RecordCreated counts one created record of kind.
func (a *Audit) RecordCreated(kind string) { a.Created[kind]++ }

// RecordSkipped notes a commodity that produced no records.
func (a *Audit) RecordSkipped(product string) { a.Skipped = append(a.Skipped, product) }

// RecordStage appends a stage timing.
func (a *Audit) RecordStage(stage StageName, d time.Duration) {
	a.Stages = append(a.Stages, StageTiming{Stage: stage, Duration: d})
}

// TotalCreated sums the created counts.
func (a *Audit) TotalCreated() int {
	n := 0
	for _, c := range a.Created {
		n += c
	}
	return n
}

//Personal.AI order the ending
