// Package spatialization prepares a source partition for regionalization:
// it copies the partition into "<source> regionalized" with its elementary
// flows pointed at their location-specific variants, and provisions the
// spatialized biosphere when it is missing.
package spatialization

import (
	"context"
	"strings"

	"github.com/turtacn/regioinvent/internal/domain/geography"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// DefaultAggregatedThreshold is the exchange count from which a process is
// treated as an aggregated (system) process and copied without
// spatialization.
const DefaultAggregatedThreshold = 1000

// Result summarizes one spatialization.
type Result struct {
	SourceDatabase  string `json:"source_database"`
	TargetDatabase  string `json:"target_database"`
	FlowsCreated    int    `json:"flows_created"`
	Skipped         bool   `json:"skipped"`
	Processes       int    `json:"processes"`
	Aggregated      int    `json:"aggregated"`
	Rewritten       int    `json:"rewritten_exchanges"`
	MissingVariants int    `json:"missing_variants"`
}

// Service copies source partitions into their spatialized counterpart.
type Service struct {
	lci     lci.Repository
	tables  tables.Source
	version string
	logger  logging.Logger

	threshold int
}

// Option customizes a Service.
type Option func(*Service)

// WithAggregatedThreshold replaces DefaultAggregatedThreshold. Values below
// one are ignored.
func WithAggregatedThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threshold = n
		}
	}
}

func NewService(repo lci.Repository, src tables.Source, version string, logger logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Service{
		lci:       repo,
		tables:    src,
		version:   version,
		logger:    logger.Named("spatialization"),
		threshold: DefaultAggregatedThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run spatializes source. An existing target partition is left untouched and
// reported as skipped; delete it first to redo the copy.
func (s *Service) Run(ctx context.Context, source string) (*Result, error) {
	res := &Result{SourceDatabase: source, TargetDatabase: source + tables.RegionalizedDatabaseSuffix}

	dbs, err := s.lci.Databases(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list databases")
	}
	if !geography.Contains(dbs, source) {
		return nil, errors.New(errors.ErrCodeUnknownDatabase, "source database not found").WithDetail(source)
	}

	flows, err := s.ensureBiosphere(ctx, res)
	if err != nil {
		return nil, err
	}

	if geography.Contains(dbs, res.TargetDatabase) {
		s.logger.Info("spatialized database already exists", logging.Partition(res.TargetDatabase))
		res.Skipped = true
		return res, nil
	}

	base, err := tables.LoadSpatializedBaseFlows(ctx, s.tables, s.version)
	if err != nil {
		return nil, err
	}
	processes, err := s.lci.Extract(ctx, source)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to extract source database").
			WithDetail(source)
	}

	sp := &spatializer{threshold: s.threshold, base: base, flows: indexFlows(flows), source: source, target: res.TargetDatabase, log: s.logger}
	out := make(map[lci.Key]*lci.Process, len(processes))
	for _, p := range processes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := sp.copy(p, res)
		out[c.Key] = c
	}
	res.Processes = len(out)

	if err := s.lci.Write(ctx, res.TargetDatabase, out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to write spatialized database").
			WithDetail(res.TargetDatabase)
	}
	s.logger.Info("source database spatialized",
		logging.Partition(res.TargetDatabase),
		logging.Count("processes", res.Processes),
		logging.Count("aggregated", res.Aggregated),
		logging.Count("rewritten", res.Rewritten),
		logging.Count("missing_variants", res.MissingVariants))
	return res, nil
}

// ensureBiosphere returns the spatialized flows, writing them from the flow
// list table first when the store has none.
func (s *Service) ensureBiosphere(ctx context.Context, res *Result) ([]lci.Flow, error) {
	flows, err := s.lci.Flows(ctx, tables.SpatializedBiosphereDB)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read spatialized flows")
	}
	if len(flows) > 0 {
		s.logger.Debug("spatialized biosphere present", logging.Count("flows", len(flows)))
		return flows, nil
	}

	flows, err = tables.LoadFlows(ctx, s.tables, s.version)
	if err != nil {
		return nil, err
	}
	if err := s.lci.WriteFlows(ctx, tables.SpatializedBiosphereDB, flows); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to write spatialized flows")
	}
	res.FlowsCreated = len(flows)
	s.logger.Info("spatialized biosphere created",
		logging.Partition(tables.SpatializedBiosphereDB), logging.Count("flows", len(flows)))
	return flows, nil
}

type spatializer struct {
	threshold int
	base      map[string][]string
	flows     map[string]lci.Key
	source    string
	target    string
	log       logging.Logger
}

func flowSlot(name string, categories []string) string {
	return name + "\x1f" + strings.Join(categories, "\x1f")
}

func indexFlows(flows []lci.Flow) map[string]lci.Key {
	idx := make(map[string]lci.Key, len(flows))
	for _, f := range flows {
		k := flowSlot(f.Name, f.Categories)
		if _, ok := idx[k]; !ok {
			idx[k] = f.Key
		}
	}
	return idx
}

// copy re-keys p into the target partition. Links inside the source
// partition follow it; elementary flows of non-aggregated processes move to
// the variant of p's location.
func (sp *spatializer) copy(p *lci.Process, res *Result) *lci.Process {
	c := p.Clone(lci.Key{Database: sp.target, Code: p.Code})
	aggregated := len(p.Exchanges) >= sp.threshold
	if aggregated {
		res.Aggregated++
	}
	for _, e := range c.Exchanges {
		switch e.Type {
		case lci.Technosphere:
			if e.Input.Database == sp.source {
				e.Input.Database = sp.target
			}
		case lci.Biosphere:
			e.Output = c.Key
			if aggregated {
				continue
			}
			compartments, ok := sp.base[e.Name]
			if !ok || !geography.Contains(compartments, e.Compartment()) {
				continue
			}
			name := e.Name + ", " + p.Location
			k, ok := sp.flows[flowSlot(name, e.Categories)]
			if !ok {
				res.MissingVariants++
				sp.log.Debug("no spatialized flow variant",
					logging.String("flow", name), logging.String("compartment", e.Compartment()))
				continue
			}
			e.Name = name
			e.Input = k
			res.Rewritten++
		}
	}
	return c
}

//Personal.AI order the ending
