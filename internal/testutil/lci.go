package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/trade"
)

// ProcessBuilder assembles source records for tests.
type ProcessBuilder struct {
	p *lci.Process
}

// NewProcess starts a record in database with a production exchange of 1.
// The unit defaults to kilogram.
func NewProcess(database, code, name, product, location string) *ProcessBuilder {
	p := &lci.Process{
		Key:              lci.Key{Database: database, Code: code},
		Name:             name,
		ReferenceProduct: product,
		Location:         location,
		Unit:             "kilogram",
		Type:             lci.ProcessType,
	}
	p.AddExchange(lci.NewProductionExchange(p, 1.0))
	return &ProcessBuilder{p: p}
}

// Unit sets the unit of the record and its production exchange.
func (b *ProcessBuilder) Unit(unit string) *ProcessBuilder {
	b.p.Unit = unit
	b.p.Production().Unit = unit
	return b
}

// Input adds a technosphere exchange from provider.
func (b *ProcessBuilder) Input(amount float64, provider *lci.Process) *ProcessBuilder {
	b.p.AddExchange(&lci.Exchange{
		Amount:   amount,
		Type:     lci.Technosphere,
		Product:  provider.ReferenceProduct,
		Name:     provider.Name,
		Unit:     provider.Unit,
		Location: provider.Location,
		Input:    provider.Key,
	})
	return b
}

// RawInput adds a technosphere exchange with explicit metadata.
func (b *ProcessBuilder) RawInput(e lci.Exchange) *ProcessBuilder {
	e.Type = lci.Technosphere
	b.p.AddExchange(&e)
	return b
}

// Emission adds a biosphere exchange to flow.
func (b *ProcessBuilder) Emission(amount float64, flow lci.Flow) *ProcessBuilder {
	b.p.AddExchange(&lci.Exchange{
		Amount:     amount,
		Type:       lci.Biosphere,
		Name:       flow.Name,
		Unit:       flow.Unit,
		Categories: append([]string(nil), flow.Categories...),
		Input:      flow.Key,
	})
	return b
}

// Build returns the record.
func (b *ProcessBuilder) Build() *lci.Process { return b.p }

// SequentialCodes returns a generator of "<prefix>0001", "<prefix>0002", ...
func SequentialCodes(prefix string) lci.CodeGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%04d", prefix, n)
	}
}

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

// MemoryLCI is an in-memory lci.Repository.
type MemoryLCI struct {
	mu        sync.RWMutex
	processes map[string]map[lci.Key]*lci.Process
	order     map[string][]lci.Key
	flows     map[string][]lci.Flow
	// Writes counts Write calls per database.
	Writes map[string]int
}

// NewMemoryLCI returns an empty store.
func NewMemoryLCI() *MemoryLCI {
	return &MemoryLCI{
		processes: make(map[string]map[lci.Key]*lci.Process),
		order:     make(map[string][]lci.Key),
		flows:     make(map[string][]lci.Flow),
		Writes:    make(map[string]int),
	}
}

// Seed stores processes under database in the given order.
func (m *MemoryLCI) Seed(database string, processes ...*lci.Process) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(database, processes)
}

func (m *MemoryLCI) put(database string, processes []*lci.Process) {
	db, ok := m.processes[database]
	if !ok {
		db = make(map[lci.Key]*lci.Process)
		m.processes[database] = db
	}
	for _, p := range processes {
		if _, exists := db[p.Key]; !exists {
			m.order[database] = append(m.order[database], p.Key)
		}
		db[p.Key] = p
	}
}

// Databases implements lci.Repository.
func (m *MemoryLCI) Databases(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.processes))
	for db, ps := range m.processes {
		if len(ps) > 0 {
			out = append(out, db)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Extract implements lci.Repository. Records are deep copies.
func (m *MemoryLCI) Extract(_ context.Context, database string) ([]*lci.Process, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*lci.Process, 0, len(m.order[database]))
	for _, k := range m.order[database] {
		p := m.processes[database][k]
		c := p.Clone(p.Key)
		c.ClonedFrom = p.ClonedFrom
		out = append(out, c)
	}
	return out, nil
}

// Write implements lci.Repository.
func (m *MemoryLCI) Write(_ context.Context, database string, processes map[lci.Key]*lci.Process) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]lci.Key, 0, len(processes))
	for k := range processes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Code < keys[j].Code })
	ps := make([]*lci.Process, 0, len(keys))
	for _, k := range keys {
		ps = append(ps, processes[k])
	}
	m.put(database, ps)
	m.Writes[database]++
	return nil
}

// Delete implements lci.Repository.
func (m *MemoryLCI) Delete(_ context.Context, database string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.processes, database)
	delete(m.order, database)
	return nil
}

// Flows implements lci.Repository.
func (m *MemoryLCI) Flows(_ context.Context, database string) ([]lci.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]lci.Flow(nil), m.flows[database]...), nil
}

// WriteFlows implements lci.Repository.
func (m *MemoryLCI) WriteFlows(_ context.Context, database string, flows []lci.Flow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows[database] = append(m.flows[database], flows...)
	return nil
}

// Get returns a stored record.
func (m *MemoryLCI) Get(database string, k lci.Key) (*lci.Process, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.processes[database][k]
	return p, ok
}

// Len returns the number of records of database.
func (m *MemoryLCI) Len(database string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.processes[database])
}

// MemoryTrade is a static trade.Repository.
type MemoryTrade struct {
	ImportRows   []trade.Record
	ExportRows   []trade.Record
	DomesticRows []trade.Record
	Err          error
}

// Imports implements trade.Repository.
func (m *MemoryTrade) Imports(context.Context) ([]trade.Record, error) { return m.ImportRows, m.Err }

// NetExports implements trade.Repository.
func (m *MemoryTrade) NetExports(context.Context) ([]trade.Record, error) { return m.ExportRows, m.Err }

// DomesticProduction implements trade.Repository.
func (m *MemoryTrade) DomesticProduction(context.Context) ([]trade.Record, error) {
	return m.DomesticRows, m.Err
}

//Personal.AI order the ending
