// Package lci models life-cycle-inventory partitions: processes, the
// exchanges that connect them, and biosphere flows. It is independent of any
// storage engine.
package lci

import (
	"fmt"

	"github.com/turtacn/regioinvent/pkg/errors"
)

// ExchangeType classifies an edge of the supply graph.
type ExchangeType string

const (
	Technosphere ExchangeType = "technosphere"
	Biosphere    ExchangeType = "biosphere"
	Production   ExchangeType = "production"
)

// ProcessType is the type attribute of every process record.
const ProcessType = "process"

// Key identifies a record inside a partition.
type Key struct {
	Database string `json:"database"`
	Code     string `json:"code"`
}

// String renders the key as "database:code".
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Database, k.Code)
}

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool {
	return k.Database == "" && k.Code == ""
}

// Exchange is a directed edge from a process to its input. Production
// exchanges point at the owning process itself.
type Exchange struct {
	Amount     float64      `json:"amount"`
	Type       ExchangeType `json:"type"`
	Product    string       `json:"product,omitempty"`
	Name       string       `json:"name,omitempty"`
	Unit       string       `json:"unit,omitempty"`
	Location   string       `json:"location,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	Input      Key          `json:"input"`
	Output     Key          `json:"output,omitempty"`
}

// Clone returns a copy of e that shares no slices with it.
func (e *Exchange) Clone() *Exchange {
	c := *e
	if e.Categories != nil {
		c.Categories = append([]string(nil), e.Categories...)
	}
	return &c
}

// Compartment returns the first category, or "" when there is none.
func (e *Exchange) Compartment() string {
	if len(e.Categories) == 0 {
		return ""
	}
	return e.Categories[0]
}

// Process is one unit process of a partition.
type Process struct {
	Key
	Name             string      `json:"name"`
	ReferenceProduct string      `json:"reference_product"`
	Location         string      `json:"location"`
	Unit             string      `json:"unit"`
	Type             string      `json:"type"`
	Comment          string      `json:"comment,omitempty"`
	Exchanges        []*Exchange `json:"exchanges"`

	// ClonedFrom is the template this record was copied from, if any.
	ClonedFrom *Key `json:"cloned_from,omitempty"`
}

// Production returns the production exchange, or nil when absent.
func (p *Process) Production() *Exchange {
	for _, e := range p.Exchanges {
		if e.Type == Production {
			return e
		}
	}
	return nil
}

// ExchangesOf returns the exchanges of type t in record order.
func (p *Process) ExchangesOf(t ExchangeType) []*Exchange {
	var out []*Exchange
	for _, e := range p.Exchanges {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Technosphere returns the technosphere exchanges in record order.
func (p *Process) Technosphere() []*Exchange { return p.ExchangesOf(Technosphere) }

// Biosphere returns the biosphere exchanges in record order.
func (p *Process) Biosphere() []*Exchange { return p.ExchangesOf(Biosphere) }

// AddExchange appends e, setting its output back-reference for
// technosphere and production edges.
func (p *Process) AddExchange(e *Exchange) {
	if e.Type != Biosphere {
		e.Output = p.Key
	}
	p.Exchanges = append(p.Exchanges, e)
}

// RemoveExchanges drops every exchange matching pred and returns them.
func (p *Process) RemoveExchanges(pred func(*Exchange) bool) []*Exchange {
	var removed []*Exchange
	kept := p.Exchanges[:0]
	for _, e := range p.Exchanges {
		if pred(e) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(p.Exchanges); i++ {
		p.Exchanges[i] = nil
	}
	p.Exchanges = kept
	return removed
}

// Clone returns a structural copy of p re-keyed to key. The copy's
// production exchange points at the new key, technosphere outputs are
// updated, and ClonedFrom records p's key.
func (p *Process) Clone(key Key) *Process {
	src := p.Key
	c := &Process{
		Key:              key,
		Name:             p.Name,
		ReferenceProduct: p.ReferenceProduct,
		Location:         p.Location,
		Unit:             p.Unit,
		Type:             p.Type,
		Comment:          p.Comment,
		Exchanges:        make([]*Exchange, 0, len(p.Exchanges)),
		ClonedFrom:       &src,
	}
	for _, e := range p.Exchanges {
		ce := e.Clone()
		switch ce.Type {
		case Production:
			ce.Input = key
			ce.Output = key
		case Technosphere:
			ce.Output = key
		}
		c.Exchanges = append(c.Exchanges, ce)
	}
	return c
}

// Relocate sets the location of p and of its production exchange.
func (p *Process) Relocate(location string) {
	p.Location = location
	if prod := p.Production(); prod != nil {
		prod.Location = location
	}
}

// Validate checks the structural invariants of a single record.
func (p *Process) Validate() error {
	if p.Database == "" || p.Code == "" {
		return errors.New(errors.ErrCodeValidation, "process key is incomplete").WithDetail(p.Key.String())
	}
	n := 0
	for _, e := range p.Exchanges {
		if e.Type == Production {
			n++
		}
	}
	if n != 1 {
		return errors.Newf(errors.ErrCodeValidation, "process must have exactly one production exchange, found %d", n).
			WithDetail(p.Key.String())
	}
	return nil
}

// NewProductionExchange builds the self-referencing production edge of p.
func NewProductionExchange(p *Process, amount float64) *Exchange {
	return &Exchange{
		Amount:   amount,
		Type:     Production,
		Product:  p.ReferenceProduct,
		Name:     p.Name,
		Unit:     p.Unit,
		Location: p.Location,
		Input:    p.Key,
		Output:   p.Key,
	}
}

// Flow is a biosphere (elementary) flow record.
type Flow struct {
	Key
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Unit       string   `json:"unit,omitempty"`
}

//Personal.AI order the ending
