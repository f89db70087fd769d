package lci

import (
	"strings"

	"github.com/google/uuid"

	"github.com/turtacn/regioinvent/pkg/errors"
)

// CodeGenerator produces fresh record codes.
type CodeGenerator func() string

// NewCode returns a random uuid4 in hex form without dashes.
func NewCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Arena owns the records created by one pipeline run. Records are kept in
// insertion order and indexed by key; cloning through the arena always
// assigns a fresh code and records provenance.
type Arena struct {
	database string
	codes    CodeGenerator
	order    []*Process
	byKey    map[Key]*Process
}

// NewArena creates an empty arena whose records live in database.
func NewArena(database string) *Arena {
	return NewArenaWithCodes(database, NewCode)
}

// NewArenaWithCodes is NewArena with a custom code generator.
func NewArenaWithCodes(database string, codes CodeGenerator) *Arena {
	if codes == nil {
		codes = NewCode
	}
	return &Arena{
		database: database,
		codes:    codes,
		byKey:    make(map[Key]*Process),
	}
}

// Database returns the partition name of the arena's records.
func (a *Arena) Database() string { return a.database }

// NextKey reserves a fresh key in the arena's partition.
func (a *Arena) NextKey() Key {
	for {
		k := Key{Database: a.database, Code: a.codes()}
		if _, taken := a.byKey[k]; !taken {
			return k
		}
	}
}

// Add registers p. A key collision is an ErrCodeDuplicateKey error.
func (a *Arena) Add(p *Process) error {
	if _, exists := a.byKey[p.Key]; exists {
		return errors.New(errors.ErrCodeDuplicateKey, "process key already registered").WithDetail(p.Key.String())
	}
	a.byKey[p.Key] = p
	a.order = append(a.order, p)
	return nil
}

// CloneFrom copies template under a fresh key, relocates it and registers it.
// The caller owns the returned record and may keep mutating it.
func (a *Arena) CloneFrom(template *Process, location string) *Process {
	c := template.Clone(a.NextKey())
	c.Type = ProcessType
	c.Relocate(location)
	if prod := c.Production(); prod != nil {
		prod.Input = c.Key
	}
	a.byKey[c.Key] = c
	a.order = append(a.order, c)
	return c
}

// Get returns the record stored under k.
func (a *Arena) Get(k Key) (*Process, bool) {
	p, ok := a.byKey[k]
	return p, ok
}

// Has reports whether k is registered.
func (a *Arena) Has(k Key) bool {
	_, ok := a.byKey[k]
	return ok
}

// Len returns the number of records.
func (a *Arena) Len() int { return len(a.order) }

// Processes returns the records in insertion order. The slice is a copy;
// the records are not.
func (a *Arena) Processes() []*Process {
	out := make([]*Process, len(a.order))
	copy(out, a.order)
	return out
}

// Retain keeps only the records for which keep returns true and reports how
// many were removed.
func (a *Arena) Retain(keep func(*Process) bool) int {
	kept := a.order[:0]
	removed := 0
	for _, p := range a.order {
		if keep(p) {
			kept = append(kept, p)
			continue
		}
		delete(a.byKey, p.Key)
		removed++
	}
	for i := len(kept); i < len(a.order); i++ {
		a.order[i] = nil
	}
	a.order = kept
	return removed
}

// Provenance returns the template key of a cloned record.
func (a *Arena) Provenance(k Key) (Key, bool) {
	p, ok := a.byKey[k]
	if !ok || p.ClonedFrom == nil {
		return Key{}, false
	}
	return *p.ClonedFrom, true
}

// AsMap returns the records keyed for a partition write.
func (a *Arena) AsMap() map[Key]*Process {
	out := make(map[Key]*Process, len(a.order))
	for _, p := range a.order {
		out[p.Key] = p
	}
	return out
}

//Personal.AI order the ending
