package lci

import (
	"fmt"
	"strings"

	"github.com/turtacn/regioinvent/pkg/errors"
)

// KeySet answers membership of a key in some known partition.
type KeySet interface {
	Has(k Key) bool
}

// KeySets combines several KeySet values.
type KeySets []KeySet

// Has reports whether any member knows k.
func (s KeySets) Has(k Key) bool {
	for _, set := range s {
		if set != nil && set.Has(k) {
			return true
		}
	}
	return false
}

// FlowSet is a KeySet over biosphere flows.
type FlowSet map[Key]struct{}

// NewFlowSet indexes flows by key.
func NewFlowSet(flows []Flow) FlowSet {
	s := make(FlowSet, len(flows))
	for _, f := range flows {
		s[f.Key] = struct{}{}
	}
	return s
}

// Has implements KeySet.
func (s FlowSet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Dangling is an exchange whose input resolves nowhere.
type Dangling struct {
	Process  Key
	Exchange *Exchange
}

// FindDangling returns every exchange of processes whose input is unknown
// to known.
func FindDangling(processes []*Process, known KeySet) []Dangling {
	var out []Dangling
	for _, p := range processes {
		for _, e := range p.Exchanges {
			if !known.Has(e.Input) {
				out = append(out, Dangling{Process: p.Key, Exchange: e})
			}
		}
	}
	return out
}

// DanglingError summarises dangling references as an AppError, or returns
// nil when there are none. At most five examples are listed.
func DanglingError(d []Dangling) error {
	if len(d) == 0 {
		return nil
	}
	examples := make([]string, 0, 5)
	for i, item := range d {
		if i == 5 {
			break
		}
		examples = append(examples, fmt.Sprintf("%s -> %s (%s)", item.Process, item.Exchange.Input, item.Exchange.Name))
	}
	return errors.Newf(errors.ErrCodeDanglingReference, "%d exchanges reference unknown records", len(d)).
		WithDetail(strings.Join(examples, "; "))
}

//Personal.AI order the ending
