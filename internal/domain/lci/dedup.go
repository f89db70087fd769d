package lci

// exchangeSlot identifies exchanges that must be collapsed.
type exchangeSlot struct {
	Type  ExchangeType
	Input Key
}

// MergeDuplicateInputs collapses exchanges of p that share type and input
// key into the first occurrence, summing amounts. It returns the number of
// exchanges removed.
func MergeDuplicateInputs(p *Process) int {
	first := make(map[exchangeSlot]*Exchange, len(p.Exchanges))
	kept := make([]*Exchange, 0, len(p.Exchanges))
	removed := 0
	for _, e := range p.Exchanges {
		if e.Input.IsZero() {
			kept = append(kept, e)
			continue
		}
		slot := exchangeSlot{Type: e.Type, Input: e.Input}
		if head, ok := first[slot]; ok {
			head.Amount += e.Amount
			removed++
			continue
		}
		first[slot] = e
		kept = append(kept, e)
	}
	p.Exchanges = kept
	return removed
}

// HasDuplicateInputs reports whether two exchanges of p share type and input.
// Exchanges without an input are ignored, as in MergeDuplicateInputs.
func HasDuplicateInputs(p *Process) bool {
	seen := make(map[exchangeSlot]struct{}, len(p.Exchanges))
	for _, e := range p.Exchanges {
		if e.Input.IsZero() {
			continue
		}
		slot := exchangeSlot{Type: e.Type, Input: e.Input}
		if _, ok := seen[slot]; ok {
			return true
		}
		seen[slot] = struct{}{}
	}
	return false
}

//Personal.AI order the ending
