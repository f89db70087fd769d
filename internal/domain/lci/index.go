package lci

// Triple is the (reference product, location, activity name) lookup key of
// the source partition.
type Triple struct {
	Product  string
	Location string
	Name     string
}

// Index is a read-mostly view over a partition with the lookups the
// regionalization needs. The records are the partition's own; only the
// connector stage mutates them.
type Index struct {
	processes []*Process
	byKey     map[Key]*Process
	byTriple  map[Triple]*Process
	byProduct map[string][]*Process
}

// NewIndex indexes processes. When several records share a triple the first
// one wins.
func NewIndex(processes []*Process) *Index {
	ix := &Index{
		processes: processes,
		byKey:     make(map[Key]*Process, len(processes)),
		byTriple:  make(map[Triple]*Process, len(processes)),
		byProduct: make(map[string][]*Process),
	}
	for _, p := range processes {
		ix.byKey[p.Key] = p
		t := Triple{Product: p.ReferenceProduct, Location: p.Location, Name: p.Name}
		if _, ok := ix.byTriple[t]; !ok {
			ix.byTriple[t] = p
		}
		ix.byProduct[p.ReferenceProduct] = append(ix.byProduct[p.ReferenceProduct], p)
	}
	return ix
}

// Processes returns the indexed records in partition order.
func (ix *Index) Processes() []*Process { return ix.processes }

// Len returns the number of indexed records.
func (ix *Index) Len() int { return len(ix.processes) }

// Get returns the record with key k.
func (ix *Index) Get(k Key) (*Process, bool) {
	p, ok := ix.byKey[k]
	return p, ok
}

// Has reports whether k is indexed.
func (ix *Index) Has(k Key) bool {
	_, ok := ix.byKey[k]
	return ok
}

// Lookup finds the record by (product, location, name).
func (ix *Index) Lookup(product, location, name string) (*Process, bool) {
	p, ok := ix.byTriple[Triple{Product: product, Location: location, Name: name}]
	return p, ok
}

// ByProduct returns every record with the given reference product.
func (ix *Index) ByProduct(product string) []*Process {
	return ix.byProduct[product]
}

// Technologies returns the production technologies of product, in partition order.
func (ix *Index) Technologies(product string) []*Process {
	var out []*Process
	for _, p := range ix.byProduct[product] {
		if IsTechnologyName(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// Markets returns the market and market-group records of product.
func (ix *Index) Markets(product string) []*Process {
	var out []*Process
	for _, p := range ix.byProduct[product] {
		if IsMarketName(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// Technology returns the production technology named name at location.
func (ix *Index) Technology(product, name, location string) (*Process, bool) {
	p, ok := ix.Lookup(product, location, name)
	if !ok || !IsTechnologyName(p.Name) {
		return nil, false
	}
	return p, true
}

// CopyableMarket returns the first market of product at location that can
// serve as a technology-mix template.
func (ix *Index) CopyableMarket(product, location string) (*Process, bool) {
	for _, p := range ix.byProduct[product] {
		if p.Location == location && IsCopyableMarketName(p.Name) {
			return p, true
		}
	}
	return nil, false
}

//Personal.AI order the ending
