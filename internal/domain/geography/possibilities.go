package geography

// Possibilities maps each technology of a product to the locations it exists
// in, both in first-seen order.
type Possibilities struct {
	order []string
	geos  map[string][]string
}

// NewPossibilities returns an empty map.
func NewPossibilities() *Possibilities {
	return &Possibilities{geos: make(map[string][]string)}
}

// Add records that technology exists at location.
func (p *Possibilities) Add(technology, location string) {
	if _, ok := p.geos[technology]; !ok {
		p.order = append(p.order, technology)
	}
	p.geos[technology] = append(p.geos[technology], location)
}

// Technologies returns the technologies in first-seen order.
func (p *Possibilities) Technologies() []string { return p.order }

// Locations returns the locations of technology.
func (p *Possibilities) Locations(technology string) []string { return p.geos[technology] }

// Len returns the number of technologies.
func (p *Possibilities) Len() int { return len(p.order) }

//Personal.AI order the ending
