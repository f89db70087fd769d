package trade

import (
	"sort"
	"strings"
)

type productionSlot struct {
	cmd      string
	year     int
	exporter string
}

type pair struct {
	importer string
	exporter string
}

// Dataset holds the consumption and production views of a trade database.
type Dataset struct {
	consumption []Record
	production  []Record
	domestic    []Record
	clipped     int
}

// Format builds the two views. Consumption is imports plus domestic
// production; production is net exports plus domestic production summed by
// commodity, year and exporter.
//
// Net exports may be negative. Negative import and domestic rows are
// dropped, and a negative yearly production total is clipped to zero; both
// are counted by Clipped.
func Format(imports, netExports, domestic []Record) (*Dataset, error) {
	for _, set := range [][]Record{imports, netExports, domestic} {
		for _, r := range set {
			if err := r.Validate(); err != nil {
				return nil, err
			}
		}
	}

	d := &Dataset{}
	domestic = d.dropNegative(domestic)
	d.domestic = domestic

	d.consumption = make([]Record, 0, len(imports)+len(domestic))
	for _, r := range d.dropNegative(imports) {
		r.Source = ""
		d.consumption = append(d.consumption, r)
	}
	for _, r := range domestic {
		r.Source = ""
		d.consumption = append(d.consumption, r)
	}

	sums := make(map[productionSlot]float64)
	var order []productionSlot
	add := func(r Record) {
		k := productionSlot{cmd: r.CmdCode, year: r.RefYear, exporter: r.Exporter}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += r.Quantity
	}
	for _, r := range netExports {
		add(r)
	}
	for _, r := range domestic {
		add(r)
	}
	d.production = make([]Record, 0, len(order))
	for _, k := range order {
		q := sums[k]
		if q < 0 {
			q = 0
			d.clipped++
		}
		d.production = append(d.production, Record{CmdCode: k.cmd, RefYear: k.year, Exporter: k.exporter, Quantity: q})
	}
	return d, nil
}

func (d *Dataset) dropNegative(rs []Record) []Record {
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		if r.Quantity < 0 {
			d.clipped++
			continue
		}
		out = append(out, r)
	}
	return out
}

// Clipped returns how many rows Format dropped or clipped for a negative
// quantity.
func (d *Dataset) Clipped() int { return d.clipped }

// Consumption returns the consumption view.
func (d *Dataset) Consumption() []Record { return d.consumption }

// Production returns the production view.
func (d *Dataset) Production() []Record { return d.production }

// DomesticSource names the source of the domestic production figures of a
// commodity, up to the first " - ".
func (d *Dataset) DomesticSource(cmd string) string {
	for _, r := range d.domestic {
		if r.CmdCode == cmd {
			return strings.SplitN(r.Source, " - ", 2)[0]
		}
	}
	return DefaultDomesticSource
}

// ProducerShares returns the producing countries of cmd with their share of
// the mean yearly production. Countries are kept, largest first, until their
// cumulative share exceeds cutoff; the rest is folded into RoW. An unknown
// commodity yields nil.
func (d *Dataset) ProducerShares(cmd string, cutoff float64) Shares {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range d.production {
		if r.CmdCode != cmd {
			continue
		}
		sums[r.Exporter] += r.Quantity
		counts[r.Exporter]++
	}
	if len(sums) == 0 {
		return nil
	}
	means := make(Shares, 0, len(sums))
	for c, total := range sums {
		means = append(means, Share{Country: c, Value: total / float64(counts[c])})
	}
	if means.Sum() == 0 {
		return nil
	}
	return withCutoff(means.Normalized(), cutoff)
}

// ConsumerShares returns, per consuming country of cmd, the distribution of
// its supply over partner countries. Consumers are ranked by their share of
// total consumption and kept until the cumulative share exceeds cutoff.
// Partner rows of dropped consumers are summed per partner into the RoW
// consumer, together with any rows already attributed to a RoW importer.
// Consumers and partners are ordered by country code; each partner
// distribution sums to 1.
func (d *Dataset) ConsumerShares(cmd string, cutoff float64) []ConsumerShare {
	sums := make(map[pair]float64)
	counts := make(map[pair]int)
	for _, r := range d.consumption {
		if r.CmdCode != cmd {
			continue
		}
		k := pair{importer: r.Importer, exporter: r.Exporter}
		sums[k] += r.Quantity
		counts[k]++
	}
	if len(sums) == 0 {
		return nil
	}

	byImporter := make(map[string]map[string]float64)
	importerTotals := make(map[string]float64)
	for k, total := range sums {
		mean := total / float64(counts[k])
		if byImporter[k.importer] == nil {
			byImporter[k.importer] = make(map[string]float64)
		}
		byImporter[k.importer][k.exporter] = mean
		importerTotals[k.importer] += mean
	}

	consumers := make(Shares, 0, len(importerTotals))
	for c, v := range importerTotals {
		consumers = append(consumers, Share{Country: c, Value: v})
	}
	if consumers.Sum() == 0 {
		return nil
	}
	consumers = consumers.Normalized()
	consumers.sortDescending()
	limit := cutoffLimit(consumers, cutoff)

	rowPartners := make(map[string]float64)
	kept := make(map[string]map[string]float64, limit+1)
	for i, c := range consumers {
		if i < limit && c.Country != RoW {
			kept[c.Country] = byImporter[c.Country]
			continue
		}
		for partner, v := range byImporter[c.Country] {
			rowPartners[partner] += v
		}
	}
	if len(rowPartners) == 0 {
		// Every consumer is significant; RoW still needs a market, so it
		// gets the world-wide supply mix.
		for _, partners := range byImporter {
			for partner, v := range partners {
				rowPartners[partner] += v
			}
		}
	}
	kept[RoW] = rowPartners

	names := make([]string, 0, len(kept))
	for c := range kept {
		names = append(names, c)
	}
	sort.Strings(names)

	out := make([]ConsumerShare, 0, len(names))
	for _, c := range names {
		partners := make(Shares, 0, len(kept[c]))
		for p, v := range kept[c] {
			partners = append(partners, Share{Country: p, Value: v})
		}
		sort.Slice(partners, func(i, j int) bool { return partners[i].Country < partners[j].Country })
		out = append(out, ConsumerShare{Consumer: c, Partners: partners.Normalized()})
	}
	return out
}

// Commodities returns the distinct commodity codes of the production view.
func (d *Dataset) Commodities() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.production {
		if _, ok := seen[r.CmdCode]; ok {
			continue
		}
		seen[r.CmdCode] = struct{}{}
		out = append(out, r.CmdCode)
	}
	sort.Strings(out)
	return out
}

//Personal.AI order the ending
