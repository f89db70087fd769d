package regionalization_test

import (
	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/domain/trade"
	"github.com/turtacn/regioinvent/internal/testutil"
)

const (
	sourceDB      = "ei"
	spatializedDB = "ei regionalized"
	outputDB      = "Regioinvent"

	steel       = "steel"
	sand        = "sand"
	electricity = "electricity, medium voltage"
	transport   = "transport, freight, lorry"
	car         = "car"

	converter = "steel production, converter"
	electric  = "steel production, electric"
	quarry    = "sand quarry operation"
	gravel    = "gravel and sand quarry"
)

func fixtureTables() *tables.Tables {
	return &tables.Tables{
		Version:     "3.10",
		ProductToHS: map[string]string{steel: "7208"},
		CountryToRegions: map[string][]string{
			"DE": {"RER", "WEU"},
			"FR": {"RER"},
			"CH": {"RER"},
			"US": {"RNA", "IAI Area, North America"},
			"CA": {"RNA"},
			"BR": {"RLA"},
			"ZA": {"RAF"},
		},
		ElectricityGeos: []string{"DE", "CA", "RER", "GLO"},
		AluminiumGeos:   []string{"IAI Area, North America", "RoW"},
		WasteGeos:       []string{"DE", "CH"},
		HeatGeos: map[string][]string{
			tables.HeatDistrictNaturalGas:    {"DE", "CH", "CA"},
			tables.HeatDistrictOtherThanNG:   {"DE"},
			tables.HeatSmallScaleOtherThanNG: {"DE"},
		},
		NoInputs:             map[tables.ProductTechnology]struct{}{},
		RelevantNonTraded:    []string{sand},
		RegioinventGeos:      []string{"DE", "RoW", "ZA"},
		SpatializedBaseFlows: map[string][]string{"Water": {"water"}},
	}
}

func settings() regionalization.Settings {
	return regionalization.Settings{
		SourceDatabase:     sourceDB,
		OutputDatabase:     outputDB,
		Cutoff:             0.7,
		PruneDepth:         1,
		EqualSplitFallback: true,
	}
}

// world is the source partition of the fixture, addressable by role.
type world struct {
	elecDE, elecRER, elecGLO         *lci.Process
	wasteDE, wasteRoW, wasteEWS      *lci.Process
	transportGLO                     *lci.Process
	converterRER, converterRoW       *lci.Process
	electricDE                       *lci.Process
	steelMarket                      *lci.Process
	quarryRoW, gravelDE, sandMarket  *lci.Process
	carDE, constructionRER, bridgeCH *lci.Process
	flows                            []lci.Flow
}

func (w *world) processes() []*lci.Process {
	return []*lci.Process{
		w.elecDE, w.elecRER, w.elecGLO,
		w.wasteDE, w.wasteRoW, w.wasteEWS,
		w.transportGLO,
		w.converterRER, w.converterRoW, w.electricDE, w.steelMarket,
		w.quarryRoW, w.gravelDE, w.sandMarket,
		w.carDE, w.constructionRER, w.bridgeCH,
	}
}

func waterFlow(location string) lci.Flow {
	return lci.Flow{
		Key:        lci.Key{Database: tables.SpatializedBiosphereDB, Code: "water-" + location},
		Name:       "Water, " + location,
		Categories: []string{"water"},
		Unit:       "cubic meter",
	}
}

func newWorld() *world {
	w := &world{}
	db := spatializedDB
	mk := testutil.NewProcess

	w.elecDE = mk(db, "elec-de", "market for "+electricity, electricity, "DE").Unit("kilowatt hour").Build()
	w.elecRER = mk(db, "elec-rer", "market group for "+electricity, electricity, "RER").Unit("kilowatt hour").Build()
	w.elecGLO = mk(db, "elec-glo", "market group for "+electricity, electricity, "GLO").Unit("kilowatt hour").Build()

	w.wasteDE = mk(db, "msw-de", "market for "+tables.MunicipalSolidWaste, tables.MunicipalSolidWaste, "DE").Build()
	w.wasteRoW = mk(db, "msw-row", "market for "+tables.MunicipalSolidWaste, tables.MunicipalSolidWaste, "RoW").Build()
	w.wasteEWS = mk(db, "msw-ews", "market group for "+tables.MunicipalSolidWaste, tables.MunicipalSolidWaste,
		"Europe without Switzerland").Build()

	w.transportGLO = mk(db, "lorry", "market for "+transport, transport, "GLO").Unit("ton kilometer").Build()

	w.flows = []lci.Flow{waterFlow("RER"), waterFlow("DE"), waterFlow("RoW")}

	w.converterRER = mk(db, "conv-rer", converter, steel, "RER").
		Input(3.0, w.elecGLO).
		Input(4.0, w.elecRER).
		Input(0.5, w.wasteRoW).
		Emission(0.01, waterFlow("RER")).
		Build()
	w.converterRoW = mk(db, "conv-row", converter, steel, "RoW").
		Input(2.0, w.elecGLO).
		Build()

	w.gravelDE = mk(db, "gravel-de", gravel, sand, "DE").Build()
	w.quarryRoW = mk(db, "quarry-row", quarry, sand, "RoW").Build()
	w.sandMarket = mk(db, "sand-row", "market for sand", sand, "RoW").
		Input(0.8, w.quarryRoW).
		Input(0.2, w.gravelDE).
		Build()

	w.electricDE = mk(db, "elec-steel-de", electric, steel, "DE").
		Input(1.0, w.elecDE).
		Input(0.2, w.sandMarket).
		Build()

	w.steelMarket = mk(db, "steel-glo", "market for steel", steel, "GLO").
		Input(0.6, w.converterRER).
		Input(0.4, w.electricDE).
		Input(0.1, w.transportGLO).
		Build()

	w.carDE = mk(db, "car-de", "car manufacturing", car, "DE").
		Input(2.0, w.steelMarket).
		Input(1.0, w.sandMarket).
		Build()
	w.constructionRER = mk(db, "construction-rer", "construction", "building", "RER").
		Input(5.0, w.electricDE).
		Build()
	w.bridgeCH = mk(db, "bridge-ch", "bridge construction", "bridge", "CH").
		Input(7.0, w.steelMarket).
		Build()
	return w
}

func rec(cmd string, year int, importer, exporter string, q float64) trade.Record {
	return trade.Record{CmdCode: cmd, RefYear: year, Importer: importer, Exporter: exporter, Quantity: q}
}

// fixtureTrade makes DE, FR and ZA produce 60/30/10 and DE, US and BR
// consume 40/50/10.
func fixtureTrade() *testutil.MemoryTrade {
	return &testutil.MemoryTrade{
		ExportRows: []trade.Record{
			rec("7208", 2021, "", "DE", 60),
			rec("7208", 2021, "", "FR", 30),
			rec("7208", 2021, "", "ZA", 10),
		},
		ImportRows: []trade.Record{
			rec("7208", 2021, "DE", "FR", 30),
			rec("7208", 2021, "DE", "ZA", 10),
			rec("7208", 2021, "US", "DE", 50),
			rec("7208", 2021, "BR", "DE", 10),
		},
	}
}

// newContext builds a pipeline context over a fresh fixture world.
func newContext(s regionalization.Settings) (*regionalization.PipelineContext, *world) {
	w := newWorld()
	return contextFor(w, s), w
}

func contextFor(w *world, s regionalization.Settings) *regionalization.PipelineContext {
	return regionalization.NewPipelineContext(s, fixtureTables(), lci.NewIndex(w.processes()), w.flows,
		testutil.SequentialCodes("r"), testutil.NewMockLogger())
}

func named(ps []*lci.Process, name, location string) *lci.Process {
	for _, p := range ps {
		if p.Name == name && p.Location == location {
			return p
		}
	}
	return nil
}

func technosphereSum(p *lci.Process, pred func(*lci.Exchange) bool) float64 {
	total := 0.0
	for _, e := range p.Technosphere() {
		if pred == nil || pred(e) {
			total += e.Amount
		}
	}
	return total
}

//Personal.AI order the ending
