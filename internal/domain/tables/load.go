package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// Table file names inside a version directory.
const (
	FileProductToHS          = "ecoinvent_to_HS.json"
	FileHSToExiobase         = "HS_to_exiobase_name.json"
	FileCountryToRegions     = "country_to_ecoinvent_regions.json"
	FileElectricity          = "electricity_processes.json"
	FileAluminium            = "electricity_aluminium_processes.json"
	FileWaste                = "waste_processes.json"
	FileHeatNG               = "heat_industrial_ng_processes.json"
	FileHeatNonNG            = "heat_industrial_non_ng_processes.json"
	FileHeatSmallScale       = "heat_small_scale_non_ng_processes.json"
	FileComtradeToEcoinvent  = "COMTRADE_to_ecoinvent_geographies.json"
	FileComtradeToExiobase   = "COMTRADE_to_exiobase_geographies.json"
	FileNoInputs             = "no_inputs_processes.json"
	FileRelevantNonTraded    = "relevant_non_traded_products.json"
	FileRegioinventGeos      = "geographies_of_regioinvent.json"
	FileSpatializedFlows     = "spatialized_elementary_flows.json"
	FileSpatializedBiosphere = "spatialized_biosphere_database.json"
)

// Source opens table files by path relative to its root.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// SupportedVersions lists the accepted version tags.
var SupportedVersions = []string{"3.9", "3.9.1", "3.10", "3.10.1"}

// NormalizeVersion maps a release tag onto its table directory version.
func NormalizeVersion(v string) (string, error) {
	switch v {
	case "3.9", "3.9.1":
		return "3.9", nil
	case "3.10", "3.10.1":
		return "3.10", nil
	}
	return "", errors.Newf(errors.ErrCodeUnsupportedVersion, "unsupported database version %q", v).
		WithDetail("supported versions are " + strings.Join(SupportedVersions, ", "))
}

// Dir returns the directory holding the tables of a normalized version.
func Dir(version string) string { return "ei" + version }

// Load reads every table of version from src.
func Load(ctx context.Context, src Source, version string) (*Tables, error) {
	v, err := NormalizeVersion(version)
	if err != nil {
		return nil, err
	}
	l := loader{ctx: ctx, src: src, dir: Dir(v)}
	t := &Tables{Version: v, HeatGeos: make(map[string][]string, len(HeatFlows))}

	t.ProductToHS = l.codeMap(FileProductToHS)
	t.HSToExiobase = l.codeMap(FileHSToExiobase)
	l.decode(FileCountryToRegions, &t.CountryToRegions)
	l.decode(FileElectricity, &t.ElectricityGeos)
	l.decode(FileAluminium, &t.AluminiumGeos)
	l.decode(FileWaste, &t.WasteGeos)
	var ng, nonNG, small []string
	l.decode(FileHeatNG, &ng)
	l.decode(FileHeatNonNG, &nonNG)
	l.decode(FileHeatSmallScale, &small)
	t.HeatGeos[HeatDistrictNaturalGas] = ng
	t.HeatGeos[HeatDistrictOtherThanNG] = nonNG
	t.HeatGeos[HeatSmallScaleOtherThanNG] = small
	t.ComtradeToEcoinvent = l.codeMap(FileComtradeToEcoinvent)
	t.ComtradeToExiobase = l.codeMap(FileComtradeToExiobase)

	var pairs [][]string
	l.decode(FileNoInputs, &pairs)
	t.NoInputs = make(map[ProductTechnology]struct{}, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			l.fail(FileNoInputs, fmt.Errorf("expected [product, technology] pair, got %d items", len(p)))
			continue
		}
		t.NoInputs[ProductTechnology{Product: p[0], Technology: p[1]}] = struct{}{}
	}

	l.decode(FileRelevantNonTraded, &t.RelevantNonTraded)
	l.decode(FileRegioinventGeos, &t.RegioinventGeos)
	l.decode(FileSpatializedFlows, &t.SpatializedBaseFlows)

	if l.err != nil {
		return nil, l.err
	}
	return t, nil
}

// LoadFlows reads the spatialized biosphere flow list of version.
func LoadFlows(ctx context.Context, src Source, version string) ([]lci.Flow, error) {
	v, err := NormalizeVersion(version)
	if err != nil {
		return nil, err
	}
	l := loader{ctx: ctx, src: src, dir: Dir(v)}
	var flows []lci.Flow
	l.decode(FileSpatializedBiosphere, &flows)
	if l.err != nil {
		return nil, l.err
	}
	for i := range flows {
		if flows[i].Database == "" {
			flows[i].Database = SpatializedBiosphereDB
		}
	}
	return flows, nil
}

// LoadSpatializedBaseFlows reads only the base-name → compartments table of
// version.
func LoadSpatializedBaseFlows(ctx context.Context, src Source, version string) (map[string][]string, error) {
	v, err := NormalizeVersion(version)
	if err != nil {
		return nil, err
	}
	l := loader{ctx: ctx, src: src, dir: Dir(v)}
	var base map[string][]string
	l.decode(FileSpatializedFlows, &base)
	if l.err != nil {
		return nil, l.err
	}
	return base, nil
}

// loader keeps the first error and turns later calls into no-ops.
type loader struct {
	ctx context.Context
	src Source
	dir string
	err error
}

func (l *loader) fail(name string, cause error) {
	if l.err == nil {
		l.err = errors.Wrap(cause, errors.ErrCodeTableMalformed, "malformed table").WithDetail(path.Join(l.dir, name))
	}
}

func (l *loader) decode(name string, v interface{}) {
	if l.err != nil {
		return
	}
	full := path.Join(l.dir, name)
	rc, err := l.src.Open(l.ctx, full)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeTableMissing) {
			l.err = err
			return
		}
		l.err = errors.Wrap(err, errors.ErrCodeTableMissing, "cannot open table").WithDetail(full)
		return
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		l.fail(name, err)
	}
}

// codeMap decodes an object whose values may be strings or numbers.
func (l *loader) codeMap(name string) map[string]string {
	var raw map[string]json.RawMessage
	l.decode(name, &raw)
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			l.fail(name, fmt.Errorf("value of %q is neither string nor number", k))
			continue
		}
		out[k] = n.String()
	}
	return out
}

//Personal.AI order the ending
