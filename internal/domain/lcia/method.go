// Package lcia names the regionalized impact-assessment methods that match a
// spatialized database, and the package artifacts that carry them.
package lcia

import (
	"strings"

	"github.com/turtacn/regioinvent/pkg/errors"
)

// Method is an impact-assessment method name.
type Method string

const (
	ImpactWorldPlus Method = "IW v2.1"
	EnvFootprint    Method = "EF v3.1"
	ReCiPe          Method = "ReCiPe 2016 v1.03 (H)"
	All             Method = "all"
)

// Methods lists the accepted names, All last.
var Methods = []Method{ImpactWorldPlus, EnvFootprint, ReCiPe, All}

var packages = map[Method]map[string]string{
	ImpactWorldPlus: {
		"3.9":  "IW/impact_world_plus_21_regionalized-for-ecoinvent-v39.af770e84bfd0f4365d509c026796639a.bw2package",
		"3.10": "IW/impact_world_plus_21_regionalized-for-ecoinvent-v310.0fffd5e3daa5f4cf11ef83e49c375827.bw2package",
	},
	EnvFootprint: {
		"3.9":  "EF/EF31_regionalized-for-ecoinvent-v39.ff0965b0f9793fbd2a351c9155946122.bw2package",
		"3.10": "EF/EF31_regionalized-for-ecoinvent-v310.87ec66ed7e5775d0132d1129fb5caf03.bw2package",
	},
	ReCiPe: {
		"3.9":  "ReCiPe/ReCiPe_regionalized-for-ecoinvent-v39.d03db1f1699b4f0b4d72626e52a40647.bw2package",
		"3.10": "ReCiPe/ReCiPe_regionalized-for-ecoinvent-v310.dd7e66b1994d898394e3acfbed8eef83.bw2package",
	},
}

// ParseMethod validates a method name.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	names := make([]string, len(Methods))
	for i, m := range Methods {
		names[i] = "'" + string(m) + "'"
	}
	return "", errors.Newf(errors.ErrCodeUnsupportedMethod, "unsupported LCIA method %q", name).
		WithDetail("available methods are " + strings.Join(names, ", "))
}

// Packages returns the artifact paths to import for m on a normalized
// database version. All expands to every method.
func (m Method) Packages(version string) ([]string, error) {
	selected := []Method{m}
	if m == All {
		selected = Methods[:len(Methods)-1]
	}
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		byVersion, ok := packages[s]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnsupportedMethod, "unsupported LCIA method %q", string(s))
		}
		p, ok := byVersion[version]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnsupportedVersion, "no %s package for version %q", s, version)
		}
		out = append(out, p)
	}
	return out, nil
}

//Personal.AI order the ending
