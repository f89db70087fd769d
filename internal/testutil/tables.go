package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// MapSource is an in-memory tables.Source.
type MapSource struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMapSource returns an empty source.
func NewMapSource() *MapSource {
	return &MapSource{files: make(map[string][]byte)}
}

// Put stores raw content under name.
func (s *MapSource) Put(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = content
}

// PutJSON stores v encoded as JSON under name.
func (s *MapSource) PutJSON(name string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.Put(name, b)
}

// Open implements tables.Source.
func (s *MapSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.files[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeTableMissing, "table not found").WithDetail(name)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// SeedTables writes a minimal but complete table set for version into s.
func SeedTables(s *MapSource, version string, t *tables.Tables) {
	dir := tables.Dir(version) + "/"
	s.PutJSON(dir+tables.FileProductToHS, t.ProductToHS)
	s.PutJSON(dir+tables.FileHSToExiobase, nonNilStrings(t.HSToExiobase))
	s.PutJSON(dir+tables.FileCountryToRegions, t.CountryToRegions)
	s.PutJSON(dir+tables.FileElectricity, t.ElectricityGeos)
	s.PutJSON(dir+tables.FileAluminium, t.AluminiumGeos)
	s.PutJSON(dir+tables.FileWaste, t.WasteGeos)
	s.PutJSON(dir+tables.FileHeatNG, t.HeatGeos[tables.HeatDistrictNaturalGas])
	s.PutJSON(dir+tables.FileHeatNonNG, t.HeatGeos[tables.HeatDistrictOtherThanNG])
	s.PutJSON(dir+tables.FileHeatSmallScale, t.HeatGeos[tables.HeatSmallScaleOtherThanNG])
	s.PutJSON(dir+tables.FileComtradeToEcoinvent, nonNilStrings(t.ComtradeToEcoinvent))
	s.PutJSON(dir+tables.FileComtradeToExiobase, nonNilStrings(t.ComtradeToExiobase))
	pairs := make([][]string, 0, len(t.NoInputs))
	for k := range t.NoInputs {
		pairs = append(pairs, []string{k.Product, k.Technology})
	}
	s.PutJSON(dir+tables.FileNoInputs, pairs)
	s.PutJSON(dir+tables.FileRelevantNonTraded, t.RelevantNonTraded)
	s.PutJSON(dir+tables.FileRegioinventGeos, t.RegioinventGeos)
	s.PutJSON(dir+tables.FileSpatializedFlows, t.SpatializedBaseFlows)
}

func nonNilStrings(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

//Personal.AI order the ending
