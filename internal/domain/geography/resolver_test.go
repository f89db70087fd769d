package geography

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver() *Resolver {
	return NewResolver(map[string][]string{
		"DE": {"RER", "WEU"},
		"CA": {"RNA"},
		"ZA": {"RAF"},
		"CH": {"RER"},
	})
}

func TestResolve_Variants(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name     string
		target   string
		possible []string
		source   string
		res      Resolution
	}{
		{"exact", "DE", []string{"RoW", "DE"}, "DE", ExactMatch},
		{"first region in table order", "DE", []string{"WEU", "RER"}, "RER", RegionMatch},
		{"row", "ZA", []string{"GLO", "RoW"}, "RoW", RoWFallback},
		{"row target never exact", "RoW", []string{"RoW", "GLO"}, "RoW", RoWFallback},
		{"global", "CA", []string{"US", "GLO"}, "GLO", GlobalFallback},
		{"arbitrary", "ZA", []string{"US", "CN"}, "US", ArbitraryFallback},
		{"unknown country", "XX", []string{"GLO"}, "GLO", GlobalFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(Query{Commodity: "steel", Technology: "steel production", Target: tt.target, Possible: tt.possible})
			require.True(t, ok)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, tt.res, got.Resolution)
			assert.Equal(t, tt.target, got.Target)
			assert.Equal(t, "steel production", got.Technology)
		})
	}
}

func TestResolve_EmptyPossibilities(t *testing.T) {
	_, ok := testResolver().Resolve(Query{Target: "DE"})
	assert.False(t, ok)
}

func TestResolve_Idempotent(t *testing.T) {
	r := testResolver()
	q := Query{Commodity: "c", Technology: "t", Target: "DE", Possible: []string{"US", "RER", "GLO"}}
	first, _ := r.Resolve(q)
	for i := 0; i < 5; i++ {
		again, _ := r.Resolve(q)
		assert.Equal(t, first, again)
	}
}

func TestCountryOf(t *testing.T) {
	r := testResolver()
	assert.Equal(t, "CA", r.CountryOf("CA"))
	assert.Equal(t, "CA", r.CountryOf("CA-QC"))
	assert.Equal(t, "", r.CountryOf("RER"))
	assert.Equal(t, "", r.CountryOf("Europe without Switzerland"))
	assert.True(t, r.IsEuropean("DE"))
	assert.False(t, r.IsEuropean("CA"))
}

func TestResolution_Text(t *testing.T) {
	b, err := RegionMatch.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "region", string(b))
	assert.Equal(t, "unknown", Resolution(42).String())
}

func TestPossibilities(t *testing.T) {
	p := NewPossibilities()
	p.Add("b tech", "DE")
	p.Add("a tech", "RoW")
	p.Add("b tech", "GLO")

	assert.Equal(t, []string{"b tech", "a tech"}, p.Technologies())
	assert.Equal(t, []string{"DE", "GLO"}, p.Locations("b tech"))
	assert.Equal(t, 2, p.Len())
}

//Personal.AI order the ending
