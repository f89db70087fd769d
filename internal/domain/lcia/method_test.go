package lcia

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/pkg/errors"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("EF v3.1")
	require.NoError(t, err)
	assert.Equal(t, EnvFootprint, m)

	_, err = ParseMethod("TRACI")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedMethod))
}

func TestPackages(t *testing.T) {
	p, err := ReCiPe.Packages("3.9")
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Contains(t, p[0], "v39")

	all, err := All.Packages("3.10")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, name := range all {
		assert.Contains(t, name, "v310")
	}

	_, err = ImpactWorldPlus.Packages("3.8")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedVersion))
}

//Personal.AI order the ending
