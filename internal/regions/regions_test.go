package regions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table := Default()
	assert.Equal(t, 17, table.Len())

	tests := []struct {
		region string
		rate   float64
	}{
		{"Cataluña", 0.10},
		{"Madrid", 0.06},
		{"Canarias", 0.065},
		{"País Vasco", 0.04},
		{"Castilla-La Mancha", 0.09},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			rate, err := table.Rate(tt.region)
			require.NoError(t, err)
			assert.InDelta(t, tt.rate, rate, 1e-12)
		})
	}
}

func TestRateUnknownRegion(t *testing.T) {
	_, err := Default().Rate("Atlantis")
	require.Error(t, err)

	var unknown *UnknownRegionError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Atlantis", unknown.Region)
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestNewRejectsInvalidRates(t *testing.T) {
	tests := []struct {
		name  string
		rates map[string]float64
	}{
		{"Negative rate", map[string]float64{"Madrid": -0.01}},
		{"Rate of one", map[string]float64{"Madrid": 1}},
		{"Empty name", map[string]float64{" ": 0.05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rates)
			var invalid *InvalidRateError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestNewCopiesInput(t *testing.T) {
	rates := map[string]float64{"Madrid": 0.06}
	table, err := New(rates)
	require.NoError(t, err)

	rates["Madrid"] = 0.5
	rates["Galicia"] = 0.09

	rate, err := table.Rate("Madrid")
	require.NoError(t, err)
	assert.Equal(t, 0.06, rate)
	assert.False(t, table.Has("Galicia"))
}

func TestMergeDoesNotMutateReceiver(t *testing.T) {
	base := Default()
	merged, err := base.Merge(map[string]float64{"Madrid": 0.07, "Ceuta": 0.06})
	require.NoError(t, err)

	rate, _ := base.Rate("Madrid")
	assert.Equal(t, 0.06, rate)
	assert.False(t, base.Has("Ceuta"))

	rate, _ = merged.Rate("Madrid")
	assert.Equal(t, 0.07, rate)
	assert.True(t, merged.Has("Ceuta"))
	assert.Equal(t, base.Len()+1, merged.Len())
}

func TestMergeRejectsInvalidOverride(t *testing.T) {
	_, err := Default().Merge(map[string]float64{"Madrid": 1.5})
	assert.Error(t, err)
}

func TestRegionsSorted(t *testing.T) {
	table, err := New(map[string]float64{"Murcia": 0.08, "Aragón": 0.08, "Galicia": 0.09})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aragón", "Galicia", "Murcia"}, table.Regions())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regions.yaml")
	contents := []byte("rates:\n  Madrid: 0.06\n  Cataluña: 0.10\n")
	require.NoError(t, os.WriteFile(path, contents, 0600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	rate, err := table.Rate("Cataluña")
	require.NoError(t, err)
	assert.Equal(t, 0.10, rate)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("rates: {}\n"), 0600))
	_, err = Load(empty)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rates: [unterminated\n"), 0600))
	_, err = Load(bad)
	assert.Error(t, err)
}
