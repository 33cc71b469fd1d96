package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePopulation(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"10,000", 10000, true},
		{"50k", 50000, true},
		{"215K", 215000, true},
		{"2.1m", 2100000, true},
		{"2.1M", 2100000, true},
		{"1,000,000", 1000000, true},
		{"1M", 1000000, true},
		{" 1 200 ", 1200, true},
		{"0", 0, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"N/A", 0, false},
		{"unknown", 0, false},
		{"-300", 0, false},
		{"k", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePopulation(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-6)
			}
		})
	}
}

func TestCategoryForPopulation(t *testing.T) {
	tests := []struct {
		n    float64
		want PopulationCategory
	}{
		{0, CategoryVillage},
		{9_999, CategoryVillage},
		{10_000, CategoryTown},
		{49_999, CategoryTown},
		{50_000, CategoryCity},
		{999_999, CategoryCity},
		{1_000_000, CategoryMegacity},
		{25_000_000, CategoryMegacity},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryForPopulation(tt.n), "population %v", tt.n)
	}
}

func TestPopulationCategoryMatches(t *testing.T) {
	assert.True(t, CategoryMegacity.MatchesPopulation("1,000,000"))
	assert.True(t, CategoryMegacity.MatchesPopulation("1M"))
	assert.True(t, CategoryTown.MatchesPopulation("10,000"))
	assert.False(t, CategoryTown.MatchesPopulation("n/a"))
	for _, c := range []PopulationCategory{CategoryVillage, CategoryTown, CategoryCity, CategoryMegacity} {
		assert.False(t, c.MatchesPopulation(""), "empty population must not match %s", c)
	}
}

func TestParsePopulationCategory(t *testing.T) {
	c, ok := ParsePopulationCategory(" Megacity ")
	assert.True(t, ok)
	assert.Equal(t, CategoryMegacity, c)

	_, ok = ParsePopulationCategory("hamlet")
	assert.False(t, ok)
}
