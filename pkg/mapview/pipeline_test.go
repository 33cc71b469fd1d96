package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunAppliesZoomTypes(t *testing.T) {
	places := viewportFixture()
	res := Run(places, Query{Zoom: 12})
	assert.True(t, res.VisibleTypes.Equal(NewTypeSet(TypeCity, TypeNeighborhood)))
	for _, p := range res.Places {
		assert.True(t, res.VisibleTypes.Has(p.Type))
		assert.NotNil(t, p.Location)
	}
	assert.Equal(t, res, Run(places, Query{Zoom: 12}))
}

func TestRunPopulationOverride(t *testing.T) {
	cat := CategoryCity
	res := Run(viewportFixture(), Query{Zoom: 18, Filters: Filters{Population: &cat}})
	assert.True(t, res.VisibleTypes.Equal(NewTypeSet(TypeCity)))
	assert.Equal(t, []string{"lisbon", "porto"}, ids(res.Places))
}

func TestRunMatchSort(t *testing.T) {
	places := []Place{
		{ID: "x", Type: TypeCountry, Location: &Point{Lat: 1, Lng: 1}},
		{ID: "y", Type: TypeCountry, Location: &Point{Lat: 2, Lng: 2}, TagIDs: []string{"beach"}},
	}
	res := Run(places, Query{
		Zoom:    1,
		Filters: Filters{Sort: SortMatch},
		Prefs:   NewPreferences([]string{"beach"}, nil),
	})
	assert.Equal(t, []string{"y", "x"}, ids(res.Places))
	assert.InDelta(t, 1, res.Scores["y"], 1e-9)
}
