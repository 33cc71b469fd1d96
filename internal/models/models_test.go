package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListColumn(t *testing.T) {
	v, err := StringList{"beach", "food"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["beach","food"]`, v)

	v, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var s StringList
	require.NoError(t, s.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, s)
	assert.True(t, s.Contains("b"))
	assert.False(t, s.Contains("c"))

	require.NoError(t, s.Scan(nil))
	assert.Nil(t, s)
	assert.Error(t, s.Scan(42))
}

func TestPlaceHasLocation(t *testing.T) {
	zero, lat := 0.0, 41.15
	assert.False(t, (&Place{}).HasLocation())
	assert.False(t, (&Place{Latitude: &zero, Longitude: &zero}).HasLocation())
	assert.True(t, (&Place{Latitude: &lat, Longitude: &zero}).HasLocation())
}

func TestBeforeCreateAssignsID(t *testing.T) {
	p := &Place{}
	require.NoError(t, p.BeforeCreate(nil))
	assert.Len(t, p.ID, 36)

	l := &List{ID: "keep"}
	require.NoError(t, l.BeforeCreate(nil))
	assert.Equal(t, "keep", l.ID)
}

func TestAverageRating(t *testing.T) {
	assert.Zero(t, (&List{}).AverageRating())
	assert.InDelta(t, 4.5, (&List{RatingSum: 9, RatingCount: 2}).AverageRating(), 1e-9)
}
