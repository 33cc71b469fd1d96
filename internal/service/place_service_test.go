package service

import (
	"context"
	"errors"
	"testing"

	"wayfare/pkg/mapview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	lat, lng float64
	ok       bool
	err      error
	calls    int
}

func (g *fakeGeocoder) Resolve(_ context.Context, _, _ string) (float64, float64, bool, error) {
	g.calls++
	return g.lat, g.lng, g.ok, g.err
}

func TestPlaceCreateValidates(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaceService(memPlaces{newMemDB()}, nil, nil)

	_, err := svc.Create(ctx, PlaceInput{Name: "X", Type: "planet"})
	assert.ErrorIs(t, err, ErrInvalidPlaceType)

	_, err = svc.Create(ctx, PlaceInput{Name: "X", Type: "city", Lat: fptr(1)})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = svc.Create(ctx, PlaceInput{Name: "X", Type: "city", Lat: fptr(95), Lng: fptr(1)})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = svc.Create(ctx, PlaceInput{Name: "???", Type: "city"})
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestPlaceCreateUniqueSlug(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := NewPlaceService(memPlaces{db}, nil, nil)

	a, err := svc.Create(ctx, PlaceInput{Name: "Porto", Type: "City", Lat: fptr(41.15), Lng: fptr(-8.61)})
	require.NoError(t, err)
	b, err := svc.Create(ctx, PlaceInput{Name: "Porto", Type: "city"})
	require.NoError(t, err)
	c, err := svc.Create(ctx, PlaceInput{Name: "Porto", Slug: "porto", Type: "city"})
	require.NoError(t, err)

	assert.Equal(t, "porto", a.Slug)
	assert.Equal(t, "city", a.Type)
	assert.Equal(t, "porto-2", b.Slug)
	assert.Equal(t, "porto-3", c.Slug)
}

func TestPlaceSlugStaysReservedAfterDelete(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := NewPlaceService(memPlaces{db}, nil, nil)

	a, err := svc.Create(ctx, PlaceInput{Name: "Porto", Type: "city"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, a.ID))

	b, err := svc.Create(ctx, PlaceInput{Name: "Porto", Type: "city"})
	require.NoError(t, err)
	assert.Equal(t, "porto-2", b.Slug)
}

func TestPlaceCreateSlugLookupError(t *testing.T) {
	db := newMemDB()
	db.failOn["places.slug_taken"] = errors.New("db down")
	svc := NewPlaceService(memPlaces{db}, nil, nil)

	_, err := svc.Create(context.Background(), PlaceInput{Name: "Porto", Type: "city"})
	assert.Error(t, err)
	assert.Empty(t, db.places)
}

func TestPlaceCreateGeocodes(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	geo := &fakeGeocoder{lat: 52.52, lng: 13.40, ok: true}
	svc := NewPlaceService(memPlaces{db}, nil, geo)

	p, err := svc.Create(ctx, PlaceInput{Name: "Berlin", Country: "Germany", Type: "city"})
	require.NoError(t, err)
	require.True(t, p.HasLocation())
	assert.Equal(t, 52.52, *p.Latitude)

	_, err = svc.Create(ctx, PlaceInput{Name: "Known", Type: "city", Lat: fptr(1), Lng: fptr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls)

	geo.err = errors.New("rate limited")
	p, err = svc.Create(ctx, PlaceInput{Name: "Hamburg", Type: "city"})
	require.NoError(t, err)
	assert.False(t, p.HasLocation())
}

func TestPlaceUpdate(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.addPlace("p1", "Lisbon", "city", fptr(38.7), fptr(-9.1))
	svc := NewPlaceService(memPlaces{db}, nil, nil)

	region := "region"
	_, err := svc.Update(ctx, "p1", PlacePatch{Type: &region})
	assert.ErrorIs(t, err, ErrTypeImmutable)

	same := "CITY"
	name := " Lisboa "
	got, err := svc.Update(ctx, "p1", PlacePatch{Type: &same, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Lisboa", got.Name)
	assert.Equal(t, "city", db.places["p1"].Type)

	_, err = svc.Update(ctx, "p1", PlacePatch{Lat: fptr(10)})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = svc.Update(ctx, "missing", PlacePatch{Name: &name})
	assert.Error(t, err)
}

func TestPlaceWritesInvalidateExplorer(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	explore, c := newTestExplore(db)
	svc := NewPlaceService(memPlaces{db}, explore, nil)
	changes := 0
	svc.OnChange(func() { changes++ })

	_, err := explore.Catalog(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	p, err := svc.Create(ctx, PlaceInput{Name: "Oslo", Type: "city", Lat: fptr(59.9), Lng: fptr(10.7)})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, changes)

	catalog, err := explore.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, mapview.TypeCity, catalog[0].Type)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Equal(t, 2, changes)
	catalog, err = explore.Catalog(ctx)
	require.NoError(t, err)
	assert.Empty(t, catalog)
}
