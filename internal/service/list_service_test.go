package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"wayfare/internal/domain"
	"wayfare/internal/metrics"
	"wayfare/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPlaces(db *memDB, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i+1)
		db.addPlace(ids[i], fmt.Sprintf("Place %d", i+1), "city", fptr(float64(i+1)), fptr(float64(i+1)))
	}
	return ids
}

func TestCreateListAssignsRanksAndCenter(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.addPlace("a", "Alpha", "city", fptr(10), fptr(20))
	db.addPlace("b", "Beta", "city", fptr(20), fptr(40))
	svc := newTestListService(db)

	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "  Weekend Trip ", PlaceIDs: []string{"b", "a"}})
	require.NoError(t, err)
	assert.Equal(t, "Weekend Trip", l.Title)
	assert.Equal(t, "weekend-trip", l.Slug)
	assert.Equal(t, domain.VisibilityPublic, l.Visibility)
	assert.Equal(t, 2, db.lists[l.ID].PlaceCount)

	ids, ranks := ranksOf(t, db, l.ID)
	assert.Equal(t, []string{"b", "a"}, ids)
	assert.Equal(t, []int{1, 2}, ranks)

	loc := db.locations[l.ID]
	assert.InDelta(t, 15, loc.CenterLat, 1e-9)
	assert.InDelta(t, 30, loc.CenterLng, 1e-9)
}

func TestCreateListSlugCollision(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)

	first, err := svc.CreateList(ctx, "u1", CreateListInput{Title: "Best Bars"})
	require.NoError(t, err)
	second, err := svc.CreateList(ctx, "u2", CreateListInput{Title: "Best bars!"})
	require.NoError(t, err)
	assert.Equal(t, "best-bars", first.Slug)
	assert.Equal(t, "best-bars-2", second.Slug)

	taken, err := svc.SlugExists(ctx, "best-bars-2")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = svc.SlugExists(ctx, "best-bars-3")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestDeletedListKeepsItsSlug(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)

	first, err := svc.CreateList(ctx, "u1", CreateListInput{Title: "Paris Weekend"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteList(ctx, first.ID, "u1"))

	taken, err := svc.SlugExists(ctx, "paris-weekend")
	require.NoError(t, err)
	assert.True(t, taken)

	second, err := svc.CreateList(ctx, "u1", CreateListInput{Title: "Paris Weekend"})
	require.NoError(t, err)
	assert.Equal(t, "paris-weekend-2", second.Slug)
}

func TestCreateListRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)

	_, err := svc.CreateList(ctx, "u", CreateListInput{Title: "x", Visibility: "friends"})
	assert.ErrorIs(t, err, ErrInvalidVisibility)

	_, err = svc.CreateList(ctx, "u", CreateListInput{Title: "!!!"})
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Empty(t, db.lists)
}

func TestCreateListRollsBackOnBadMember(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	seedPlaces(db, 2)
	svc := newTestListService(db)

	_, err := svc.CreateList(ctx, "u", CreateListInput{Title: "Dup", PlaceIDs: []string{"p1", "p2", "p1"}})
	assert.ErrorIs(t, err, ErrPlaceAlreadyInList)

	_, err = svc.CreateList(ctx, "u", CreateListInput{Title: "Missing", PlaceIDs: []string{"p1", "nope"}})
	assert.True(t, store.IsNotFound(err))

	assert.Empty(t, db.lists)
	assert.Empty(t, db.listPlaces)
	assert.Empty(t, db.locations)
}

func TestAddPlaceAppendsAtEnd(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	ids := seedPlaces(db, 3)
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids[:2]})
	require.NoError(t, err)

	lp, err := svc.AddPlace(ctx, l.ID, "owner", "p3")
	require.NoError(t, err)
	assert.Equal(t, 3, lp.Rank)
	assert.Equal(t, 3, db.lists[l.ID].PlaceCount)
	assert.InDelta(t, 2, db.locations[l.ID].CenterLat, 1e-9)

	_, err = svc.AddPlace(ctx, l.ID, "owner", "p3")
	assert.ErrorIs(t, err, ErrPlaceAlreadyInList)

	_, err = svc.AddPlace(ctx, l.ID, "owner", "ghost")
	assert.True(t, store.IsNotFound(err))

	_, err = svc.AddPlace(ctx, l.ID, "intruder", "p1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRemovePlaceKeepsRanksDense(t *testing.T) {
	ctx := context.Background()
	for n := 1; n <= 5; n++ {
		for victim := 0; victim < n; victim++ {
			t.Run(fmt.Sprintf("n=%d/remove=%d", n, victim), func(t *testing.T) {
				db := newMemDB()
				ids := seedPlaces(db, n)
				svc := newTestListService(db)
				l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids})
				require.NoError(t, err)

				require.NoError(t, svc.RemovePlace(ctx, l.ID, "owner", ids[victim]))

				want := append(append([]string{}, ids[:victim]...), ids[victim+1:]...)
				got, ranks := ranksOf(t, db, l.ID)
				assert.Equal(t, want, got)
				for i, r := range ranks {
					assert.Equal(t, i+1, r)
				}
				assert.Equal(t, n-1, db.lists[l.ID].PlaceCount)
			})
		}
	}
}

func TestRemovePlaceNotInList(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	ids := seedPlaces(db, 2)
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids[:1]})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemovePlace(ctx, l.ID, "owner", "p2"), ErrPlaceNotInList)
}

func TestRemovingLastPlaceKeepsPreviousCenter(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.addPlace("a", "Alpha", "city", fptr(10), fptr(20))
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Solo", PlaceIDs: []string{"a"}})
	require.NoError(t, err)

	require.NoError(t, svc.RemovePlace(ctx, l.ID, "owner", "a"))
	loc, err := svc.Center(ctx, l.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, 10.0, loc.CenterLat)
	assert.Equal(t, 20.0, loc.CenterLng)
}

func TestRecomputeCenterPicksUpMovedPlaces(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.addPlace("a", "Alpha", "city", fptr(10), fptr(20))
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Solo", PlaceIDs: []string{"a"}})
	require.NoError(t, err)

	db.addPlace("a", "Alpha", "city", fptr(-5), fptr(7))
	require.NoError(t, svc.RecomputeCenter(ctx, l.ID))
	assert.InDelta(t, -5, db.locations[l.ID].CenterLat, 1e-9)
	assert.InDelta(t, 7, db.locations[l.ID].CenterLng, 1e-9)

	err = svc.RecomputeCenter(ctx, "missing")
	assert.True(t, store.IsNotFound(err))
}

func TestMutationRollsBackWhenCenterWriteFails(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	ids := seedPlaces(db, 3)
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids})
	require.NoError(t, err)
	before := db.locations[l.ID]

	boom := errors.New("disk full")
	db.failOn["list_locations.upsert"] = boom

	err = svc.RemovePlace(ctx, l.ID, "owner", "p2")
	assert.ErrorIs(t, err, boom)
	got, ranks := ranksOf(t, db, l.ID)
	assert.Equal(t, ids, got)
	assert.Equal(t, []int{1, 2, 3}, ranks)
	assert.Equal(t, 3, db.lists[l.ID].PlaceCount)
	assert.Equal(t, before, db.locations[l.ID])

	_, err = svc.AddPlace(ctx, l.ID, "owner", "p1")
	assert.ErrorIs(t, err, ErrPlaceAlreadyInList)
}

func TestMutationStates(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)

	m, err := svc.run(ctx, "noop", "l1", false, func(context.Context, *Mutation) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, MutationCommitted, m.State)
	assert.NoError(t, m.Err)

	boom := errors.New("boom")
	m, err = svc.run(ctx, "fail", "l1", false, func(context.Context, *Mutation) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, MutationRolledBack, m.State)
	assert.ErrorIs(t, m.Err, boom)

	m.settle(nil)
	assert.Equal(t, MutationRolledBack, m.State)
}

func TestNestedMutationSettlesWithOuterTransaction(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)
	committed := metrics.ListMutations.WithLabelValues("create", string(MutationCommitted))
	rolledBack := metrics.ListMutations.WithLabelValues("create", string(MutationRolledBack))
	c0, r0 := testutil.ToFloat64(committed), testutil.ToFloat64(rolledBack)

	boom := errors.New("later step failed")
	var inner *Mutation
	err := inTx(ctx, memTx{db}, func(ctx context.Context) error {
		m, err := svc.run(ctx, "create", "", false, func(context.Context, *Mutation) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, MutationPending, m.State)
		inner = m
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, inner)
	assert.Equal(t, MutationRolledBack, inner.State)
	assert.ErrorIs(t, inner.Err, boom)
	assert.Equal(t, c0, testutil.ToFloat64(committed))
	assert.Equal(t, r0+1, testutil.ToFloat64(rolledBack))

	err = inTx(ctx, memTx{db}, func(ctx context.Context) error {
		m, err := svc.run(ctx, "create", "", false, func(context.Context, *Mutation) error { return nil })
		inner = m
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, MutationCommitted, inner.State)
	assert.Equal(t, c0+1, testutil.ToFloat64(committed))
}

func TestPlaceEditsLockTheList(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	ids := seedPlaces(db, 2)
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids[:1]})
	require.NoError(t, err)

	_, err = svc.AddPlace(ctx, l.ID, "owner", ids[1])
	require.NoError(t, err)
	require.NoError(t, svc.ReorderPlaces(ctx, l.ID, "owner", []string{ids[1], ids[0]}))
	require.NoError(t, svc.RemovePlace(ctx, l.ID, "owner", ids[0]))
	assert.Equal(t, 3, db.calls["lists.lock"])

	db.failOn["lists.lock"] = errors.New("lock wait timeout")
	_, err = svc.AddPlace(ctx, l.ID, "owner", ids[0])
	assert.Error(t, err)
	got, _ := ranksOf(t, db, l.ID)
	assert.Equal(t, []string{ids[1]}, got)
}

func TestReorderPlaces(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	ids := seedPlaces(db, 3)
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids})
	require.NoError(t, err)
	upserts := db.calls["list_locations.upsert"]

	require.NoError(t, svc.ReorderPlaces(ctx, l.ID, "owner", []string{"p3", "p1", "p2"}))
	got, ranks := ranksOf(t, db, l.ID)
	assert.Equal(t, []string{"p3", "p1", "p2"}, got)
	assert.Equal(t, []int{1, 2, 3}, ranks)
	assert.Equal(t, upserts, db.calls["list_locations.upsert"])

	for _, bad := range [][]string{
		{"p1", "p2"},
		{"p1", "p1", "p2"},
		{"p1", "p2", "p9"},
		{"p1", "p2", "p3", "p4"},
	} {
		assert.ErrorIs(t, svc.ReorderPlaces(ctx, l.ID, "owner", bad), ErrInvalidOrder, "%v", bad)
	}
	got, _ = ranksOf(t, db, l.ID)
	assert.Equal(t, []string{"p3", "p1", "p2"}, got)
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)

	priv, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Secret", Visibility: domain.VisibilityPrivate})
	require.NoError(t, err)
	unl, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Link only", Visibility: domain.VisibilityUnlisted})
	require.NoError(t, err)

	_, err = svc.GetList(ctx, priv.ID, "other")
	assert.True(t, store.IsNotFound(err))
	_, err = svc.GetList(ctx, priv.ID, "")
	assert.True(t, store.IsNotFound(err))
	_, err = svc.GetList(ctx, priv.ID, "owner")
	assert.NoError(t, err)

	_, err = svc.GetList(ctx, unl.ID, "")
	assert.NoError(t, err)
	_, err = svc.UpdateList(ctx, unl.ID, "other", UpdateListInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	page, err := svc.ListPublic(ctx, 1, 30, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestUpdateAndDeleteList(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	ids := seedPlaces(db, 2)
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids})
	require.NoError(t, err)

	title, vis := "Renamed", domain.VisibilityUnlisted
	got, err := svc.UpdateList(ctx, l.ID, "owner", UpdateListInput{Title: &title, Visibility: &vis})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Renamed", db.lists[l.ID].Title)
	assert.Equal(t, vis, db.lists[l.ID].Visibility)

	bad := "hidden"
	_, err = svc.UpdateList(ctx, l.ID, "owner", UpdateListInput{Visibility: &bad})
	assert.ErrorIs(t, err, ErrInvalidVisibility)

	require.NoError(t, svc.SaveList(ctx, l.ID, "fan"))
	require.NoError(t, svc.DeleteList(ctx, l.ID, "owner"))
	assert.Empty(t, db.lists)
	assert.Empty(t, db.listPlaces)
	assert.Empty(t, db.locations)
	assert.Empty(t, db.saved)
}

func TestSaveAndUnsaveAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip"})
	require.NoError(t, err)

	require.NoError(t, svc.SaveList(ctx, l.ID, "fan"))
	require.NoError(t, svc.SaveList(ctx, l.ID, "fan"))
	assert.Equal(t, 1, db.lists[l.ID].Saves)
	assert.Len(t, db.saved, 1)

	saved, err := svc.SavedLists(ctx, "fan")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, l.ID, saved[0].ID)

	require.NoError(t, svc.UnsaveList(ctx, l.ID, "fan"))
	require.NoError(t, svc.UnsaveList(ctx, l.ID, "fan"))
	assert.Equal(t, 0, db.lists[l.ID].Saves)
	assert.Equal(t, 2, db.calls["lists.increment"])

	saved, err = svc.SavedLists(ctx, "fan")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSavedListsHidesListsThatWentPrivate(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip"})
	require.NoError(t, err)
	require.NoError(t, svc.SaveList(ctx, l.ID, "fan"))

	priv := domain.VisibilityPrivate
	_, err = svc.UpdateList(ctx, l.ID, "owner", UpdateListInput{Visibility: &priv})
	require.NoError(t, err)

	saved, err := svc.SavedLists(ctx, "fan")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestRateList(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip"})
	require.NoError(t, err)

	_, err = svc.RateList(ctx, l.ID, "u1", 0)
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.RateList(ctx, l.ID, "u1", 6)
	assert.ErrorIs(t, err, ErrInvalidRating)

	got, err := svc.RateList(ctx, l.ID, "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.AverageRating())

	got, err = svc.RateList(ctx, l.ID, "u2", 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.AverageRating())

	got, err = svc.RateList(ctx, l.ID, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RatingCount)
	assert.Equal(t, 7, got.RatingSum)
	assert.Len(t, db.ratings, 2)
	assert.Equal(t, 3, db.calls["lists.increment"])
}

func TestCountersMoveByDelta(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip"})
	require.NoError(t, err)
	require.NoError(t, svc.SaveList(ctx, l.ID, "fan"))

	// Another writer moved the counters after this service's last read.
	row := db.lists[l.ID]
	row.Saves += 4
	row.RatingSum, row.RatingCount = 9, 2
	db.lists[l.ID] = row

	require.NoError(t, svc.SaveList(ctx, l.ID, "fan2"))
	got, err := svc.RateList(ctx, l.ID, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Saves)
	assert.Equal(t, 12, got.RatingSum)
	assert.Equal(t, 3, got.RatingCount)
}

func TestPlacesSkipsDanglingRows(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	ids := seedPlaces(db, 3)
	svc := newTestListService(db)
	l, err := svc.CreateList(ctx, "owner", CreateListInput{Title: "Trip", PlaceIDs: ids})
	require.NoError(t, err)
	delete(db.places, "p2")

	ranked, err := svc.Places(ctx, l.ID, "")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "p1", ranked[0].Place.ID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "p3", ranked[1].Place.ID)
	assert.Equal(t, 3, ranked[1].Rank)

	fc, err := svc.Route(ctx, l.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, fc.Features)
}
