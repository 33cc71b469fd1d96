package service

import (
	"context"
	"testing"

	"wayfare/internal/models"
	"wayfare/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(db *memDB) *FeedService {
	return NewFeedService(memTx{db}, memPrefs{db}, memPlaces{db}, memTags{db})
}

func TestFollowAndUnfollow(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.tags["t1"] = models.Tag{ID: "t1", Identifier: "food", Label: "Food", Active: true}
	db.addPlace("p1", "Rome", "city", fptr(41.9), fptr(12.5))
	svc := newTestFeed(db)

	empty, err := svc.Preferences(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, empty.Tags)
	assert.Empty(t, db.prefs)

	_, err = svc.FollowTag(ctx, "u1", "t1")
	require.NoError(t, err)
	p, err := svc.FollowTag(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"t1"}, p.Tags)
	assert.Equal(t, 1, db.calls["prefs.save"])

	_, err = svc.FollowTag(ctx, "u1", "nope")
	assert.True(t, store.IsNotFound(err))

	p, err = svc.FollowPlace(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"p1"}, p.Places)
	_, err = svc.FollowPlace(ctx, "u1", "ghost")
	assert.True(t, store.IsNotFound(err))

	p, err = svc.UnfollowTag(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Empty(t, p.Tags)
	p, err = svc.UnfollowPlace(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Empty(t, p.Places)

	saves := db.calls["prefs.save"]
	_, err = svc.UnfollowPlace(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, saves, db.calls["prefs.save"])
}

func TestFeedSections(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	db.tags["t1"] = models.Tag{ID: "t1", Identifier: "beach", Label: "Beaches", Active: true, SortOrder: 2}
	db.tags["t2"] = models.Tag{ID: "t2", Identifier: "museum", Label: "Museums", Active: true, SortOrder: 1}
	db.tags["t3"] = models.Tag{ID: "t3", Identifier: "retired", Label: "Retired", Active: false}

	add := func(id, name string, rating float64, tags ...string) {
		p := db.addPlace(id, name, "sight", fptr(1), fptr(1))
		p.Rating = fptr(rating)
		p.Tags = tags
		db.places[id] = p
	}
	add("a", "Alpha", 2, "t1")
	add("b", "Bravo", 4, "t1", "t2")
	add("c", "Charlie", 5, "t2")
	db.prefs["u1"] = models.UserPreference{ID: "pref", UserID: "u1", Tags: models.StringList{"t1", "t3", "t2", "gone"}, Places: models.StringList{"c"}}

	feed, err := newTestFeed(db).Feed(ctx, "u1")
	require.NoError(t, err)

	require.Len(t, feed.Followed, 1)
	assert.Equal(t, "c", feed.Followed[0].ID)

	require.Len(t, feed.Sections, 2)
	beach := feed.Sections[0]
	assert.Equal(t, "beach", beach.Tag)
	assert.Equal(t, "Beaches", beach.Label)
	require.Len(t, beach.Places, 2)
	assert.Equal(t, "b", beach.Places[0].ID)
	assert.InDelta(t, 2.8, beach.Scores["b"], 1e-9)
	assert.InDelta(t, 1.4, beach.Scores["a"], 1e-9)

	museum := feed.Sections[1]
	assert.Equal(t, "museum", museum.Tag)
	require.Len(t, museum.Places, 2)
	assert.Equal(t, "c", museum.Places[0].ID)
	assert.InDelta(t, 5, museum.Scores["c"], 1e-9)
}

func TestFeedForNewUser(t *testing.T) {
	feed, err := newTestFeed(newMemDB()).Feed(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, feed.Followed)
	assert.Empty(t, feed.Sections)
}
