package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"wayfare/internal/domain"
	"wayfare/internal/models"
	"wayfare/internal/store"
	"wayfare/pkg/geojson"
	"wayfare/pkg/mapview"

	orbjson "github.com/paulmach/orb/geojson"
)

type ListStore interface {
	GetByID(ctx context.Context, id string) (*models.List, error)
	GetBySlug(ctx context.Context, slug string) (*models.List, error)
	Public(ctx context.Context, page, perPage int, search string) (*store.Page[models.List], error)
	ByOwner(ctx context.Context, ownerID string) ([]models.List, error)
	ByIDs(ctx context.Context, ids []string) ([]models.List, error)
	Create(ctx context.Context, l *models.List) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Increment(ctx context.Context, id string, deltas map[string]int) error
	Lock(ctx context.Context, id string) (*models.List, error)
}

type ListPlaceStore interface {
	ListPlaceReader
	Get(ctx context.Context, listID, placeID string) (*models.ListPlace, error)
	Create(ctx context.Context, lp *models.ListPlace) error
	SetRank(ctx context.Context, id string, rank int) error
	Delete(ctx context.Context, id string) error
	DeleteByList(ctx context.Context, listID string) error
	CountByList(ctx context.Context, listID string) (int64, error)
}

type ListLocationStore interface {
	ListLocationWriter
	GetByList(ctx context.Context, listID string) (*models.ListLocation, error)
	DeleteByList(ctx context.Context, listID string) error
}

type SavedListStore interface {
	Get(ctx context.Context, userID, listID string) (*models.SavedList, error)
	ByUser(ctx context.Context, userID string) ([]models.SavedList, error)
	Create(ctx context.Context, s *models.SavedList) error
	Delete(ctx context.Context, id string) error
	DeleteByList(ctx context.Context, listID string) error
}

type ListRatingStore interface {
	Get(ctx context.Context, userID, listID string) (*models.ListRating, error)
	Create(ctx context.Context, r *models.ListRating) error
	SetScore(ctx context.Context, id string, score int) error
}

// ListDeps groups the stores a ListService needs.
type ListDeps struct {
	Tx         Transactor
	Lists      ListStore
	ListPlaces ListPlaceStore
	Locations  ListLocationStore
	Places     PlaceStore
	Saved      SavedListStore
	Ratings    ListRatingStore
}

type ListService struct {
	tx         Transactor
	lists      ListStore
	listPlaces ListPlaceStore
	locations  ListLocationStore
	places     PlaceStore
	saved      SavedListStore
	ratings    ListRatingStore
	center     *ListCenter
}

func NewListService(d ListDeps) *ListService {
	return &ListService{
		tx:         d.Tx,
		lists:      d.Lists,
		listPlaces: d.ListPlaces,
		locations:  d.Locations,
		places:     d.Places,
		saved:      d.Saved,
		ratings:    d.Ratings,
		center:     NewListCenter(d.ListPlaces, d.Locations),
	}
}

type CreateListInput struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility"`
	PlaceIDs    []string `json:"place_ids"`
}

type UpdateListInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
}

// RankedPlace is a list member in rank order.
type RankedPlace struct {
	Rank  int           `json:"rank"`
	Place mapview.Place `json:"place"`
}

// CreateList creates the list and its initial members with ranks 1..N.
func (s *ListService) CreateList(ctx context.Context, ownerID string, in CreateListInput) (*models.List, error) {
	visibility := in.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	if !domain.ValidVisibility(visibility) {
		return nil, ErrInvalidVisibility
	}
	title := strings.TrimSpace(in.Title)
	base := Slugify(in.Slug)
	if base == "" {
		base = Slugify(title)
	}
	if base == "" {
		return nil, ErrInvalidName
	}
	list := &models.List{
		Title:       title,
		Description: in.Description,
		OwnerID:     ownerID,
		Visibility:  visibility,
	}
	_, err := s.run(ctx, "create", "", len(in.PlaceIDs) > 0, func(ctx context.Context, m *Mutation) error {
		slug, err := firstFreeSlug(base, func(slug string) (bool, error) {
			return s.SlugExists(ctx, slug)
		})
		if err != nil {
			return err
		}
		list.Slug = slug
		if err := s.lists.Create(ctx, list); err != nil {
			return err
		}
		m.ListID = list.ID
		seen := make(map[string]struct{}, len(in.PlaceIDs))
		for i, placeID := range in.PlaceIDs {
			if _, dup := seen[placeID]; dup {
				return fmt.Errorf("%w: %s", ErrPlaceAlreadyInList, placeID)
			}
			seen[placeID] = struct{}{}
			if _, err := s.places.GetByID(ctx, placeID); err != nil {
				return err
			}
			if err := s.listPlaces.Create(ctx, &models.ListPlace{ListID: list.ID, PlaceID: placeID, Rank: i + 1}); err != nil {
				return err
			}
		}
		list.PlaceCount = len(in.PlaceIDs)
		return s.lists.UpdateFields(ctx, list.ID, map[string]any{"place_count": list.PlaceCount})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[LISTS] created list=%s owner=%s places=%d", list.ID, ownerID, list.PlaceCount)
	return list, nil
}

// canView applies visibility: private lists are visible to their owner only;
// unlisted and public lists to anyone holding the id.
func canView(l *models.List, viewerID string) bool {
	return l.Visibility != domain.VisibilityPrivate || (viewerID != "" && l.OwnerID == viewerID)
}

// GetList hides private lists from non-owners behind store.ErrNotFound.
func (s *ListService) GetList(ctx context.Context, id, viewerID string) (*models.List, error) {
	l, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(l, viewerID) {
		return nil, fmt.Errorf("lists %s: %w", id, store.ErrNotFound)
	}
	return l, nil
}

func (s *ListService) owned(ctx context.Context, id, userID string) (*models.List, error) {
	l, err := s.GetList(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != userID {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *ListService) ListPublic(ctx context.Context, page, perPage int, search string) (*store.Page[models.List], error) {
	return s.lists.Public(ctx, page, perPage, search)
}

func (s *ListService) ListMine(ctx context.Context, ownerID string) ([]models.List, error) {
	return s.lists.ByOwner(ctx, ownerID)
}

func (s *ListService) UpdateList(ctx context.Context, id, userID string, in UpdateListInput) (*models.List, error) {
	l, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Title != nil {
		l.Title = strings.TrimSpace(*in.Title)
		fields["title"] = l.Title
	}
	if in.Description != nil {
		l.Description = *in.Description
		fields["description"] = l.Description
	}
	if in.Visibility != nil {
		if !domain.ValidVisibility(*in.Visibility) {
			return nil, ErrInvalidVisibility
		}
		l.Visibility = *in.Visibility
		fields["visibility"] = l.Visibility
	}
	if len(fields) == 0 {
		return l, nil
	}
	if _, err := s.run(ctx, "update", id, false, func(ctx context.Context, _ *Mutation) error {
		return s.lists.UpdateFields(ctx, id, fields)
	}); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteList removes the list with its members, centroid and saves.
func (s *ListService) DeleteList(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	_, err := s.run(ctx, "delete", id, false, func(ctx context.Context, _ *Mutation) error {
		if err := s.listPlaces.DeleteByList(ctx, id); err != nil {
			return err
		}
		if err := s.locations.DeleteByList(ctx, id); err != nil {
			return err
		}
		if err := s.saved.DeleteByList(ctx, id); err != nil {
			return err
		}
		return s.lists.Delete(ctx, id)
	})
	return err
}

// AddPlace appends placeID at rank N+1. The list row is locked first so two
// concurrent appends cannot both read N.
func (s *ListService) AddPlace(ctx context.Context, listID, userID, placeID string) (*models.ListPlace, error) {
	if _, err := s.owned(ctx, listID, userID); err != nil {
		return nil, err
	}
	var lp *models.ListPlace
	_, err := s.run(ctx, "add_place", listID, true, func(ctx context.Context, _ *Mutation) error {
		if _, err := s.lists.Lock(ctx, listID); err != nil {
			return err
		}
		if _, err := s.places.GetByID(ctx, placeID); err != nil {
			return err
		}
		found, err := exists(s.listPlacesGet(ctx, listID, placeID))
		if err != nil {
			return err
		}
		if found {
			return ErrPlaceAlreadyInList
		}
		n, err := s.listPlaces.CountByList(ctx, listID)
		if err != nil {
			return err
		}
		lp = &models.ListPlace{ListID: listID, PlaceID: placeID, Rank: int(n) + 1}
		if err := s.listPlaces.Create(ctx, lp); err != nil {
			return err
		}
		return s.syncPlaceCount(ctx, listID)
	})
	if err != nil {
		return nil, err
	}
	return lp, nil
}

func (s *ListService) listPlacesGet(ctx context.Context, listID, placeID string) error {
	_, err := s.listPlaces.Get(ctx, listID, placeID)
	return err
}

// RemovePlace deletes placeID from the list and closes the rank gap so the
// remaining rows stay 1..N.
func (s *ListService) RemovePlace(ctx context.Context, listID, userID, placeID string) error {
	if _, err := s.owned(ctx, listID, userID); err != nil {
		return err
	}
	_, err := s.run(ctx, "remove_place", listID, true, func(ctx context.Context, _ *Mutation) error {
		if _, err := s.lists.Lock(ctx, listID); err != nil {
			return err
		}
		rows, err := s.listPlaces.ByList(ctx, listID)
		if err != nil {
			return err
		}
		remaining := make([]models.ListPlace, 0, len(rows))
		removed := false
		for _, lp := range rows {
			if lp.PlaceID == placeID && !removed {
				if err := s.listPlaces.Delete(ctx, lp.ID); err != nil {
					return err
				}
				removed = true
				continue
			}
			remaining = append(remaining, lp)
		}
		if !removed {
			return ErrPlaceNotInList
		}
		if err := s.rerank(ctx, remaining); err != nil {
			return err
		}
		return s.syncPlaceCount(ctx, listID)
	})
	return err
}

// ReorderPlaces assigns ranks following placeIDs, which must be a
// permutation of the list's members. The centroid does not depend on order.
func (s *ListService) ReorderPlaces(ctx context.Context, listID, userID string, placeIDs []string) error {
	if _, err := s.owned(ctx, listID, userID); err != nil {
		return err
	}
	_, err := s.run(ctx, "reorder", listID, false, func(ctx context.Context, _ *Mutation) error {
		if _, err := s.lists.Lock(ctx, listID); err != nil {
			return err
		}
		rows, err := s.listPlaces.ByList(ctx, listID)
		if err != nil {
			return err
		}
		if len(rows) != len(placeIDs) {
			return ErrInvalidOrder
		}
		byPlace := make(map[string]models.ListPlace, len(rows))
		for _, lp := range rows {
			byPlace[lp.PlaceID] = lp
		}
		ordered := make([]models.ListPlace, 0, len(rows))
		for _, id := range placeIDs {
			lp, ok := byPlace[id]
			if !ok {
				return ErrInvalidOrder
			}
			delete(byPlace, id)
			ordered = append(ordered, lp)
		}
		return s.rerank(ctx, ordered)
	})
	return err
}

// rerank writes rank i+1 to the i-th row where it differs.
func (s *ListService) rerank(ctx context.Context, rows []models.ListPlace) error {
	for i, lp := range rows {
		if lp.Rank == i+1 {
			continue
		}
		if err := s.listPlaces.SetRank(ctx, lp.ID, i+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *ListService) syncPlaceCount(ctx context.Context, listID string) error {
	n, err := s.listPlaces.CountByList(ctx, listID)
	if err != nil {
		return err
	}
	return s.lists.UpdateFields(ctx, listID, map[string]any{"place_count": int(n)})
}

// Places returns the list's members in rank order. Rows whose place is gone
// or malformed are skipped.
func (s *ListService) Places(ctx context.Context, listID, viewerID string) ([]RankedPlace, error) {
	if _, err := s.GetList(ctx, listID, viewerID); err != nil {
		return nil, err
	}
	rows, err := s.listPlaces.ByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	out := make([]RankedPlace, 0, len(rows))
	for _, lp := range rows {
		if lp.Place == nil {
			continue
		}
		p, err := NormalizePlace(*lp.Place)
		if err != nil {
			log.Printf("[LISTS] list=%s: %v", listID, err)
			continue
		}
		out = append(out, RankedPlace{Rank: lp.Rank, Place: p})
	}
	return out, nil
}

// Route renders the list as GeoJSON markers joined in rank order.
func (s *ListService) Route(ctx context.Context, listID, viewerID string) (*orbjson.FeatureCollection, error) {
	ranked, err := s.Places(ctx, listID, viewerID)
	if err != nil {
		return nil, err
	}
	places := make([]mapview.Place, len(ranked))
	for i, rp := range ranked {
		places[i] = rp.Place
	}
	return geojson.Route(listID, places), nil
}

// Center returns the stored centroid; store.ErrNotFound when none was ever
// computed.
func (s *ListService) Center(ctx context.Context, listID, viewerID string) (*models.ListLocation, error) {
	if _, err := s.GetList(ctx, listID, viewerID); err != nil {
		return nil, err
	}
	return s.locations.GetByList(ctx, listID)
}

// RecomputeCenter exposes the centroid update for callers that changed
// membership outside this service.
func (s *ListService) RecomputeCenter(ctx context.Context, listID string) error {
	_, err := s.run(ctx, "recompute", listID, true, func(ctx context.Context, _ *Mutation) error {
		_, err := s.lists.GetByID(ctx, listID)
		return err
	})
	return err
}

// SaveList bookmarks the list for userID. Saving twice is a no-op.
func (s *ListService) SaveList(ctx context.Context, listID, userID string) error {
	if _, err := s.GetList(ctx, listID, userID); err != nil {
		return err
	}
	_, err := s.run(ctx, "save", listID, false, func(ctx context.Context, _ *Mutation) error {
		_, err := s.saved.Get(ctx, userID, listID)
		found, err := exists(err)
		if err != nil || found {
			return err
		}
		if err := s.saved.Create(ctx, &models.SavedList{UserID: userID, ListID: listID}); err != nil {
			return err
		}
		return s.bumpSaves(ctx, listID, 1)
	})
	return err
}

func (s *ListService) UnsaveList(ctx context.Context, listID, userID string) error {
	_, err := s.run(ctx, "unsave", listID, false, func(ctx context.Context, _ *Mutation) error {
		sl, err := s.saved.Get(ctx, userID, listID)
		found, err := exists(err)
		if err != nil || !found {
			return err
		}
		if err := s.saved.Delete(ctx, sl.ID); err != nil {
			return err
		}
		return s.bumpSaves(ctx, listID, -1)
	})
	return err
}

// bumpSaves moves the counter in place. The saved row was created or
// deleted in the same transaction, so the count cannot drop below zero.
func (s *ListService) bumpSaves(ctx context.Context, listID string, delta int) error {
	return s.lists.Increment(ctx, listID, map[string]int{"saves": delta})
}

// SavedLists returns the lists userID bookmarked that they can still see.
func (s *ListService) SavedLists(ctx context.Context, userID string) ([]models.List, error) {
	saved, err := s.saved.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return []models.List{}, nil
	}
	ids := make([]string, len(saved))
	for i, sl := range saved {
		ids[i] = sl.ListID
	}
	lists, err := s.lists.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := lists[:0]
	for _, l := range lists {
		if canView(&l, userID) {
			out = append(out, l)
		}
	}
	return out, nil
}

// RateList records userID's score; rating again replaces the earlier score.
func (s *ListService) RateList(ctx context.Context, listID, userID string, score int) (*models.List, error) {
	if score < domain.MinListRating || score > domain.MaxListRating {
		return nil, ErrInvalidRating
	}
	if _, err := s.GetList(ctx, listID, userID); err != nil {
		return nil, err
	}
	var out *models.List
	_, err := s.run(ctx, "rate", listID, false, func(ctx context.Context, _ *Mutation) error {
		prev, err := s.ratings.Get(ctx, userID, listID)
		found, err := exists(err)
		if err != nil {
			return err
		}
		deltas := map[string]int{"rating_sum": score, "rating_count": 1}
		if found {
			deltas = map[string]int{"rating_sum": score - prev.Score}
			if err := s.ratings.SetScore(ctx, prev.ID, score); err != nil {
				return err
			}
		} else if err := s.ratings.Create(ctx, &models.ListRating{UserID: userID, ListID: listID, Score: score}); err != nil {
			return err
		}
		if err := s.lists.Increment(ctx, listID, deltas); err != nil {
			return err
		}
		out, err = s.lists.GetByID(ctx, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SlugExists reports whether any list uses slug. A deleted list keeps its
// slug reserved.
func (s *ListService) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.lists.SlugTaken(ctx, slug)
}
