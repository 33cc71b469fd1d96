package repository

import (
	"context"

	"wayfare/internal/domain"
	"wayfare/internal/models"
	"wayfare/internal/store"

	"gorm.io/gorm"
)

type ListRepository struct {
	col *store.Collection[models.List]
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{col: store.NewCollection[models.List](db, "lists")}
}

func (r *ListRepository) GetByID(ctx context.Context, id string) (*models.List, error) {
	return r.col.One(ctx, id)
}

func (r *ListRepository) GetBySlug(ctx context.Context, slug string) (*models.List, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("slug", slug)})
}

// Public pages through public lists, most saved first.
func (r *ListRepository) Public(ctx context.Context, page, perPage int, search string) (*store.Page[models.List], error) {
	f := store.Eq("visibility", domain.VisibilityPublic)
	if search != "" {
		f = store.And(f, store.Or(store.Like("title", search), store.Like("description", search)))
	}
	return r.col.List(ctx, page, perPage, store.Query{Filter: f, Sort: "-saves,-created_at"})
}

func (r *ListRepository) ByOwner(ctx context.Context, ownerID string) ([]models.List, error) {
	return r.col.FullList(ctx, store.Query{Filter: store.Eq("owner_id", ownerID), Sort: "-updated_at"})
}

func (r *ListRepository) ByIDs(ctx context.Context, ids []string) ([]models.List, error) {
	return r.col.FullList(ctx, store.Query{Filter: store.In("id", ids)})
}

func (r *ListRepository) Create(ctx context.Context, l *models.List) error {
	return r.col.Create(ctx, l)
}

func (r *ListRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return r.col.UpdateFields(ctx, id, fields)
}

func (r *ListRepository) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

// SlugTaken also counts deleted lists, whose rows still hold the slug index.
func (r *ListRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	n, err := r.col.CountWithDeleted(ctx, store.Eq("slug", slug))
	return n > 0, err
}

// Increment applies counter deltas (saves, rating_sum, rating_count) atomically.
func (r *ListRepository) Increment(ctx context.Context, id string, deltas map[string]int) error {
	return r.col.Increment(ctx, id, deltas)
}

// Lock serializes edits to one list's places for the rest of the transaction.
func (r *ListRepository) Lock(ctx context.Context, id string) (*models.List, error) {
	return r.col.OneForUpdate(ctx, id)
}

type ListPlaceRepository struct {
	col *store.Collection[models.ListPlace]
}

func NewListPlaceRepository(db *gorm.DB) *ListPlaceRepository {
	return &ListPlaceRepository{col: store.NewCollection[models.ListPlace](db, "list_places")}
}

// ByList returns the rows of a list in rank order with Place expanded.
// Rows whose place no longer exists come back with a nil Place.
func (r *ListPlaceRepository) ByList(ctx context.Context, listID string) ([]models.ListPlace, error) {
	return r.col.FullList(ctx, store.Query{
		Filter: store.Eq("list_id", listID),
		Sort:   "place_rank",
		Expand: []string{"Place"},
	})
}

func (r *ListPlaceRepository) Get(ctx context.Context, listID, placeID string) (*models.ListPlace, error) {
	return r.col.FirstListItem(ctx, store.Query{
		Filter: store.And(store.Eq("list_id", listID), store.Eq("place_id", placeID)),
	})
}

func (r *ListPlaceRepository) Create(ctx context.Context, lp *models.ListPlace) error {
	return r.col.Create(ctx, lp)
}

func (r *ListPlaceRepository) SetRank(ctx context.Context, id string, rank int) error {
	return r.col.UpdateFields(ctx, id, map[string]any{"place_rank": rank})
}

func (r *ListPlaceRepository) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func (r *ListPlaceRepository) DeleteByList(ctx context.Context, listID string) error {
	_, err := r.col.DeleteWhere(ctx, store.Eq("list_id", listID))
	return err
}

func (r *ListPlaceRepository) CountByList(ctx context.Context, listID string) (int64, error) {
	return r.col.Count(ctx, store.Eq("list_id", listID))
}

type ListLocationRepository struct {
	col *store.Collection[models.ListLocation]
}

func NewListLocationRepository(db *gorm.DB) *ListLocationRepository {
	return &ListLocationRepository{col: store.NewCollection[models.ListLocation](db, "list_locations")}
}

func (r *ListLocationRepository) GetByList(ctx context.Context, listID string) (*models.ListLocation, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("list_id", listID)})
}

// Upsert updates the row for listID if it exists, else creates it.
func (r *ListLocationRepository) Upsert(ctx context.Context, listID string, lat, lng float64) error {
	existing, err := r.GetByList(ctx, listID)
	if err != nil {
		if !store.IsNotFound(err) {
			return err
		}
		return r.col.Create(ctx, &models.ListLocation{ListID: listID, CenterLat: lat, CenterLng: lng})
	}
	return r.col.UpdateFields(ctx, existing.ID, map[string]any{"center_lat": lat, "center_lng": lng})
}

func (r *ListLocationRepository) DeleteByList(ctx context.Context, listID string) error {
	_, err := r.col.DeleteWhere(ctx, store.Eq("list_id", listID))
	return err
}

type SavedListRepository struct {
	col *store.Collection[models.SavedList]
}

func NewSavedListRepository(db *gorm.DB) *SavedListRepository {
	return &SavedListRepository{col: store.NewCollection[models.SavedList](db, "saved_lists")}
}

func (r *SavedListRepository) Get(ctx context.Context, userID, listID string) (*models.SavedList, error) {
	return r.col.FirstListItem(ctx, store.Query{
		Filter: store.And(store.Eq("user_id", userID), store.Eq("list_id", listID)),
	})
}

func (r *SavedListRepository) ByUser(ctx context.Context, userID string) ([]models.SavedList, error) {
	return r.col.FullList(ctx, store.Query{Filter: store.Eq("user_id", userID), Sort: "-created_at"})
}

func (r *SavedListRepository) Create(ctx context.Context, s *models.SavedList) error {
	return r.col.Create(ctx, s)
}

func (r *SavedListRepository) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func (r *SavedListRepository) DeleteByList(ctx context.Context, listID string) error {
	_, err := r.col.DeleteWhere(ctx, store.Eq("list_id", listID))
	return err
}

type ListRatingRepository struct {
	col *store.Collection[models.ListRating]
}

func NewListRatingRepository(db *gorm.DB) *ListRatingRepository {
	return &ListRatingRepository{col: store.NewCollection[models.ListRating](db, "list_ratings")}
}

func (r *ListRatingRepository) Get(ctx context.Context, userID, listID string) (*models.ListRating, error) {
	return r.col.FirstListItem(ctx, store.Query{
		Filter: store.And(store.Eq("user_id", userID), store.Eq("list_id", listID)),
	})
}

func (r *ListRatingRepository) Create(ctx context.Context, rt *models.ListRating) error {
	return r.col.Create(ctx, rt)
}

func (r *ListRatingRepository) SetScore(ctx context.Context, id string, score int) error {
	return r.col.UpdateFields(ctx, id, map[string]any{"score": score})
}
