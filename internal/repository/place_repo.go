package repository

import (
	"context"
	"strconv"

	"wayfare/internal/models"
	"wayfare/internal/store"

	"gorm.io/gorm"
)

type PlaceRepository struct {
	col *store.Collection[models.Place]
}

func NewPlaceRepository(db *gorm.DB) *PlaceRepository {
	return &PlaceRepository{col: store.NewCollection[models.Place](db, "cities")}
}

// All returns the full catalog in name order.
func (r *PlaceRepository) All(ctx context.Context) ([]models.Place, error) {
	return r.col.FullList(ctx, store.Query{Sort: "name"})
}

func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*models.Place, error) {
	return r.col.One(ctx, id)
}

func (r *PlaceRepository) GetBySlug(ctx context.Context, slug string) (*models.Place, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("slug", slug)})
}

func (r *PlaceRepository) ByIDs(ctx context.Context, ids []string) ([]models.Place, error) {
	return r.col.FullList(ctx, store.Query{Filter: store.In("id", ids)})
}

// WithTag matches the quoted id inside the JSON tags column.
func (r *PlaceRepository) WithTag(ctx context.Context, tagID string) ([]models.Place, error) {
	return r.col.FullList(ctx, store.Query{Filter: store.Like("tags", strconv.Quote(tagID)), Sort: "name"})
}

// Search pages through places by name and optional type.
func (r *PlaceRepository) Search(ctx context.Context, page, perPage int, q, placeType string) (*store.Page[models.Place], error) {
	var f []store.Filter
	if q != "" {
		f = append(f, store.Like("name", q))
	}
	if placeType != "" {
		f = append(f, store.Eq("type", placeType))
	}
	return r.col.List(ctx, page, perPage, store.Query{Filter: store.And(f...), Sort: "name"})
}

func (r *PlaceRepository) Create(ctx context.Context, p *models.Place) error {
	return r.col.Create(ctx, p)
}

func (r *PlaceRepository) Update(ctx context.Context, p *models.Place) error {
	return r.col.Update(ctx, p)
}

func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func (r *PlaceRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	n, err := r.col.CountWithDeleted(ctx, store.Eq("slug", slug))
	return n > 0, err
}

type TagRepository struct {
	col *store.Collection[models.Tag]
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{col: store.NewCollection[models.Tag](db, "tags")}
}

// Active returns enabled tags in display order.
func (r *TagRepository) Active(ctx context.Context) ([]models.Tag, error) {
	return r.col.FullList(ctx, store.Query{Filter: store.Eq("active", true), Sort: "sort_order,label"})
}

func (r *TagRepository) All(ctx context.Context) ([]models.Tag, error) {
	return r.col.FullList(ctx, store.Query{Sort: "sort_order,label"})
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	return r.col.One(ctx, id)
}

func (r *TagRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Tag, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("identifier", identifier)})
}

func (r *TagRepository) Create(ctx context.Context, t *models.Tag) error {
	return r.col.Create(ctx, t)
}

type PhotoRepository struct {
	col *store.Collection[models.PlacePhoto]
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{col: store.NewCollection[models.PlacePhoto](db, "place_photos")}
}

func (r *PhotoRepository) ByPlace(ctx context.Context, placeID string) ([]models.PlacePhoto, error) {
	return r.col.FullList(ctx, store.Query{Filter: store.Eq("place_id", placeID), Sort: "-created_at"})
}

func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.PlacePhoto, error) {
	return r.col.One(ctx, id)
}

func (r *PhotoRepository) Create(ctx context.Context, p *models.PlacePhoto) error {
	return r.col.Create(ctx, p)
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}
