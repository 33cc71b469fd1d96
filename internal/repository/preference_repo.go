package repository

import (
	"context"

	"wayfare/internal/models"
	"wayfare/internal/store"

	"gorm.io/gorm"
)

type PreferenceRepository struct {
	col *store.Collection[models.UserPreference]
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{col: store.NewCollection[models.UserPreference](db, "user_preferences")}
}

// GetByUser returns store.ErrNotFound when the user has never followed anything.
func (r *PreferenceRepository) GetByUser(ctx context.Context, userID string) (*models.UserPreference, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("user_id", userID)})
}

func (r *PreferenceRepository) Save(ctx context.Context, p *models.UserPreference) error {
	if p.ID == "" {
		return r.col.Create(ctx, p)
	}
	return r.col.Update(ctx, p)
}
