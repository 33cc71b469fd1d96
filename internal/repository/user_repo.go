package repository

import (
	"context"

	"wayfare/internal/models"
	"wayfare/internal/store"

	"gorm.io/gorm"
)

type UserRepository struct {
	col *store.Collection[models.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{col: store.NewCollection[models.User](db, "users")}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.col.Create(ctx, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.col.One(ctx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("email", email)})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("username", username)})
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.col.FirstListItem(ctx, store.Query{Filter: store.Eq("google_id", googleID)})
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	return r.col.Update(ctx, u)
}
