package repository

import (
	"context"
	"time"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers        int64            `json:"total_users"`
	TotalPlaces       int64            `json:"total_places"`
	PlacesByType      map[string]int64 `json:"places_by_type"`
	UnlocatedPlaces   int64            `json:"unlocated_places"`
	TotalLists        int64            `json:"total_lists"`
	PublicLists       int64            `json:"public_lists"`
	ListsWithoutPlace int64            `json:"lists_without_place"`
	TotalSaves        int64            `json:"total_saves"`
	TotalRatings      int64            `json:"total_ratings"`
	TotalPhotos       int64            `json:"total_photos"`
	ActiveTags        int64            `json:"active_tags"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AdminRepository answers the back-office queries that span several tables.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	s := DashboardStats{PlacesByType: map[string]int64{}}

	counts := []struct {
		q   *gorm.DB
		dst *int64
	}{
		{db.Model(&models.User{}), &s.TotalUsers},
		{db.Model(&models.Place{}), &s.TotalPlaces},
		{db.Model(&models.Place{}).Where("latitude IS NULL OR longitude IS NULL OR (latitude = 0 AND longitude = 0)"), &s.UnlocatedPlaces},
		{db.Model(&models.List{}), &s.TotalLists},
		{db.Model(&models.List{}).Where("visibility = ?", "public"), &s.PublicLists},
		{db.Model(&models.List{}).Where("place_count = 0"), &s.ListsWithoutPlace},
		{db.Model(&models.SavedList{}), &s.TotalSaves},
		{db.Model(&models.ListRating{}), &s.TotalRatings},
		{db.Model(&models.PlacePhoto{}), &s.TotalPhotos},
		{db.Model(&models.Tag{}).Where("active = ?", true), &s.ActiveTags},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	var byType []struct {
		Type  string
		Count int64
	}
	if err := db.Model(&models.Place{}).Select("type, COUNT(*) as count").Group("type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, t := range byType {
		s.PlacesByType[t.Type] = t.Count
	}
	return &s, nil
}

// ListUsers returns users with search, role filter, and pagination.
func (r *AdminRepository) ListUsers(ctx context.Context, search, role string, page, limit int) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		q = q.Where("username LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}

// SetUserRole returns gorm.ErrRecordNotFound when no user has the id.
func (r *AdminRepository) SetUserRole(ctx context.Context, id, role string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AdminRepository) byDay(ctx context.Context, model any, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(model).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}

// UserSignupsByDay returns daily signup counts for the last N days.
func (r *AdminRepository) UserSignupsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	return r.byDay(ctx, &models.User{}, days)
}

// ListsByDay returns daily list creations for the last N days.
func (r *AdminRepository) ListsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	return r.byDay(ctx, &models.List{}, days)
}

// SavesByDay returns daily list saves for the last N days.
func (r *AdminRepository) SavesByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	return r.byDay(ctx, &models.SavedList{}, days)
}
