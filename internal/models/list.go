package models

import (
	"time"

	"gorm.io/gorm"
)

type List struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Slug        string         `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	OwnerID     string         `gorm:"size:36;not null;index" json:"owner_id"`
	Visibility  string         `gorm:"size:16;not null;default:'public';index" json:"visibility"`
	PlaceCount  int            `gorm:"not null;default:0" json:"place_count"`
	Saves       int            `gorm:"not null;default:0" json:"saves"`
	RatingSum   int            `gorm:"not null;default:0" json:"rating_sum"`
	RatingCount int            `gorm:"not null;default:0" json:"rating_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (List) TableName() string { return "lists" }

func (l *List) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = newID()
	}
	return nil
}

// AverageRating is 0 for an unrated list.
func (l *List) AverageRating() float64 {
	if l.RatingCount == 0 {
		return 0
	}
	return float64(l.RatingSum) / float64(l.RatingCount)
}

// ListPlace joins a list to a place at a 1-based rank.
type ListPlace struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ListID    string    `gorm:"size:36;not null;uniqueIndex:idx_list_place" json:"list_id"`
	PlaceID   string    `gorm:"size:36;not null;uniqueIndex:idx_list_place;index" json:"place_id"`
	Rank      int       `gorm:"column:place_rank;not null" json:"rank"`
	CreatedAt time.Time `json:"created_at"`

	Place *Place `gorm:"foreignKey:PlaceID;constraint:-" json:"place,omitempty"`
}

func (ListPlace) TableName() string { return "list_places" }

func (lp *ListPlace) BeforeCreate(*gorm.DB) error {
	if lp.ID == "" {
		lp.ID = newID()
	}
	return nil
}

// ListLocation caches the centroid of a list's places.
type ListLocation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ListID    string    `gorm:"size:36;not null;uniqueIndex" json:"list_id"`
	CenterLat float64   `gorm:"not null" json:"center_lat"`
	CenterLng float64   `gorm:"not null" json:"center_lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ListLocation) TableName() string { return "list_locations" }

func (ll *ListLocation) BeforeCreate(*gorm.DB) error {
	if ll.ID == "" {
		ll.ID = newID()
	}
	return nil
}

type SavedList struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_saved_user_list" json:"user_id"`
	ListID    string    `gorm:"size:36;not null;uniqueIndex:idx_saved_user_list;index" json:"list_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (SavedList) TableName() string { return "saved_lists" }

func (s *SavedList) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

// ListRating is one user's score for a list; List keeps the aggregate.
type ListRating struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_rating_user_list" json:"user_id"`
	ListID    string    `gorm:"size:36;not null;uniqueIndex:idx_rating_user_list;index" json:"list_id"`
	Score     int       `gorm:"not null" json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ListRating) TableName() string { return "list_ratings" }

func (r *ListRating) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}
