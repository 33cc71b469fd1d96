package models

import (
	"time"

	"gorm.io/gorm"
)

// Place is a point of interest. The backing collection is called "cities"
// for historical reasons even though it holds every place type.
type Place struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Name        string         `gorm:"size:255;not null;index" json:"name"`
	Slug        string         `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Type        string         `gorm:"size:20;not null;index" json:"type"` // immutable once set
	Country     string         `gorm:"size:128;index" json:"country"`
	Description string         `gorm:"type:text" json:"description"`
	Latitude    *float64       `gorm:"type:decimal(10,8)" json:"lat"`
	Longitude   *float64       `gorm:"type:decimal(11,8)" json:"lng"`
	Population  string         `gorm:"size:64" json:"population"`
	Rating      *float64       `json:"rating"`
	Cost        *float64       `json:"cost"`
	CrowdLevel  int            `gorm:"default:0" json:"crowd_level"`
	Tags        StringList     `gorm:"type:text" json:"tags"`
	ImageURL    string         `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Place) TableName() string { return "cities" }

func (p *Place) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

// HasLocation is false for unresolved records (nil or 0,0).
func (p *Place) HasLocation() bool {
	if p.Latitude == nil || p.Longitude == nil {
		return false
	}
	return !(*p.Latitude == 0 && *p.Longitude == 0)
}

type Tag struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Label      string    `gorm:"size:128;not null" json:"label"`
	Identifier string    `gorm:"size:64;uniqueIndex;not null" json:"identifier"`
	Active     bool      `gorm:"default:true" json:"active"`
	SortOrder  int       `gorm:"default:0" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Tag) TableName() string { return "tags" }

func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	return nil
}

// PlacePhoto is an uploaded image of a place.
type PlacePhoto struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	PlaceID      string    `gorm:"size:36;not null;index" json:"place_id"`
	UploaderID   string    `gorm:"size:36;not null;index" json:"uploader_id"`
	URL          string    `gorm:"size:512;not null" json:"url"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

func (PlacePhoto) TableName() string { return "place_photos" }

func (p *PlacePhoto) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}
