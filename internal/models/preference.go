package models

import (
	"time"

	"gorm.io/gorm"
)

// UserPreference holds the tags and places a user follows. One row per user.
type UserPreference struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"size:36;not null;uniqueIndex" json:"user_id"`
	Tags      StringList `gorm:"type:text" json:"tags"`
	Places    StringList `gorm:"type:text" json:"places"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (UserPreference) TableName() string { return "user_preferences" }

func (p *UserPreference) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}
