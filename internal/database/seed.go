package database

import (
	"errors"
	"log"
	"strings"

	"wayfare/config"
	"wayfare/internal/domain"
	"wayfare/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultTags are created on first boot so the explorer has filters to offer.
var DefaultTags = []models.Tag{
	{Identifier: "beach", Label: "Beach", SortOrder: 1},
	{Identifier: "mountains", Label: "Mountains", SortOrder: 2},
	{Identifier: "food", Label: "Food", SortOrder: 3},
	{Identifier: "culture", Label: "Culture", SortOrder: 4},
	{Identifier: "nightlife", Label: "Nightlife", SortOrder: 5},
	{Identifier: "nature", Label: "Nature", SortOrder: 6},
}

// SeedAdmin creates the configured admin account if it does not exist yet and
// promotes an existing account with that email. Nothing happens when
// ADMIN_EMAIL or ADMIN_PASSWORD is unset.
func SeedAdmin(db *gorm.DB, cfg *config.DatabaseConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}
	var u models.User
	err := db.Where("email = ?", email).First(&u).Error
	if err == nil {
		if u.Role == domain.RoleAdmin {
			return nil
		}
		log.Printf("[SEED] promoting %s to admin", email)
		return db.Model(&u).Update("role", domain.RoleAdmin).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u = models.User{
		Username:     "admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(&u).Error; err != nil {
		return err
	}
	log.Printf("[SEED] admin %s created", email)
	return nil
}

// SeedTags inserts DefaultTags when the tags table is empty.
func SeedTags(db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Tag{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	tags := make([]models.Tag, len(DefaultTags))
	for i, t := range DefaultTags {
		t.Active = true
		tags[i] = t
	}
	return db.Create(&tags).Error
}
