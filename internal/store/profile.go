package store

import (
	"context"
	"errors"

	"github.com/sanye891/next-dashboard/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStore manages the 1:1 profile rows keyed by user id.
type ProfileStore struct {
	db *gorm.DB
}

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetOrCreate loads the user's profile, creating it with defaults on first
// access. The insert uses ON CONFLICT DO NOTHING so a concurrent duplicate
// activation degrades to an idempotent get instead of a conflict error.
func (s *ProfileStore) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if err == nil {
		return &profile, nil
	}
	if mapped := mapError(err); !errors.Is(mapped, ErrNotFound) {
		return nil, mapped
	}

	fresh := models.Profile{
		ID:          userID,
		Role:        "user",
		Preferences: datatypes.NewJSONType(models.DefaultPreferences()),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fresh).Error
	if err != nil {
		return nil, mapError(err)
	}

	// re-read: either our insert or the concurrent winner's row
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, mapError(err)
	}
	return &profile, nil
}

// Update patches the mutable profile fields.
func (s *ProfileStore) Update(ctx context.Context, userID uint, name, company string, prefs models.PreferenceSet) error {
	res := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"name":        name,
			"company":     company,
			"preferences": datatypes.NewJSONType(prefs),
		})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar patches only the avatar URL (phase two of the avatar saga).
func (s *ProfileStore) UpdateAvatar(ctx context.Context, userID uint, url string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", userID).
		Update("avatar_url", url)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
