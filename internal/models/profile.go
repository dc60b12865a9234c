package models

import (
	"time"

	"gorm.io/datatypes"
)

// PreferenceSet holds the user's toggleable settings.
type PreferenceSet struct {
	EmailNotifications bool `json:"email_notifications"`
	DarkMode           bool `json:"dark_mode"`
}

// DefaultPreferences returns the preferences a freshly created profile gets.
func DefaultPreferences() PreferenceSet {
	return PreferenceSet{EmailNotifications: true}
}

// Profile extends a User one-to-one; ID doubles as the foreign key. Created
// lazily on first access, never deleted by the application.
type Profile struct {
	ID          uint                                  `gorm:"primaryKey" json:"id"`
	Name        string                                `gorm:"size:64" json:"name"`
	AvatarURL   string                                `gorm:"size:512" json:"avatar_url"`
	Company     string                                `gorm:"size:128" json:"company"`
	Role        string                                `gorm:"size:32;not null;default:user" json:"role"`
	Preferences datatypes.JSONType[PreferenceSet]     `json:"preferences"`
	CreatedAt   time.Time                             `json:"created_at"`
	UpdatedAt   time.Time                             `json:"-"`

	User User `gorm:"foreignKey:ID;constraint:OnDelete:CASCADE" json:"-"`
}
