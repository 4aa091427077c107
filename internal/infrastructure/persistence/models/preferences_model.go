package models

import "time"

// PreferencesSingletonID is the primary key of the only preferences row.
const PreferencesSingletonID = 1

// PreferencesModel is the stored operator preferences.
type PreferencesModel struct {
	ID            uint   `gorm:"primaryKey"`
	Theme         string `gorm:"size:16;not null"`
	Notifications bool   `gorm:"not null"`
	APIKey        string `gorm:"size:512"`
	UpdatedAt     time.Time
}

// TableName sets the table name
func (PreferencesModel) TableName() string {
	return "preferences"
}
