package entity

import (
	"strings"
	"time"
)

// Console themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences are the operator's local console settings.
type Preferences struct {
	Theme         string    `json:"theme" yaml:"theme"`
	Notifications bool      `json:"notifications" yaml:"notifications"`
	APIKey        string    `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// DefaultPreferences returns the settings a fresh install starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         ThemeDark,
		Notifications: true,
	}
}

// Validate checks the theme value.
func (p Preferences) Validate() error {
	switch p.Theme {
	case ThemeDark, ThemeLight:
		return nil
	default:
		return ErrInvalidTheme
	}
}

// MaskedAPIKey hides all but the last four characters of the key.
func (p Preferences) MaskedAPIKey() string {
	key := strings.TrimSpace(p.APIKey)
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("•", len(key))
	}
	return strings.Repeat("•", 8) + key[len(key)-4:]
}
