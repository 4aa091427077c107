package repository

import (
	"context"

	"github.com/agentops/console/internal/domain/entity"
)

// PreferencesRepository stores the single preferences record.
type PreferencesRepository interface {
	// Load returns the stored preferences, or the defaults when none exist.
	Load(ctx context.Context) (entity.Preferences, error)

	// Save replaces the stored preferences.
	Save(ctx context.Context, prefs entity.Preferences) error
}
