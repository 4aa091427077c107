package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/infrastructure/persistence/models"
	domainErrors "github.com/agentops/console/pkg/errors"
)

// GormPreferencesRepository stores preferences in a single-row table.
type GormPreferencesRepository struct {
	db *gorm.DB
}

// NewGormPreferencesRepository creates the repository.
func NewGormPreferencesRepository(db *gorm.DB) repository.PreferencesRepository {
	return &GormPreferencesRepository{db: db}
}

// Load returns the stored row or the defaults.
func (r *GormPreferencesRepository) Load(ctx context.Context) (entity.Preferences, error) {
	var model models.PreferencesModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", models.PreferencesSingletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.DefaultPreferences(), nil
	}
	if err != nil {
		return entity.Preferences{}, domainErrors.NewInternalErrorWithCause("failed to load preferences", err)
	}
	return entity.Preferences{
		Theme:         model.Theme,
		Notifications: model.Notifications,
		APIKey:        model.APIKey,
		UpdatedAt:     model.UpdatedAt,
	}, nil
}

// Save upserts the row.
func (r *GormPreferencesRepository) Save(ctx context.Context, prefs entity.Preferences) error {
	model := models.PreferencesModel{
		ID:            models.PreferencesSingletonID,
		Theme:         prefs.Theme,
		Notifications: prefs.Notifications,
		APIKey:        prefs.APIKey,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"theme", "notifications", "api_key", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to save preferences", err)
	}
	return nil
}
