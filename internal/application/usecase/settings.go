package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
	"github.com/agentops/console/internal/infrastructure/eventbus"
	apperrors "github.com/agentops/console/pkg/errors"
)

// MsgSettingsSaved is the notice shown after a successful save.
const MsgSettingsSaved = "Settings saved successfully!"

// CredentialSink receives the API key whenever it changes.
type CredentialSink interface {
	SetAPIKey(key string)
}

// SettingsUseCase loads and saves the operator's preferences.
type SettingsUseCase struct {
	prefs  repository.PreferencesRepository
	sink   CredentialSink
	events publisher
	logger *zap.Logger
}

// NewSettingsUseCase creates the use case. sink and bus may be nil.
func NewSettingsUseCase(prefs repository.PreferencesRepository, sink CredentialSink, bus eventbus.Bus, logger *zap.Logger) *SettingsUseCase {
	return &SettingsUseCase{
		prefs:  prefs,
		sink:   sink,
		events: publisher{bus: bus},
		logger: logger.With(zap.String("usecase", "settings")),
	}
}

// Load returns the stored preferences.
func (uc *SettingsUseCase) Load(ctx context.Context) (entity.Preferences, error) {
	return uc.prefs.Load(ctx)
}

// Save validates and stores prefs and applies the API key to the backend
// client.
func (uc *SettingsUseCase) Save(ctx context.Context, prefs entity.Preferences) (entity.Preferences, error) {
	prefs.Theme = strings.ToLower(strings.TrimSpace(prefs.Theme))
	prefs.APIKey = strings.TrimSpace(prefs.APIKey)
	if err := prefs.Validate(); err != nil {
		return entity.Preferences{}, apperrors.NewInvalidInputErrorWithCause(err.Error(), err)
	}

	err := uc.prefs.Save(ctx, prefs)
	uc.events.publish(ctx, entity.ActivitySettingsSaved, prefs.Theme, 0, err)
	if err != nil {
		uc.logger.Error("Failed to save preferences", zap.Error(err))
		return entity.Preferences{}, err
	}
	if uc.sink != nil {
		uc.sink.SetAPIKey(prefs.APIKey)
	}

	uc.logger.Info("Preferences saved",
		zap.String("theme", prefs.Theme),
		zap.Bool("notifications", prefs.Notifications),
		zap.Bool("api_key_set", prefs.APIKey != ""),
	)
	return uc.prefs.Load(ctx)
}
