package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/domain/repository"
)

// MemoryPreferencesRepository keeps preferences in memory (development and
// tests).
type MemoryPreferencesRepository struct {
	mu    sync.RWMutex
	prefs *entity.Preferences
}

// NewMemoryPreferencesRepository creates an empty repository.
func NewMemoryPreferencesRepository() repository.PreferencesRepository {
	return &MemoryPreferencesRepository{}
}

// Load returns the saved preferences or the defaults.
func (r *MemoryPreferencesRepository) Load(ctx context.Context) (entity.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.prefs == nil {
		return entity.DefaultPreferences(), nil
	}
	return *r.prefs, nil
}

// Save replaces the preferences.
func (r *MemoryPreferencesRepository) Save(ctx context.Context, prefs entity.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs = &prefs
	return nil
}

// MemoryActivityRepository keeps the activity log in memory.
type MemoryActivityRepository struct {
	mu      sync.RWMutex
	entries []entity.Activity
	nextID  int64
}

// NewMemoryActivityRepository creates an empty log.
func NewMemoryActivityRepository() repository.ActivityRepository {
	return &MemoryActivityRepository{nextID: 1}
}

// Append stores activity and assigns its ID.
func (r *MemoryActivityRepository) Append(ctx context.Context, activity *entity.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if activity.At.IsZero() {
		activity.At = time.Now().UTC()
	}
	activity.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, *activity)
	return nil
}

// Recent returns the newest entries first.
func (r *MemoryActivityRepository) Recent(ctx context.Context, limit int) ([]entity.Activity, error) {
	r.mu.RLock()
	out := make([]entity.Activity, len(r.entries))
	copy(out, r.entries)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].ID > out[j].ID
		}
		return out[i].At.After(out[j].At)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats counts workflow runs and failed runs.
func (r *MemoryActivityRepository) Stats(ctx context.Context) (entity.ActivityStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats entity.ActivityStats
	for _, a := range r.entries {
		if a.Kind != entity.ActivityWorkflowRun {
			continue
		}
		stats.TotalRuns++
		if a.Failed() {
			stats.FailedRuns++
		}
	}
	return stats, nil
}
