package monitoring

import (
	"context"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/infrastructure/eventbus"
)

// Attach counts every activity published on bus. It returns the
// unsubscribe func.
func (m *Monitor) Attach(bus eventbus.Bus) func() {
	return bus.Subscribe(eventbus.Wildcard, func(ctx context.Context, ev eventbus.Event) {
		if a, ok := ev.Payload().(entity.Activity); ok {
			m.RecordActivity(a)
		}
	})
}
