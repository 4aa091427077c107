package usecase

import (
	"context"
	"time"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/internal/infrastructure/eventbus"
)

// publisher records console actions on the event bus. A nil bus is allowed.
type publisher struct {
	bus eventbus.Bus
}

func (p publisher) publish(ctx context.Context, kind entity.ActivityKind, subject string, target int64, err error) {
	if p.bus == nil {
		return
	}
	a := entity.Activity{
		Kind:     kind,
		Subject:  subject,
		TargetID: target,
		Outcome:  entity.OutcomeSuccess,
		At:       time.Now().UTC(),
	}
	if err != nil {
		a.Outcome = entity.OutcomeFailure
		a.Detail = err.Error()
	}
	p.bus.Publish(ctx, eventbus.NewActivityEvent(a))
}
