package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agentops/console/internal/domain/entity"
	"github.com/agentops/console/pkg/safego"
)

// Event is something that happened in the console.
type Event interface {
	Type() string
	Timestamp() time.Time
	Payload() any
}

// BaseEvent is the default Event implementation.
type BaseEvent struct {
	EventType      string
	EventTimestamp time.Time
	EventPayload   any
}

// Type returns the event type
func (e *BaseEvent) Type() string {
	return e.EventType
}

// Timestamp returns when the event was created
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTimestamp
}

// Payload returns the event payload
func (e *BaseEvent) Payload() any {
	return e.EventPayload
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType string, payload any) *BaseEvent {
	return &BaseEvent{
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}
}

// NewActivityEvent wraps an activity entry. The event type is the activity
// kind.
func NewActivityEvent(a entity.Activity) *BaseEvent {
	ev := NewEvent(string(a.Kind), a)
	if !a.At.IsZero() {
		ev.EventTimestamp = a.At
	}
	return ev
}

// Wildcard subscribes to every event type.
const Wildcard = "*"

// Handler handles one event.
type Handler func(ctx context.Context, event Event)

// Bus is the event bus.
type Bus interface {
	// Publish queues event for delivery without blocking.
	Publish(ctx context.Context, event Event)
	// Subscribe registers handler for eventType (or Wildcard) and returns
	// a func that removes it.
	Subscribe(eventType string, handler Handler) (unsubscribe func())
	// Close drains queued events and stops delivery.
	Close()
}

// InMemoryBus dispatches events asynchronously from a buffered queue.
type InMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string]map[uint64]Handler
	nextID    uint64
	eventChan chan eventWrapper
	closed    bool
	logger    *zap.Logger
	wg        sync.WaitGroup
}

type eventWrapper struct {
	ctx   context.Context
	event Event
}

// NewInMemoryBus creates a bus with a queue of bufferSize events.
func NewInMemoryBus(logger *zap.Logger, bufferSize int) *InMemoryBus {
	bus := &InMemoryBus{
		handlers:  make(map[string]map[uint64]Handler),
		eventChan: make(chan eventWrapper, bufferSize),
		logger:    logger.With(zap.String("component", "eventbus")),
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Publish queues event. A full queue drops the event.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	// The read lock is held across the send so Close cannot close the
	// channel underneath it.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.eventChan <- eventWrapper{ctx: context.WithoutCancel(ctx), event: event}:
		b.logger.Debug("Event published",
			zap.String("type", event.Type()),
		)
	default:
		b.logger.Warn("Event buffer full, dropping event",
			zap.String("type", event.Type()),
		)
	}
}

// Subscribe registers handler.
func (b *InMemoryBus) Subscribe(eventType string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[uint64]Handler)
	}
	b.nextID++
	id := b.nextID
	b.handlers[eventType][id] = handler

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", eventType),
	)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[eventType], id)
			if len(b.handlers[eventType]) == 0 {
				delete(b.handlers, eventType)
			}
		})
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.eventChan)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("Event bus closed")
}

func (b *InMemoryBus) dispatch() {
	defer b.wg.Done()

	for wrapper := range b.eventChan {
		b.dispatchEvent(wrapper.ctx, wrapper.event)
	}
}

func (b *InMemoryBus) dispatchEvent(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type()])+len(b.handlers[Wildcard]))
	for _, h := range b.handlers[event.Type()] {
		handlers = append(handlers, h)
	}
	for _, h := range b.handlers[Wildcard] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	// Handlers run in parallel; a panicking handler does not affect others.
	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			defer safego.Recover(b.logger, "eventbus:"+event.Type())
			h(ctx, event)
		}(handler)
	}
	wg.Wait()
}
