package usecase_test

import (
	"context"
	"sync"

	"github.com/agentops/console/internal/domain/entity"
)

// fakeAgents is an in-memory agent backend that counts calls.
type fakeAgents struct {
	mu      sync.Mutex
	items   []entity.Agent
	nextID  int64
	creates []entity.Agent
	updates []entity.Agent
	deletes []int64
	err     error
}

func (f *fakeAgents) List(ctx context.Context) ([]entity.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]entity.Agent{}, f.items...), nil
}

func (f *fakeAgents) Create(ctx context.Context, a entity.Agent) (entity.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, a)
	if f.err != nil {
		return entity.Agent{}, f.err
	}
	f.nextID++
	a.ID = f.nextID
	f.items = append(f.items, a)
	return a, nil
}

func (f *fakeAgents) Update(ctx context.Context, id int64, a entity.Agent) (entity.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = id
	f.updates = append(f.updates, a)
	if f.err != nil {
		return entity.Agent{}, f.err
	}
	return a, nil
}

func (f *fakeAgents) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.err
}

// fakeWorkflows is an in-memory workflow backend whose Run blocks until
// released when gate is set.
type fakeWorkflows struct {
	mu      sync.Mutex
	items   []entity.Workflow
	creates []entity.Workflow
	runs    []int64
	gate    chan struct{}
	started chan int64
	result  *entity.RunResult
	err     error
}

func (f *fakeWorkflows) List(ctx context.Context) ([]entity.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]entity.Workflow{}, f.items...), nil
}

func (f *fakeWorkflows) Create(ctx context.Context, w entity.Workflow) (entity.Workflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, w)
	if f.err != nil {
		return entity.Workflow{}, f.err
	}
	w.ID = int64(len(f.creates))
	f.items = append(f.items, w)
	return w, nil
}

func (f *fakeWorkflows) Delete(ctx context.Context, id int64) error {
	return f.err
}

func (f *fakeWorkflows) Run(ctx context.Context, id int64) (*entity.RunResult, error) {
	f.mu.Lock()
	f.runs = append(f.runs, id)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- id
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &entity.RunResult{Status: entity.RunStatusSuccess, Results: entity.RunOutputs{}}, nil
}

func (f *fakeWorkflows) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

// fakeSink records the last API key.
type fakeSink struct {
	key string
}

func (s *fakeSink) SetAPIKey(key string) { s.key = key }
