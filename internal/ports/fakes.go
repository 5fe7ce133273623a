package ports

// Package-level fakes for unit tests without codegen, in the style of the
// teacher's hand-written internal/mocks/auth doubles.

import (
	"context"
	"sync"

	"github.com/ravenjobstore/store/internal/model"
)

// Ensure compile-time conformance.
var (
	_ TypeLoader = (*FakeTypeLoader)(nil)
	_ Signaler   = (*RecordingSignaler)(nil)
)

// FakeTypeLoader resolves every type successfully unless ResolveErr is set.
type FakeTypeLoader struct {
	ResolveErr error
}

func (f *FakeTypeLoader) Resolve(_ context.Context, _ string) error {
	return f.ResolveErr
}

// RecordingSignaler records every notification it receives so tests can
// assert on fire-and-forget call shape without racing a real listener.
type RecordingSignaler struct {
	mu                   sync.Mutex
	SchedulingChanges    []*int64
	Misfired             []model.Trigger
	Finalized            []model.Trigger
	JobsDeleted          []model.JobKey
}

func (r *RecordingSignaler) SignalSchedulingChange(_ context.Context, candidate *int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SchedulingChanges = append(r.SchedulingChanges, candidate)
}

func (r *RecordingSignaler) NotifyTriggerListenersMisfired(_ context.Context, trigger model.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Misfired = append(r.Misfired, trigger)
}

func (r *RecordingSignaler) NotifySchedulerListenersFinalized(_ context.Context, trigger model.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finalized = append(r.Finalized, trigger)
}

func (r *RecordingSignaler) NotifySchedulerListenersJobDeleted(_ context.Context, key model.JobKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.JobsDeleted = append(r.JobsDeleted, key)
}

// Count returns the number of scheduling-change signals recorded so far.
func (r *RecordingSignaler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.SchedulingChanges)
}
