package testfixtures

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/stepmigrate/internal/migration"
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Invocation records one step callback run.
type Invocation struct {
	Version   int
	Direction migration.Direction
}

// String renders the invocation as "up:3" or "down:3".
func (i Invocation) String() string {
	return fmt.Sprintf("%s:%d", i.Direction, i.Version)
}

// StepRecorder builds steps that remember every invocation in order.
type StepRecorder struct {
	mu    sync.Mutex
	calls []Invocation
}

// NewStepRecorder returns an empty recorder.
func NewStepRecorder() *StepRecorder {
	return &StepRecorder{}
}

// Step returns a step whose callbacks record themselves and then run the
// given statements through the helper. Up runs upSQL, Down runs downSQL.
func (r *StepRecorder) Step(upSQL, downSQL []string) migration.Step {
	return migration.NewStep(r.callback(upSQL), r.callback(downSQL))
}

// ChangeStep returns a change step recording itself and running statements.
func (r *StepRecorder) ChangeStep(statements ...string) migration.Step {
	return migration.ChangeStep(r.callback(statements))
}

// Failing returns a step whose callbacks record themselves and return err.
func (r *StepRecorder) Failing(err error) migration.Step {
	fail := func(ctx context.Context, h *migration.Helper) error {
		r.record(h)
		return err
	}
	return migration.NewStep(fail, fail)
}

// Calls returns a copy of the recorded invocations.
func (r *StepRecorder) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invocation, len(r.calls))
	copy(out, r.calls)
	return out
}

// Versions returns the versions of the recorded invocations.
func (r *StepRecorder) Versions() []int {
	calls := r.Calls()
	versions := make([]int, len(calls))
	for i, c := range calls {
		versions[i] = c.Version
	}
	return versions
}

// Reset discards recorded invocations.
func (r *StepRecorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *StepRecorder) callback(statements []string) migration.StepFunc {
	return func(ctx context.Context, h *migration.Helper) error {
		r.record(h)
		for _, stmt := range statements {
			if err := h.ExecSQL(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

func (r *StepRecorder) record(h *migration.Helper) {
	direction := migration.Up
	if !h.Upgrading() {
		direction = migration.Down
	}
	r.mu.Lock()
	r.calls = append(r.calls, Invocation{Version: h.Version(), Direction: direction})
	r.mu.Unlock()
}
