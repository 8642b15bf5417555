package migration

import "context"

// StepFunc mutates the schema through the helper it is given.
type StepFunc func(ctx context.Context, h *Helper) error

// Step is a reversible migration: Up runs when upgrading through the step's
// version, Down when downgrading through it.
type Step struct {
	Up   StepFunc
	Down StepFunc
}

// NewStep pairs an upgrade and a downgrade callback.
func NewStep(up, down StepFunc) Step {
	return Step{Up: up, Down: down}
}

// ChangeStep returns a step that runs change in both directions. Helper
// operations such as RenameTable already invert themselves on downgrade.
func ChangeStep(change StepFunc) Step {
	return Step{Up: change, Down: change}
}

func (s Step) callback(direction Direction) StepFunc {
	if direction == Down {
		return s.Down
	}
	return s.Up
}
