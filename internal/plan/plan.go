// Package plan loads declarative migration plans from YAML and registers
// their steps with a migrator.
//
// A plan names the target version and lists steps. Each step uses exactly one
// shape:
//
//	version: 3
//	steps:
//	  - version: 2
//	    up:   ["CREATE TABLE accounts (id INTEGER PRIMARY KEY)"]
//	    down: ["DROP TABLE accounts"]
//	  - version: 3
//	    rename: {from: accounts, to: users}
//	  - version: 4
//	    change: ["UPDATE settings SET revision = revision + 1"]
package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/stepmigrate/internal/migration"
)

// ErrInvalidPlan indicates a plan that cannot be registered.
var ErrInvalidPlan = errors.New("invalid migration plan")

// Plan is a parsed migration plan.
type Plan struct {
	Version int        `yaml:"version"`
	Steps   []StepSpec `yaml:"steps"`
}

// StepSpec describes one step. Only one of Up/Down, Change, or Rename is set.
type StepSpec struct {
	Version int      `yaml:"version"`
	Up      []string `yaml:"up,omitempty"`
	Down    []string `yaml:"down,omitempty"`
	Change  []string `yaml:"change,omitempty"`
	Rename  *Rename  `yaml:"rename,omitempty"`
}

// Rename is a table rename that reverses itself on downgrade.
type Rename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Registrar accepts steps. *migration.Migrator satisfies it.
type Registrar interface {
	AddStep(version int, step migration.Step)
}

// Load reads and parses the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a YAML plan. Unknown keys are rejected.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks versions and step shapes. Steps above the target version
// are allowed; they simply never run.
func (p *Plan) Validate() error {
	if p.Version <= 0 {
		return fmt.Errorf("%w: target version must be positive, got %d", ErrInvalidPlan, p.Version)
	}

	seen := make(map[int]struct{}, len(p.Steps))
	for i, s := range p.Steps {
		if s.Version <= 0 {
			return fmt.Errorf("%w: step %d: version must be positive, got %d", ErrInvalidPlan, i, s.Version)
		}
		if _, dup := seen[s.Version]; dup {
			return fmt.Errorf("%w: step %d: duplicate version %d", ErrInvalidPlan, i, s.Version)
		}
		seen[s.Version] = struct{}{}

		if err := s.validateShape(); err != nil {
			return fmt.Errorf("%w: step %d (version %d): %w", ErrInvalidPlan, i, s.Version, err)
		}
	}
	return nil
}

func (s StepSpec) validateShape() error {
	shapes := 0
	if len(s.Up) > 0 || len(s.Down) > 0 {
		shapes++
	}
	if len(s.Change) > 0 {
		shapes++
	}
	if s.Rename != nil {
		shapes++
		if strings.TrimSpace(s.Rename.From) == "" || strings.TrimSpace(s.Rename.To) == "" {
			return errors.New("rename requires both from and to")
		}
	}
	switch shapes {
	case 0:
		return errors.New("step defines no statements")
	case 1:
		return nil
	}
	return errors.New("step must use exactly one of up/down, change, or rename")
}

// Step converts s into a migration step. An up/down step without down
// statements has no down callback, so downgrading through it fails.
func (s StepSpec) Step() migration.Step {
	switch {
	case s.Rename != nil:
		from, to := s.Rename.From, s.Rename.To
		return migration.ChangeStep(func(ctx context.Context, h *migration.Helper) error {
			return h.RenameTable(ctx, from, to)
		})
	case len(s.Change) > 0:
		return migration.ChangeStep(execAll(s.Change))
	}
	return migration.NewStep(execAll(s.Up), execAll(s.Down))
}

// Register adds every step of the plan to r.
func (p *Plan) Register(r Registrar) {
	for _, s := range p.Steps {
		r.AddStep(s.Version, s.Step())
	}
}

func execAll(statements []string) migration.StepFunc {
	if len(statements) == 0 {
		return nil
	}
	statements = append([]string(nil), statements...)
	return func(ctx context.Context, h *migration.Helper) error {
		for _, stmt := range statements {
			if err := h.ExecSQL(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}
