package aox

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TableConfig is the declarative, data-only form of a state table, the shape
// a diagram tool would emit. Actions and handlers are referenced by name and
// bound at build time; everything else is plain data loadable from YAML or
// JSON.
type TableConfig struct {
	Machine string         `json:"machine" yaml:"machine"`
	Initial string         `json:"initial" yaml:"initial"`
	States  []RecordConfig `json:"states" yaml:"states"`
}

// RecordConfig is one state record of a TableConfig.
type RecordConfig struct {
	ID      string `json:"id" yaml:"id"`
	Parent  string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Initial string `json:"initial,omitempty" yaml:"initial,omitempty"`
	Entry   string `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit    string `json:"exit,omitempty" yaml:"exit,omitempty"`
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// Bindings resolves the action and handler names a TableConfig references.
type Bindings struct {
	Actions  map[string]Action
	Handlers map[string]Handler
}

// LoadTable parses a YAML (or JSON, a YAML subset) state table and validates
// its structure.
func LoadTable(data []byte) (*TableConfig, error) {
	var cfg TableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse state table: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the data-level properties: non-empty machine and initial
// names, non-empty unique state IDs, and known parent references. Structural
// properties (cycles, initial descendancy) are checked again by Build, which
// delegates to machine construction.
func (c *TableConfig) Validate() error {
	if c.Machine == "" {
		return errors.New("machine name is required")
	}
	if c.Initial == "" {
		return errors.New("initial state is required")
	}
	if len(c.States) == 0 {
		return errors.New("states list is required and cannot be empty")
	}

	ids := make(map[string]struct{}, len(c.States))
	for i, s := range c.States {
		if s.ID == "" {
			return fmt.Errorf("state %d has empty id", i)
		}
		if _, dup := ids[s.ID]; dup {
			return fmt.Errorf("duplicate state id %q", s.ID)
		}
		ids[s.ID] = struct{}{}
	}
	for _, s := range c.States {
		if s.Parent != "" {
			if _, ok := ids[s.Parent]; !ok {
				return fmt.Errorf("state %q names unknown parent %q", s.ID, s.Parent)
			}
		}
		if s.Initial != "" {
			if _, ok := ids[s.Initial]; !ok {
				return fmt.Errorf("state %q names unknown initial %q", s.ID, s.Initial)
			}
		}
	}
	return nil
}

// Build binds the table's named actions and handlers and constructs the
// Machine. Every name the table references must be present in b; a missing
// binding fails with ErrInvalidConstruction.
func (c *TableConfig) Build(b Bindings, opts ...MachineOption) (*Machine, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("machine %q: %w: %w", c.Machine, ErrInvalidConstruction, err)
	}

	states := make([]State, 0, len(c.States))
	for _, rec := range c.States {
		s := State{ID: rec.ID, Parent: rec.Parent, Initial: rec.Initial}

		var err error
		if s.Entry, err = bindAction(b, rec.Entry); err != nil {
			return nil, fmt.Errorf("machine %q state %q entry: %w", c.Machine, rec.ID, err)
		}
		if s.Exit, err = bindAction(b, rec.Exit); err != nil {
			return nil, fmt.Errorf("machine %q state %q exit: %w", c.Machine, rec.ID, err)
		}
		if rec.Handler != "" {
			h, ok := b.Handlers[rec.Handler]
			if !ok {
				return nil, fmt.Errorf("machine %q state %q: %w: unbound handler %q",
					c.Machine, rec.ID, ErrInvalidConstruction, rec.Handler)
			}
			s.Handler = h
		}
		states = append(states, s)
	}

	return NewMachine(c.Machine, c.Initial, states, opts...)
}

func bindAction(b Bindings, name string) (Action, error) {
	if name == "" {
		return nil, nil
	}
	a, ok := b.Actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: unbound action %q", ErrInvalidConstruction, name)
	}
	return a, nil
}
