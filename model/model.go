package model

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrBadField  = errors.New("statetrack: bad field description")
	ErrDupField  = errors.New("statetrack: duplicate field name")
	ErrDupClass  = errors.New("statetrack: duplicate class name")
	ErrTooWide   = errors.New("statetrack: too many fields in a class")
	ErrSealed    = errors.New("statetrack: the model is already finalized")
	ErrNoClass   = errors.New("statetrack: unknown class")
	ErrNotSealed = errors.New("statetrack: the model is not finalized yet")
)

// Model is the finalized set of entity classes a tracker works with.
// Mutable while being configured, immutable after Finalize; every
// comparator and tracker holds it read-only from then on.
type Model struct {
	classes map[string]*Class
	sealed  bool
}

func New() *Model {
	return &Model{classes: make(map[string]*Class)}
}

func (m *Model) AddClass(c *Class) error {
	if m.sealed {
		return ErrSealed
	}
	if len(c.Fields) > MaxProperties {
		return fmt.Errorf("%w: %s", ErrTooWide, c.Name)
	}
	if _, ok := m.classes[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDupClass, c.Name)
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for i := range c.Fields {
		f := &c.Fields[i]
		f.Offset = int64(i)
		if !f.Valid() {
			return fmt.Errorf("%w: %s.%s", ErrBadField, c.Name, f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: %s.%s", ErrDupField, c.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	m.classes[c.Name] = c
	return nil
}

func (m *Model) Finalize() {
	m.sealed = true
}

func (m *Model) Sealed() bool {
	return m.sealed
}

func (m *Model) Class(name string) (*Class, error) {
	c, ok := m.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoClass, name)
	}
	return c, nil
}

// Classes returns the classes sorted by name so that iteration order
// is deterministic.
func (m *Model) Classes() []*Class {
	out := make([]*Class, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
