package statetrack

import (
	"errors"
	"fmt"
	"time"

	"github.com/drpcorg/statetrack/model"
)

// EntityState is the change-tracking state of one entry.
type EntityState byte

const (
	StateAdded     EntityState = 'A'
	StateUnchanged EntityState = 'U'
	StateModified  EntityState = 'M'
	StateDeleted   EntityState = 'D'
)

var ErrBadValueForKind = errors.New("statetrack: value does not match the field kind")

// Entry is one entity instance under change tracking: its class, the
// current values, the original snapshot taken when tracking started,
// and a dirty flag per field. Entries are not synchronized; the caller
// presents a stable snapshot whenever entries are sorted or dumped.
type Entry struct {
	id    uint64
	class *model.Class
	state EntityState
	vals  []any
	orig  []any
	dirty []bool
}

func (e *Entry) ID() uint64          { return e.id }
func (e *Entry) Class() *model.Class { return e.class }
func (e *Entry) ClassName() string   { return e.class.Name }
func (e *Entry) State() EntityState  { return e.state }

// CurrentValue implements compare.Valuer.
func (e *Entry) CurrentValue(p *model.Property) any {
	if p == nil || p.Offset < 0 || int(p.Offset) >= len(e.vals) {
		return nil
	}
	return e.vals[p.Offset]
}

func (e *Entry) OriginalValue(p *model.Property) any {
	if p == nil || p.Offset < 0 || int(p.Offset) >= len(e.orig) {
		return nil
	}
	return e.orig[p.Offset]
}

// SetCurrentValue kind-checks the value, stores it and flips an
// Unchanged entry to Modified.
func (e *Entry) SetCurrentValue(p *model.Property, v any) error {
	if p == nil || p.Offset < 0 || int(p.Offset) >= len(e.vals) {
		return fmt.Errorf("%w: no such field", ErrBadValueForKind)
	}
	if !kindOK(p.Kind, v) {
		return fmt.Errorf("%w: %s.%s (%c) <- %T", ErrBadValueForKind,
			e.class.Name, p.Name, p.Kind, v)
	}
	e.vals[p.Offset] = v
	e.dirty[p.Offset] = true
	if e.state == StateUnchanged {
		e.state = StateModified
	}
	return nil
}

func (e *Entry) Dirty(p *model.Property) bool {
	if p == nil || p.Offset < 0 || int(p.Offset) >= len(e.dirty) {
		return false
	}
	return e.dirty[p.Offset]
}

// KeyValues returns the current primary key values in declaration order.
func (e *Entry) KeyValues() (key []any) {
	for _, p := range e.class.Keys() {
		key = append(key, e.vals[p.Offset])
	}
	return
}

func kindOK(kind byte, v any) bool {
	if v == nil {
		return true
	}
	switch kind {
	case model.Int:
		_, ok := v.(int64)
		return ok
	case model.Uint:
		_, ok := v.(uint64)
		return ok
	case model.Float:
		_, ok := v.(float64)
		return ok
	case model.String:
		_, ok := v.(string)
		return ok
	case model.Time:
		_, ok := v.(time.Time)
		return ok
	case model.Bool:
		_, ok := v.(bool)
		return ok
	case model.Enum:
		_, ok := v.(int32)
		return ok
	case model.Bytes:
		_, ok := v.([]byte)
		return ok
	}
	return true // 'C' and 'A' take any value
}

func newEntry(id uint64, class *model.Class, vals []any, state EntityState) *Entry {
	n := len(class.Fields)
	e := &Entry{
		id:    id,
		class: class,
		state: state,
		vals:  make([]any, n),
		orig:  make([]any, n),
		dirty: make([]bool, n),
	}
	copy(e.vals, vals)
	copy(e.orig, e.vals)
	return e
}
