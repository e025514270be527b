// Package compare builds current-value comparators for tracked entries.
//
// A comparator is chosen once per property at construction time: the
// property's kind tag selects one of a closed set of strategies (typed
// native ordering, element-wise structural ordering, the loosely typed
// default comparer), and when the kind itself offers no ordering but a
// value converter is attached, the selection is retried against the
// converter's provider kind with a converting decorator on top. After
// construction a comparator is immutable and safe for concurrent use.
package compare

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/drpcorg/statetrack/model"
)

var (
	ErrNotComparable = errors.New("statetrack: property kind has no ordering")
	ErrValueType     = errors.New("statetrack: value does not match the property kind")
)

// Valuer yields the current value of a property; implemented by
// statetrack.Entry.
type Valuer interface {
	CurrentValue(p *model.Property) any
}

// Comparator orders two entries, or two raw values, on one property.
// Results are -1, 0 or +1. The error path exists for converter failures
// and mistyped values; comparators themselves never recover from either.
type Comparator interface {
	Property() *model.Property
	Compare(x, y Valuer) (int, error)
	CompareValues(a, b any) (int, error)
}

// Comparer is the loosely typed ordering capability a user value type
// can implement for kind 'C'. Compare must accept values of the same
// concrete type and is expected to provide a total order over them.
type Comparer interface {
	Compare(other any) int
}

func cmpAs[T cmp.Ordered](a, b any) (int, error) {
	av, aok := a.(T)
	bv, bok := b.(T)
	if !aok || !bok {
		return 0, fmt.Errorf("%w: %T vs %T", ErrValueType, a, b)
	}
	return cmp.Compare(av, bv), nil
}

func cmpBool(a, b any) (int, error) {
	av, aok := a.(bool)
	bv, bok := b.(bool)
	if !aok || !bok {
		return 0, fmt.Errorf("%w: %T vs %T", ErrValueType, a, b)
	}
	if av == bv {
		return 0, nil
	}
	if bv { // false < true
		return -1, nil
	}
	return 1, nil
}

func cmpTime(a, b any) (int, error) {
	av, aok := a.(time.Time)
	bv, bok := b.(time.Time)
	if !aok || !bok {
		return 0, fmt.Errorf("%w: %T vs %T", ErrValueType, a, b)
	}
	return av.Compare(bv), nil
}

// kindCompare returns the native ordering for a kind tag, nil if the
// kind has no typed ordering.
func kindCompare(kind byte) func(a, b any) (int, error) {
	switch kind {
	case model.Int:
		return cmpAs[int64]
	case model.Uint:
		return cmpAs[uint64]
	case model.Float:
		return cmpAs[float64]
	case model.String:
		return cmpAs[string]
	case model.Time:
		return cmpTime
	case model.Bool:
		return cmpBool
	case model.Enum:
		return cmpAs[int32]
	}
	return nil
}

// StructuralCompare orders two byte sequences element-wise. An unequal
// element within the overlapping prefix always decides; length matters
// only when every compared element ties, shorter sorting first.
func StructuralCompare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return cmp.Compare(len(a), len(b))
}

// nilCompare handles absent values before any strategy runs: nil sorts
// before everything, two nils tie. done is false when both are present.
func nilCompare(a, b any) (c int, done bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

// DefaultCompare is the default general comparer over loosely typed
// values: nil-aware, honors the Comparer capability, falls back to the
// native orderings. ok is false when the two values offer no ordering
// at all; the caller decides whether that is an error (the default
// comparator) or a soft skip (the debug ordering).
func DefaultCompare(a, b any) (c int, ok bool) {
	if c, done := nilCompare(a, b); done {
		return c, true
	}
	if ac, is := a.(Comparer); is {
		return ac.Compare(b), true
	}
	if bc, is := b.(Comparer); is {
		return -bc.Compare(a), true
	}
	switch av := a.(type) {
	case int64:
		if bv, is := b.(int64); is {
			return cmp.Compare(av, bv), true
		}
	case int32:
		if bv, is := b.(int32); is {
			return cmp.Compare(av, bv), true
		}
	case uint64:
		if bv, is := b.(uint64); is {
			return cmp.Compare(av, bv), true
		}
	case float64:
		if bv, is := b.(float64); is {
			return cmp.Compare(av, bv), true
		}
	case string:
		if bv, is := b.(string); is {
			return cmp.Compare(av, bv), true
		}
	case bool:
		if bv, is := b.(bool); is {
			c, _ := cmpBool(av, bv)
			return c, true
		}
	case time.Time:
		if bv, is := b.(time.Time); is {
			return av.Compare(bv), true
		}
	case []byte:
		if bv, is := b.([]byte); is {
			return StructuralCompare(av, bv), true
		}
	}
	return 0, false
}
