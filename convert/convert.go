// Package convert defines the value converter pipeline: a bidirectional
// mapping between the model-level representation of a field value and the
// provider-level representation used for storage and comparison.
package convert

import (
	"errors"
	"fmt"
)

var ErrBadValue = errors.New("statetrack: value does not match the converter kind")

// A Converter maps model values to provider values and back. Converters are
// stateless and shared; the same instance may be attached to many fields.
// Kind tags are the single-byte field kinds from the model package.
type Converter interface {
	ModelKind() byte
	ProviderKind() byte
	ToProvider(v any) (any, error)
	FromProvider(v any) (any, error)
}

// Func is a converter built from a pair of closures.
type Func struct {
	Model    byte
	Provider byte
	To       func(v any) (any, error)
	From     func(v any) (any, error)
}

func (f Func) ModelKind() byte    { return f.Model }
func (f Func) ProviderKind() byte { return f.Provider }

func (f Func) ToProvider(v any) (any, error) {
	return f.To(v)
}

func (f Func) FromProvider(v any) (any, error) {
	if f.From == nil {
		return nil, fmt.Errorf("%w: one-way converter %c>%c", ErrBadValue, f.Model, f.Provider)
	}
	return f.From(v)
}

func badValue(want byte, v any) error {
	return fmt.Errorf("%w: want kind %c, got %T", ErrBadValue, want, v)
}
