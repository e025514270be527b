package compare

import (
	"fmt"

	"github.com/drpcorg/statetrack/convert"
	"github.com/drpcorg/statetrack/model"
)

// typedComparator carries the native ordering picked for the property
// kind at construction; no inspection happens per comparison.
type typedComparator struct {
	prop *model.Property
	cmp  func(a, b any) (int, error)
}

func (t *typedComparator) Property() *model.Property { return t.prop }

func (t *typedComparator) Compare(x, y Valuer) (int, error) {
	return t.CompareValues(x.CurrentValue(t.prop), y.CurrentValue(t.prop))
}

func (t *typedComparator) CompareValues(a, b any) (int, error) {
	if c, done := nilCompare(a, b); done {
		return c, nil
	}
	return t.cmp(a, b)
}

// structuralComparator orders []byte values element-wise, length last.
type structuralComparator struct {
	prop *model.Property
}

func (s *structuralComparator) Property() *model.Property { return s.prop }

func (s *structuralComparator) Compare(x, y Valuer) (int, error) {
	return s.CompareValues(x.CurrentValue(s.prop), y.CurrentValue(s.prop))
}

func (s *structuralComparator) CompareValues(a, b any) (int, error) {
	if c, done := nilCompare(a, b); done {
		return c, nil
	}
	av, aok := a.([]byte)
	bv, bok := b.([]byte)
	if !aok || !bok {
		return 0, fmt.Errorf("%w: %T vs %T", ErrValueType, a, b)
	}
	return StructuralCompare(av, bv), nil
}

// defaultComparator runs the default general comparer; values that turn
// out incomparable at runtime are an error, never a silent tie.
type defaultComparator struct {
	prop *model.Property
}

func (d *defaultComparator) Property() *model.Property { return d.prop }

func (d *defaultComparator) Compare(x, y Valuer) (int, error) {
	return d.CompareValues(x.CurrentValue(d.prop), y.CurrentValue(d.prop))
}

func (d *defaultComparator) CompareValues(a, b any) (int, error) {
	c, ok := DefaultCompare(a, b)
	if !ok {
		return 0, fmt.Errorf("%w: %T vs %T", ErrValueType, a, b)
	}
	return c, nil
}

// convertingComparator decorates a provider-kind comparator: both
// operands go through the converter first. Converter errors propagate
// unchanged. Nil passes around the converter and ties the usual way.
type convertingComparator struct {
	conv convert.Converter
	next Comparator
}

func (c *convertingComparator) Property() *model.Property { return c.next.Property() }

func (c *convertingComparator) Compare(x, y Valuer) (int, error) {
	p := c.next.Property()
	return c.CompareValues(x.CurrentValue(p), y.CurrentValue(p))
}

func (c *convertingComparator) CompareValues(a, b any) (int, error) {
	if cv, done := nilCompare(a, b); done {
		return cv, nil
	}
	ap, err := c.conv.ToProvider(a)
	if err != nil {
		return 0, err
	}
	bp, err := c.conv.ToProvider(b)
	if err != nil {
		return 0, err
	}
	return c.next.CompareValues(ap, bp)
}
