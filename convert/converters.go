package convert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeToInt64 stores time.Time as unix microseconds ('T' > 'I').
// The mapping is monotonic, so provider-side ordering matches model-side.
type TimeToInt64 struct{}

func (TimeToInt64) ModelKind() byte    { return 'T' }
func (TimeToInt64) ProviderKind() byte { return 'I' }

func (TimeToInt64) ToProvider(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, badValue('T', v)
	}
	return t.UnixMicro(), nil
}

func (TimeToInt64) FromProvider(v any) (any, error) {
	us, ok := v.(int64)
	if !ok {
		return nil, badValue('I', v)
	}
	return time.UnixMicro(us).UTC(), nil
}

// BoolToInt64 stores bool as 0/1 ('B' > 'I').
type BoolToInt64 struct{}

func (BoolToInt64) ModelKind() byte    { return 'B' }
func (BoolToInt64) ProviderKind() byte { return 'I' }

func (BoolToInt64) ToProvider(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, badValue('B', v)
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func (BoolToInt64) FromProvider(v any) (any, error) {
	i, ok := v.(int64)
	if !ok {
		return nil, badValue('I', v)
	}
	return i != 0, nil
}

// EnumToString stores an enum ordinal by its declared name ('E' > 'S').
// Note the provider-side order is the name order, not the ordinal order.
type EnumToString struct {
	Names []string
}

func (EnumToString) ModelKind() byte    { return 'E' }
func (EnumToString) ProviderKind() byte { return 'S' }

func (c EnumToString) ToProvider(v any) (any, error) {
	ord, ok := v.(int32)
	if !ok {
		return nil, badValue('E', v)
	}
	if ord < 0 || int(ord) >= len(c.Names) {
		return nil, fmt.Errorf("%w: enum ordinal %d out of range", ErrBadValue, ord)
	}
	return c.Names[ord], nil
}

func (c EnumToString) FromProvider(v any) (any, error) {
	name, ok := v.(string)
	if !ok {
		return nil, badValue('S', v)
	}
	for i, n := range c.Names {
		if n == name {
			return int32(i), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown enum name %q", ErrBadValue, name)
}

// UUIDToBytes stores uuid.UUID as its 16-byte form ('A' > 'X').
// The byte form sorts the same way the canonical string form does.
type UUIDToBytes struct{}

func (UUIDToBytes) ModelKind() byte    { return 'A' }
func (UUIDToBytes) ProviderKind() byte { return 'X' }

func (UUIDToBytes) ToProvider(v any) (any, error) {
	u, ok := v.(uuid.UUID)
	if !ok {
		return nil, badValue('A', v)
	}
	return u[:], nil
}

func (UUIDToBytes) FromProvider(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, badValue('X', v)
	}
	return uuid.FromBytes(b)
}
