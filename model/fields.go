package model

// A class describes one tracked entity type as a number of properties.
// Each property has a single-byte kind tag. The Offset is the value slot
// of the property within an entry; offsets are assigned in declaration
// order and never change after the model is finalized. Max 128 properties
// per class.

import (
	"unicode/utf8"

	"github.com/drpcorg/statetrack/convert"
)

// Property kinds.
const (
	Int    byte = 'I' // int64
	Uint   byte = 'U' // uint64
	Float  byte = 'F' // float64
	String byte = 'S' // string
	Time   byte = 'T' // time.Time
	Bool   byte = 'B' // bool
	Enum   byte = 'E' // int32 ordinal
	Bytes  byte = 'X' // []byte, ordered element-wise
	Custom byte = 'C' // user type implementing compare.Comparer
	Opaque byte = 'A' // no ordering of its own
)

type IndexType byte

const (
	HashIndex IndexType = 'H'
)

const MaxProperties = 128

type Property struct {
	Offset int64
	Name   string
	Kind   byte
	PK     bool
	Index  IndexType
	// Provider is the declared provider kind from a `>K` conversion
	// suffix, 0 when none. The attached converter must match it.
	Provider  byte
	Converter convert.Converter
}

type Properties []Property

func (p Property) Valid() bool {
	for _, l := range p.Name { // has unsafe chars
		if l < ' ' {
			return false
		}
	}

	if p.Converter != nil && p.Converter.ModelKind() != p.Kind {
		return false
	}
	if p.Provider != 0 {
		if p.Provider < 'A' || p.Provider > 'Z' {
			return false
		}
		if p.Converter != nil && p.Converter.ProviderKind() != p.Provider {
			return false
		}
	}

	return (p.Kind >= 'A' && p.Kind <= 'Z' &&
		len(p.Name) > 0 && utf8.ValidString(p.Name))
}

func (ps Properties) FindName(name string) (ndx int) {
	for i := 0; i < len(ps); i++ {
		if ps[i].Name == name {
			return i
		}
	}
	return -1
}

type Class struct {
	Name   string
	Fields Properties
}

// Property returns a stable pointer into the class; comparator caches
// key on that pointer, so Fields must not be appended to after Finalize.
func (c *Class) Property(ndx int) *Property {
	if ndx < 0 || ndx >= len(c.Fields) {
		return nil
	}
	return &c.Fields[ndx]
}

func (c *Class) PropertyByName(name string) *Property {
	return c.Property(c.Fields.FindName(name))
}

// Keys returns the primary key properties in declaration order.
// The result is empty for keyless classes.
func (c *Class) Keys() (keys []*Property) {
	for i := range c.Fields {
		if c.Fields[i].PK {
			keys = append(keys, &c.Fields[i])
		}
	}
	return
}
