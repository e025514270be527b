package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drpcorg/statetrack/convert"
)

func TestParseClass(t *testing.T) {
	c, err := ParseClass("Order: *IId SName FTotal &SEmail XPayload")
	assert.NoError(t, err)
	assert.Equal(t, "Order", c.Name)
	assert.Len(t, c.Fields, 5)

	id := c.PropertyByName("Id")
	assert.NotNil(t, id)
	assert.Equal(t, Int, id.Kind)
	assert.True(t, id.PK)
	assert.Equal(t, int64(0), id.Offset)

	email := c.PropertyByName("Email")
	assert.Equal(t, HashIndex, email.Index)
	assert.Equal(t, String, email.Kind)
	assert.False(t, email.PK)

	assert.Equal(t, Bytes, c.PropertyByName("Payload").Kind)
	assert.Equal(t, Float, c.PropertyByName("Total").Kind)

	keys := c.Keys()
	assert.Len(t, keys, 1)
	assert.Equal(t, "Id", keys[0].Name)

	// round trip through String
	again, err := ParseClass(c.String())
	assert.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestParseClassErrors(t *testing.T) {
	_, err := ParseClass("no colon here")
	assert.ErrorIs(t, err, ErrBadField)
	_, err = ParseClass("Order: *I")
	assert.ErrorIs(t, err, ErrBadField)
}

func TestParseConversionSuffix(t *testing.T) {
	c, err := ParseClass("Event: *IId TWhen>I BLive>I")
	assert.NoError(t, err)

	when := c.PropertyByName("When")
	assert.NotNil(t, when)
	assert.Equal(t, Time, when.Kind)
	assert.Equal(t, Int, when.Provider)
	assert.Equal(t, byte(0), c.PropertyByName("Id").Provider)

	again, err := ParseClass(c.String())
	assert.NoError(t, err)
	assert.Equal(t, c, again)

	// the attached converter must match the declared provider kind
	mis := *when
	mis.Converter = convert.Func{Model: 'T', Provider: 'S'}
	assert.False(t, mis.Valid())
	mis.Converter = convert.TimeToInt64{}
	assert.True(t, mis.Valid())

	_, err = ParseClass("Event: TWhen>")
	assert.ErrorIs(t, err, ErrBadField)
	_, err = ParseClass("Event: TWhen>IX")
	assert.ErrorIs(t, err, ErrBadField)
	_, err = ParseClass("Event: TWhen>i")
	assert.ErrorIs(t, err, ErrBadField)
}

func TestModelAddClass(t *testing.T) {
	m := New()
	c, _ := ParseClass("Order: *IId SName")
	assert.NoError(t, m.AddClass(c))
	dup, _ := ParseClass("Order: *IId")
	assert.ErrorIs(t, m.AddClass(dup), ErrDupClass)

	bad := &Class{Name: "Bad", Fields: Properties{
		{Name: "A", Kind: Int}, {Name: "A", Kind: String},
	}}
	assert.ErrorIs(t, m.AddClass(bad), ErrDupField)

	m.Finalize()
	late, _ := ParseClass("Late: *IId")
	assert.ErrorIs(t, m.AddClass(late), ErrSealed)

	got, err := m.Class("Order")
	assert.NoError(t, err)
	assert.Equal(t, c, got)
	_, err = m.Class("Nope")
	assert.ErrorIs(t, err, ErrNoClass)
}

func TestCompositeKeyOrder(t *testing.T) {
	c, err := ParseClass("Line: *IOrder *IRow SNote")
	assert.NoError(t, err)
	keys := c.Keys()
	assert.Len(t, keys, 2)
	// declaration order, not name order
	assert.Equal(t, "Order", keys[0].Name)
	assert.Equal(t, "Row", keys[1].Name)
}
