package statetrack

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drpcorg/statetrack/model"
)

func TestDebugOrderByKey(t *testing.T) {
	tr, err := NewTracker(orderModel(t), Options{})
	assert.NoError(t, err)

	for _, id := range []int64{3, 1, 2} {
		_, err = tr.Track("Order", []any{id, "x", 0.0, nil})
		assert.NoError(t, err)
	}
	ordered := tr.DebugOrder()
	assert.Len(t, ordered, 3)
	idp := ordered[0].Class().PropertyByName("Id")
	assert.Equal(t, int64(1), ordered[0].CurrentValue(idp))
	assert.Equal(t, int64(2), ordered[1].CurrentValue(idp))
	assert.Equal(t, int64(3), ordered[2].CurrentValue(idp))
}

func TestDebugOrderByClassName(t *testing.T) {
	tr, err := NewTracker(orderModel(t), Options{})
	assert.NoError(t, err)

	// equal-looking keys; the ordinal class name comparison decides
	_, err = tr.Track("Order", []any{int64(1), "o", 0.0, nil})
	assert.NoError(t, err)
	_, err = tr.Track("Customer", []any{int64(1), "c"})
	assert.NoError(t, err)

	ordered := tr.DebugOrder()
	assert.Equal(t, "Customer", ordered[0].ClassName())
	assert.Equal(t, "Order", ordered[1].ClassName())
}

func TestDebugOrderDeterminism(t *testing.T) {
	tr, err := NewTracker(orderModel(t), Options{})
	assert.NoError(t, err)
	for _, id := range []int64{5, 3, 9, 1} {
		_, err = tr.Track("Order", []any{id, "x", float64(id), nil})
		assert.NoError(t, err)
	}
	one := bytes.Buffer{}
	two := bytes.Buffer{}
	tr.DumpEntries(&one)
	tr.DumpEntries(&two)
	assert.NotEmpty(t, one.String())
	assert.Equal(t, one.String(), two.String())
}

func TestDebugOrderToleratesOpaqueKeys(t *testing.T) {
	m := model.New()
	c, err := model.ParseClass("Pair: *AHi *ALo SNote")
	assert.NoError(t, err)
	assert.NoError(t, m.AddClass(c))
	c, err = model.ParseClass("Anon: SNote")
	assert.NoError(t, err)
	assert.NoError(t, m.AddClass(c))
	tr, err := NewTracker(m, Options{})
	assert.NoError(t, err)

	// an incomparable composite key and a keyless class; the ordering
	// degrades to the class name and stays stable in attach order
	a, err := tr.Track("Pair", []any{struct{}{}, struct{}{}, "a"})
	assert.NoError(t, err)
	b, err := tr.Track("Pair", []any{struct{}{}, struct{}{}, "b"})
	assert.NoError(t, err)
	_, err = tr.Track("Anon", []any{"keyless"})
	assert.NoError(t, err)

	ordered := tr.DebugOrder()
	assert.Equal(t, "Anon", ordered[0].ClassName())
	assert.Same(t, a, ordered[1])
	assert.Same(t, b, ordered[2])
}

func TestDebugOrderForeignClassInstances(t *testing.T) {
	// same class name, different models and field layouts; the key
	// tie-break must not read the other entry through foreign offsets
	m1 := model.New()
	c, err := model.ParseClass("Order: *IId SName")
	assert.NoError(t, err)
	assert.NoError(t, m1.AddClass(c))
	tr1, err := NewTracker(m1, Options{})
	assert.NoError(t, err)

	m2 := model.New()
	c, err = model.ParseClass("Order: SNote *IId")
	assert.NoError(t, err)
	assert.NoError(t, m2.AddClass(c))
	tr2, err := NewTracker(m2, Options{})
	assert.NoError(t, err)

	a, err := tr1.Track("Order", []any{int64(2), "x"})
	assert.NoError(t, err)
	b, err := tr2.Track("Order", []any{"y", int64(1)})
	assert.NoError(t, err)

	assert.Equal(t, 0, DebugCompare(a, b))
	assert.Equal(t, 0, DebugCompare(b, a))
	ordered := DebugOrder([]*Entry{a, b})
	assert.Same(t, a, ordered[0])
	assert.Same(t, b, ordered[1])
}

func TestEntryString(t *testing.T) {
	tr, err := NewTracker(orderModel(t), Options{})
	assert.NoError(t, err)
	e, err := tr.Track("Order", []any{int64(1), "cake", 3.5, nil})
	assert.NoError(t, err)
	assert.Equal(t, "Order.U:\tId=1 Name:\"cake\" Total:3.5 Email:~", EntryString(e))
}

func TestDumpAll(t *testing.T) {
	tr, err := NewTracker(orderModel(t), Options{})
	assert.NoError(t, err)
	_, err = tr.Track("Customer", []any{int64(1), "c"})
	assert.NoError(t, err)
	buf := bytes.Buffer{}
	tr.DumpAll(&buf)
	assert.Contains(t, buf.String(), "Customer: *IId SName")
	assert.Contains(t, buf.String(), "Customer.U:\tId=1 Name:\"c\"")
}
