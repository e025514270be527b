package convert

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTimeToInt64(t *testing.T) {
	c := TimeToInt64{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pv, err := c.ToProvider(at)
	assert.NoError(t, err)
	assert.Equal(t, at.UnixMicro(), pv)
	back, err := c.FromProvider(pv)
	assert.NoError(t, err)
	assert.Equal(t, at, back)

	_, err = c.ToProvider("not a time")
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestBoolToInt64(t *testing.T) {
	c := BoolToInt64{}
	pv, err := c.ToProvider(true)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), pv)
	back, err := c.FromProvider(int64(0))
	assert.NoError(t, err)
	assert.Equal(t, false, back)
}

func TestEnumToString(t *testing.T) {
	c := EnumToString{Names: []string{"red", "green", "blue"}}
	pv, err := c.ToProvider(int32(1))
	assert.NoError(t, err)
	assert.Equal(t, "green", pv)
	back, err := c.FromProvider("blue")
	assert.NoError(t, err)
	assert.Equal(t, int32(2), back)

	_, err = c.ToProvider(int32(7))
	assert.ErrorIs(t, err, ErrBadValue)
	_, err = c.FromProvider("magenta")
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestUUIDToBytes(t *testing.T) {
	c := UUIDToBytes{}
	u := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	pv, err := c.ToProvider(u)
	assert.NoError(t, err)
	assert.Equal(t, u[:], pv)
	back, err := c.FromProvider(pv)
	assert.NoError(t, err)
	assert.Equal(t, u, back)
}

func TestFuncOneWay(t *testing.T) {
	c := Func{Model: 'A', Provider: 'I',
		To: func(v any) (any, error) { return int64(1), nil }}
	_, err := c.FromProvider(int64(1))
	assert.ErrorIs(t, err, ErrBadValue)
}
