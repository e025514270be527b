package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStructuralLengthRule(t *testing.T) {
	// all overlapping elements tie, shorter first
	assert.Equal(t, -1, StructuralCompare([]byte{1, 2}, []byte{1, 2, 3}))
	assert.Equal(t, 1, StructuralCompare([]byte{1, 2, 3}, []byte{1, 2}))
	// an unequal prefix dominates length
	assert.Equal(t, 1, StructuralCompare([]byte{2}, []byte{1, 9, 9}))
	assert.Equal(t, -1, StructuralCompare([]byte{1, 9, 9}, []byte{2}))
	assert.Equal(t, 0, StructuralCompare([]byte{7, 7}, []byte{7, 7}))
	assert.Equal(t, -1, StructuralCompare(nil, []byte{0}))
}

func TestDefaultCompare(t *testing.T) {
	c, ok := DefaultCompare(int64(3), int64(5))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = DefaultCompare("blue", "green")
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = DefaultCompare(false, true)
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	now := time.Now()
	c, ok = DefaultCompare(now, now.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	// nil sorts first, two nils tie
	c, ok = DefaultCompare(nil, int64(1))
	assert.True(t, ok)
	assert.Equal(t, -1, c)
	c, ok = DefaultCompare(nil, nil)
	assert.True(t, ok)
	assert.Equal(t, 0, c)

	// no ordering at all
	_, ok = DefaultCompare(struct{ x int }{1}, struct{ x int }{2})
	assert.False(t, ok)
	// mismatched kinds have no ordering either
	_, ok = DefaultCompare(int64(1), "1")
	assert.False(t, ok)
}

type version struct {
	major, minor int
}

func (v version) Compare(other any) int {
	o := other.(version)
	if v.major != o.major {
		if v.major < o.major {
			return -1
		}
		return 1
	}
	switch {
	case v.minor < o.minor:
		return -1
	case v.minor > o.minor:
		return 1
	}
	return 0
}

func TestDefaultCompareComparer(t *testing.T) {
	c, ok := DefaultCompare(version{1, 2}, version{1, 10})
	assert.True(t, ok)
	assert.Equal(t, -1, c)
	c, ok = DefaultCompare(version{2, 0}, version{1, 10})
	assert.True(t, ok)
	assert.Equal(t, 1, c)
}

func TestTotalOrderProperties(t *testing.T) {
	vals := []any{int64(-7), int64(0), int64(1), int64(42), int64(42), int64(1000)}
	for _, a := range vals {
		for _, b := range vals {
			ab, _ := DefaultCompare(a, b)
			ba, _ := DefaultCompare(b, a)
			assert.Equal(t, ab, -ba)
			for _, c := range vals {
				bc, _ := DefaultCompare(b, c)
				if ab > 0 && bc > 0 {
					ac, _ := DefaultCompare(a, c)
					assert.Positive(t, ac)
				}
			}
		}
	}
}
