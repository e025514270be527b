package utils

import (
	"sync"
	"sync/atomic"
)

// CMap is a typed wrapper around sync.Map that also keeps a live
// element count (sync.Map itself has no cheap Len).
type CMap[K comparable, V any] struct {
	sm  sync.Map
	len atomic.Int64
}

func (m *CMap[K, V]) Load(key K) (value V, ok bool) {
	v, o := m.sm.Load(key)
	if !o {
		return value, o
	}
	return v.(V), o
}

func (m *CMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	a, l := m.sm.LoadOrStore(key, value)
	if !l {
		m.len.Add(1)
	}
	return a.(V), l
}

func (m *CMap[K, V]) Store(key K, value V) {
	if _, loaded := m.sm.Swap(key, value); !loaded {
		m.len.Add(1)
	}
}

func (m *CMap[K, V]) Delete(key K) {
	if _, loaded := m.sm.LoadAndDelete(key); loaded {
		m.len.Add(-1)
	}
}

func (m *CMap[K, V]) Len() int {
	return int(m.len.Load())
}

func (m *CMap[K, V]) Range(f func(key K, value V) bool) {
	m.sm.Range(func(key, value any) bool {
		return f(key.(K), value.(V))
	})
}
