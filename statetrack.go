// Package statetrack is a change-tracking state manager: it keeps a set
// of tracked entries over a finalized entity model, orders and compares
// their current values through per-property comparators, and renders
// deterministic debug dumps of the whole set.
package statetrack

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drpcorg/statetrack/compare"
	"github.com/drpcorg/statetrack/model"
	"github.com/drpcorg/statetrack/utils"
)

var (
	ErrUniqueViolation = errors.New("statetrack: hash index unique constraint violation")
	ErrWrongTracker    = errors.New("statetrack: the entry belongs to another tracker")
	ErrBadValueCount   = errors.New("statetrack: wrong number of field values")
)

var TrackedEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "statetrack",
	Subsystem: "tracker",
	Name:      "entries",
}, []string{"class"})

var KeyCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "statetrack",
	Subsystem: "tracker",
	Name:      "key_cache_hits",
})

type Options struct {
	Log         utils.Logger
	MaxKeyCache int
	// Render produces the one-line debug form of an entry; defaults
	// to EntryString.
	Render func(e *Entry) string
}

func (o *Options) SetDefaults() {
	if o.Log == nil {
		o.Log = utils.NewDefaultLogger(slog.LevelInfo)
	}
	if o.MaxKeyCache == 0 {
		o.MaxKeyCache = 4096
	}
	if o.Render == nil {
		o.Render = EntryString
	}
}

// Tracker owns the model, the comparator factory (and with it the
// per-property comparator cache, scoped to the model's lifetime) and
// the set of tracked entries.
type Tracker struct {
	m        *model.Model
	cmps     *compare.Factory
	entries  utils.CMap[uint64, *Entry]
	last     atomic.Uint64
	keyCache *lru.Cache[uint64, uint64]
	log      utils.Logger
	opts     Options

	// guards the check-then-insert of hash index uniqueness
	lock sync.Mutex
}

func NewTracker(m *model.Model, opts Options) (*Tracker, error) {
	opts.SetDefaults()
	if !m.Sealed() {
		m.Finalize()
	}
	t := &Tracker{
		m:    m,
		cmps: compare.NewFactory(opts.Log),
		log:  opts.Log,
		opts: opts,
	}
	t.keyCache, _ = lru.New[uint64, uint64](opts.MaxKeyCache)
	// Indexed fields need comparators for uniqueness checks; build them
	// now so a bad index declaration fails the tracker, not a later Add.
	// Other fields stay lazy: a class may legally carry fields no one
	// ever orders.
	for _, c := range m.Classes() {
		for i := range c.Fields {
			if c.Fields[i].Index != model.HashIndex {
				continue
			}
			if _, err := t.cmps.Comparator(c.Property(i)); err != nil {
				return nil, fmt.Errorf("%s: %w", c.Name, err)
			}
		}
	}
	return t, nil
}

func (t *Tracker) Model() *model.Model { return t.m }

// Comparators exposes the comparator factory, e.g. for callers doing
// their own per-property ordering.
func (t *Tracker) Comparators() *compare.Factory { return t.cmps }

// Track attaches an existing entity instance as Unchanged.
func (t *Tracker) Track(class string, vals []any) (*Entry, error) {
	return t.attach(class, vals, StateUnchanged)
}

// Add attaches a new entity instance as Added.
func (t *Tracker) Add(class string, vals []any) (*Entry, error) {
	return t.attach(class, vals, StateAdded)
}

func (t *Tracker) attach(class string, vals []any, state EntityState) (*Entry, error) {
	c, err := t.m.Class(class)
	if err != nil {
		return nil, err
	}
	if len(vals) > len(c.Fields) {
		return nil, fmt.Errorf("%w: %s has %d fields, got %d",
			ErrBadValueCount, class, len(c.Fields), len(vals))
	}
	for i, v := range vals {
		if !kindOK(c.Fields[i].Kind, v) {
			return nil, fmt.Errorf("%w: %s.%s (%c) <- %T", ErrBadValueForKind,
				class, c.Fields[i].Name, c.Fields[i].Kind, v)
		}
	}
	e := newEntry(t.last.Add(1), c, vals, state)
	t.lock.Lock()
	defer t.lock.Unlock()
	if err = t.checkUnique(e); err != nil {
		return nil, err
	}
	t.entries.Store(e.id, e)
	TrackedEntries.WithLabelValues(class).Inc()
	t.log.Debug("entry attached", "class", class, "id", e.id, "state", string(state))
	return e, nil
}

// checkUnique scans same-class entries on every hash-indexed field,
// comparing through the field's comparator. A failed comparison aborts
// the attach. Called under t.lock.
func (t *Tracker) checkUnique(e *Entry) error {
	for i := range e.class.Fields {
		p := e.class.Property(i)
		if p.Index != model.HashIndex {
			continue
		}
		cmp, err := t.cmps.Comparator(p)
		if err != nil {
			return err
		}
		var dup error
		t.entries.Range(func(_ uint64, other *Entry) bool {
			if other.class != e.class || other.state == StateDeleted {
				return true
			}
			c, cerr := cmp.Compare(e, other)
			if cerr != nil {
				dup = cerr
				return false
			}
			if c == 0 && e.CurrentValue(p) != nil {
				dup = fmt.Errorf("%w: %s.%s", ErrUniqueViolation, e.class.Name, p.Name)
				return false
			}
			return true
		})
		if dup != nil {
			return dup
		}
	}
	return nil
}

// Delete marks the entry Deleted; an entry that was only Added is
// detached entirely, there is nothing to delete downstream.
func (t *Tracker) Delete(e *Entry) {
	if cur, ok := t.entries.Load(e.id); !ok || cur != e {
		return
	}
	if e.state == StateAdded {
		t.entries.Delete(e.id)
		TrackedEntries.WithLabelValues(e.class.Name).Dec()
		return
	}
	e.state = StateDeleted
}

func (t *Tracker) detach(e *Entry) {
	t.entries.Delete(e.id)
	TrackedEntries.WithLabelValues(e.class.Name).Dec()
}

// Entries returns a snapshot of the tracked set in attach order.
func (t *Tracker) Entries() []*Entry {
	out := make([]*Entry, 0, t.entries.Len())
	t.entries.Range(func(_ uint64, e *Entry) bool {
		out = append(out, e)
		return true
	})
	slices.SortFunc(out, func(a, b *Entry) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}

// FindByKey locates an entry by class and primary key values. The key
// hash cache gives a fast path; every hit is verified through the key
// comparators, so a hash collision or a stale slot only costs a scan.
func (t *Tracker) FindByKey(class string, key []any) (*Entry, error) {
	c, err := t.m.Class(class)
	if err != nil {
		return nil, err
	}
	keys := c.Keys()
	if len(keys) == 0 || len(key) != len(keys) {
		return nil, fmt.Errorf("%w: %s key has %d members, got %d",
			ErrBadValueCount, class, len(keys), len(key))
	}
	h := keyHash(class, key)
	if id, ok := t.keyCache.Get(h); ok {
		if e, ok := t.entries.Load(id); ok && e.class == c {
			match, err := t.keyEqual(e, keys, key)
			if err != nil {
				return nil, err
			}
			if match {
				KeyCacheHits.Inc()
				return e, nil
			}
		}
	}
	var found *Entry
	var ferr error
	t.entries.Range(func(_ uint64, e *Entry) bool {
		if e.class != c || e.state == StateDeleted {
			return true
		}
		match, err := t.keyEqual(e, keys, key)
		if err != nil {
			ferr = err
			return false
		}
		if match {
			found = e
			return false
		}
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	if found != nil {
		t.keyCache.Add(h, found.id)
	}
	return found, nil
}

// keyHash digests the class name and the rendered key values. Rendering
// keeps the hash deterministic across runs; comparator verification on
// every hit makes collisions harmless.
func keyHash(class string, key []any) uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte(class))
	for _, v := range key {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(valueString(v)))
	}
	return h.Sum64()
}

func (t *Tracker) keyEqual(e *Entry, keys []*model.Property, key []any) (bool, error) {
	for i, p := range keys {
		cmp, err := t.cmps.Comparator(p)
		if err != nil {
			return false, err
		}
		c, err := cmp.CompareValues(e.CurrentValue(p), key[i])
		if err != nil {
			return false, err
		}
		if c != 0 {
			return false, nil
		}
	}
	return true, nil
}
