package statetrack

import (
	"encoding/binary"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drpcorg/statetrack/model"
)

// The entry store persists the tracked set into pebble, one KV per
// field value, TLV-encoded and tagged with the field kind. Fields with
// a converter attached are stored in their provider form; that is the
// whole point of having a provider kind.

var ErrNotPersistable = errors.New("statetrack: field kind is not persistable")

var StoreFlushes = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "statetrack",
	Subsystem: "store",
	Name:      "flushes",
})

// 'O', entry id, field offset; the class-name record sits at offset
// 0xff so it is the last key of an entry's range.
const classOff = 0xff

const OKeyLen = 1 + 8 + 1

func OKey(id uint64, off int64) (key []byte) {
	var ret = [OKeyLen]byte{'O'}
	key = binary.BigEndian.AppendUint64(ret[:1], id)
	key = append(key, byte(off))
	return
}

func OKeyIdOff(key []byte) (id uint64, off int64) {
	if len(key) != OKeyLen {
		return 0, -1
	}
	id = binary.BigEndian.Uint64(key[1 : OKeyLen-1])
	off = int64(key[OKeyLen-1])
	return
}

func OpenStore(dir string) (*pebble.DB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "statetrack: store open failed")
	}
	return db, nil
}

// encodeValue produces the TLV record for one field value, pushing it
// through the converter first when one is attached.
func encodeValue(p *model.Property, v any) ([]byte, error) {
	if v == nil {
		return toytlv.TinyRecord('0', nil), nil
	}
	kind := p.Kind
	if p.Converter != nil {
		pv, err := p.Converter.ToProvider(v)
		if err != nil {
			return nil, err
		}
		v, kind = pv, p.Converter.ProviderKind()
	}
	switch kind {
	case model.Int:
		return toytlv.Record(kind, ZipInt64(v.(int64))), nil
	case model.Uint:
		return toytlv.Record(kind, ZipUint64(v.(uint64))), nil
	case model.Float:
		return toytlv.Record(kind, ZipFloat64(v.(float64))), nil
	case model.String:
		return toytlv.Record(kind, []byte(v.(string))), nil
	case model.Time:
		return toytlv.Record(kind, ZipInt64(v.(time.Time).UnixMicro())), nil
	case model.Bool:
		b := byte(0)
		if v.(bool) {
			b = 1
		}
		return toytlv.Record(kind, []byte{b}), nil
	case model.Enum:
		return toytlv.Record(kind, ZipInt64(int64(v.(int32)))), nil
	case model.Bytes:
		return toytlv.Record(kind, v.([]byte)), nil
	}
	return nil, errors.Wrapf(ErrNotPersistable, "%s (%c)", p.Name, kind)
}

func decodeValue(p *model.Property, rec []byte) (any, error) {
	if toytlv.Lit(rec) == '0' {
		return nil, nil
	}
	lit, body, _ := toytlv.TakeAny(rec)
	var v any
	switch lit {
	case model.Int:
		v = UnzipInt64(body)
	case model.Uint:
		v = UnzipUint64(body)
	case model.Float:
		v = UnzipFloat64(body)
	case model.String:
		v = string(body)
	case model.Time:
		v = time.UnixMicro(UnzipInt64(body)).UTC()
	case model.Bool:
		v = len(body) > 0 && body[0] != 0
	case model.Enum:
		v = int32(UnzipInt64(body))
	case model.Bytes:
		v = append([]byte{}, body...)
	default:
		return nil, errors.Wrapf(ErrNotPersistable, "%s (%c)", p.Name, lit)
	}
	if p.Converter != nil && lit == p.Converter.ProviderKind() {
		return p.Converter.FromProvider(v)
	}
	return v, nil
}

// records builds the stored form of an entry: one record per field in
// offset order, then the class-name record.
func (e *Entry) records() (recs toyqueue.Records, err error) {
	for i := range e.class.Fields {
		rec, err := encodeValue(&e.class.Fields[i], e.vals[i])
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	recs = append(recs, toytlv.Record('C', []byte(e.class.Name)))
	return
}

// SaveAll rewrites the whole store from the current tracked set.
// Deleted entries are dropped and detached; everything else lands as
// its current values with the Unchanged state on reload.
func (t *Tracker) SaveAll(db *pebble.DB) error {
	batch := db.NewBatch()
	defer batch.Close()
	if err := batch.DeleteRange([]byte{'O'}, []byte{'P'}, nil); err != nil {
		return errors.Wrap(err, "statetrack: store clear failed")
	}
	var deleted []*Entry
	for _, e := range t.Entries() {
		if e.state == StateDeleted {
			deleted = append(deleted, e)
			continue
		}
		recs, err := e.records()
		if err != nil {
			return err
		}
		for i, rec := range recs[:len(recs)-1] {
			if err = batch.Set(OKey(e.id, int64(i)), rec, nil); err != nil {
				return errors.Wrap(err, "statetrack: store write failed")
			}
		}
		if err = batch.Set(OKey(e.id, classOff), recs[len(recs)-1], nil); err != nil {
			return errors.Wrap(err, "statetrack: store write failed")
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "statetrack: store commit failed")
	}
	for _, e := range deleted {
		t.detach(e)
	}
	StoreFlushes.Inc()
	t.log.Debug("store flushed", "entries", t.entries.Len())
	return nil
}

// LoadAll restores entries from the store as Unchanged, keeping their
// stored ids.
func (t *Tracker) LoadAll(db *pebble.DB) error {
	it, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{'O'},
		UpperBound: []byte{'P'},
	})
	if err != nil {
		return errors.Wrap(err, "statetrack: store scan failed")
	}
	defer it.Close()

	var id uint64
	var class string
	recs := map[int64][]byte{}
	flush := func() error {
		if class == "" {
			return nil
		}
		c, err := t.m.Class(class)
		if err != nil {
			return err
		}
		vals := make([]any, len(c.Fields))
		for off, rec := range recs {
			if off < 0 || int(off) >= len(c.Fields) {
				continue
			}
			if vals[off], err = decodeValue(c.Property(int(off)), rec); err != nil {
				return err
			}
		}
		e := newEntry(id, c, vals, StateUnchanged)
		t.entries.Store(e.id, e)
		TrackedEntries.WithLabelValues(class).Inc()
		if last := t.last.Load(); last < id {
			t.last.CompareAndSwap(last, id)
		}
		class = ""
		recs = map[int64][]byte{}
		return nil
	}

	for it.First(); it.Valid(); it.Next() {
		kid, off := OKeyIdOff(it.Key())
		if off < 0 {
			continue
		}
		if kid != id {
			if err = flush(); err != nil {
				return err
			}
			id = kid
		}
		if off == classOff {
			_, body, _ := toytlv.TakeAny(it.Value())
			class = string(body)
		} else {
			recs[off] = append([]byte{}, it.Value()...)
		}
	}
	return flush()
}
