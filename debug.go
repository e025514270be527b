package statetrack

import (
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/drpcorg/statetrack/compare"
)

// The debug ordering is a diagnostic facility: a total, deterministic
// order over the whole tracked set so that dumps diff cleanly between
// runs. It deliberately takes the simple path: byte-wise class name
// first, then key values through the default general comparer, raw and
// converter-free, silently skipping key properties whose values offer
// no ordering. It never fails, whatever the key types are.

// DebugCompare is the composite comparator behind DebugOrder. The key
// tie-break only runs when both entries share the same class instance;
// a mere name match across models says nothing about field offsets.
func DebugCompare(a, b *Entry) int {
	if c := strings.Compare(a.class.Name, b.class.Name); c != 0 {
		return c
	}
	if a.class != b.class {
		return 0
	}
	for i := range a.class.Fields {
		p := a.class.Property(i)
		if !p.PK {
			continue
		}
		if c, ok := compare.DefaultCompare(a.CurrentValue(p), b.CurrentValue(p)); ok && c != 0 {
			return c
		}
	}
	return 0
}

// DebugOrder sorts a copy of the entry slice into the debug order.
// The sort is stable, so entries the composite comparator cannot tell
// apart keep their incoming relative order.
func DebugOrder(entries []*Entry) []*Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, DebugCompare)
	return out
}

// DebugOrder returns all tracked entries in the debug order. Entries()
// snapshots in attach order, which pins the tie behavior too.
func (t *Tracker) DebugOrder() []*Entry {
	return DebugOrder(t.Entries())
}

func valueString(v any) string {
	if v == nil {
		return "~"
	}
	switch tv := v.(type) {
	case string:
		return strconv.Quote(tv)
	case []byte:
		return hex.EncodeToString(tv)
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(tv, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

// EntryString renders one entry as a single line:
//
//	Order.U:	Id=1 Name:"cake"
func EntryString(e *Entry) string {
	line := make([]byte, 0, 128)
	line = append(line, e.class.Name...)
	line = append(line, '.', byte(e.state), ':', '\t')
	for i := range e.class.Fields {
		f := &e.class.Fields[i]
		if i > 0 {
			line = append(line, ' ')
		}
		line = append(line, f.Name...)
		if f.PK {
			line = append(line, '=')
		} else {
			line = append(line, ':')
		}
		line = append(line, valueString(e.vals[f.Offset])...)
	}
	return string(line)
}

// DumpEntries writes one line per entry, debug-ordered.
func (t *Tracker) DumpEntries(writer io.Writer) {
	for _, e := range t.DebugOrder() {
		fmt.Fprintln(writer, t.opts.Render(e))
	}
}

// DumpClasses writes the model's class declarations, one per line.
func (t *Tracker) DumpClasses(writer io.Writer) {
	for _, c := range t.m.Classes() {
		fmt.Fprintln(writer, c.String())
	}
}

func (t *Tracker) DumpAll(writer io.Writer) {
	t.DumpClasses(writer)
	fmt.Fprintln(writer, "")
	t.DumpEntries(writer)
}

var _ compare.Valuer = (*Entry)(nil)
