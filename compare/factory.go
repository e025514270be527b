package compare

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/drpcorg/statetrack/model"
	"github.com/drpcorg/statetrack/utils"
)

var ComparatorBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "statetrack",
	Subsystem: "compare",
	Name:      "comparator_builds",
}, []string{"field", "strategy"})

var ComparatorCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "statetrack",
	Subsystem: "compare",
	Name:      "comparator_cache_hits",
})

// Factory builds and caches one comparator per property. A factory is
// created per model and lives as long as the model does; the cache is
// keyed by property identity. Strategy selection is deterministic, so
// a racing duplicate build yields an equivalent comparator and either
// one may win the cache slot.
type Factory struct {
	cache *xsync.MapOf[*model.Property, Comparator]
	log   utils.Logger
}

func NewFactory(log utils.Logger) *Factory {
	return &Factory{
		cache: xsync.NewMapOf[*model.Property, Comparator](),
		log:   log,
	}
}

// Comparator returns the cached comparator for the property, building
// it on first use. An unsupported kind with no usable converter is a
// model-definition defect and errors out; nothing is cached then.
func (f *Factory) Comparator(p *model.Property) (Comparator, error) {
	if c, ok := f.cache.Load(p); ok {
		ComparatorCacheHits.Inc()
		return c, nil
	}
	c, strategy, err := newComparator(p)
	if err != nil {
		return nil, err
	}
	actual, loaded := f.cache.LoadOrStore(p, c)
	if !loaded {
		ComparatorBuilds.WithLabelValues(p.Name, strategy).Inc()
		f.log.Debug("comparator built", "field", p.Name, "kind", string(p.Kind), "strategy", strategy)
	}
	return actual, nil
}

// Prime builds comparators for every property of the model eagerly so
// that unsupported kinds surface at model build, not first comparison.
func (f *Factory) Prime(m *model.Model) error {
	for _, c := range m.Classes() {
		for i := range c.Fields {
			if _, err := f.Comparator(c.Property(i)); err != nil {
				return fmt.Errorf("%s.%s: %w", c.Name, c.Fields[i].Name, err)
			}
		}
	}
	return nil
}

// forKind picks a strategy for one kind tag: native ordering first,
// then structural, then the default comparer capability.
func forKind(p *model.Property, kind byte) (Comparator, string) {
	if cf := kindCompare(kind); cf != nil {
		return &typedComparator{prop: p, cmp: cf}, "typed"
	}
	switch kind {
	case model.Bytes:
		return &structuralComparator{prop: p}, "structural"
	case model.Custom:
		return &defaultComparator{prop: p}, "default"
	}
	return nil, ""
}

func newComparator(p *model.Property) (Comparator, string, error) {
	if c, strategy := forKind(p, p.Kind); c != nil {
		return c, strategy, nil
	}
	if p.Converter != nil {
		if c, strategy := forKind(p, p.Converter.ProviderKind()); c != nil {
			return &convertingComparator{conv: p.Converter, next: c},
				"converting_" + strategy, nil
		}
	}
	return nil, "", fmt.Errorf("%w: property %q of kind %c", ErrNotComparable, p.Name, p.Kind)
}
