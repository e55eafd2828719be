package counters

import "sort"

// Counter represents a named counter stack on a card (e.g. "+1/+1" x2).
type Counter struct {
	Name  string
	Count int
}

// Copy creates a deep copy of the counter.
func (c *Counter) Copy() *Counter {
	return &Counter{
		Name:  c.Name,
		Count: c.Count,
	}
}

// Counters manages the collection of counters on a single card. Counter kinds
// are free-form strings; the engine never interprets them beyond the
// loyalty-style exception to the zero floor.
type Counters struct {
	Counters map[string]*Counter
}

// NewCounters creates an empty collection.
func NewCounters() *Counters {
	return &Counters{
		Counters: make(map[string]*Counter),
	}
}

// Adjust applies delta to the named counter and returns the resulting count.
// Counters that may not go negative are floored at zero; a counter that lands
// on zero is removed from the collection entirely.
func (cs *Counters) Adjust(name string, delta int, allowNegative bool) int {
	counter, ok := cs.Counters[name]
	if !ok {
		counter = &Counter{Name: name}
		cs.Counters[name] = counter
	}
	counter.Count += delta
	if !allowNegative && counter.Count < 0 {
		counter.Count = 0
	}
	if counter.Count == 0 {
		delete(cs.Counters, name)
	}
	return counter.Count
}

// GetCount returns the count of counters with the given name.
func (cs *Counters) GetCount(name string) int {
	if counter, ok := cs.Counters[name]; ok {
		return counter.Count
	}
	return 0
}

// HasCounter returns true if there are any counters with the given name.
func (cs *Counters) HasCounter(name string) bool {
	return cs.GetCount(name) != 0
}

// Len returns the number of distinct counter kinds present.
func (cs *Counters) Len() int {
	return len(cs.Counters)
}

// Copy creates a deep copy of the collection.
func (cs *Counters) Copy() *Counters {
	out := NewCounters()
	for name, counter := range cs.Counters {
		out.Counters[name] = counter.Copy()
	}
	return out
}

// ToMap flattens the collection into a plain name -> count map for the wire.
func (cs *Counters) ToMap() map[string]int {
	out := make(map[string]int, len(cs.Counters))
	for name, counter := range cs.Counters {
		out[name] = counter.Count
	}
	return out
}

// FromMap rebuilds a collection from a wire map, dropping zero entries.
func FromMap(m map[string]int) *Counters {
	cs := NewCounters()
	for name, count := range m {
		if count == 0 {
			continue
		}
		cs.Counters[name] = &Counter{Name: name, Count: count}
	}
	return cs
}

// Names returns the counter kinds present, sorted for deterministic output.
func (cs *Counters) Names() []string {
	names := make([]string, 0, len(cs.Counters))
	for name := range cs.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
