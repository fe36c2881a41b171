package tagindex

import (
	"encoding/binary"
	"slices"
	"sync"

	"github.com/cespare/xxhash"
)

// Registry hands out one shared Index per unique sorted tag sequence.
// Indexes are immutable once published.
type Registry struct {
	mu      sync.RWMutex
	buckets map[uint64][]*Index
}

func NewRegistry() *Registry {
	return &Registry{buckets: make(map[uint64][]*Index)}
}

var shared = NewRegistry()

// Shared returns the process-wide index for tags.
func Shared(tags ...int) *Index {
	return shared.Get(tags...)
}

// Get returns the registered index for the sorted form of tags, building and
// publishing it on first use.
func (r *Registry) Get(tags ...int) *Index {
	candidate := New(tags...)
	key := sum(candidate.tags)

	r.mu.RLock()
	found := lookup(r.buckets[key], candidate)
	r.mu.RUnlock()
	if found != nil {
		return found
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if found := lookup(r.buckets[key], candidate); found != nil {
		return found
	}
	r.buckets[key] = append(r.buckets[key], candidate)
	return candidate
}

// Len returns the number of distinct tag sequences registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, bucket := range r.buckets {
		n += len(bucket)
	}
	return n
}

func lookup(bucket []*Index, candidate *Index) *Index {
	for _, idx := range bucket {
		if slices.Equal(idx.tags, candidate.tags) {
			return idx
		}
	}
	return nil
}

func sum(sorted []int) uint64 {
	d := xxhash.New()
	var word [8]byte
	for _, tag := range sorted {
		binary.BigEndian.PutUint64(word[:], uint64(tag))
		d.Write(word[:])
	}
	return d.Sum64()
}
