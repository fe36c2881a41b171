// Package tagindex maps tag numbers to stable slots by binary search over a
// sorted tag set.
package tagindex

import (
	"fmt"
	"slices"
)

// Index is an immutable sorted tag set. The slot of a tag is its position in
// sorted order, so two indexes built from permutations of one tag set answer
// every lookup identically.
type Index struct {
	tags []int
}

// New builds an index from tags in any order. Duplicate tags panic.
func New(tags ...int) *Index {
	sorted := slices.Clone(tags)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			panic(fmt.Sprintf("tagindex: duplicate tag %d", sorted[i]))
		}
	}
	return &Index{tags: sorted}
}

// IndexOf returns the slot of tag.
func (x *Index) IndexOf(tag int) (int, bool) {
	lo, hi := 0, len(x.tags)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if x.tags[mid] < tag {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(x.tags) && x.tags[lo] == tag {
		return lo, true
	}
	return len(x.tags), false
}

func (x *Index) Contains(tag int) bool {
	_, ok := x.IndexOf(tag)
	return ok
}

func (x *Index) Len() int { return len(x.tags) }

// Sorted returns a copy of the sorted tag sequence.
func (x *Index) Sorted() []int { return slices.Clone(x.tags) }

// Equal reports whether both indexes dispatch identically.
func (x *Index) Equal(other *Index) bool {
	if x == other {
		return true
	}
	if x == nil || other == nil {
		return false
	}
	return slices.Equal(x.tags, other.tags)
}
