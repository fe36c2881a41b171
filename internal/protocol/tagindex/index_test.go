package tagindex

import (
	"slices"
	"sync"
	"testing"
)

func TestPermutedTagSetsDispatchIdentically(t *testing.T) {
	want := []int{4, 8, 15, 16, 23, 42}
	indexes := []*Index{
		New(4, 8, 15, 16, 23, 42),
		New(16, 8, 23, 42, 15, 4),
		New(42, 23, 16, 15, 8, 4),
	}
	for i, idx := range indexes {
		if !slices.Equal(idx.Sorted(), want) {
			t.Fatalf("index %d sorted=%v", i, idx.Sorted())
		}
		if !idx.Equal(indexes[0]) {
			t.Fatalf("index %d not equal to index 0", i)
		}
	}
	for tag := 0; tag < 50; tag++ {
		slot0, ok0 := indexes[0].IndexOf(tag)
		for i, idx := range indexes[1:] {
			slot, ok := idx.IndexOf(tag)
			if slot != slot0 || ok != ok0 {
				t.Fatalf("tag %d: index %d gave (%d,%v) want (%d,%v)", tag, i+1, slot, ok, slot0, ok0)
			}
		}
	}
}

func TestIndexOfSlotsFollowSortedOrder(t *testing.T) {
	idx := New(42, 4, 16)
	cases := []struct {
		tag  int
		slot int
		ok   bool
	}{
		{4, 0, true},
		{16, 1, true},
		{42, 2, true},
		{0, 3, false},
		{17, 3, false},
		{100, 3, false},
	}
	for _, tc := range cases {
		slot, ok := idx.IndexOf(tc.tag)
		if slot != tc.slot || ok != tc.ok {
			t.Fatalf("IndexOf(%d)=(%d,%v) want (%d,%v)", tc.tag, slot, ok, tc.slot, tc.ok)
		}
		if idx.Contains(tc.tag) != tc.ok {
			t.Fatalf("Contains(%d) mismatch", tc.tag)
		}
	}
}

func TestEmptyIndex(t *testing.T) {
	idx := New()
	if _, ok := idx.IndexOf(1); ok || idx.Len() != 0 {
		t.Fatalf("expected empty index")
	}
}

func TestDuplicateTagPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(1, 2, 1)
}

func TestRegistrySharesPermutations(t *testing.T) {
	r := NewRegistry()
	a := r.Get(4, 8, 15)
	b := r.Get(15, 4, 8)
	c := r.Get(4, 8, 16)
	if a != b {
		t.Fatalf("expected shared index for permuted tag sets")
	}
	if a == c {
		t.Fatalf("expected distinct index for distinct tag set")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 registered sequences, got %d", r.Len())
	}
}

func TestRegistryConcurrentGet(t *testing.T) {
	r := NewRegistry()
	const workers = 16
	out := make([]*Index, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				out[i] = r.Get(35, 49, 56, 34)
			} else {
				out[i] = r.Get(56, 34, 49, 35)
			}
		}(i)
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if out[i] != out[0] {
			t.Fatalf("worker %d got a different index", i)
		}
	}
}
