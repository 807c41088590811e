package domain

import "sort"

// Recent is implemented by entities that can be ordered by recency.
type Recent interface {
	Recency() Timestamp
}

// SortByRecency returns a copy of items ordered newest first.
//
// Items without a valid timestamp keep their original slot, so they never
// change the relative order of two items that both have timestamps. Ties
// keep their input order.
func SortByRecency[T any](items []T, key func(T) Timestamp) []T {
	out := make([]T, len(items))
	copy(out, items)

	slots := make([]int, 0, len(out))
	for i, it := range out {
		if key(it).Valid() {
			slots = append(slots, i)
		}
	}
	if len(slots) < 2 {
		return out
	}

	dated := make([]T, len(slots))
	for j, i := range slots {
		dated[j] = out[i]
	}
	sort.SliceStable(dated, func(a, b int) bool {
		return key(dated[a]).After(key(dated[b]).Time)
	})
	for j, i := range slots {
		out[i] = dated[j]
	}
	return out
}

// SortRecent is SortByRecency for entities implementing Recent.
func SortRecent[T Recent](items []T) []T {
	return SortByRecency(items, func(t T) Timestamp { return t.Recency() })
}
