package domain

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// OrderColumn sorts a kanban column's merged entities by their manual sort
// order for that stage (default 0 when unset), ties broken by the
// representative's creation time ascending then ID. The sort is total and
// deterministic.
func OrderColumn(column []Merged, stage Stage) []Merged {
	ordered := append([]Merged(nil), column...)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if oa, ob := a.SortOrderFor(stage), b.SortOrderFor(stage); oa != ob {
			return oa < ob
		}
		return recordBefore(a.Record, b.Record)
	})
	return ordered
}

// SpliceReorder moves the element at fromIndex to toIndex (0-indexed,
// splice-and-reinsert semantics) and returns the new ordering. The input
// slice is not modified. Out-of-range indexes are an error; equal indexes
// return a copy unchanged (the caller treats that as a no-op).
func SpliceReorder(ids []uuid.UUID, fromIndex, toIndex int) ([]uuid.UUID, error) {
	if fromIndex < 0 || fromIndex >= len(ids) {
		return nil, fmt.Errorf("from index %d out of range [0,%d)", fromIndex, len(ids))
	}
	if toIndex < 0 || toIndex >= len(ids) {
		return nil, fmt.Errorf("to index %d out of range [0,%d)", toIndex, len(ids))
	}

	result := append([]uuid.UUID(nil), ids...)
	if fromIndex == toIndex {
		return result, nil
	}

	moved := result[fromIndex]
	result = append(result[:fromIndex], result[fromIndex+1:]...)
	result = append(result[:toIndex], append([]uuid.UUID{moved}, result[toIndex:]...)...)
	return result, nil
}

// IndexOf returns the position of id within ids, or -1.
func IndexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}
