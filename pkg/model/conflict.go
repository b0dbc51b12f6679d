package model

import "cmp"

// Overlaps reports whether the half-open intervals [start1, end1) and [start2, end2) share some instant.
// Intervals that exactly abut (end1 == start2) do not conflict.
func Overlaps[T cmp.Ordered](start1, end1, start2, end2 T) bool {
	return !(end1 <= start2 || end2 <= start1)
}
