// Package configutil holds small generic comparison helpers for config
// types. No other package in this module imports it.
package configutil

import "slices"

// FastEqual short-circuits pointer equality (including the nil/nil and
// nil-vs-non-nil cases) before falling back to slowEqual.
func FastEqual[V any](a, b *V, slowEqual func(a, b *V) bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return slowEqual(a, b)
}

// PtrEqual compares two optional scalar fields.
func PtrEqual[T comparable](a, b *T) bool {
	return FastEqual(a, b, func(a, b *T) bool { return *a == *b })
}

// StringSliceEqual compares two option lists order-sensitively, since
// XMODIFIERS/-O option order is observable (GIT_OPTION_<i>).
func StringSliceEqual(a, b []string) bool {
	return slices.Equal(a, b)
}
