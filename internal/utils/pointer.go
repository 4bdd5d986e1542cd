package utils

// Ptr returns a pointer to the passed value.
func Ptr[T any](t T) *T {
	return &t
}

// Deref returns *t, or def when t is nil.
func Deref[T any](t *T, def T) T {
	if t == nil {
		return def
	}
	return *t
}

// PtrIfSet returns nil for the zero value, so optional JSON fields are omitted.
func PtrIfSet[T comparable](t T) *T {
	var zero T
	if t == zero {
		return nil
	}
	return &t
}
