package model

// Nullable is a patch field that can be left untouched, set to a value, or
// explicitly cleared. The zero value is untouched.
type Nullable[T any] struct {
	set   bool
	value *T
}

// Set returns a Nullable that assigns v.
func Set[T any](v T) Nullable[T] {
	return Nullable[T]{set: true, value: &v}
}

// SetPtr assigns *v, or clears the field when v is nil.
func SetPtr[T any](v *T) Nullable[T] {
	if v == nil {
		return Clear[T]()
	}
	return Set(*v)
}

// Clear returns a Nullable that assigns null.
func Clear[T any]() Nullable[T] {
	return Nullable[T]{set: true}
}

// IsSet reports whether the field takes part in the patch.
func (n Nullable[T]) IsSet() bool { return n.set }

// IsNull reports whether the field is set to null.
func (n Nullable[T]) IsNull() bool { return n.set && n.value == nil }

// Ptr returns the assigned value, nil when untouched or cleared.
func (n Nullable[T]) Ptr() *T { return n.value }
