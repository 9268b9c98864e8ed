package domain

// Optional distinguishes a field the caller omitted from one it set or
// explicitly cleared. The zero value means "omitted".
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that clears the target field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// ApplyTo writes the optional into dst: omitted leaves dst alone, null resets
// it to the zero value.
func (o Optional[T]) ApplyTo(dst *T) {
	if !o.Set {
		return
	}
	if o.Null {
		var zero T
		*dst = zero
		return
	}
	*dst = o.Value
}
