package handler

import (
	"bytes"
	"encoding/json"

	"github.com/jingally/booking-system/internal/core/domain"
)

// nullable is a JSON field that distinguishes "absent" from "null". Absent
// fields are never unmarshalled, so Set stays false.
type nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// present reports whether the field carries a value.
func (n nullable[T]) present() bool { return n.Set && !n.Null }

func (n nullable[T]) optional() domain.Optional[T] {
	switch {
	case !n.Set:
		return domain.Optional[T]{}
	case n.Null:
		return domain.Null[T]()
	default:
		return domain.Some(n.Value)
	}
}

// mapOptional converts the carried value with fn, keeping Set and Null.
func mapOptional[T, U any](n nullable[T], fn func(T) U) domain.Optional[U] {
	switch {
	case !n.Set:
		return domain.Optional[U]{}
	case n.Null:
		return domain.Null[U]()
	default:
		return domain.Some(fn(n.Value))
	}
}
