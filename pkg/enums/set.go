package enums

import (
	"fmt"
	"slices"
)

// set is the closed list of values a Postgres enum type accepts.
type set[T ~string] []T

func (s set[T]) has(v T) bool { return slices.Contains(s, v) }

func (s set[T]) parse(kind, raw string) (T, error) {
	if v := T(raw); s.has(v) {
		return v, nil
	}
	var zero T
	return zero, invalid(kind, raw)
}

func invalid(kind, raw string) error {
	return fmt.Errorf("invalid %s %q", kind, raw)
}
