package subscriptions

import (
	"fmt"
	"strings"
)

// Direction is a sort direction as the API spells it.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Sort orders a list request by one field.
type Sort struct {
	Field     string
	Direction Direction
}

// String serializes the sort as "<field>,<asc|desc>".
func (s Sort) String() string {
	dir := s.Direction
	if dir != Desc {
		dir = Asc
	}
	return s.Field + "," + string(dir)
}

// ParseSort parses "<field>[,<asc|desc>]". A missing direction means asc.
func ParseSort(raw string) (Sort, error) {
	field, dir, _ := strings.Cut(strings.TrimSpace(raw), ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return Sort{}, fmt.Errorf("invalid sort %q: missing field", raw)
	}
	switch Direction(strings.ToLower(strings.TrimSpace(dir))) {
	case "", Asc:
		return Sort{Field: field, Direction: Asc}, nil
	case Desc:
		return Sort{Field: field, Direction: Desc}, nil
	default:
		return Sort{}, fmt.Errorf("invalid sort %q: direction must be asc or desc", raw)
	}
}
