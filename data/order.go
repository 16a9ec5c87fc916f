package data

import (
	"fmt"
	"strings"
)

// Order defines the direction of a range scan.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return "unknown"
	}
}

// ParseOrder accepts "asc", "ascending", "desc" and "descending" in any case.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}

	return Ascending, fmt.Errorf("nskv: invalid order '%s'", s)
}
