// Package drinks holds the drink-type vocabulary and the pure arithmetic
// behind session statistics. Nothing in here touches the database.
package drinks

import (
	"errors"
	"strings"
	"time"
)

type Type string

const (
	Beer     Type = "BEER"
	Wine     Type = "WINE"
	Cocktail Type = "COCKTAIL"
	Shot     Type = "SHOT"
)

// Types lists every drink type in display order.
var Types = []Type{Beer, Wine, Cocktail, Shot}

var ErrUnknownType = errors.New("unknown drink type")

func (t Type) Valid() bool {
	switch t {
	case Beer, Wine, Cocktail, Shot:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// ParseType accepts any casing ("beer", "Beer", "BEER").
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrUnknownType
	}
	return t, nil
}

// StartOfDay zeroes the clock of now as seen in loc. A nil loc means now's own location.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
