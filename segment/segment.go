// Package segment provides the seven-segment encoding for the large digit display.
//
// A Pattern is shifted out most-significant bit first, so the bit layout below
// matches the physical wiring of the driver boards.
package segment

import (
	"errors"
	"fmt"
	"strings"
)

// Segment bits as wired on the driver boards.
const (
	SegA  Pattern = 1 << 0
	SegF  Pattern = 1 << 1
	SegG  Pattern = 1 << 2
	SegE  Pattern = 1 << 3
	SegD  Pattern = 1 << 4
	SegC  Pattern = 1 << 5
	SegB  Pattern = 1 << 6
	SegDP Pattern = 1 << 7
)

// ErrInvalidSymbol is returned when a value outside the closed Symbol set is encoded.
var ErrInvalidSymbol = errors.New("segment: invalid symbol")

// Pattern is the segment bitmask for a single digit.
type Pattern uint8

// String lists the lit segments in a-g order, followed by "." when the
// decimal point is lit. A blank pattern returns "".
func (p Pattern) String() string {
	var sb strings.Builder
	for _, s := range order {
		if p&s.bit != 0 {
			sb.WriteByte(s.name)
		}
	}
	if p&SegDP != 0 {
		sb.WriteByte('.')
	}
	return sb.String()
}

var order = [...]struct {
	bit  Pattern
	name byte
}{
	{SegA, 'a'}, {SegB, 'b'}, {SegC, 'c'}, {SegD, 'd'}, {SegE, 'e'}, {SegF, 'f'}, {SegG, 'g'},
}

// Symbol is one of the characters a digit can show.
type Symbol uint8

// Digits occupy 0-9 so that Symbol(n) is the digit n.
const (
	Zero Symbol = iota
	One
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Blank
	Dash
	C // lowercase "c", used as an error indicator

	numSymbols
)

var table = [numSymbols]Pattern{
	Zero:  SegA | SegB | SegC | SegD | SegE | SegF,
	One:   SegB | SegC,
	Two:   SegA | SegB | SegD | SegE | SegG,
	Three: SegA | SegB | SegC | SegD | SegG,
	Four:  SegB | SegC | SegF | SegG,
	Five:  SegA | SegC | SegD | SegF | SegG,
	Six:   SegA | SegC | SegD | SegE | SegF | SegG,
	Seven: SegA | SegB | SegC,
	Eight: SegA | SegB | SegC | SegD | SegE | SegF | SegG,
	Nine:  SegA | SegB | SegC | SegD | SegF | SegG,
	Blank: 0,
	Dash:  SegG,
	C:     SegD | SegE | SegG,
}

// Valid reports whether s is part of the closed symbol set.
func (s Symbol) Valid() bool {
	return s < numSymbols
}

func (s Symbol) String() string {
	switch {
	case s <= Nine:
		return string(rune('0' + s))
	case s == Blank:
		return " "
	case s == Dash:
		return "-"
	case s == C:
		return "c"
	}
	return fmt.Sprintf("Symbol(%d)", uint8(s))
}

// Digit returns the symbol for the decimal digit n (0-9).
func Digit(n int) (Symbol, error) {
	if n < 0 || n > 9 {
		return 0, fmt.Errorf("%w: digit %d", ErrInvalidSymbol, n)
	}
	return Symbol(n), nil
}

// Encode returns the segment pattern for s, with the decimal point lit if dp is set.
func Encode(s Symbol, dp bool) (Pattern, error) {
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSymbol, uint8(s))
	}
	p := table[s]
	if dp {
		p |= SegDP
	}
	return p, nil
}

// MustEncode is like Encode but panics on an invalid symbol.
func MustEncode(s Symbol, dp bool) Pattern {
	p, err := Encode(s, dp)
	if err != nil {
		panic(err)
	}
	return p
}
