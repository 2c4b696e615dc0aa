package ast

import (
	"fmt"
	"go/token"
)

// Positioner allows finding the location in the original source unit.
// Positions are byte offsets into the unit's source.
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Range represents a range of positions in the source code.
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

// Pos returns the starting position of the range.
func (r Range) Pos() token.Pos { return r.PosStart }

// End returns the ending position of the range.
func (r Range) End() token.Pos { return r.PosEnd }

// Len is the number of bytes covered by the range.
func (r Range) Len() int { return int(r.PosEnd - r.PosStart) }

// String returns a string representation of the range.
func (r Range) String() string {
	if r.PosStart == r.PosEnd {
		return fmt.Sprintf("%v", r.PosStart)
	}
	return fmt.Sprintf("%v-%v", r.PosStart, r.PosEnd)
}

// Covers reports whether r contains the whole of [start, end).
func (r Range) Covers(start, end token.Pos) bool {
	return r.PosStart <= start && end <= r.PosEnd
}

// RangeOf creates a Range from a Positioner.
func RangeOf(p Positioner) Range {
	if p == nil {
		return Range{}
	}
	if asRange, ok := p.(Range); ok {
		return asRange
	}
	return Range{p.Pos(), p.End()}
}

// RangeFrom creates a Range from an offset and a length, as used by editor selections.
func RangeFrom(offset, length int) Range {
	return Range{token.Pos(offset), token.Pos(offset + length)}
}

// Position converts a byte offset into a 1-based line and column.
func (u *Unit) Position(pos token.Pos) (line, col int) {
	offset := min(max(int(pos), 0), len(u.Source))
	line, col = 1, 1
	for _, b := range u.Source[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
