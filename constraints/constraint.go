package constraints

import (
	"fmt"
	"strings"
)

type Op int

const (
	// Equals requires both sides to have the same type
	Equals Op = iota
	// Defines says the right side determines the type of the left side
	Defines
	// Subtype requires the left side to be a subtype of the right side
	Subtype
)

func (op Op) String() string {
	switch op {
	case Equals:
		return "=="
	case Defines:
		return "=^="
	case Subtype:
		return "<="
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Constraint is a type constraint between variables.
//
// The set of implementations is closed: *SimpleConstraint and *CompositeOrConstraint.
// Constraints are never mutated once built.
type Constraint interface {
	String() string
	constraint()
}

type SimpleConstraint struct {
	Left  Variable
	Right Variable
	Op    Op
}

func (c *SimpleConstraint) String() string {
	return fmt.Sprintf("%v %v %v", c.Left, c.Op, c.Right)
}

// Degenerate reports whether both sides are the same variable.
func (c *SimpleConstraint) Degenerate() bool {
	return c.Left.Hash() == c.Right.Hash()
}

// Mentions reports whether v is either side of c.
func (c *SimpleConstraint) Mentions(v Variable) bool {
	return c.Left.Hash() == v.Hash() || c.Right.Hash() == v.Hash()
}

// CompositeOrConstraint holds when at least one of its components holds.
type CompositeOrConstraint struct {
	Components []*SimpleConstraint
}

func (c *CompositeOrConstraint) String() string {
	parts := make([]string, len(c.Components))
	for i, component := range c.Components {
		parts[i] = component.String()
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

func (*SimpleConstraint) constraint()      {}
func (*CompositeOrConstraint) constraint() {}
