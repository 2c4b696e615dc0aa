package types

import (
	"github.com/hashicorp/go-set/v3"
)

// AllSuperTypes returns t together with every class and interface it extends or implements,
// transitively. Object is always included, last.
//
// The result is ordered breadth-first from t, which makes it deterministic for a given program.
func AllSuperTypes(t *Named, object *Named) []*Named {
	if t == nil {
		return nil
	}
	seen := set.New[string](4)
	var result []*Named
	queue := []*Named{t}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == nil || !seen.Insert(current.Name) {
			continue
		}
		if current.Name != object.Name {
			result = append(result, current)
		}
		queue = append(queue, current.Super)
		queue = append(queue, current.Interfaces...)
	}
	return append(result, object)
}

// SuperTypes is AllSuperTypes without t itself.
func SuperTypes(t *Named, object *Named) []*Named {
	all := AllSuperTypes(t, object)
	result := make([]*Named, 0, len(all))
	for _, s := range all {
		if s.Name != t.Name {
			result = append(result, s)
		}
	}
	return result
}

// IsSubTypeOf reports whether a value of type t1 may be used where t2 is expected.
//
// Every type is a subtype of itself, null is a subtype of every named and array type,
// and any is compatible in both directions.
func IsSubTypeOf(t1, t2 Type, object *Named) bool {
	if t1 == nil || t2 == nil {
		return false
	}
	if Equal(t1, t2) {
		return true
	}
	if Equal(t1, AnyType) || Equal(t2, AnyType) {
		return true
	}
	switch t1 := t1.(type) {
	case Null:
		switch t2.(type) {
		case *Named, *Array:
			return true
		}
		return false
	case *Named:
		t2Named, ok := t2.(*Named)
		if !ok {
			return false
		}
		for _, super := range AllSuperTypes(t1, object) {
			if super.Name == t2Named.Name {
				return true
			}
		}
		return false
	case *Array:
		switch t2 := t2.(type) {
		case *Array:
			return IsSubTypeOf(t1.Elem, t2.Elem, object)
		case *Named:
			return t2.Name == object.Name
		}
		return false
	}
	return false
}

// Depth is the length of the longest path from t up to Object, which is at depth 0.
func Depth(t *Named, object *Named) int {
	return depth(t, object, set.New[string](4))
}

func depth(t *Named, object *Named, visiting *set.Set[string]) int {
	if t == nil || t.Name == object.Name || !visiting.Insert(t.Name) {
		return 0
	}
	defer visiting.Remove(t.Name)
	deepest := 0
	for _, parent := range append([]*Named{t.Super}, t.Interfaces...) {
		if parent == nil {
			continue
		}
		if d := depth(parent, object, visiting); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// FindMethod looks a method up by name in t and everything t inherits from.
// The superclass chain is searched before interfaces.
func FindMethod(t *Named, name string, object *Named) *Method {
	for c := t; c != nil; c = c.Super {
		if m := c.DeclaredMethod(name); m != nil {
			return m
		}
	}
	for _, super := range AllSuperTypes(t, object) {
		if m := super.DeclaredMethod(name); m != nil {
			return m
		}
	}
	return nil
}

// FindField looks a field up by name in t and everything t inherits from.
func FindField(t *Named, name string, object *Named) *Field {
	for c := t; c != nil; c = c.Super {
		if f := c.DeclaredField(name); f != nil {
			return f
		}
	}
	for _, super := range AllSuperTypes(t, object) {
		if f := super.DeclaredField(name); f != nil {
			return f
		}
	}
	return nil
}

// FindOverriddenMethodInType returns the method declared in t that m overrides, or nil.
func FindOverriddenMethodInType(t *Named, m *Method) *Method {
	if m.Constructor || m.Static {
		return nil
	}
	overridden := t.DeclaredMethod(m.Name)
	if overridden == nil || overridden.Static || overridden.Constructor {
		return nil
	}
	return overridden
}

func findMethodIn(m *Method, t *Named) *Method {
	if m.Owner != nil && m.Owner.Name == t.Name {
		return m
	}
	return FindOverriddenMethodInType(t, m)
}

// DeclaringSuperTypes returns the proper supertypes of m's owner that declare a method m overrides.
// When the owner has no supertypes at all, the owner itself is returned.
func DeclaringSuperTypes(m *Method, object *Named) []*Named {
	if m.Owner == nil {
		return nil
	}
	supers := SuperTypes(m.Owner, object)
	if len(supers) == 0 {
		supers = []*Named{m.Owner}
	}
	var result []*Named
	for _, super := range supers {
		if findMethodIn(m, super) != nil {
			result = append(result, super)
		}
	}
	return result
}

// RootDefs returns the topmost declarations of m: the methods it overrides that do not
// themselves override anything in the declaring set. A method overriding nothing is its own root.
func RootDefs(m *Method, object *Named) []*Method {
	declaring := DeclaringSuperTypes(m, object)
	var result []*Method
	for _, t := range declaring {
		if containsSuperTypeOf(t, declaring, object) {
			continue
		}
		if root := findMethodIn(m, t); root != nil {
			result = append(result, root)
		}
	}
	if len(result) == 0 {
		result = append(result, m)
	}
	return result
}

func containsSuperTypeOf(t *Named, candidates []*Named, object *Named) bool {
	for _, maybeSuper := range candidates {
		if maybeSuper.Name != t.Name && IsSubTypeOf(t, maybeSuper, object) {
			return true
		}
	}
	return false
}
