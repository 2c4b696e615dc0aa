package ast

// PathTo returns the chain of nodes from root down to the innermost node covering r.
// The last element is the covering node. It returns nil if root itself does not cover r.
func PathTo(root Node, r Range) []Node {
	if !RangeOf(root).Covers(r.PosStart, r.PosEnd) {
		return nil
	}
	path := []Node{root}
	current := root
	for {
		next := coveringChild(current, r)
		if next == nil {
			return path
		}
		path = append(path, next)
		current = next
	}
}

func coveringChild(n Node, r Range) Node {
	for _, child := range Children(n) {
		if RangeOf(child).Covers(r.PosStart, r.PosEnd) {
			return child
		}
	}
	return nil
}

// NodeAt returns the innermost node covering the selection [offset, offset+length), or nil.
func NodeAt(root Node, offset, length int) Node {
	path := PathTo(root, RangeFrom(offset, length))
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

// Parent returns the parent of path's last node, or nil if there is none.
func Parent(path []Node) Node {
	return Ancestor(path, 1)
}

// Ancestor returns the node n levels above path's last node, or nil if the path is too short.
func Ancestor(path []Node, n int) Node {
	i := len(path) - 1 - n
	if i < 0 {
		return nil
	}
	return path[i]
}

// EnclosingMethod returns the innermost method declaration on path, or nil.
func EnclosingMethod(path []Node) *MethodDecl {
	for i := len(path) - 1; i >= 0; i-- {
		if m, ok := path[i].(*MethodDecl); ok {
			return m
		}
	}
	return nil
}

// FindMethodDecls returns every method declaration in unit that covers one of ranges,
// innermost first per range and without duplicates.
func FindMethodDecls(unit *Unit, ranges []Range) []*MethodDecl {
	seen := make(map[*MethodDecl]bool)
	var result []*MethodDecl
	for _, r := range ranges {
		if m := EnclosingMethod(PathTo(unit, r)); m != nil && !seen[m] {
			seen[m] = true
			result = append(result, m)
		}
	}
	return result
}
