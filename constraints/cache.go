package constraints

import (
	"github.com/benbjohnson/immutable"
)

// Cache memoizes the constraints of each unit for the duration of one refactoring run.
// It is not safe for concurrent use.
type Cache struct {
	units  *immutable.Map[string, *immutable.List[Constraint]]
	hits   int
	misses int
}

func NewCache() *Cache {
	return &Cache{units: immutable.NewMap[string, *immutable.List[Constraint]](nil)}
}

// Get returns the constraints cached for unit.
func (c *Cache) Get(unit string) (*immutable.List[Constraint], bool) {
	list, ok := c.units.Get(unit)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return list, ok
}

// Put caches cs for unit, replacing any previous entry, and returns the cached list.
func (c *Cache) Put(unit string, cs []Constraint) *immutable.List[Constraint] {
	builder := immutable.NewListBuilder[Constraint]()
	for _, constraint := range cs {
		builder.Append(constraint)
	}
	list := builder.List()
	c.units = c.units.Set(unit, list)
	return list
}

// Len is the number of cached units.
func (c *Cache) Len() int {
	return c.units.Len()
}

// Stats returns how many lookups hit and missed the cache.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Slice copies a cached list into a slice.
func Slice(list *immutable.List[Constraint]) []Constraint {
	if list == nil {
		return nil
	}
	result := make([]Constraint, 0, list.Len())
	itr := list.Iterator()
	for !itr.Done() {
		_, c := itr.Next()
		result = append(result, c)
	}
	return result
}
