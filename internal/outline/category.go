// Package outline groups a flat run of block elements under their headings
// and rolls a recurring section forward.
package outline

import "slices"

// Category is the ordering class of a tag: Independent, DependOn or
// Subordinate.
type Category interface {
	category()
}

// Independent tags always start a new top-level group.
type Independent struct{}

// DependOn tags outrank the tags listed in Deps and the tags that list them.
type DependOn struct {
	Deps []string
}

// Subordinate tags never start a group after one has been opened.
type Subordinate struct{}

func (Independent) category() {}
func (DependOn) category()    {}
func (Subordinate) category() {}

// Ordering is the result of Compare.
type Ordering int

const (
	LT Ordering = -1
	EQ Ordering = 0
	GT Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case LT:
		return "LT"
	case GT:
		return "GT"
	}
	return "EQ"
}

// Table maps tags to categories. Tags not in the table are Subordinate.
type Table map[string]Category

// Headings is the fixed heading table.
var Headings = Table{
	"h1": Independent{},
	"h2": DependOn{Deps: []string{"h1"}},
	"h3": DependOn{Deps: []string{"h1", "h2"}},
}

// CategoryOf classifies tag with the heading table.
func CategoryOf(tag string) Category { return Headings.CategoryOf(tag) }

// Compare orders two tags with the heading table.
func Compare(a, b string) Ordering { return Headings.Compare(a, b) }

// CategoryOf classifies tag.
func (t Table) CategoryOf(tag string) Category {
	if c, ok := t[tag]; ok {
		return c
	}
	return Subordinate{}
}

// Leads reports whether groups led by tag take part in a rollover.
func (t Table) Leads(tag string) bool {
	_, sub := t.CategoryOf(tag).(Subordinate)
	return !sub
}

// Compare reports whether tag a outranks tag b.
//
// Two DependOn tags compare GT when either one lists the other, so h2 vs h3
// and h3 vs h2 are both GT.
// TODO: make the DependOn comparison directional once existing pages have
// been checked against the change; today h2 after h3 still opens a group.
func (t Table) Compare(a, b string) Ordering {
	ca, cb := t.CategoryOf(a), t.CategoryOf(b)

	switch l := ca.(type) {
	case Independent:
		return GT
	case Subordinate:
		switch cb.(type) {
		case Subordinate:
			return EQ
		default:
			return LT
		}
	case DependOn:
		switch r := cb.(type) {
		case Independent:
			return LT
		case Subordinate:
			return GT
		case DependOn:
			if slices.Equal(l.Deps, r.Deps) {
				return EQ
			}
			if slices.Contains(r.Deps, a) || slices.Contains(l.Deps, b) {
				return GT
			}
		}
	}
	return EQ
}
