package outline

import (
	"errors"
	"fmt"
)

// ErrEmptyGroup means a group with no leader reached Rollover, which Group
// never produces.
var ErrEmptyGroup = errors.New("outline: empty group")

// Rollover carries a recurring section forward using the heading table.
func Rollover(groups [][]Node) ([][]Node, error) { return Headings.Rollover(groups) }

// Rollover walks groups led by non-Subordinate tags. The first keeps its
// place and lends its leader text. The second is emitted twice: first with
// the borrowed text (unless that text is empty), then as an untouched deep
// copy. Everything else passes through.
func (t Table) Rollover(groups [][]Node) ([][]Node, error) {
	out := make([][]Node, 0, len(groups)+1)
	seen := 0
	var carried string
	for i, g := range groups {
		if len(g) == 0 {
			return nil, fmt.Errorf("group %d: %w", i, ErrEmptyGroup)
		}
		if !t.Leads(g[0].Tag()) {
			out = append(out, g)
			continue
		}
		seen++
		switch seen {
		case 1:
			carried = g[0].Text()
			out = append(out, g)
		case 2:
			fresh := CloneGroup(g)
			if carried != "" {
				g[0].SetText(carried)
			}
			out = append(out, g, fresh)
		default:
			out = append(out, g)
		}
	}
	return out, nil
}
