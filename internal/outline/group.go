package outline

// Node is a block element as seen by the grouper.
type Node interface {
	Tag() string
	Text() string
	SetText(string)
	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Node
}

// Group splits nodes into runs led by their first element using the
// heading table.
func Group(nodes []Node) [][]Node { return Headings.Group(nodes) }

// Group splits nodes into runs. A node that compares GT against the current
// leader closes the run and leads the next one; everything else joins the
// current run. Concatenating the result gives back nodes.
func (t Table) Group(nodes []Node) [][]Node {
	if len(nodes) == 0 {
		return [][]Node{}
	}
	var groups [][]Node
	leader := nodes[0]
	current := []Node{leader}
	for _, n := range nodes[1:] {
		if t.Compare(n.Tag(), leader.Tag()) == GT {
			groups = append(groups, current)
			leader = n
			current = []Node{n}
			continue
		}
		current = append(current, n)
	}
	return append(groups, current)
}

// Flatten concatenates groups.
func Flatten(groups [][]Node) []Node {
	var out []Node
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// CloneGroup deep-copies every node of g.
func CloneGroup(g []Node) []Node {
	out := make([]Node, len(g))
	for i, n := range g {
		out[i] = n.Clone()
	}
	return out
}
