package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

var (
	// ErrStackUnderflow is returned when an op needs more stack entries
	// than there are.
	ErrStackUnderflow = errors.New("storage: stack underflow")
	// ErrNoElement is returned when an op needs an element but the stack
	// holds an empty result.
	ErrNoElement = errors.New("storage: no element")
)

// Op is one instruction of a Program. The stack holds elements; a nil entry
// records a Find or Call that produced nothing.
type Op interface {
	apply(stack *[]*etree.Element) error
	String() string
}

// Find pushes the first element matching Path below the top of the stack.
type Find struct{ Path string }

// Copy replaces the top with a deep copy of itself.
type Copy struct{}

// Dup pushes the top again.
type Dup struct{}

// Pop drops the top.
type Pop struct{}

// Push pushes Elem.
type Push struct{ Elem *etree.Element }

// Insert pops the top and inserts it as child Index of the new top.
type Insert struct{ Index int }

// Remove pops the top and removes it from the new top.
type Remove struct{}

// Call pushes whatever Fn returns.
type Call struct {
	Name string
	Fn   func() (*etree.Element, error)
}

// Program is a sequence of ops run against one tree.
type Program []Op

// Run executes p with root as the only initial stack entry and returns the
// final stack, top first.
func (p Program) Run(root *etree.Element) ([]*etree.Element, error) {
	stack := []*etree.Element{root}
	for i, op := range p {
		if err := op.apply(&stack); err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op, err)
		}
	}
	out := make([]*etree.Element, len(stack))
	for i := range stack {
		out[i] = stack[len(stack)-1-i]
	}
	return out, nil
}

// Run executes p against the body.
func (b *Body) Run(p Program) ([]*etree.Element, error) {
	return p.Run(b.root)
}

func top(stack []*etree.Element, need int) error {
	if len(stack) < need {
		return ErrStackUnderflow
	}
	return nil
}

func pop(stack *[]*etree.Element) *etree.Element {
	s := *stack
	e := s[len(s)-1]
	*stack = s[:len(s)-1]
	return e
}

func (o Find) apply(stack *[]*etree.Element) error {
	if err := top(*stack, 1); err != nil {
		return err
	}
	cur := (*stack)[len(*stack)-1]
	if cur == nil {
		return ErrNoElement
	}
	path, err := etree.CompilePath(o.Path)
	if err != nil {
		return err
	}
	*stack = append(*stack, cur.FindElementPath(path))
	return nil
}

func (Copy) apply(stack *[]*etree.Element) error {
	if err := top(*stack, 1); err != nil {
		return err
	}
	e := pop(stack)
	if e != nil {
		e = e.Copy()
	}
	*stack = append(*stack, e)
	return nil
}

func (Dup) apply(stack *[]*etree.Element) error {
	if err := top(*stack, 1); err != nil {
		return err
	}
	*stack = append(*stack, (*stack)[len(*stack)-1])
	return nil
}

func (Pop) apply(stack *[]*etree.Element) error {
	if err := top(*stack, 1); err != nil {
		return err
	}
	pop(stack)
	return nil
}

func (o Push) apply(stack *[]*etree.Element) error {
	*stack = append(*stack, o.Elem)
	return nil
}

func (o Insert) apply(stack *[]*etree.Element) error {
	if o.Index < 0 {
		return fmt.Errorf("negative index %d", o.Index)
	}
	if err := top(*stack, 2); err != nil {
		return err
	}
	child := pop(stack)
	parent := (*stack)[len(*stack)-1]
	if child == nil || parent == nil {
		return ErrNoElement
	}
	parent.InsertChildAt(o.Index, child)
	return nil
}

func (Remove) apply(stack *[]*etree.Element) error {
	if err := top(*stack, 2); err != nil {
		return err
	}
	child := pop(stack)
	parent := (*stack)[len(*stack)-1]
	if child == nil || parent == nil {
		return ErrNoElement
	}
	if parent.RemoveChild(child) == nil {
		return fmt.Errorf("<%s> is not a child of <%s>", child.FullTag(), parent.FullTag())
	}
	return nil
}

func (o Call) apply(stack *[]*etree.Element) error {
	if o.Fn == nil {
		return errors.New("call without a function")
	}
	e, err := o.Fn()
	if err != nil {
		return err
	}
	*stack = append(*stack, e)
	return nil
}

func (o Find) String() string   { return "find:" + o.Path }
func (Copy) String() string     { return "copy" }
func (Dup) String() string      { return "dup" }
func (Pop) String() string      { return "pop" }
func (o Push) String() string   { return "push:" + elemName(o.Elem) }
func (o Insert) String() string { return "insert:" + strconv.Itoa(o.Index) }
func (Remove) String() string   { return "remove" }
func (o Call) String() string   { return "call:" + o.Name }

func elemName(e *etree.Element) string {
	if e == nil {
		return "<nil>"
	}
	return e.FullTag()
}

// ParseOp reads the textual form of an op: `find:PATH`, `copy`, `dup`,
// `pop`, `insert:N`, `remove` or `push:XML`.
func ParseOp(s string) (Op, error) {
	name, arg, hasArg := strings.Cut(s, ":")
	switch name {
	case "find":
		if !hasArg || arg == "" {
			return nil, fmt.Errorf("find needs a path")
		}
		if _, err := etree.CompilePath(arg); err != nil {
			return nil, fmt.Errorf("find %q: %w", arg, err)
		}
		return Find{Path: arg}, nil
	case "copy":
		return Copy{}, nil
	case "dup":
		return Dup{}, nil
	case "pop":
		return Pop{}, nil
	case "remove":
		return Remove{}, nil
	case "insert":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("insert index %q: %w", arg, err)
		}
		return Insert{Index: n}, nil
	case "push":
		frag, err := Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("push: %w", err)
		}
		els := frag.root.ChildElements()
		if len(els) != 1 {
			return nil, fmt.Errorf("push needs exactly one element, got %d", len(els))
		}
		el := els[0]
		frag.root.RemoveChild(el)
		return Push{Elem: el}, nil
	}
	return nil, fmt.Errorf("unknown op %q", s)
}

// ParseProgram reads one op per element of ops.
func ParseProgram(ops []string) (Program, error) {
	p := make(Program, 0, len(ops))
	for _, s := range ops {
		op, err := ParseOp(s)
		if err != nil {
			return nil, err
		}
		p = append(p, op)
	}
	return p, nil
}
