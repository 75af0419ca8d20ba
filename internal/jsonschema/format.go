package jsonschema

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump renders a node with its Go structure exposed, for debugging.
func Dump(n Node) string {
	return dumpConfig.Sdump(n)
}

// FormatNode pretty-prints a node as an indented outline.
func FormatNode(n Node) string {
	var b strings.Builder
	formatNode(&b, n, 0)
	return b.String()
}

func formatNode(b *strings.Builder, n Node, depth int) {
	pad := strings.Repeat("  ", depth)
	switch x := n.(type) {
	case *Object:
		fmt.Fprintf(b, "object%s\n", formatAdditional(x.AdditionalProperties))
		formatAttributes(b, x.Attributes, depth+1)
	case *NamedObject:
		fmt.Fprintf(b, "object %q%s\n", x.Name, formatAdditional(x.AdditionalProperties))
		formatAttributes(b, x.Attributes, depth+1)
	case *Array:
		b.WriteString("array\n")
		formatConstraints(b, x.Constraints, depth+1)
	case *String, *Number, *Integer, *Boolean, *Null:
		c, _ := leafConstraints(n)
		b.WriteString(n.Kind().String())
		if len(c) > 0 {
			parts := make([]string, 0, len(c))
			for _, k := range sortedKeys(c) {
				if _, isNode := c[k].(Node); isNode {
					continue
				}
				parts = append(parts, fmt.Sprintf("%s=%v", k, c[k]))
			}
			if len(parts) > 0 {
				fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
			}
		}
		b.WriteString("\n")
		for _, k := range sortedKeys(c) {
			if sub, ok := c[k].(Node); ok {
				fmt.Fprintf(b, "%s  %s: ", pad, k)
				formatNode(b, sub, depth+1)
			}
		}
	case *AllOf, *AnyOf, *OneOf:
		branches, _ := branchesOf(n)
		b.WriteString(n.Kind().String() + "\n")
		for _, br := range branches {
			fmt.Fprintf(b, "%s  - ", pad)
			formatNode(b, br, depth+1)
		}
	case *Ref:
		fmt.Fprintf(b, "$ref %s\n", x.Ref)
	case *Enum:
		fmt.Fprintf(b, "enum %v\n", x.Values)
	case *Any:
		b.WriteString("any\n")
	default:
		fmt.Fprintf(b, "%T\n", n)
	}
}

func formatAttributes(b *strings.Builder, attrs map[string]Attribute, depth int) {
	pad := strings.Repeat("  ", depth)
	for _, k := range sortedKeys(attrs) {
		a := attrs[k]
		mark := ""
		if a.Required {
			mark = "*"
		}
		fmt.Fprintf(b, "%s%s%s: ", pad, k, mark)
		formatNode(b, a.Schema, depth)
	}
}

func formatConstraints(b *strings.Builder, c map[string]any, depth int) {
	pad := strings.Repeat("  ", depth)
	for _, k := range sortedKeys(c) {
		switch v := c[k].(type) {
		case Node:
			fmt.Fprintf(b, "%s%s: ", pad, k)
			formatNode(b, v, depth)
		case []Node:
			fmt.Fprintf(b, "%s%s:\n", pad, k)
			for _, n := range v {
				fmt.Fprintf(b, "%s  - ", pad)
				formatNode(b, n, depth+1)
			}
		default:
			fmt.Fprintf(b, "%s%s: %v\n", pad, k, v)
		}
	}
}

func formatAdditional(p *bool) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf(" additionalProperties=%t", *p)
}
