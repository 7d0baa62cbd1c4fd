package aox

import (
	"bytes"
	"fmt"
	"sort"
)

// ExportDOT renders the machine's state tree as Graphviz DOT source:
// compound states become clusters, initial transitions become dashed edges,
// and the current leaf (if the machine is initialized) is highlighted.
// Output is deterministic for a given table.
func ExportDOT(m *Machine) string {
	var buf bytes.Buffer
	buf.WriteString("digraph ")
	fmt.Fprintf(&buf, "%q", m.name)
	buf.WriteString(` {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	children := make(map[*node][]*node)
	var roots []*node
	for _, n := range sortedNodes(m) {
		if n.parent == nil {
			roots = append(roots, n)
		} else {
			children[n.parent] = append(children[n.parent], n)
		}
	}

	for _, root := range roots {
		renderNode(&buf, root, children, m.current, "  ")
	}

	// Initial-transition edges, machine-level first.
	fmt.Fprintf(&buf, "  \"__init\" [shape=point];\n")
	fmt.Fprintf(&buf, "  \"__init\" -> %q [style=dashed];\n", m.initial.id)
	for _, n := range sortedNodes(m) {
		if n.initial != nil {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, label=\"initial\"];\n", n.id, n.initial.id)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func sortedNodes(m *Machine) []*node {
	out := make([]*node, 0, len(m.states))
	for _, n := range m.states {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func renderNode(buf *bytes.Buffer, n *node, children map[*node][]*node, current *node, indent string) {
	kids := children[n]
	if len(kids) > 0 {
		fmt.Fprintf(buf, "%ssubgraph \"cluster_%s\" {\n", indent, n.id)
		fmt.Fprintf(buf, "%s  label=%q;\n", indent, n.id)
		fmt.Fprintf(buf, "%s  %q [shape=ellipse];\n", indent, n.id)
		for _, kid := range kids {
			renderNode(buf, kid, children, current, indent+"  ")
		}
		fmt.Fprintf(buf, "%s}\n", indent)
		return
	}

	style := ""
	if n == current {
		style = " style=filled fillcolor=lightgreen"
	}
	fmt.Fprintf(buf, "%s%q [label=%q%s];\n", indent, n.id, n.id, style)
}
