// internal/logic/dot.go
package logic

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

const dotGraphName = "survey"

// DOT renders the map as a Graphviz digraph. Node and edge identifiers are
// quoted so arbitrary question IDs survive a parse round trip. Backward jumps
// are drawn dashed and red.
func (m Map) DOT() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(dotGraphName); err != nil {
		return "", fmt.Errorf("set graph name: %w", err)
	}
	if err := g.SetDir(true); err != nil {
		return "", fmt.Errorf("set directed: %w", err)
	}
	if err := g.AddAttr(dotGraphName, "rankdir", "TB"); err != nil {
		return "", fmt.Errorf("set rankdir: %w", err)
	}

	for _, n := range m.Nodes {
		attrs := map[string]string{
			"label": strconv.Quote(fmt.Sprintf("%d. %s", n.Order, nodeText(n))),
			"shape": "box",
		}
		if n.HasLogic {
			attrs["style"] = "rounded"
		}
		if err := g.AddNode(dotGraphName, strconv.Quote(string(n.ID)), attrs); err != nil {
			return "", fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}

	for _, e := range m.Edges {
		attrs := map[string]string{
			"label": strconv.Quote(e.Label),
		}
		if e.Backward {
			attrs["style"] = "dashed"
			attrs["color"] = "red"
		}
		src := strconv.Quote(string(e.SourceID))
		dst := strconv.Quote(string(e.TargetID))
		if err := g.AddEdge(src, dst, true, attrs); err != nil {
			return "", fmt.Errorf("add edge %s: %w", e.ID, err)
		}
	}

	return g.String(), nil
}

func nodeText(n Node) string {
	if n.Text != "" {
		return n.Text
	}
	return string(n.ID)
}
