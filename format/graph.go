package format

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/Neumenon/lambda/lambda"
)

// ============================================================
// Graph model
// ============================================================
//
// Graphs are element trees:
//
//   <graph kind: "directed", name: "G", direction: "LR";
//     <node id: "a", label: "A", shape: "box">
//     <edge from: "a", to: "b", label: "uses">
//     <subgraph id: "s", label: "Group"; <node id: "b">>>
//
// kind defaults to directed. Unknown child elements are skipped.

// Graph is a parsed graph element.
type Graph struct {
	Directed  bool
	Name      string
	Label     string
	Direction string
	Nodes     []Node
	Edges     []Edge
	Subgraphs []*Graph
}

// Node is a graph vertex.
type Node struct {
	ID    string
	Label string
	Shape string
}

// Edge connects two node ids.
type Edge struct {
	From  string
	To    string
	Label string
	Style string
}

// ReadGraph reads a graph element.
func ReadGraph(it lambda.Item) (*Graph, error) {
	if !lambda.Read(it).IsElement() || lambda.Read(it).AsElement().TagName() != "graph" {
		return nil, ErrNotGraph
	}
	el := lambda.Read(it).AsElement()
	g := &Graph{
		Directed:  true,
		Name:      el.AttrString("name"),
		Label:     el.AttrString("label"),
		Direction: strings.ToUpper(el.AttrString("direction")),
	}
	switch kind := el.AttrString("kind"); kind {
	case "", "directed", "digraph":
	case "undirected", "graph":
		g.Directed = false
	default:
		return nil, errors.Errorf("format: unknown graph kind %q", kind)
	}
	if err := g.read(el); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) read(el lambda.ElementReader) error {
	for c := range el.Children() {
		if !c.IsElement() {
			continue
		}
		ce := c.AsElement()
		switch ce.TagName() {
		case "node":
			n := Node{ID: ce.AttrString("id"), Label: ce.AttrString("label"), Shape: ce.AttrString("shape")}
			if n.ID == "" {
				return errors.New("format: graph node without id")
			}
			g.Nodes = append(g.Nodes, n)
		case "edge":
			e := Edge{
				From:  ce.AttrString("from"),
				To:    ce.AttrString("to"),
				Label: ce.AttrString("label"),
				Style: ce.AttrString("style"),
			}
			if e.From == "" || e.To == "" {
				return errors.New("format: graph edge needs from and to")
			}
			g.Edges = append(g.Edges, e)
		case "subgraph":
			sub := &Graph{
				Directed: g.Directed,
				Name:     ce.AttrString("id"),
				Label:    ce.AttrString("label"),
			}
			if sub.Name == "" {
				return errors.New("format: subgraph without id")
			}
			if err := sub.read(ce); err != nil {
				return err
			}
			g.Subgraphs = append(g.Subgraphs, sub)
		}
	}
	return nil
}

func graphEmitter(write func(*strings.Builder, *Graph)) Emitter {
	return func(it lambda.Item) (string, error) {
		g, err := ReadGraph(it)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		write(&sb, g)
		return sb.String(), nil
	}
}

func indent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}

// isIdent reports [A-Za-z_][A-Za-z0-9_]*.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// ============================================================
// DOT
// ============================================================

// DOT renders a graph element in Graphviz DOT.
var DOT = graphEmitter(writeDOT)

func writeDOT(sb *strings.Builder, g *Graph) {
	if g.Directed {
		sb.WriteString("digraph ")
	} else {
		sb.WriteString("graph ")
	}
	if g.Name != "" {
		sb.WriteString(dotID(g.Name))
		sb.WriteByte(' ')
	}
	sb.WriteString("{\n")
	if g.Direction != "" {
		indent(sb, 1)
		sb.WriteString("rankdir=" + dotID(g.Direction) + ";\n")
	}
	dotBody(sb, g, 1)
	sb.WriteString("}\n")
}

func dotBody(sb *strings.Builder, g *Graph, depth int) {
	if g.Label != "" {
		indent(sb, depth)
		sb.WriteString("label=" + dotQuote(g.Label) + ";\n")
	}
	for _, n := range g.Nodes {
		indent(sb, depth)
		sb.WriteString(dotID(n.ID))
		dotAttrs(sb, "label", n.Label, "shape", n.Shape)
		sb.WriteString(";\n")
	}
	op := " -> "
	if !g.Directed {
		op = " -- "
	}
	for _, e := range g.Edges {
		indent(sb, depth)
		sb.WriteString(dotID(e.From) + op + dotID(e.To))
		dotAttrs(sb, "label", e.Label, "style", e.Style)
		sb.WriteString(";\n")
	}
	for _, s := range g.Subgraphs {
		indent(sb, depth)
		sb.WriteString("subgraph " + dotID("cluster_"+s.Name) + " {\n")
		dotBody(sb, s, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	}
}

// dotAttrs writes [k=v, ...] for the non-empty pairs.
func dotAttrs(sb *strings.Builder, kv ...string) {
	first := true
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		if first {
			sb.WriteString(" [")
			first = false
		} else {
			sb.WriteString(", ")
		}
		v := dotQuote(kv[i+1])
		if kv[i] != "label" {
			v = dotID(kv[i+1])
		}
		sb.WriteString(kv[i] + "=" + v)
	}
	if !first {
		sb.WriteByte(']')
	}
}

func dotID(s string) string {
	if isIdent(s) {
		return s
	}
	return dotQuote(s)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func dotQuote(s string) string { return `"` + quoteEscaper.Replace(s) + `"` }

// ============================================================
// Mermaid
// ============================================================

// Mermaid renders a graph element as a Mermaid flowchart.
var Mermaid = graphEmitter(writeMermaid)

var mermaidShapes = map[string][2]string{
	"":        {`["`, `"]`},
	"box":     {`["`, `"]`},
	"rect":    {`["`, `"]`},
	"round":   {`("`, `")`},
	"ellipse": {`("`, `")`},
	"stadium": {`(["`, `"])`},
	"circle":  {`(("`, `"))`},
	"diamond": {`{"`, `"}`},
	"hexagon": {`{{"`, `"}}`},
}

func writeMermaid(sb *strings.Builder, g *Graph) {
	dir := g.Direction
	switch dir {
	case "TD", "TB", "BT", "LR", "RL":
	default:
		dir = "TD"
	}
	sb.WriteString("flowchart " + dir + "\n")
	mermaidBody(sb, g, 1)
}

func mermaidBody(sb *strings.Builder, g *Graph, depth int) {
	for _, n := range g.Nodes {
		indent(sb, depth)
		sb.WriteString(mermaidID(n.ID))
		if n.Label != "" || n.Shape != "" {
			shape, ok := mermaidShapes[n.Shape]
			if !ok {
				shape = mermaidShapes[""]
			}
			label := n.Label
			if label == "" {
				label = n.ID
			}
			sb.WriteString(shape[0] + mermaidText(label) + shape[1])
		}
		sb.WriteByte('\n')
	}
	arrow := "-->"
	if !g.Directed {
		arrow = "---"
	}
	for _, e := range g.Edges {
		a := arrow
		if e.Style == "dashed" || e.Style == "dotted" {
			a = "-.->"
			if !g.Directed {
				a = "-.-"
			}
		}
		indent(sb, depth)
		sb.WriteString(mermaidID(e.From) + " " + a)
		if e.Label != "" {
			sb.WriteString("|" + mermaidText(e.Label) + "|")
		}
		sb.WriteString(" " + mermaidID(e.To) + "\n")
	}
	for _, s := range g.Subgraphs {
		indent(sb, depth)
		sb.WriteString("subgraph " + mermaidID(s.Name))
		if s.Label != "" {
			sb.WriteString(` ["` + mermaidText(s.Label) + `"]`)
		}
		sb.WriteByte('\n')
		mermaidBody(sb, s, depth+1)
		indent(sb, depth)
		sb.WriteString("end\n")
	}
}

// mermaidID keeps identifier characters; Mermaid has no id quoting.
func mermaidID(s string) string {
	var sb strings.Builder
	for _, c := range s {
		switch {
		case c == '_', c == '-', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

var mermaidEscaper = strings.NewReplacer(`"`, "#quot;", "\n", "<br/>")

func mermaidText(s string) string { return mermaidEscaper.Replace(s) }

// ============================================================
// D2
// ============================================================

// D2 renders a graph element in the D2 diagram language.
var D2 = graphEmitter(writeD2)

var d2Shapes = map[string]string{
	"box":     "rectangle",
	"rect":    "rectangle",
	"round":   "oval",
	"ellipse": "oval",
	"stadium": "oval",
	"circle":  "circle",
	"diamond": "diamond",
	"hexagon": "hexagon",
}

func writeD2(sb *strings.Builder, g *Graph) {
	switch g.Direction {
	case "LR":
		sb.WriteString("direction: right\n")
	case "RL":
		sb.WriteString("direction: left\n")
	case "BT":
		sb.WriteString("direction: up\n")
	}
	if g.Label != "" {
		sb.WriteString("label: " + d2Text(g.Label) + "\n")
	}
	d2Body(sb, g, 0)
}

func d2Body(sb *strings.Builder, g *Graph, depth int) {
	for _, n := range g.Nodes {
		indent(sb, depth)
		sb.WriteString(d2Key(n.ID))
		if n.Label != "" {
			sb.WriteString(": " + d2Text(n.Label))
		}
		if shape, ok := d2Shapes[n.Shape]; ok {
			sb.WriteString(" {\n")
			indent(sb, depth+1)
			sb.WriteString("shape: " + shape + "\n")
			indent(sb, depth)
			sb.WriteByte('}')
		}
		sb.WriteByte('\n')
	}
	op := " -> "
	if !g.Directed {
		op = " -- "
	}
	for _, e := range g.Edges {
		indent(sb, depth)
		sb.WriteString(d2Key(e.From) + op + d2Key(e.To))
		if e.Label != "" {
			sb.WriteString(": " + d2Text(e.Label))
		}
		if e.Style == "dashed" || e.Style == "dotted" {
			sb.WriteString(" {\n")
			indent(sb, depth+1)
			sb.WriteString("style.stroke-dash: 3\n")
			indent(sb, depth)
			sb.WriteByte('}')
		}
		sb.WriteByte('\n')
	}
	for _, s := range g.Subgraphs {
		indent(sb, depth)
		sb.WriteString(d2Key(s.Name))
		if s.Label != "" {
			sb.WriteString(": " + d2Text(s.Label))
		}
		sb.WriteString(" {\n")
		d2Body(sb, s, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	}
}

func d2Key(s string) string {
	if isIdent(s) || (s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-") == "") {
		return s
	}
	return d2Quote(s)
}

// d2Text writes a label, quoting it when it holds D2 syntax.
func d2Text(s string) string {
	if s != strings.TrimSpace(s) || strings.ContainsAny(s, ":;{}[]|#'\"\\\n-<>&*.") {
		return d2Quote(s)
	}
	return s
}

func d2Quote(s string) string { return `"` + quoteEscaper.Replace(s) + `"` }
