// Package latex turns LaTeX source into a typed element tree.
//
// Parsing happens in two stages. A scanner produces a concrete syntax tree
// whose node vocabulary follows the tree-sitter LaTeX grammar, and a bridge
// walks that tree through the Cursor contract to build lambda elements.
// Any producer that can expose a Cursor over the same vocabulary, such as a
// tree-sitter binding, can feed the bridge.
package latex

import (
	"fmt"

	"github.com/Neumenon/lambda/lambda"
)

// Cursor walks a concrete syntax tree one node at a time.
type Cursor interface {
	GotoFirstChild() bool
	GotoNextSibling() bool
	GotoParent() bool
	CurrentFieldID() uint16
	NodeType() uint16
	SourceRange() (start, end uint32)
}

// Node symbols
const (
	SymSourceFile uint16 = iota + 1
	SymGenericCommand
	SymCommandName
	SymCurlyGroup
	SymBrackGroup
	SymText
	SymSpace
	SymParbreak
	SymGenericEnvironment
	SymBegin
	SymEnd
	SymVerbatimEnvironment
	SymInlineFormula
	SymDisplayedEquation
	SymMathEnvironment
	SymComment
	SymLineBreak
	SymAlignmentTab
	SymError = 0xFFFF
)

// Field identifiers
const (
	FieldNone uint16 = iota
	FieldCommand
	FieldArg
	FieldName
	FieldBegin
	FieldEnd
)

var symbolNames = map[uint16]string{
	SymSourceFile:          "source_file",
	SymGenericCommand:      "generic_command",
	SymCommandName:         "command_name",
	SymCurlyGroup:          "curly_group",
	SymBrackGroup:          "brack_group",
	SymText:                "text",
	SymSpace:               "space",
	SymParbreak:            "parbreak",
	SymGenericEnvironment:  "generic_environment",
	SymBegin:               "begin",
	SymEnd:                 "end",
	SymVerbatimEnvironment: "verbatim_environment",
	SymInlineFormula:       "inline_formula",
	SymDisplayedEquation:   "displayed_equation",
	SymMathEnvironment:     "math_environment",
	SymComment:             "comment",
	SymLineBreak:           "line_break",
	SymAlignmentTab:        "alignment_tab",
	SymError:               "ERROR",
}

// SymbolName returns the grammar name of a node symbol.
func SymbolName(sym uint16) string {
	if name, ok := symbolNames[sym]; ok {
		return name
	}
	return fmt.Sprintf("symbol(%d)", sym)
}

// ============================================================
// Tree
// ============================================================

const noNode = -1

// Node is one entry of a Tree. Links are indices into Tree.Nodes; -1 means
// none.
type Node struct {
	Symbol      uint16
	Field       uint16
	Start, End  uint32
	Parent      int32
	FirstChild  int32
	NextSibling int32
	// Missing marks a node whose closing delimiter was synthesized at end
	// of input.
	Missing bool

	lastChild int32
}

// Tree is a concrete syntax tree stored as a flat node vector. Node 0 is
// the source_file root.
type Tree struct {
	Source []byte
	Nodes  []Node
}

func (t *Tree) add(sym, field uint16, start uint32, parent int32) int32 {
	id := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{
		Symbol:      sym,
		Field:       field,
		Start:       start,
		End:         start,
		Parent:      parent,
		FirstChild:  noNode,
		NextSibling: noNode,
		lastChild:   noNode,
	})
	if parent != noNode {
		p := &t.Nodes[parent]
		if p.lastChild == noNode {
			p.FirstChild = id
		} else {
			t.Nodes[p.lastChild].NextSibling = id
		}
		p.lastChild = id
	}
	return id
}

// Text returns the source bytes covered by node id.
func (t *Tree) Text(id int32) string {
	n := &t.Nodes[id]
	return string(t.Source[n.Start:n.End])
}

// Err returns a *ParseError for the first ERROR node, or nil.
func (t *Tree) Err() error {
	for i := range t.Nodes {
		if t.Nodes[i].Symbol == SymError {
			n := &t.Nodes[i]
			return newParseError(t.Source, n.Start, fmt.Sprintf("unexpected %q", t.Source[n.Start:n.End]))
		}
	}
	return nil
}

// Walk returns a cursor positioned on the root.
func (t *Tree) Walk() *TreeCursor {
	return &TreeCursor{tree: t}
}

// String renders the tree as an S-expression, in the style of tree-sitter's
// node printer.
func (t *Tree) String() string {
	if len(t.Nodes) == 0 {
		return ""
	}
	var out []byte
	var visit func(id int32)
	visit = func(id int32) {
		n := &t.Nodes[id]
		out = append(out, '(')
		out = append(out, SymbolName(n.Symbol)...)
		for c := n.FirstChild; c != noNode; c = t.Nodes[c].NextSibling {
			out = append(out, ' ')
			visit(c)
		}
		out = append(out, ')')
	}
	visit(0)
	return string(out)
}

// TreeCursor implements Cursor over a Tree.
type TreeCursor struct {
	tree *Tree
	cur  int32
}

func (c *TreeCursor) GotoFirstChild() bool {
	child := c.tree.Nodes[c.cur].FirstChild
	if child == noNode {
		return false
	}
	c.cur = child
	return true
}

func (c *TreeCursor) GotoNextSibling() bool {
	next := c.tree.Nodes[c.cur].NextSibling
	if next == noNode {
		return false
	}
	c.cur = next
	return true
}

func (c *TreeCursor) GotoParent() bool {
	parent := c.tree.Nodes[c.cur].Parent
	if parent == noNode {
		return false
	}
	c.cur = parent
	return true
}

func (c *TreeCursor) CurrentFieldID() uint16 { return c.tree.Nodes[c.cur].Field }
func (c *TreeCursor) NodeType() uint16       { return c.tree.Nodes[c.cur].Symbol }

func (c *TreeCursor) SourceRange() (uint32, uint32) {
	n := &c.tree.Nodes[c.cur]
	return n.Start, n.End
}

// Missing reports whether the current node was closed at end of input.
func (c *TreeCursor) Missing() bool { return c.tree.Nodes[c.cur].Missing }

// ============================================================
// Errors
// ============================================================

// ParseError reports source that could not form a tree.
type ParseError struct {
	Message string
	Pos     lambda.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("latex: %s at %s", e.Message, e.Pos)
}

func newParseError(src []byte, offset uint32, msg string) *ParseError {
	line, col := 1, 1
	for i := uint32(0); i < offset && int(i) < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{Message: msg, Pos: lambda.Position{Line: line, Column: col, Offset: int(offset)}}
}
