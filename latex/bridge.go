package latex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/Neumenon/lambda/lambda"
)

// Tags of elements the bridge synthesizes.
const (
	TagDocument  = "latex_document"
	TagParbreak  = "parbreak"
	TagGroup     = "group"
	TagLineBreak = "linebreak"
	TagTab       = "tab"
	TagSpace     = "space"
	TagMath      = "math"
	TagVerb      = "verb"
)

// Control symbols that stand for literal text.
var symbolText = map[string]string{
	`\%`: "%", `\&`: "&", `\$`: "$", `\#`: "#", `\_`: "_", `\{`: "{", `\}`: "}",
	`\,`: "\u2009", `\;`: " ", `\:`: " ", `\>`: " ",
	`\!`: "", `\-`: "", `\/`: "", `\@`: "",
}

// controlSpace reports whether name is a backslash followed by whitespace.
func controlSpace(name string) bool {
	switch name {
	case `\ `, "\\\n", "\\\t":
		return true
	}
	return false
}

// Letter macros that stand for a single character.
var letterText = map[string]string{
	"ss": "ß", "o": "ø", "O": "Ø", "ae": "æ", "AE": "Æ", "oe": "œ", "OE": "Œ",
	"aa": "å", "AA": "Å", "l": "ł", "L": "Ł", "i": "ı", "j": "ȷ",
}

// Accent commands and their combining marks.
var accentMarks = map[string]rune{
	`\'`: '\u0301', "\\`": '\u0300', `\^`: '\u0302', `\"`: '\u0308',
	`\~`: '\u0303', `\=`: '\u0304', `\.`: '\u0307',
	`\c`: '\u0327', `\v`: '\u030C', `\u`: '\u0306', `\H`: '\u030B',
	`\r`: '\u030A', `\k`: '\u0328', `\d`: '\u0323', `\b`: '\u0331',
}

// ParseDocument parses src and sets the resulting latex_document element
// as the root of d.
func ParseDocument(d *lambda.Document, src []byte) (lambda.Item, error) {
	tree := Parse(src)
	root, err := Build(d, src, tree.Walk())
	if err != nil {
		return lambda.Null, err
	}
	d.Log().With(log.F{
		"nodes": len(tree.Nodes),
		"bytes": len(src),
	}).Debug("latex parsed")
	d.SetRoot(root)
	return root, nil
}

// Build converts the tree under c, which must be positioned on a
// source_file node, into a latex_document element. An ERROR node anywhere
// in the tree fails the whole conversion with a *ParseError.
func Build(d *lambda.Document, src []byte, c Cursor) (lambda.Item, error) {
	if sym := c.NodeType(); sym != SymSourceFile {
		return lambda.Null, errors.Errorf("latex: cursor on %s, want source_file", SymbolName(sym))
	}
	b := &bridge{d: d, src: src, c: c}
	s := b.newSink(TagDocument)
	if err := b.content(s); err != nil {
		return lambda.Null, err
	}
	return s.build()
}

type bridge struct {
	d   *lambda.Document
	src []byte
	c   Cursor
}

// sink collects the content of one element, merging adjacent text.
type sink struct {
	el   *lambda.ElementBuilder
	text strings.Builder
	// skipSpace drops the next space node; set after a control word with
	// no arguments.
	skipSpace bool
}

func (b *bridge) newSink(tag string) *sink {
	return &sink{el: b.d.NewElement(tag)}
}

func (s *sink) write(t string) {
	s.skipSpace = false
	s.text.WriteString(t)
}

func (s *sink) space() {
	if s.skipSpace {
		s.skipSpace = false
		return
	}
	str := s.text.String()
	if len(str) > 0 && str[len(str)-1] == ' ' {
		return
	}
	s.text.WriteByte(' ')
}

func (s *sink) flush() {
	if s.text.Len() > 0 {
		s.el.Text(s.text.String())
		s.text.Reset()
	}
}

func (s *sink) child(it lambda.Item) {
	s.flush()
	s.skipSpace = false
	s.el.Child(it)
}

func (s *sink) build() (lambda.Item, error) {
	s.flush()
	return s.el.Build()
}

// asArg collapses a group holding at most one text run into a STRING.
func (b *bridge) asArg(s *sink) (lambda.Item, error) {
	s.flush()
	switch n := s.el.ChildCount(); {
	case n == 0:
		return b.d.String("")
	case n == 1 && s.el.LastChild().Type() == lambda.TypeString:
		return s.el.LastChild(), nil
	}
	return s.el.Build()
}

func (b *bridge) nodeText() string {
	start, end := b.c.SourceRange()
	return string(b.src[start:end])
}

func (b *bridge) errorAt(msg string) error {
	start, _ := b.c.SourceRange()
	return newParseError(b.src, start, msg)
}

func (b *bridge) missing() bool {
	if m, ok := b.c.(interface{ Missing() bool }); ok {
		return m.Missing()
	}
	return false
}

// each visits the children of the current node, leaving the cursor on the
// node afterwards.
func (b *bridge) each(fn func() error) error {
	if !b.c.GotoFirstChild() {
		return nil
	}
	var err error
	for {
		if err = fn(); err != nil {
			break
		}
		if !b.c.GotoNextSibling() {
			break
		}
	}
	b.c.GotoParent()
	return err
}

// content converts every child of the current node into s.
func (b *bridge) content(s *sink) error {
	return b.each(func() error { return b.node(s) })
}

func (b *bridge) node(s *sink) error {
	switch sym := b.c.NodeType(); sym {
	case SymText:
		s.write(b.nodeText())

	case SymSpace:
		s.space()

	case SymComment:

	case SymParbreak:
		return b.empty(s, TagParbreak)

	case SymLineBreak:
		return b.empty(s, TagLineBreak)

	case SymAlignmentTab:
		return b.empty(s, TagTab)

	case SymCurlyGroup:
		g := b.newSink(TagGroup)
		if err := b.content(g); err != nil {
			return err
		}
		it, err := g.build()
		if err != nil {
			return err
		}
		s.child(it)

	case SymBrackGroup:
		// only reachable through a foreign cursor; treat as literal text
		s.write("[")
		if err := b.content(s); err != nil {
			return err
		}
		s.write("]")

	case SymGenericCommand:
		return b.command(s)

	case SymGenericEnvironment:
		return b.environment(s)

	case SymVerbatimEnvironment:
		return b.verbatim(s)

	case SymMathEnvironment:
		return b.math(s, "display", true)

	case SymInlineFormula:
		return b.math(s, "inline", false)

	case SymDisplayedEquation:
		return b.math(s, "display", false)

	case SymError:
		return b.errorAt(fmt.Sprintf("unexpected %q", b.nodeText()))

	default:
		return b.errorAt("unknown node " + SymbolName(sym))
	}
	return nil
}

func (b *bridge) empty(s *sink, tag string) error {
	it, err := b.d.NewElement(tag).Build()
	if err != nil {
		return err
	}
	s.child(it)
	return nil
}

// ============================================================
// Commands
// ============================================================

type commandArgs struct {
	curly []lambda.Item
	brack []lambda.Item
	raw   string
	text  []string // plain text of each curly argument, "" when mixed
}

// args converts the argument children of the current command or begin node.
func (b *bridge) args() (name string, a commandArgs, err error) {
	err = b.each(func() error {
		switch {
		case b.c.NodeType() == SymCommandName:
			name = b.nodeText()

		case b.c.CurrentFieldID() == FieldName:
			// environment name, read by the caller

		case b.c.NodeType() == SymText:
			a.raw = b.nodeText()
			a.text = append(a.text, a.raw)

		case b.c.NodeType() == SymCurlyGroup || b.c.NodeType() == SymBrackGroup:
			g := b.newSink(TagGroup)
			if err := b.content(g); err != nil {
				return err
			}
			it, err := b.asArg(g)
			if err != nil {
				return err
			}
			if b.c.NodeType() == SymBrackGroup {
				a.brack = append(a.brack, it)
				return nil
			}
			a.curly = append(a.curly, it)
			if it.Type() == lambda.TypeString {
				a.text = append(a.text, it.Str().String())
			} else {
				a.text = append(a.text, "")
			}
		}
		return nil
	})
	return name, a, err
}

func (a *commandArgs) empty() bool {
	if len(a.brack) > 0 || a.raw != "" {
		return false
	}
	for _, t := range a.text {
		if t != "" {
			return false
		}
	}
	return true
}

func (b *bridge) command(s *sink) error {
	name, a, err := b.args()
	if err != nil {
		return err
	}

	if t, ok := symbolText[name]; ok {
		s.write(t)
		return nil
	}
	if controlSpace(name) {
		return b.empty(s, TagSpace)
	}
	if mark, ok := accentMarks[name]; ok && len(a.brack) == 0 && len(a.text) <= 1 {
		base := ""
		if len(a.text) == 1 {
			base = a.text[0]
		}
		if len(a.curly) == 0 || a.curly[0].Type() == lambda.TypeString {
			s.write(compose(name, base, mark))
			return nil
		}
	}

	word := strings.TrimPrefix(name, `\`)
	star := strings.HasSuffix(word, "*")
	word = strings.TrimSuffix(word, "*")

	if t, ok := letterText[word]; ok && a.empty() {
		s.write(t)
		s.skipSpace = len(a.curly) == 0
		return nil
	}
	if word == "par" && len(a.curly) == 0 {
		if err := b.empty(s, TagParbreak); err != nil {
			return err
		}
		s.skipSpace = true
		return nil
	}

	tag := word
	switch word {
	case "verb":
		tag = TagVerb
	case "":
		tag = strings.TrimPrefix(name, `\`)
	}
	el := b.d.NewElement(tag)
	if star {
		el.Attr("star", lambda.Bool(true))
	}
	if b.missing() {
		el.Attr("unclosed", lambda.Bool(true))
	}
	for i, it := range a.brack {
		el.Attr(optName("opt", i), it)
	}
	if word == "verb" {
		el.Text(a.raw)
	} else {
		for _, it := range a.curly {
			el.Child(it)
		}
	}
	it, err := el.Build()
	if err != nil {
		return err
	}
	s.child(it)
	s.skipSpace = len(a.curly) == 0 && len(a.brack) == 0 && a.raw == "" && word != "" && isLetter(word[0])
	return nil
}

func optName(prefix string, i int) string {
	if i == 0 {
		return prefix
	}
	return prefix + strconv.Itoa(i+1)
}

// compose applies a combining accent to the first character of base.
func compose(cmd, base string, mark rune) string {
	switch base {
	case "":
		// \~{} and \^{} print the bare accent
		return strings.TrimPrefix(cmd, `\`)
	case "ı":
		base = "i"
	case "ȷ":
		base = "j"
	}
	r := []rune(base)
	out := string(r[0]) + string(mark) + string(r[1:])
	return norm.NFC.String(out)
}

// ============================================================
// Environments
// ============================================================

// envHeader reads the begin child of the current environment.
func (b *bridge) envHeader() (name string, a commandArgs, err error) {
	err = b.each(func() error {
		if b.c.NodeType() != SymBegin {
			return nil
		}
		if name, err = b.envName(); err != nil {
			return err
		}
		_, a, err = b.args()
		return err
	})
	if err == nil && name == "" {
		err = b.errorAt(`\begin without environment name`)
	}
	return name, a, err
}

// envName reads the name group of the current begin or end node.
func (b *bridge) envName() (string, error) {
	var name string
	err := b.each(func() error {
		if b.c.CurrentFieldID() != FieldName {
			return nil
		}
		return b.each(func() error {
			if b.c.NodeType() == SymText {
				name += b.nodeText()
			}
			return nil
		})
	})
	return strings.TrimSpace(name), err
}

func (b *bridge) environment(s *sink) error {
	unclosed := b.missing()
	name, a, err := b.envHeader()
	if err != nil {
		return err
	}
	body := b.newSink(name)
	body.el.Attr("environment", lambda.Bool(true))
	for i, it := range a.curly {
		body.el.Attr(optName("arg", i), it)
	}
	for i, it := range a.brack {
		body.el.Attr(optName("opt", i), it)
	}
	if unclosed {
		body.el.Attr("unclosed", lambda.Bool(true))
	}
	err = b.each(func() error {
		switch b.c.NodeType() {
		case SymBegin, SymEnd:
			return nil
		}
		return b.node(body)
	})
	if err != nil {
		return err
	}
	it, err := body.build()
	if err != nil {
		return err
	}
	s.child(it)
	return nil
}

// rawBody returns the text children of the current node, skipping begin
// and end.
func (b *bridge) rawBody() (string, error) {
	var raw strings.Builder
	err := b.each(func() error {
		if b.c.NodeType() == SymText {
			raw.WriteString(b.nodeText())
		}
		return nil
	})
	return raw.String(), err
}

func (b *bridge) verbatim(s *sink) error {
	unclosed := b.missing()
	name, a, err := b.envHeader()
	if err != nil {
		return err
	}
	raw, err := b.rawBody()
	if err != nil {
		return err
	}
	raw = strings.TrimPrefix(raw, "\n")

	el := b.d.NewElement(name).Attr("environment", lambda.Bool(true))
	for i, it := range a.brack {
		el.Attr(optName("opt", i), it)
	}
	if unclosed {
		el.Attr("unclosed", lambda.Bool(true))
	}
	it, err := el.Text(raw).Build()
	if err != nil {
		return err
	}
	s.child(it)
	return nil
}

func (b *bridge) math(s *sink, mode string, named bool) error {
	unclosed := b.missing()
	el := b.d.NewElement(TagMath).AttrString("mode", mode)
	if named {
		name, _, err := b.envHeader()
		if err != nil {
			return err
		}
		el.AttrString("name", name)
	}
	if unclosed {
		el.Attr("unclosed", lambda.Bool(true))
	}
	raw, err := b.rawBody()
	if err != nil {
		return err
	}
	it, err := el.Text(strings.TrimSpace(raw)).Build()
	if err != nil {
		return err
	}
	s.child(it)
	return nil
}
