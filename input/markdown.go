package input

import (
	"bytes"
	"strings"

	log "github.com/lthibault/log"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Neumenon/lambda/lambda"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown parses CommonMark with the GitHub extensions (tables,
// strikethrough, task lists, autolinks) into a <doc> element whose
// children use HTML tag names: h1..h6, p, em, strong, code, pre, ul, ol,
// li, blockquote, a, img, hr, del, table, thead, tr, th, td, html.
func Markdown(d *lambda.Document, src []byte) (lambda.Item, error) {
	root := markdown.Parser().Parse(text.NewReader(src))
	w := mdWalker{d: d, src: src}
	it, err := w.node(root, 0)
	return it, errors.Wrap(err, "markdown")
}

type mdWalker struct {
	d   *lambda.Document
	src []byte
}

func (w *mdWalker) node(n ast.Node, depth int) (lambda.Item, error) {
	if depth > maxDepth {
		return lambda.Null, errors.Errorf("nesting deeper than %d", maxDepth)
	}

	var b *lambda.ElementBuilder
	switch n := n.(type) {
	case *ast.Document:
		b = w.d.NewElement("doc")
	case *ast.Heading:
		b = w.d.NewElement("h" + string(rune('0'+n.Level)))
	case *ast.Paragraph:
		b = w.d.NewElement("p")
	case *ast.Emphasis:
		if n.Level >= 2 {
			b = w.d.NewElement("strong")
		} else {
			b = w.d.NewElement("em")
		}
	case *ast.CodeSpan:
		b = w.d.NewElement("code")
	case *ast.FencedCodeBlock:
		b = w.d.NewElement("pre")
		if lang := n.Language(w.src); len(lang) > 0 {
			b.AttrString("lang", string(lang))
		}
		return b.Text(w.segments(n.Lines())).Build()
	case *ast.CodeBlock:
		return w.d.NewElement("pre").Text(w.segments(n.Lines())).Build()
	case *ast.List:
		if n.IsOrdered() {
			b = w.d.NewElement("ol")
			if n.Start != 1 {
				b.Attr("start", w.d.Int(int64(n.Start)))
			}
		} else {
			b = w.d.NewElement("ul")
		}
	case *ast.ListItem:
		b = w.d.NewElement("li")
	case *ast.Blockquote:
		b = w.d.NewElement("blockquote")
	case *ast.Link:
		b = w.d.NewElement("a").AttrString("href", string(n.Destination))
		if len(n.Title) > 0 {
			b.AttrString("title", string(n.Title))
		}
	case *ast.Image:
		b = w.d.NewElement("img").
			AttrString("src", string(n.Destination)).
			AttrString("alt", w.plain(n))
		if len(n.Title) > 0 {
			b.AttrString("title", string(n.Title))
		}
		return b.Build()
	case *ast.AutoLink:
		return w.d.NewElement("a").
			AttrString("href", string(n.URL(w.src))).
			Text(string(n.Label(w.src))).
			Build()
	case *ast.ThematicBreak:
		return w.d.NewElement("hr").Build()
	case *ast.RawHTML:
		return w.d.NewElement("html").Text(w.segments(n.Segments)).Build()
	case *ast.HTMLBlock:
		raw := w.segments(n.Lines())
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(w.src))
		}
		return w.d.NewElement("html").Text(raw).Build()
	case *east.Strikethrough:
		b = w.d.NewElement("del")
	case *east.Table:
		b = w.d.NewElement("table")
	case *east.TableHeader:
		row, err := w.container(w.d.NewElement("tr"), n, depth)
		if err != nil {
			return lambda.Null, err
		}
		return w.d.NewElement("thead").Child(row).Build()
	case *east.TableRow:
		b = w.d.NewElement("tr")
	case *east.TableCell:
		if _, ok := n.Parent().(*east.TableHeader); ok {
			b = w.d.NewElement("th")
		} else {
			b = w.d.NewElement("td")
		}
		if n.Alignment != east.AlignNone {
			b.AttrString("align", n.Alignment.String())
		}
	case *east.TaskCheckBox:
		return w.d.NewElement("checkbox").Attr("checked", lambda.Bool(n.IsChecked)).Build()
	default:
		w.d.Log().With(log.F{
			"kind": n.Kind().String(),
		}).Debug("markdown node kept as generic element")
		b = w.d.NewElement(strings.ToLower(n.Kind().String()))
	}
	return w.container(b, n, depth)
}

// container appends the children of n to b. Adjacent text runs merge into
// one string; a soft line break becomes a space and a hard break a <br>.
// Tight list items wrap their text in text blocks, which are flattened.
func (w *mdWalker) container(b *lambda.ElementBuilder, n ast.Node, depth int) (lambda.Item, error) {
	if err := w.children(b, n, depth); err != nil {
		return lambda.Null, err
	}
	return b.Build()
}

func (w *mdWalker) children(b *lambda.ElementBuilder, n ast.Node, depth int) error {
	var run bytes.Buffer
	flush := func() {
		if run.Len() > 0 {
			b.Text(run.String())
			run.Reset()
		}
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			run.Write(c.Segment.Value(w.src))
			switch {
			case c.HardLineBreak():
				flush()
				br, err := w.d.NewElement("br").Build()
				if err != nil {
					return err
				}
				b.Child(br)
			case c.SoftLineBreak():
				run.WriteByte(' ')
			}
		case *ast.String:
			run.Write(c.Value)
		case *ast.TextBlock:
			flush()
			if err := w.children(b, c, depth); err != nil {
				return err
			}
		default:
			flush()
			it, err := w.node(c, depth+1)
			if err != nil {
				return err
			}
			b.Child(it)
		}
	}
	flush()
	return b.Err()
}

func (w *mdWalker) segments(s *text.Segments) string {
	var buf bytes.Buffer
	for i := 0; i < s.Len(); i++ {
		seg := s.At(i)
		buf.Write(seg.Value(w.src))
	}
	return buf.String()
}

// plain returns the text content of n's descendants.
func (w *mdWalker) plain(n ast.Node) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(w.src))
			if c.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
