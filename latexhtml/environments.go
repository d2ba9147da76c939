package latexhtml

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/latex"
)

func (w *writer) environment(name string, el *lambda.Element) {
	if flag(el, "unclosed") {
		w.warn("", name, "environment not closed")
	}
	if h, ok := environments[name]; ok {
		h(w, el)
		return
	}
	if class, ok := declarations[name]; ok {
		w.styled(class, el)
		return
	}
	if align, ok := alignments[name]; ok {
		mark := w.enterGroup()
		w.pendingAlignment = align
		w.children(el)
		w.flushParagraph()
		w.leaveGroup(mark)
		return
	}
	w.opts.log.WithField("env", name).Debug("unknown environment")
	blockEnv("env-"+strings.TrimSuffix(name, "*"))(w, el)
}

func (w *writer) document(el *lambda.Element) {
	w.children(el)
	w.flushParagraph()
}

func blockEnv(class string) commandFunc {
	return func(w *writer, el *lambda.Element) {
		w.use(class)
		w.blockOpen(`<div class="` + escapeAttr(class) + `">`)
		mark := w.enterGroup()
		w.children(el)
		w.flushParagraph()
		w.leaveGroup(mark)
		w.blockClose(`</div>`)
	}
}

// float renders figure and table environments. Captions inside take their
// number from the innermost float.
func float(kind string) commandFunc {
	inner := blockEnv(kind)
	return func(w *writer, el *lambda.Element) {
		w.floats = append(w.floats, kind)
		inner(w, el)
		w.floats = w.floats[:len(w.floats)-1]
	}
}

func (w *writer) verbatim(el *lambda.Element) {
	body := strings.TrimSuffix(itemText(firstChild(el)), "\n")
	w.use("verb")
	w.blockLeaf(`<pre class="verb">` + escapeRaw(body) + `</pre>`)
}

func firstChild(el *lambda.Element) lambda.Item {
	it, _ := argItem(el, 0)
	return it
}

// ============================================================
// Lists
// ============================================================

var listTags = map[listKind]string{
	listItemize:     "ul",
	listEnumerate:   "ol",
	listDescription: "dl",
}

var enumCounters = []string{"enumi", "enumii", "enumiii", "enumiv"}

func list(kind listKind) commandFunc {
	return func(w *writer, el *lambda.Element) {
		level := 1
		for _, f := range w.listStack {
			if f.kind == kind {
				level++
			}
		}
		if kind == listEnumerate {
			if level > len(enumCounters) {
				w.warn("", "enumerate", "too deeply nested")
			} else {
				w.counters.set(enumCounters[level-1], 0)
			}
		}

		w.use("list")
		w.blockOpen("<" + listTags[kind] + ` class="list">`)
		w.listStack = append(w.listStack, listFrame{kind: kind, level: level})
		depth := len(w.listStack)

		mark := w.enterGroup()
		w.children(el)
		w.leaveGroup(mark)

		for len(w.listStack) >= depth {
			w.closeList()
		}
	}
}

func (w *writer) closeList() {
	f := w.listStack[len(w.listStack)-1]
	if f.itemOpen {
		w.closeItem(f.kind)
	}
	w.blockClose("</" + listTags[f.kind] + ">")
	w.listStack = w.listStack[:len(w.listStack)-1]
}

func (w *writer) closeItem(kind listKind) {
	if kind == listDescription {
		w.blockClose("</dd>")
		return
	}
	w.blockClose("</li>")
}

func (w *writer) item(el *lambda.Element) {
	if len(w.listStack) == 0 {
		w.warn("item", "", "item outside list")
		w.parbreak()
		return
	}

	// Render a custom label before touching the frame; it may contain
	// arbitrary markup.
	custom, hasCustom := el.Attr("opt")
	labelHTML := ""
	if hasCustom {
		labelHTML = w.capture(custom)
	}

	f := &w.listStack[len(w.listStack)-1]
	if f.itemOpen {
		w.closeItem(f.kind)
		f = &w.listStack[len(w.listStack)-1]
	}
	f.itemOpen = true
	kind, level := f.kind, f.level

	if kind == listDescription {
		w.blockLeaf("<dt>" + labelHTML + "</dt>")
		w.blockOpen("<dd>")
		return
	}

	if !hasCustom {
		if kind == listItemize {
			labelHTML = bullets[(level-1)%len(bullets)]
		} else {
			labelHTML = w.enumLabel(level)
		}
	}
	w.use("itemlabel hbox llap")
	w.blockOpen("<li>")
	w.emit(`<span class="itemlabel"><span class="hbox llap">` + labelHTML + `</span></span>`)
}

// enumLabel steps the level's counter and returns its label: 1. (a) i. A.
func (w *writer) enumLabel(level int) string {
	if level > len(enumCounters) {
		level = len(enumCounters)
	}
	n := w.counters.step(enumCounters[level-1])
	var value, text string
	switch level {
	case 1:
		value = arabic(n)
		text = value + "."
	case 2:
		value = alph(n)
		text = "(" + value + ")"
	case 3:
		value = roman(n)
		text = value + "."
	default:
		value = upperAlph(n)
		text = value + "."
	}
	w.currentLabel = label{value: value, anchor: w.currentLabel.anchor}
	return text
}

// ============================================================
// Tabular
// ============================================================

type cell struct {
	items []lambda.Item
}

func tabular(widthFirst bool) commandFunc {
	return func(w *writer, el *lambda.Element) {
		specAttr := "arg"
		if widthFirst {
			specAttr = "arg2"
		}
		var aligns []string
		if spec, ok := el.Attr(specAttr); ok {
			aligns = columnAligns(spec)
		} else {
			w.warn("", el.Tag(), "missing column specification")
		}

		rows := splitRows(el.Children())
		for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
			rows = rows[:len(rows)-1]
		}

		w.use("tabular")
		w.blockOpen(`<table class="tabular">`)
		for _, row := range rows {
			if blankRow(row) {
				continue
			}
			w.blockLeaf(w.row(row, aligns))
		}
		w.blockClose(`</table>`)
	}
}

func (w *writer) row(row []cell, aligns []string) string {
	var sb strings.Builder
	sb.WriteString("<tr>")
	col := 0
	for _, c := range row {
		align := "l"
		if col < len(aligns) {
			align = aligns[col]
		}
		span := 1
		items := c.items
		if mc, ok := multicolumn(c); ok {
			if n, err := strconv.Atoi(argText(mc, 0)); err == nil && n > 1 {
				span = n
			}
			if spec, ok := argItem(mc, 1); ok {
				if a := columnAligns(spec); len(a) > 0 {
					align = a[0]
				}
			}
			items = nil
			if it, ok := argItem(mc, 2); ok {
				items = []lambda.Item{it}
			}
		}
		w.use(align)
		sb.WriteString(`<td class="` + align + `"`)
		if span > 1 {
			sb.WriteString(` colspan="` + strconv.Itoa(span) + `"`)
		}
		sb.WriteByte('>')
		sb.WriteString(w.capture(items...))
		sb.WriteString("</td>")
		col += span
	}
	sb.WriteString("</tr>")
	return sb.String()
}

var rules = map[string]bool{
	"hline": true, "cline": true, "toprule": true, "midrule": true, "bottomrule": true,
}

// splitRows breaks tabular content into rows at \\ and cells at &.
func splitRows(items []lambda.Item) [][]cell {
	var rows [][]cell
	cur := []cell{{}}
	for _, it := range items {
		if it.Type() == lambda.TypeElement {
			switch tag := it.Element().Tag(); {
			case tag == latex.TagLineBreak:
				rows = append(rows, cur)
				cur = []cell{{}}
				continue
			case tag == latex.TagTab:
				cur = append(cur, cell{})
				continue
			case rules[tag]:
				continue
			}
		}
		last := &cur[len(cur)-1]
		last.items = append(last.items, it)
	}
	return append(rows, cur)
}

func blankRow(row []cell) bool {
	for _, c := range row {
		for _, it := range c.items {
			if it.Type() != lambda.TypeString || strings.TrimSpace(it.Str().String()) != "" {
				return false
			}
		}
	}
	return true
}

// multicolumn reports whether c holds nothing but a \multicolumn.
func multicolumn(c cell) (*lambda.Element, bool) {
	var found *lambda.Element
	for _, it := range c.items {
		switch {
		case it.Type() == lambda.TypeString && strings.TrimSpace(it.Str().String()) == "":
		case it.Type() == lambda.TypeElement && it.Element().Tag() == "multicolumn" && found == nil:
			found = it.Element()
		default:
			return nil, false
		}
	}
	return found, found != nil
}

// columnAligns reads l, c and r from a column specification. Width
// groups such as p{3cm} are skipped and paragraph columns align left.
func columnAligns(spec lambda.Item) []string {
	var out []string
	var walk func(it lambda.Item)
	walk = func(it lambda.Item) {
		switch it.Type() {
		case lambda.TypeString:
			for _, c := range it.Str().String() {
				switch c {
				case 'l', 'c', 'r':
					out = append(out, string(c))
				case 'p', 'm', 'b', 'X':
					out = append(out, "l")
				}
			}
		case lambda.TypeElement:
			if it.Element().Tag() != latex.TagGroup {
				return
			}
			for _, c := range it.Element().Children() {
				if c.Type() == lambda.TypeString {
					walk(c)
				}
			}
		}
	}
	walk(spec)
	return out
}

// ============================================================
// Math
// ============================================================

var numberedMath = map[string]bool{
	"equation": true, "align": true, "gather": true, "multline": true, "eqnarray": true,
}

var mathLabel = regexp.MustCompile(`\\label\{([^}]*)\}`)

// math renders formulas as escaped source. Display environments that
// LaTeX numbers step the equation counter and bind their labels.
func (w *writer) math(el *lambda.Element) {
	raw := itemText(firstChild(el))
	mode := optText(el, "mode")
	name := optText(el, "name")
	w.use("math")

	if mode != "display" || name == "math" {
		w.use("inline")
		w.inlineHTML(`<span class="math inline">` + escapeRaw(raw) + `</span>`)
		return
	}

	labels := mathLabel.FindAllStringSubmatch(raw, -1)
	raw = strings.TrimSpace(mathLabel.ReplaceAllString(raw, ""))
	w.use("display")

	if !numberedMath[name] {
		for _, l := range labels {
			w.labelMap[l[1]] = w.currentLabel
		}
		w.blockLeaf(`<div class="math display">` + escapeRaw(raw) + `</div>`)
		return
	}

	n := arabic(w.counters.step("equation"))
	id := "eq-" + n
	w.currentLabel = label{value: n, anchor: id}
	for _, l := range labels {
		if _, dup := w.labelMap[l[1]]; dup {
			w.warn("label", name, "label "+strconv.Quote(l[1])+" multiply defined")
		}
		w.labelMap[l[1]] = w.currentLabel
	}
	w.use("eqno")
	w.blockLeaf(`<div class="math display" id="` + id + `">` + escapeRaw(raw) +
		`<span class="eqno">(` + n + `)</span></div>`)
}
