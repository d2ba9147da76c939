package latexhtml

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/pool"
)

const (
	bufferGrowSize = 64 << 10
	maxDepth       = 256

	// refMark brackets a deferred reference in the output until resolve.
	refMark = 0
)

// blockFrame tracks one open block. lines is set once the block holds a
// child block, after which paragraphs and the closing tag start on their
// own line.
type blockFrame struct {
	lines bool
}

// fontSlot is one open styled span.
type fontSlot struct {
	class string
}

type listKind uint8

const (
	listItemize listKind = iota
	listEnumerate
	listDescription
)

type listFrame struct {
	kind     listKind
	level    int
	itemOpen bool
}

// label is a \label binding.
type label struct {
	value  string
	anchor string
}

type docMeta struct {
	title, author, date string
}

// groupMark saves the declaration state at the start of a group.
type groupMark struct {
	fonts      int
	align      string
	transforms int
}

type writer struct {
	opts options
	pool *pool.Pool

	out  *lambda.StringBuf
	para *lambda.StringBuf

	inParagraph bool
	paraStart   int
	noIndent    bool

	captures []*lambda.StringBuf
	blocks   []blockFrame

	listStack []listFrame
	fontStack []fontSlot

	// pendingAlignment applies to paragraphs opened in the current group.
	pendingAlignment string
	transforms       []func(string) string

	counters     *counters
	sectionIDs   int
	labelMap     map[string]label
	refs         []string
	currentLabel label
	chapters     bool

	floats    []string
	footnotes []footnote

	depth    int
	meta     docMeta
	css      map[string]bool
	warnings []FormatError
}

func newWriter(opts options) (*writer, error) {
	p, err := pool.New(bufferGrowSize, 20)
	if err != nil {
		return nil, err
	}
	return &writer{
		opts:     opts,
		pool:     p,
		out:      lambda.NewStringBuf(p),
		para:     lambda.NewStringBuf(p),
		blocks:   []blockFrame{{}},
		counters: newCounters(),
		labelMap: make(map[string]label),
		css:      make(map[string]bool),
	}, nil
}

func (w *writer) close() {
	w.pool.Destroy()
}

func (w *writer) warn(cmd, env, reason string) {
	fe := FormatError{Command: cmd, Env: env, Reason: reason}
	w.warnings = append(w.warnings, fe)
	w.opts.log.With(fe).Warn("format repaired input")
}

// use records CSS classes appearing in the output.
func (w *writer) use(classes string) {
	for _, c := range strings.Fields(classes) {
		w.css[c] = true
	}
}

// ============================================================
// Document
// ============================================================

func (w *writer) run(root lambda.Item) {
	w.use("body")
	w.out.Append(`<div class="body">`)
	w.node(root)
	w.flushParagraph()

	for len(w.listStack) > 0 {
		w.warn("", "", "list left open at end of document")
		w.closeList()
	}
	if len(w.footnotes) > 0 {
		w.use("footnotes")
		w.blockOpen(`<div class="footnotes">`)
		for _, fn := range w.footnotes {
			w.blockLeaf(`<div class="footnote" id="fn-` + fn.num + `"><sup>` + fn.num + `</sup> ` + fn.html + `</div>`)
		}
		w.blockClose(`</div>`)
	}
	w.blockClose(`</div>`)
	w.checkRefs()
}

func (w *writer) result() *Result {
	if n := w.out.Rejected() + w.para.Rejected(); n > 0 {
		w.warn("", "", "output exceeds maximum length, "+strconv.Itoa(n)+" writes dropped")
	}
	body := w.resolve(w.out.String())
	css := stylesheet(w.css)

	res := &Result{HTML: body, Warnings: w.warnings}
	if w.opts.css {
		res.CSS = css
	}
	if !w.opts.standalone {
		return res
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\"/>\n")
	if w.meta.title != "" {
		sb.WriteString("<title>")
		sb.WriteString(stripTags(w.resolve(w.meta.title)))
		sb.WriteString("</title>\n")
	}
	sb.WriteString("<style>\n")
	sb.WriteString(css)
	sb.WriteString("</style>\n</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("\n</body>\n</html>\n")
	res.HTML = sb.String()
	return res
}

// resolve replaces deferred reference markers with their final text.
func (w *writer) resolve(s string) string {
	if strings.IndexByte(s, refMark) < 0 {
		return s
	}
	var sb strings.Builder
	for {
		i := strings.IndexByte(s, refMark)
		if i < 0 {
			sb.WriteString(s)
			break
		}
		sb.WriteString(s[:i])
		s = s[i+1:]
		j := strings.IndexByte(s, refMark)
		if j < 0 {
			break
		}
		idx, err := strconv.Atoi(s[:j])
		s = s[j+1:]
		if err != nil || idx >= len(w.refs) {
			continue
		}
		sb.WriteString(w.renderRef(w.refs[idx]))
	}
	return sb.String()
}

func (w *writer) renderRef(key string) string {
	name, form, _ := strings.Cut(key, "\x01")
	l, ok := w.labelMap[name]
	if !ok {
		return "??"
	}
	text := l.value
	if form == "eq" {
		text = "(" + text + ")"
	}
	if l.anchor == "" {
		return escape(text)
	}
	return `<a class="ref" href="#` + escapeAttr(l.anchor) + `">` + escape(text) + `</a>`
}

// checkRefs warns about references whose label never appeared.
func (w *writer) checkRefs() {
	seen := make(map[string]bool)
	for _, key := range w.refs {
		name, _, _ := strings.Cut(key, "\x01")
		if _, ok := w.labelMap[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		w.warn("ref", "", "undefined label "+strconv.Quote(name))
	}
}

// ============================================================
// Output targets
// ============================================================

func (w *writer) capturing() bool { return len(w.captures) > 0 }

// emit writes block-level markup to the active target.
func (w *writer) emit(s string) {
	if w.capturing() {
		w.captures[len(w.captures)-1].Append(s)
		return
	}
	w.out.Append(s)
}

// inline returns the buffer for inline content, opening a paragraph when
// none is open.
func (w *writer) inline() *lambda.StringBuf {
	if w.capturing() {
		return w.captures[len(w.captures)-1]
	}
	w.openParagraph()
	return w.para
}

// beginCapture redirects inline output to a fresh buffer. Open spans and
// declarations do not carry into the capture.
func (w *writer) beginCapture() (saved []fontSlot) {
	w.captures = append(w.captures, lambda.NewStringBuf(w.pool))
	saved = w.fontStack
	w.fontStack = nil
	return saved
}

func (w *writer) endCapture(saved []fontSlot) string {
	n := len(w.captures) - 1
	buf := w.captures[n]
	w.captures = w.captures[:n]
	for range w.fontStack {
		buf.Append("</span>")
	}
	w.fontStack = saved
	return strings.TrimSpace(buf.String())
}

// capture renders items into a string.
func (w *writer) capture(items ...lambda.Item) string {
	saved := w.beginCapture()
	mark := w.enterGroup()
	for _, it := range items {
		w.node(it)
	}
	w.leaveGroup(mark)
	return w.endCapture(saved)
}

// ============================================================
// Paragraphs
// ============================================================

func (w *writer) openParagraph() {
	if w.inParagraph {
		return
	}
	w.inParagraph = true
	w.para.Reset()
	for _, f := range w.fontStack {
		w.para.Append(`<span class="` + f.class + `">`)
	}
	w.paraStart = w.para.Len()
}

// flushParagraph commits the buffered paragraph, if any. A paragraph with
// no content is discarded.
func (w *writer) flushParagraph() {
	if !w.inParagraph || w.capturing() {
		return
	}
	w.para.TrimTrailingSpace()
	if w.para.Len() > w.paraStart {
		for range w.fontStack {
			w.para.Append("</span>")
		}
		if w.top().lines {
			w.out.AppendByte('\n')
		}
		w.out.Append("<p")
		var classes []string
		if w.pendingAlignment != "" {
			classes = append(classes, w.pendingAlignment)
		}
		if w.noIndent {
			classes = append(classes, "noindent")
		}
		if len(classes) > 0 {
			cls := strings.Join(classes, " ")
			w.use(cls)
			w.out.Append(` class="` + cls + `"`)
		}
		w.out.AppendByte('>')
		w.out.AppendBytes(w.para.Bytes())
		w.out.Append("</p>")
		w.noIndent = false
	}
	w.para.Reset()
	w.inParagraph = false
}

// ============================================================
// Blocks
// ============================================================

func (w *writer) top() *blockFrame { return &w.blocks[len(w.blocks)-1] }

// blockOpen flushes the paragraph and opens a block on its own line.
func (w *writer) blockOpen(html string) {
	w.flushParagraph()
	if !w.capturing() {
		w.out.AppendByte('\n')
		w.top().lines = true
	}
	w.emit(html)
	w.blocks = append(w.blocks, blockFrame{})
}

func (w *writer) blockClose(html string) {
	w.flushParagraph()
	if w.top().lines && !w.capturing() {
		w.out.AppendByte('\n')
	}
	w.emit(html)
	if len(w.blocks) > 1 {
		w.blocks = w.blocks[:len(w.blocks)-1]
	}
}

// blockLeaf emits a complete block, such as a heading.
func (w *writer) blockLeaf(html string) {
	w.flushParagraph()
	if !w.capturing() {
		w.out.AppendByte('\n')
		w.top().lines = true
	}
	w.emit(html)
}

// ============================================================
// Groups and fonts
// ============================================================

func (w *writer) enterGroup() groupMark {
	return groupMark{
		fonts:      len(w.fontStack),
		align:      w.pendingAlignment,
		transforms: len(w.transforms),
	}
}

// leaveGroup ends declarations made since mark.
func (w *writer) leaveGroup(m groupMark) {
	for len(w.fontStack) > m.fonts {
		w.popFont()
	}
	w.pendingAlignment = m.align
	w.transforms = w.transforms[:m.transforms]
}

// pushFont opens a span. Inside an open paragraph or capture the span is
// written at once; otherwise the next paragraph opens it.
func (w *writer) pushFont(class string) {
	w.use(class)
	w.fontStack = append(w.fontStack, fontSlot{class: class})
	if w.inParagraph || w.capturing() {
		buf := w.para
		if w.capturing() {
			buf = w.captures[len(w.captures)-1]
		}
		buf.Append(`<span class="` + class + `">`)
	}
}

func (w *writer) popFont() {
	w.fontStack = w.fontStack[:len(w.fontStack)-1]
	switch {
	case w.capturing():
		w.captures[len(w.captures)-1].Append("</span>")
	case w.inParagraph:
		w.para.Append("</span>")
	}
}

// italic reports whether the innermost shape is slanted.
func (w *writer) italic() bool {
	for i := len(w.fontStack) - 1; i >= 0; i-- {
		switch w.fontStack[i].class {
		case "it", "sl":
			return true
		case "up":
			return false
		}
	}
	return false
}

func (w *writer) monospace() bool {
	for i := len(w.fontStack) - 1; i >= 0; i-- {
		switch w.fontStack[i].class {
		case "tt":
			return true
		case "rm", "sf":
			return false
		}
	}
	return false
}

// ============================================================
// Text
// ============================================================

// text writes a run of prose.
func (w *writer) text(s string) {
	s = collapseSpace(s)
	s = typeset(s, !w.monospace())
	for _, t := range w.transforms {
		s = t(s)
	}
	if !w.capturing() && !w.inParagraph {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return
		}
	}
	buf := w.inline()
	if strings.HasPrefix(s, " ") && (buf.LastByte() == ' ' || buf.Len() == 0) {
		s = s[1:]
	}
	buf.Append(escape(s))
}

// controlSpace writes an explicit interword space. Inside a span it is a
// no-break space so the styled run is not split.
func (w *writer) controlSpace() {
	if len(w.fontStack) == 0 {
		w.text(" ")
		return
	}
	w.inline().Append("\u00a0")
}

// inlineHTML writes markup that belongs inside a paragraph.
func (w *writer) inlineHTML(s string) {
	w.inline().Append(s)
}

// stylesheet renders rules for the used classes, sorted by name.
func stylesheet(used map[string]bool) string {
	names := make([]string, 0, len(used))
	for name := range used {
		if _, ok := cssRules[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteByte('.')
		sb.WriteString(name)
		sb.WriteString(" { ")
		sb.WriteString(cssRules[name])
		sb.WriteString(" }\n")
	}
	return sb.String()
}
