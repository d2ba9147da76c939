package latexhtml

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/latex"
)

type commandFunc func(w *writer, el *lambda.Element)

var (
	commands     map[string]commandFunc
	environments map[string]commandFunc
)

// Font declarations and the class they open for the rest of the group.
var declarations = map[string]string{
	"bf": "bf", "bfseries": "bf",
	"md": "md", "mdseries": "md",
	"it": "it", "itshape": "it",
	"sl": "sl", "slshape": "sl",
	"up": "up", "upshape": "up",
	"sc": "sc", "scshape": "sc",
	"tt": "tt", "ttfamily": "tt",
	"rm": "rm", "rmfamily": "rm",
	"sf": "sf", "sffamily": "sf",

	"tiny": "tiny", "scriptsize": "scriptsize", "footnotesize": "footnotesize",
	"small": "small", "normalsize": "normalsize", "large": "large",
	"Large": "Large", "LARGE": "LARGE", "huge": "huge", "Huge": "Huge",
}

// Text commands and the class of the span around their argument.
var textStyles = map[string]string{
	"textbf": "bf", "textmd": "md",
	"textit": "it", "textsl": "sl", "textup": "up", "textsc": "sc",
	"texttt": "tt", "textrm": "rm", "textsf": "sf",
	"underline": "u",
}

var alignments = map[string]string{
	"centering":   "center",
	"raggedright": "flushleft",
	"raggedleft":  "flushright",
}

// Commands that stand for a fixed piece of text.
var symbols = map[string]string{
	"ldots": "…", "dots": "…", "textellipsis": "…",
	"S": "§", "P": "¶", "copyright": "©", "textcopyright": "©",
	"textregistered": "®", "texttrademark": "™",
	"dag": "†", "ddag": "‡", "textdagger": "†", "textdaggerdbl": "‡",
	"pounds": "£", "textsterling": "£", "euro": "€", "texteuro": "€",
	"textbackslash": `\`, "textasciitilde": "~", "textasciicircum": "^",
	"textbar": "|", "textless": "<", "textgreater": ">", "textunderscore": "_",
	"textbullet": "•", "textperiodcentered": "·", "textendash": "–", "textemdash": "—",
	"textquoteleft": "‘", "textquoteright": "’", "textquotedblleft": "“", "textquotedblright": "”",
	"guillemotleft": "«", "guillemotright": "»", "textdegree": "°",
	"quad": " ", "qquad": "  ", "enspace": " ",
	"thinspace": " ", "enskip": " ", "nobreakspace": " ",
	"slash": "/", "textvisiblespace": "␣",
}

// Commands with no visible output.
var ignored = map[string]bool{
	"documentclass": true, "usepackage": true, "RequirePackage": true,
	"pagestyle": true, "thispagestyle": true, "pagenumbering": true,
	"newpage": true, "clearpage": true, "cleardoublepage": true,
	"pagebreak": true, "nopagebreak": true, "nolinebreak": true,
	"protect": true, "relax": true, "hfill": true, "vfill": true, "null": true,
	"index": true, "tableofcontents": true, "listoffigures": true, "listoftables": true,
	"bibliographystyle": true, "thanks": true, "nonumber": true, "notag": true,
	"newcommand": true, "renewcommand": true, "providecommand": true, "def": true,
	"newenvironment": true, "renewenvironment": true,
	"setlength": true, "addtolength": true, "hyphenation": true,
	"frenchspacing": true, "nonfrenchspacing": true, "sloppy": true, "fussy": true,
	"onecolumn": true, "twocolumn": true, "appendix": true, "indent": true,
	"hline": true, "cline": true, "toprule": true, "midrule": true, "bottomrule": true,
	"normalfont": true, "selectfont": true, "maketitle*": true,
}

// Commands honoured before \begin{document}.
var preamble = map[string]bool{
	"title": true, "author": true, "date": true,
	"newcounter": true, "setcounter": true, "addtocounter": true,
}

var bullets = []string{"•", "–", "∗", "·"}

func init() {
	commands = map[string]commandFunc{
		"section":       heading(2, "section"),
		"subsection":    heading(3, "subsection"),
		"subsubsection": heading(4, "subsubsection"),
		"chapter":       heading(1, "chapter"),
		"paragraph":     heading(5, ""),
		"subparagraph":  heading(6, ""),

		"emph":              (*writer).emph,
		"em":                (*writer).em,
		"item":              (*writer).item,
		"label":             (*writer).label,
		"ref":               reference(""),
		"autoref":           reference(""),
		"cref":              reference(""),
		"pageref":           reference(""),
		"eqref":             reference("eq"),
		"newcounter":        (*writer).newCounter,
		"setcounter":        counterOp(func(c *counters, n string, v int64) { c.set(n, v) }),
		"addtocounter":      counterOp(func(c *counters, n string, v int64) { c.add(n, v) }),
		"stepcounter":       (*writer).stepCounter,
		"refstepcounter":    (*writer).refStepCounter,
		"value":             numberStyle(arabic),
		"footnote":          (*writer).footnote,
		"caption":           (*writer).caption,
		"href":              (*writer).href,
		"url":               (*writer).url,
		"textsuperscript":   wrapper("sup"),
		"textsubscript":     wrapper("sub"),
		"MakeUppercase":     caseChange(func() func(string) string { return cases.Upper(language.Und).String }),
		"MakeLowercase":     caseChange(func() func(string) string { return cases.Lower(language.Und).String }),
		"MakeTextUppercase": caseChange(func() func(string) string { return cases.Upper(language.Und).String }),
		"newline":           (*writer).lineBreak,
		"linebreak":         (*writer).lineBreak,
		"hspace":            (*writer).hspace,
		"vspace":            (*writer).vspace,
		"smallskip":         skip("0.5em"),
		"medskip":           skip("1em"),
		"bigskip":           skip("2em"),
		"includegraphics":   (*writer).includeGraphics,
		"noindent":          func(w *writer, _ *lambda.Element) { w.noIndent = true },
		"title":             func(w *writer, el *lambda.Element) { w.meta.title = w.capture(el.Children()...) },
		"author":            func(w *writer, el *lambda.Element) { w.meta.author = w.capture(el.Children()...) },
		"date":              func(w *writer, el *lambda.Element) { w.meta.date = w.capture(el.Children()...) },
		"and":               func(w *writer, _ *lambda.Element) { w.inlineHTML(", ") },
		"maketitle":         (*writer).makeTitle,
		"today":             func(w *writer, _ *lambda.Element) { w.literal(time.Now().Format("January 2, 2006")) },
		"LaTeX":             markup(`<span class="latex">LaTeX</span>`, "latex"),
		"LaTeXe":            markup(`<span class="latex">LaTeX2ε</span>`, "latex"),
		"TeX":               markup(`<span class="tex">TeX</span>`, "tex"),

		"multicolumn": func(w *writer, el *lambda.Element) {
			if ch := el.Children(); len(ch) == 3 {
				w.node(ch[2])
			}
		},
	}

	for name, style := range numberStyles {
		commands[name] = numberStyle(style)
	}

	environments = map[string]commandFunc{
		"document":    (*writer).document,
		"itemize":     list(listItemize),
		"enumerate":   list(listEnumerate),
		"description": list(listDescription),
		"center":      blockEnv("center"),
		"flushleft":   blockEnv("flushleft"),
		"flushright":  blockEnv("flushright"),
		"quote":       blockEnv("quote"),
		"quotation":   blockEnv("quotation"),
		"verse":       blockEnv("verse"),
		"abstract":    blockEnv("abstract"),
		"minipage":    blockEnv("minipage"),
		"figure":      float("figure"),
		"figure*":     float("figure"),
		"table":       float("table"),
		"table*":      float("table"),
		"verbatim":    (*writer).verbatim,
		"verbatim*":   (*writer).verbatim,
		"lstlisting":  (*writer).verbatim,
		"minted":      (*writer).verbatim,
		"comment":     func(*writer, *lambda.Element) {},
		"tabular":     tabular(false),
		"tabular*":    tabular(true),
		"tabularx":    tabular(true),
		"array":       tabular(false),
	}
}

// ============================================================
// Dispatch
// ============================================================

func (w *writer) node(it lambda.Item) {
	switch it.Type() {
	case lambda.TypeNull:
	case lambda.TypeString, lambda.TypeSymbol:
		w.text(it.Str().String())
	case lambda.TypeElement:
		w.depth++
		if w.depth > maxDepth {
			w.warn("", "", "nesting deeper than "+strconv.Itoa(maxDepth)+" levels skipped")
		} else {
			w.element(it.Element())
		}
		w.depth--
	case lambda.TypeArray:
		for _, c := range it.Array().Items {
			w.node(c)
		}
	case lambda.TypeList:
		for _, c := range it.List().Items {
			w.node(c)
		}
	case lambda.TypeMap:
		w.warn("", "", "map value in document tree skipped")
	default:
		w.text(lambda.EmitMark(it))
	}
}

func (w *writer) children(el *lambda.Element) {
	for _, c := range el.Children() {
		w.node(c)
	}
}

func (w *writer) group(el *lambda.Element) {
	mark := w.enterGroup()
	w.children(el)
	w.leaveGroup(mark)
}

func isEnvironment(el *lambda.Element) bool {
	v, ok := el.Attr("environment")
	return ok && v.Type() == lambda.TypeBool && v.Bool()
}

func flag(el *lambda.Element, name string) bool {
	v, ok := el.Attr(name)
	return ok && v.Type() == lambda.TypeBool && v.Bool()
}

func (w *writer) element(el *lambda.Element) {
	tag := el.Tag()
	if isEnvironment(el) {
		w.environment(tag, el)
		return
	}

	switch tag {
	case latex.TagDocument:
		w.root(el)
		return
	case latex.TagParbreak:
		w.parbreak()
		return
	case latex.TagGroup:
		w.group(el)
		return
	case latex.TagLineBreak:
		w.lineBreak(el)
		return
	case latex.TagSpace:
		w.controlSpace()
		return
	case latex.TagTab:
		w.warn("", "", "alignment tab outside tabular")
		return
	case latex.TagMath:
		w.math(el)
		return
	case latex.TagVerb:
		w.use("verb")
		w.inlineHTML(`<code class="verb">` + escapeRaw(argText(el, 0)) + `</code>`)
		return
	}

	if h, ok := commands[tag]; ok {
		h(w, el)
		return
	}
	if class, ok := textStyles[tag]; ok {
		w.styled(class, el)
		return
	}
	if class, ok := declarations[tag]; ok {
		w.pushFont(class)
		w.children(el)
		return
	}
	if align, ok := alignments[tag]; ok {
		w.pendingAlignment = align
		return
	}
	if s, ok := symbols[tag]; ok {
		w.literal(s)
		return
	}
	if ignored[tag] {
		return
	}
	if name, ok := strings.CutPrefix(tag, "the"); ok && w.counters.has(name) {
		w.literal(w.counterText(name))
		return
	}
	w.unknown(tag, el)
}

func (w *writer) unknown(tag string, el *lambda.Element) {
	w.opts.log.WithField("command", tag).Debug("unknown command")
	comment := "<!-- unknown: \\" + strings.ReplaceAll(tag, "--", "- -") + " -->"
	if w.inParagraph || w.capturing() {
		w.inline().Append(comment)
	} else {
		w.emit(comment)
	}
	w.group(el)
}

// root renders the latex_document element. When the source has a document
// environment, content outside it is preamble: only metadata and counter
// setup are honoured there.
func (w *writer) root(el *lambda.Element) {
	hasBody := false
	for _, c := range el.Children() {
		if c.Type() == lambda.TypeElement && c.Element().Tag() == "document" && isEnvironment(c.Element()) {
			hasBody = true
			break
		}
	}
	for _, c := range el.Children() {
		if !hasBody {
			w.node(c)
			continue
		}
		if c.Type() != lambda.TypeElement {
			continue
		}
		ce := c.Element()
		if preamble[ce.Tag()] || (ce.Tag() == "document" && isEnvironment(ce)) {
			w.node(c)
		}
	}
}

func (w *writer) parbreak() {
	if w.capturing() {
		buf := w.inline()
		if buf.Len() > 0 && buf.LastByte() != ' ' {
			buf.AppendByte(' ')
		}
		return
	}
	w.flushParagraph()
}

// literal writes text without ligature processing.
func (w *writer) literal(s string) {
	if !w.capturing() && !w.inParagraph && strings.TrimSpace(s) == "" {
		return
	}
	w.inline().Append(escape(s))
}

func markup(html, class string) commandFunc {
	return func(w *writer, _ *lambda.Element) {
		w.use(class)
		w.inlineHTML(html)
	}
}

// ============================================================
// Arguments
// ============================================================

func argItem(el *lambda.Element, i int) (lambda.Item, bool) {
	ch := el.Children()
	if i >= len(ch) {
		return lambda.Null, false
	}
	return ch[i], true
}

// argText returns the plain text of argument i.
func argText(el *lambda.Element, i int) string {
	it, ok := argItem(el, i)
	if !ok {
		return ""
	}
	return strings.TrimSpace(itemText(it))
}

func itemText(it lambda.Item) string {
	switch it.Type() {
	case lambda.TypeString, lambda.TypeSymbol:
		return it.Str().String()
	case lambda.TypeElement:
		var sb strings.Builder
		appendText(&sb, it.Element())
		return sb.String()
	}
	return ""
}

// appendText collects the text under e, with control spaces as spaces.
func appendText(sb *strings.Builder, e *lambda.Element) {
	if e.Tag() == latex.TagSpace {
		sb.WriteByte(' ')
		return
	}
	for _, c := range e.Children() {
		switch c.Type() {
		case lambda.TypeString, lambda.TypeSymbol:
			sb.Write(c.Str().Bytes())
		case lambda.TypeElement:
			appendText(sb, c.Element())
		}
	}
}

func optText(el *lambda.Element, name string) string {
	v, ok := el.Attr(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(itemText(v))
}

// intArg evaluates argument i as an integer expression: a literal or
// \value{counter}.
func (w *writer) intArg(el *lambda.Element, i int) int64 {
	it, ok := argItem(el, i)
	if !ok {
		w.warn(el.Tag(), "", "missing numeric argument")
		return 0
	}
	return w.evalInt(el.Tag(), it)
}

func (w *writer) evalInt(cmd string, it lambda.Item) int64 {
	switch it.Type() {
	case lambda.TypeString:
		s := strings.TrimSpace(it.Str().String())
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			w.warn(cmd, "", "not a number: "+strconv.Quote(s))
		}
		return n
	case lambda.TypeInt, lambda.TypeInt64:
		return it.Int()
	case lambda.TypeElement:
		e := it.Element()
		switch e.Tag() {
		case "value":
			return w.counters.get(argText(e, 0))
		case latex.TagGroup:
			for _, c := range e.Children() {
				if c.Type() == lambda.TypeString && strings.TrimSpace(c.Str().String()) == "" {
					continue
				}
				return w.evalInt(cmd, c)
			}
		}
	}
	w.warn(cmd, "", "not a number")
	return 0
}

// ============================================================
// Fonts
// ============================================================

func (w *writer) styled(class string, el *lambda.Element) {
	mark := w.enterGroup()
	w.pushFont(class)
	w.children(el)
	w.leaveGroup(mark)
}

// emph toggles between italic and upright.
func (w *writer) emph(el *lambda.Element) {
	class := "it"
	if w.italic() {
		class = "up"
	}
	w.styled(class, el)
}

func (w *writer) em(el *lambda.Element) {
	if w.italic() {
		w.pushFont("up")
	} else {
		w.pushFont("it")
	}
	w.children(el)
}

func wrapper(tag string) commandFunc {
	return func(w *writer, el *lambda.Element) {
		inner := w.capture(el.Children()...)
		w.inlineHTML("<" + tag + ">" + inner + "</" + tag + ">")
	}
}

func caseChange(newCaser func() func(string) string) commandFunc {
	return func(w *writer, el *lambda.Element) {
		mark := w.enterGroup()
		w.transforms = append(w.transforms, newCaser())
		w.children(el)
		w.leaveGroup(mark)
	}
}

// ============================================================
// Sectioning
// ============================================================

var sectionChain = []string{"chapter", "section", "subsection", "subsubsection"}

func heading(level int, counter string) commandFunc {
	return func(w *writer, el *lambda.Element) {
		title := w.capture(el.Children()...)
		numbered := counter != "" && !flag(el, "star")

		w.sectionIDs++
		id := "sec-" + strconv.Itoa(w.sectionIDs)
		h := "h" + strconv.Itoa(level)

		var sb strings.Builder
		sb.WriteString("<" + h + ` id="` + id + `">`)
		if numbered {
			w.counters.step(counter)
			if counter == "chapter" {
				w.chapters = true
			}
			num := w.sectionNumber(counter)
			w.currentLabel = label{value: num, anchor: id}
			sb.WriteString(num)
			sb.WriteString(" ")
		} else {
			w.currentLabel = label{value: w.currentLabel.value, anchor: id}
		}
		sb.WriteString(title)
		sb.WriteString("</" + h + ">")
		w.blockLeaf(sb.String())
	}
}

// sectionNumber joins the counters from the outermost used level down to
// counter, e.g. 1.2.
func (w *writer) sectionNumber(counter string) string {
	start := 1
	if w.chapters {
		start = 0
	}
	var parts []string
	for i := start; i < len(sectionChain); i++ {
		parts = append(parts, arabic(w.counters.get(sectionChain[i])))
		if sectionChain[i] == counter {
			break
		}
	}
	return strings.Join(parts, ".")
}

func (w *writer) counterText(name string) string {
	for _, s := range sectionChain {
		if s == name {
			return w.sectionNumber(name)
		}
	}
	return arabic(w.counters.get(name))
}

func (w *writer) makeTitle(_ *lambda.Element) {
	if w.meta.title == "" && w.meta.author == "" && w.meta.date == "" {
		w.warn("maketitle", "", "no title given")
		return
	}
	w.use("titlepage")
	w.blockOpen(`<div class="titlepage">`)
	for _, part := range []struct{ class, html string }{
		{"title", w.meta.title},
		{"author", w.meta.author},
		{"date", w.meta.date},
	} {
		if part.html == "" {
			continue
		}
		w.use(part.class)
		w.blockLeaf(`<div class="` + part.class + `">` + part.html + `</div>`)
	}
	w.blockClose(`</div>`)
}

// ============================================================
// Labels and counters
// ============================================================

func (w *writer) label(el *lambda.Element) {
	name := argText(el, 0)
	if name == "" {
		w.warn("label", "", "empty label")
		return
	}
	if _, dup := w.labelMap[name]; dup {
		w.warn("label", "", "label "+strconv.Quote(name)+" multiply defined")
	}
	w.labelMap[name] = w.currentLabel
}

// reference writes a marker that resolve replaces once every label is
// known.
func reference(form string) commandFunc {
	return func(w *writer, el *lambda.Element) {
		name := argText(el, 0)
		key := name
		if form != "" {
			key += "\x01" + form
		}
		idx := len(w.refs)
		w.refs = append(w.refs, key)
		w.use("ref")
		w.inlineHTML(string(rune(refMark)) + strconv.Itoa(idx) + string(rune(refMark)))
	}
}

func (w *writer) counterName(el *lambda.Element) (string, bool) {
	name := argText(el, 0)
	if name == "" {
		w.warn(el.Tag(), "", "missing counter name")
		return "", false
	}
	if !w.counters.has(name) {
		w.warn(el.Tag(), "", "undefined counter "+strconv.Quote(name))
		w.counters.define(name, "")
	}
	return name, true
}

func (w *writer) newCounter(el *lambda.Element) {
	name := argText(el, 0)
	if name == "" {
		w.warn("newcounter", "", "missing counter name")
		return
	}
	if w.counters.has(name) {
		w.warn("newcounter", "", "counter "+strconv.Quote(name)+" already defined")
		return
	}
	w.counters.define(name, optText(el, "opt"))
}

func counterOp(op func(c *counters, name string, v int64)) commandFunc {
	return func(w *writer, el *lambda.Element) {
		name, ok := w.counterName(el)
		if !ok {
			return
		}
		op(w.counters, name, w.intArg(el, 1))
	}
}

func (w *writer) stepCounter(el *lambda.Element) {
	if name, ok := w.counterName(el); ok {
		w.counters.step(name)
	}
}

func (w *writer) refStepCounter(el *lambda.Element) {
	if name, ok := w.counterName(el); ok {
		v := w.counters.step(name)
		w.currentLabel = label{value: arabic(v), anchor: w.currentLabel.anchor}
	}
}

func numberStyle(style func(int64) string) commandFunc {
	return func(w *writer, el *lambda.Element) {
		if name, ok := w.counterName(el); ok {
			w.literal(style(w.counters.get(name)))
		}
	}
}

// ============================================================
// Notes, links and spacing
// ============================================================

type footnote struct {
	num  string
	html string
}

func (w *writer) footnote(el *lambda.Element) {
	n := arabic(w.counters.step("footnote"))
	w.footnotes = append(w.footnotes, footnote{num: n, html: w.capture(el.Children()...)})
	w.inlineHTML(`<a class="footnote-ref" href="#fn-` + n + `" id="fnref-` + n + `"><sup>` + n + `</sup></a>`)
}

func (w *writer) href(el *lambda.Element) {
	target := argText(el, 0)
	text := escape(target)
	if it, ok := argItem(el, 1); ok {
		text = w.capture(it)
	}
	w.inlineHTML(`<a href="` + escapeAttr(target) + `">` + text + `</a>`)
}

func (w *writer) url(el *lambda.Element) {
	target := argText(el, 0)
	w.use("url")
	w.inlineHTML(`<a class="url" href="` + escapeAttr(target) + `">` + escape(target) + `</a>`)
}

func (w *writer) lineBreak(_ *lambda.Element) {
	switch {
	case w.capturing():
		w.inline().Append("<br/>")
	case w.inParagraph:
		w.para.Append("<br/>")
	}
}

// cssLength keeps a LaTeX length that is also a valid CSS length.
func cssLength(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c == '.' || c == '-' || c >= 'a' && c <= 'z') {
			return "", false
		}
	}
	return s, true
}

func (w *writer) hspace(el *lambda.Element) {
	n, ok := cssLength(argText(el, 0))
	if !ok {
		return
	}
	w.use("hspace")
	w.inlineHTML(`<span class="hspace" style="width: ` + n + `"></span>`)
}

func (w *writer) vspace(el *lambda.Element) {
	if n, ok := cssLength(argText(el, 0)); ok {
		w.vskip(n)
	}
}

func skip(n string) commandFunc {
	return func(w *writer, _ *lambda.Element) { w.vskip(n) }
}

func (w *writer) vskip(n string) {
	w.use("vspace")
	w.blockLeaf(`<div class="vspace" style="height: ` + n + `"></div>`)
}

func (w *writer) includeGraphics(el *lambda.Element) {
	src := argText(el, 0)
	if src == "" {
		w.warn("includegraphics", "", "missing file name")
		return
	}
	w.inlineHTML(`<img src="` + escapeAttr(src) + `" alt=""/>`)
}

func (w *writer) caption(el *lambda.Element) {
	kind := ""
	if n := len(w.floats); n > 0 {
		kind = w.floats[n-1]
	} else {
		w.warn("caption", "", "caption outside figure or table")
	}
	text := w.capture(el.Children()...)
	w.use("caption")

	switch kind {
	case "figure", "table":
		n := arabic(w.counters.step(kind))
		id := kind[:3] + "-" + n
		w.currentLabel = label{value: n, anchor: id}
		prefix := cases.Title(language.Und).String(kind)
		w.blockLeaf(`<div class="caption" id="` + id + `">` + prefix + " " + n + ": " + text + `</div>`)
	default:
		w.blockLeaf(`<div class="caption">` + text + `</div>`)
	}
}
