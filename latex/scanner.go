package latex

import "strings"

// Environments whose body is kept as raw text.
var verbatimEnvironments = map[string]bool{
	"verbatim":   true,
	"verbatim*":  true,
	"lstlisting": true,
	"comment":    true,
	"minted":     true,
}

// Environments whose body is raw math source.
var mathEnvironments = map[string]bool{
	"equation":    true,
	"equation*":   true,
	"align":       true,
	"align*":      true,
	"gather":      true,
	"gather*":     true,
	"multline":    true,
	"multline*":   true,
	"eqnarray":    true,
	"eqnarray*":   true,
	"displaymath": true,
	"math":        true,
}

// Control symbols that take one argument, either a group or a single letter.
const accentSymbols = "'`^\"~=."

type frameKind uint8

const (
	frameRoot frameKind = iota
	frameCurly
	frameBrack
	frameEnv
)

type frame struct {
	kind frameKind
	name string
}

type scanner struct {
	src    []byte
	pos    int
	tree   *Tree
	frames []frame
}

// Parse scans LaTeX source into a concrete syntax tree. It never fails:
// malformed input shows up as ERROR nodes (see Tree.Err) and unclosed groups
// or environments are closed at end of input with Missing set.
func Parse(src []byte) *Tree {
	s := &scanner{
		src:  src,
		tree: &Tree{Source: src, Nodes: make([]Node, 0, len(src)/4+1)},
	}
	root := s.tree.add(SymSourceFile, FieldNone, 0, noNode)
	s.frames = append(s.frames, frame{kind: frameRoot})
	s.content(root)
	s.tree.Nodes[root].End = uint32(len(src))
	return s.tree
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.pos < len(s.src) {
		return s.src[s.pos]
	}
	return 0
}

func (s *scanner) peekAt(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) leaf(sym, field uint16, start int, parent int32) int32 {
	id := s.tree.add(sym, field, uint32(start), parent)
	s.tree.Nodes[id].End = uint32(s.pos)
	return id
}

func (s *scanner) finish(id int32) {
	s.tree.Nodes[id].End = uint32(s.pos)
}

func (s *scanner) top() frame { return s.frames[len(s.frames)-1] }

func (s *scanner) push(f frame) { s.frames = append(s.frames, f) }

func (s *scanner) pop() { s.frames = s.frames[:len(s.frames)-1] }

// enclosing reports whether a frame of kind (and name, for environments)
// is open below the innermost frame.
func (s *scanner) enclosing(kind frameKind, name string) bool {
	for i := len(s.frames) - 2; i >= 0; i-- {
		f := s.frames[i]
		if f.kind == kind && (kind != frameEnv || f.name == name) {
			return true
		}
	}
	return false
}

// ============================================================
// Content
// ============================================================

// content scans children of parent until the innermost frame's closer,
// which it consumes, reporting true. It reports false at end of input or
// when a closer belonging to an outer frame is seen; that closer is left
// unconsumed.
func (s *scanner) content(parent int32) bool {
	for !s.eof() {
		start := s.pos
		c := s.peek()
		switch {
		case c == '%':
			s.comment(parent)

		case isSpace(c):
			s.whitespace(parent)

		case c == '{':
			s.group(parent, SymCurlyGroup, FieldNone)

		case c == '}':
			if s.top().kind == frameCurly {
				s.pos++
				return true
			}
			if s.enclosing(frameCurly, "") {
				return false
			}
			s.pos++
			s.leaf(SymError, FieldNone, start, parent)

		case c == ']' && s.top().kind == frameBrack:
			s.pos++
			return true

		case c == '$':
			s.dollarMath(parent)

		case c == '&':
			s.pos++
			s.leaf(SymAlignmentTab, FieldNone, start, parent)

		case c == '\\':
			if done, closed := s.backslash(parent); done {
				return closed
			}

		default:
			s.text(parent)
		}
	}
	return false
}

func (s *scanner) comment(parent int32) {
	start := s.pos
	for !s.eof() && s.peek() != '\n' {
		s.pos++
	}
	if !s.eof() {
		s.pos++
		for !s.eof() && (s.peek() == ' ' || s.peek() == '\t') {
			s.pos++
		}
	}
	s.leaf(SymComment, FieldNone, start, parent)
}

func (s *scanner) whitespace(parent int32) {
	start := s.pos
	newlines := 0
	for !s.eof() && isSpace(s.peek()) {
		if s.peek() == '\n' {
			newlines++
		}
		s.pos++
	}
	if newlines >= 2 {
		s.leaf(SymParbreak, FieldNone, start, parent)
		return
	}
	s.leaf(SymSpace, FieldNone, start, parent)
}

func (s *scanner) text(parent int32) {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if isSpace(c) || strings.IndexByte(`\{}$&%]`, c) >= 0 {
			break
		}
		s.pos++
	}
	if s.pos == start {
		// a lone ']' outside an optional argument
		s.pos++
	}
	s.leaf(SymText, FieldNone, start, parent)
}

// group scans a {...} or [...] group starting at the opening delimiter.
func (s *scanner) group(parent int32, sym, field uint16) int32 {
	start := s.pos
	s.pos++
	id := s.tree.add(sym, field, uint32(start), parent)
	kind := frameCurly
	if sym == SymBrackGroup {
		kind = frameBrack
	}
	s.push(frame{kind: kind})
	if !s.content(id) {
		s.tree.Nodes[id].Missing = true
	}
	s.pop()
	s.finish(id)
	return id
}

// rawUntil consumes bytes up to the delimiter, adding a text child for
// them. It reports whether the delimiter was found; the delimiter itself
// is consumed.
func (s *scanner) rawUntil(parent int32, delim string, field uint16) bool {
	start := s.pos
	idx := strings.Index(string(s.src[s.pos:]), delim)
	if idx < 0 {
		s.pos = len(s.src)
		if s.pos > start {
			s.leaf(SymText, field, start, parent)
		}
		return false
	}
	s.pos += idx
	if s.pos > start {
		s.leaf(SymText, field, start, parent)
	}
	s.pos += len(delim)
	return true
}

func (s *scanner) dollarMath(parent int32) {
	start := s.pos
	sym, delim := SymInlineFormula, "$"
	if s.peekAt(1) == '$' {
		sym, delim = SymDisplayedEquation, "$$"
	}
	s.pos += len(delim)
	id := s.tree.add(sym, FieldNone, uint32(start), parent)
	if !s.rawUntil(id, delim, FieldNone) {
		s.tree.Nodes[id].Missing = true
	}
	s.finish(id)
}

// ============================================================
// Control sequences
// ============================================================

// backslash scans a control sequence. done is set when the sequence was a
// closer: closed then says whether it closed the innermost frame.
func (s *scanner) backslash(parent int32) (done, closed bool) {
	start := s.pos
	next := s.peekAt(1)

	switch {
	case next == 0:
		s.pos++
		s.leaf(SymError, FieldNone, start, parent)
		return false, false

	case next == '\\':
		s.lineBreak(parent)
		return false, false

	case next == '(' || next == '[':
		sym, delim := SymInlineFormula, `\)`
		if next == '[' {
			sym, delim = SymDisplayedEquation, `\]`
		}
		s.pos += 2
		id := s.tree.add(sym, FieldNone, uint32(start), parent)
		if !s.rawUntil(id, delim, FieldNone) {
			s.tree.Nodes[id].Missing = true
		}
		s.finish(id)
		return false, false

	case isLetter(next):
		s.pos++
		for !s.eof() && isLetter(s.peek()) {
			s.pos++
		}
		name := string(s.src[start+1 : s.pos])
		switch name {
		case "begin":
			s.pos = start
			s.environment(parent)
			return false, false
		case "end":
			s.pos = start
			return s.end(parent)
		case "verb":
			s.pos = start
			s.verb(parent)
			return false, false
		}
		if s.peek() == '*' {
			s.pos++
		}
		cmd := s.tree.add(SymGenericCommand, FieldNone, uint32(start), parent)
		s.leaf(SymCommandName, FieldCommand, start, cmd)
		s.args(cmd)
		s.finish(cmd)
		return false, false

	default:
		s.pos += 2
		cmd := s.tree.add(SymGenericCommand, FieldNone, uint32(start), parent)
		s.leaf(SymCommandName, FieldCommand, start, cmd)
		if strings.IndexByte(accentSymbols, next) >= 0 {
			switch {
			case s.peek() == '{':
				s.group(cmd, SymCurlyGroup, FieldArg)
			case isLetter(s.peek()):
				argStart := s.pos
				s.pos++
				s.leaf(SymText, FieldArg, argStart, cmd)
			}
		}
		s.finish(cmd)
		return false, false
	}
}

// args scans curly and bracket groups following a command. Spaces and
// tabs may separate them; a newline ends the argument list.
func (s *scanner) args(cmd int32) {
	for {
		save := s.pos
		for !s.eof() && (s.peek() == ' ' || s.peek() == '\t') {
			s.pos++
		}
		switch s.peek() {
		case '{':
			s.group(cmd, SymCurlyGroup, FieldArg)
		case '[':
			s.group(cmd, SymBrackGroup, FieldArg)
		default:
			s.pos = save
			return
		}
	}
}

func (s *scanner) lineBreak(parent int32) {
	start := s.pos
	s.pos += 2
	id := s.tree.add(SymLineBreak, FieldNone, uint32(start), parent)
	if s.peek() == '*' {
		s.pos++
	}
	if s.peek() == '[' {
		s.group(id, SymBrackGroup, FieldArg)
	}
	s.finish(id)
}

func (s *scanner) verb(parent int32) {
	start := s.pos
	s.pos += len(`\verb`)
	if s.peek() == '*' {
		s.pos++
	}
	cmd := s.tree.add(SymGenericCommand, FieldNone, uint32(start), parent)
	s.leaf(SymCommandName, FieldCommand, start, cmd)
	if s.eof() {
		s.tree.Nodes[cmd].Missing = true
		s.finish(cmd)
		return
	}
	delim := s.peek()
	s.pos++
	argStart := s.pos
	for !s.eof() && s.peek() != delim && s.peek() != '\n' {
		s.pos++
	}
	s.leaf(SymText, FieldArg, argStart, cmd)
	if s.peek() == delim {
		s.pos++
	} else {
		s.tree.Nodes[cmd].Missing = true
	}
	s.finish(cmd)
}

// peekEnvName looks for "{name}" at the cursor, allowing leading spaces.
// It returns the name with the offsets of the opening and closing braces.
func (s *scanner) peekEnvName() (name string, open, closeAt int, ok bool) {
	open = s.pos
	for open < len(s.src) && (s.src[open] == ' ' || s.src[open] == '\t') {
		open++
	}
	if open >= len(s.src) || s.src[open] != '{' {
		return "", 0, 0, false
	}
	end := strings.IndexByte(string(s.src[open:]), '}')
	if end < 0 {
		return "", 0, 0, false
	}
	closeAt = open + end
	name = strings.TrimSpace(string(s.src[open+1 : closeAt]))
	return name, open, closeAt, name != ""
}

// envName scans "{name}" after \begin or \end, adding a curly_group with a
// text child under parent.
func (s *scanner) envName(parent int32) (string, bool) {
	name, open, closeAt, ok := s.peekEnvName()
	if !ok {
		return "", false
	}
	g := s.tree.add(SymCurlyGroup, FieldName, uint32(open), parent)
	s.pos = closeAt
	s.leaf(SymText, FieldNone, open+1, g)
	s.pos = closeAt + 1
	s.finish(g)
	return name, true
}

func (s *scanner) environment(parent int32) {
	start := s.pos
	env := s.tree.add(SymGenericEnvironment, FieldNone, uint32(start), parent)
	begin := s.tree.add(SymBegin, FieldBegin, uint32(start), env)
	s.pos += len(`\begin`)
	s.leaf(SymCommandName, FieldCommand, start, begin)
	name, ok := s.envName(begin)
	if !ok {
		s.tree.Nodes[env].Symbol = SymError
		s.finish(begin)
		s.finish(env)
		return
	}

	switch {
	case verbatimEnvironments[name], mathEnvironments[name]:
		if verbatimEnvironments[name] {
			s.tree.Nodes[env].Symbol = SymVerbatimEnvironment
			if s.peek() == '[' {
				s.group(begin, SymBrackGroup, FieldArg)
			}
		} else {
			s.tree.Nodes[env].Symbol = SymMathEnvironment
		}
		s.finish(begin)
		closer := `\end{` + name + `}`
		idx := strings.Index(string(s.src[s.pos:]), closer)
		bodyStart := s.pos
		if idx < 0 {
			s.pos = len(s.src)
		} else {
			s.pos += idx
		}
		if s.pos > bodyStart {
			s.leaf(SymText, FieldNone, bodyStart, env)
		}
		if idx < 0 {
			s.tree.Nodes[env].Missing = true
		} else {
			s.endNode(env)
		}

	default:
		s.args(begin)
		s.finish(begin)
		s.push(frame{kind: frameEnv, name: name})
		if !s.content(env) {
			s.tree.Nodes[env].Missing = true
		}
		s.pop()
	}
	s.finish(env)
}

// endNode scans \end{name} as the end child of env.
func (s *scanner) endNode(env int32) {
	start := s.pos
	end := s.tree.add(SymEnd, FieldEnd, uint32(start), env)
	s.pos += len(`\end`)
	s.leaf(SymCommandName, FieldCommand, start, end)
	s.envName(end)
	s.finish(end)
}

func (s *scanner) end(parent int32) (done, closed bool) {
	start := s.pos
	s.pos += len(`\end`)
	name, _, closeAt, ok := s.peekEnvName()

	top := s.top()
	switch {
	case ok && top.kind == frameEnv && top.name == name:
		s.pos = start
		s.endNode(parent)
		return true, true
	case ok && s.enclosing(frameEnv, name):
		s.pos = start
		return true, false
	}
	if ok {
		s.pos = closeAt + 1
	}
	s.leaf(SymError, FieldNone, start, parent)
	return false, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
