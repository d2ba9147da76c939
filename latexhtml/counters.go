package latexhtml

import (
	"strconv"
	"strings"
)

// counters holds LaTeX counter values and their reset relations: stepping
// a counter zeroes every counter declared within it, transitively.
type counters struct {
	values   map[string]int64
	children map[string][]string
}

var defaultCounters = []struct{ name, parent string }{
	{"part", ""},
	{"chapter", ""},
	{"section", "chapter"},
	{"subsection", "section"},
	{"subsubsection", "subsection"},
	{"paragraph", "subsubsection"},
	{"subparagraph", "paragraph"},
	{"equation", ""},
	{"figure", ""},
	{"table", ""},
	{"footnote", ""},
	{"enumi", ""},
	{"enumii", "enumi"},
	{"enumiii", "enumii"},
	{"enumiv", "enumiii"},
	{"page", ""},
}

func newCounters() *counters {
	c := &counters{
		values:   make(map[string]int64),
		children: make(map[string][]string),
	}
	for _, d := range defaultCounters {
		c.define(d.name, d.parent)
	}
	c.values["page"] = 1
	return c
}

func (c *counters) has(name string) bool {
	_, ok := c.values[name]
	return ok
}

// define creates name at zero. A non-empty parent makes name reset
// whenever parent steps.
func (c *counters) define(name, parent string) {
	c.values[name] = 0
	if parent != "" {
		c.children[parent] = append(c.children[parent], name)
	}
}

func (c *counters) get(name string) int64 { return c.values[name] }

func (c *counters) set(name string, v int64) { c.values[name] = v }

func (c *counters) add(name string, v int64) { c.values[name] += v }

// step increments name and zeroes its dependents.
func (c *counters) step(name string) int64 {
	c.values[name]++
	c.reset(name)
	return c.values[name]
}

func (c *counters) reset(name string) {
	for _, child := range c.children[name] {
		c.values[child] = 0
		c.reset(child)
	}
}

// ============================================================
// Number styles
// ============================================================

func arabic(n int64) string { return strconv.FormatInt(n, 10) }

var romanTable = []struct {
	value  int64
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

// roman renders n in lower-case roman numerals; values below one render
// empty, as in LaTeX.
func roman(n int64) string {
	var sb strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}

func upperRoman(n int64) string { return strings.ToUpper(roman(n)) }

// alph renders 1..26 as a..z; larger values continue as aa, ab, ...
func alph(n int64) string {
	if n <= 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func upperAlph(n int64) string { return strings.ToUpper(alph(n)) }

var numberStyles = map[string]func(int64) string{
	"arabic": arabic,
	"roman":  roman,
	"Roman":  upperRoman,
	"alph":   alph,
	"Alph":   upperAlph,
}
