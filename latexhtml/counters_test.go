package latexhtml

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Neumenon/lambda/lambda"
)

func TestCounterReset(t *testing.T) {
	c := newCounters()
	c.step("section")
	c.step("subsection")
	c.step("subsection")
	assert.Equal(t, int64(2), c.get("subsection"))

	c.step("chapter")
	assert.Zero(t, c.get("section"))
	assert.Zero(t, c.get("subsection"))
	assert.Equal(t, int64(1), c.get("page"))

	c.define("thm", "section")
	c.set("thm", 7)
	c.step("section")
	assert.Zero(t, c.get("thm"))
}

func TestNumberStyles(t *testing.T) {
	for n, want := range map[int64]string{1: "i", 4: "iv", 9: "ix", 14: "xiv", 1994: "mcmxciv", 0: ""} {
		assert.Equal(t, want, roman(n), n)
	}
	for n, want := range map[int64]string{1: "a", 26: "z", 27: "aa", 28: "ab", 0: ""} {
		assert.Equal(t, want, alph(n), n)
	}
	assert.Equal(t, "XII", upperRoman(12))
	assert.Equal(t, "C", upperAlph(3))
}

func TestTypeset(t *testing.T) {
	assert.Equal(t, "a–b—c", typeset("a--b---c", true))
	assert.Equal(t, "a--b", typeset("a--b", false))
	assert.Equal(t, "¡Hola! ¿Qué?", typeset("!`Hola! ?`Qué?", true))
	assert.Equal(t, "a b", collapseSpace("a \n\t b"))
	assert.Equal(t, "x y", stripTags(`<span class="x">x</span> <b>y</b>`))
}

func TestParagraphInvariants(t *testing.T) {
	w, err := newWriter(options{log: lambda.DiscardLogger()})
	if !assert.NoError(t, err) {
		return
	}
	defer w.close()

	// whitespace alone never opens a paragraph
	w.text("  \n ")
	assert.False(t, w.inParagraph)

	w.text(" word  ")
	w.flushParagraph()
	assert.Equal(t, "<p>word</p>", w.out.String())

	// an unused font closes without output
	w.pushFont("bf")
	w.popFont()
	w.flushParagraph()
	assert.Equal(t, "<p>word</p>", w.out.String())
}
