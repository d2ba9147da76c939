package latexhtml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/latex"
	"github.com/Neumenon/lambda/latexhtml"
)

func parse(t *testing.T, src string) lambda.Item {
	t.Helper()
	d, err := lambda.NewDocument(lambda.WithGrowSize(8192))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	root, err := latex.ParseDocument(d, []byte(src))
	require.NoError(t, err, src)
	return root
}

func format(t *testing.T, src string, opts ...latexhtml.Option) *latexhtml.Result {
	t.Helper()
	res, err := latexhtml.Format(parse(t, src), opts...)
	require.NoError(t, err)
	return res
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"styled text",
			`\textbf{Bold} and \textit{italic}`,
			`<div class="body"><p><span class="bf">Bold</span> and <span class="it">italic</span></p></div>`,
		},
		{
			"sections",
			"\\section{Intro}\nA.\n\\subsection{B}\nC.",
			"<div class=\"body\">\n<h2 id=\"sec-1\">1\u2003Intro</h2>\n<p>A.</p>\n<h3 id=\"sec-2\">1.1\u2003B</h3>\n<p>C.</p>\n</div>",
		},
		{
			"itemize",
			"\\begin{itemize}\n\\item X\n\\item Y\n\\end{itemize}",
			"<div class=\"body\">\n<ul class=\"list\">\n" +
				`<li><span class="itemlabel"><span class="hbox llap">•</span></span><p>X</p></li>` + "\n" +
				`<li><span class="itemlabel"><span class="hbox llap">•</span></span><p>Y</p></li>` + "\n</ul>\n</div>",
		},
		{
			"em dash",
			`Hello --- world`,
			`<div class="body"><p>Hello — world</p></div>`,
		},
		{
			"quotes and ties",
			"``x'' a~b",
			"<div class=\"body\"><p>“x” a\u00a0b</p></div>",
		},
		{
			"control space",
			`a\ b`,
			`<div class="body"><p>a b</p></div>`,
		},
		{
			"control space in span",
			`\textbf{a\ b}`,
			"<div class=\"body\"><p><span class=\"bf\">a\u00a0b</span></p></div>",
		},
		{
			"escaping",
			`a < b \& c`,
			`<div class="body"><p>a &lt; b &amp; c</p></div>`,
		},
		{
			"paragraphs",
			"one\n\ntwo",
			`<div class="body"><p>one</p><p>two</p></div>`,
		},
		{
			"declaration spans paragraphs",
			"{\\bf a\n\nb}",
			`<div class="body"><p><span class="bf">a</span></p><p><span class="bf">b</span></p></div>`,
		},
		{
			"nested emphasis",
			`\emph{a \emph{b}}`,
			`<div class="body"><p><span class="it">a <span class="up">b</span></span></p></div>`,
		},
		{
			"starred section",
			`\section*{X}`,
			"<div class=\"body\">\n<h2 id=\"sec-1\">X</h2>\n</div>",
		},
		{
			"chapters",
			`\chapter{A}\section{B}`,
			"<div class=\"body\">\n<h1 id=\"sec-1\">1\u2003A</h1>\n<h2 id=\"sec-2\">1.1\u2003B</h2>\n</div>",
		},
		{
			"tabular",
			`\begin{tabular}{lc}a & b\\ c & d\\\end{tabular}`,
			"<div class=\"body\">\n<table class=\"tabular\">\n" +
				`<tr><td class="l">a</td><td class="c">b</td></tr>` + "\n" +
				`<tr><td class="l">c</td><td class="c">d</td></tr>` + "\n</table>\n</div>",
		},
		{
			"verbatim",
			"\\begin{verbatim}\n<b>&'\n\\end{verbatim}",
			"<div class=\"body\">\n<pre class=\"verb\">&lt;b&gt;&amp;'</pre>\n</div>",
		},
		{
			"inline math",
			`$x<y$`,
			`<div class="body"><p><span class="math inline">x&lt;y</span></p></div>`,
		},
		{
			"counters",
			`\newcounter{c}\setcounter{c}{4}\stepcounter{c}\arabic{c} \roman{c} \Alph{c}`,
			`<div class="body"><p>5 v E</p></div>`,
		},
		{
			"case change",
			`\MakeUppercase{abc} d`,
			`<div class="body"><p>ABC d</p></div>`,
		},
		{
			"preamble is not rendered",
			"\\documentclass{article}\nstray\n\\begin{document}\nHi\n\\end{document}",
			`<div class="body"><p>Hi</p></div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := format(t, tt.src)
			assert.Equal(t, tt.want, res.HTML)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestReferences(t *testing.T) {
	t.Run("backward", func(t *testing.T) {
		res := format(t, `\section{Intro}\label{s}See \ref{s}.`)
		assert.Contains(t, res.HTML, `<p>See <a class="ref" href="#sec-1">1</a>.</p>`)
		assert.Empty(t, res.Warnings)
	})

	t.Run("forward to equation", func(t *testing.T) {
		res := format(t, `See \eqref{e}.\begin{equation}x\label{e}\end{equation}`)
		assert.Equal(t,
			`<div class="body"><p>See <a class="ref" href="#eq-1">(1)</a>.</p>`+"\n"+
				`<div class="math display" id="eq-1">x<span class="eqno">(1)</span></div>`+"\n</div>",
			res.HTML)
	})

	t.Run("undefined", func(t *testing.T) {
		res := format(t, `\ref{nope}`)
		assert.Equal(t, `<div class="body"><p>??</p></div>`, res.HTML)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, "ref", res.Warnings[0].Command)
	})

	t.Run("enumerate item", func(t *testing.T) {
		res := format(t, `\begin{enumerate}\item a\item b\label{i}\end{enumerate} \ref{i}`)
		assert.Contains(t, res.HTML, `<p>2</p>`)
	})
}

func TestLists(t *testing.T) {
	res := format(t, `\begin{enumerate}\item a\begin{enumerate}\item b\end{enumerate}\end{enumerate}`)
	assert.Contains(t, res.HTML, `<span class="hbox llap">1.</span>`)
	assert.Contains(t, res.HTML, `<span class="hbox llap">(a)</span>`)
	assert.Empty(t, res.Warnings)

	res = format(t, `\begin{description}\item[T] d\end{description}`)
	assert.Contains(t, res.HTML, "<dt>T</dt>\n<dd><p>d</p></dd>")

	res = format(t, `\begin{itemize}\item[*] x\end{itemize}`)
	assert.Contains(t, res.HTML, `<span class="hbox llap">*</span>`)
}

func TestFootnotes(t *testing.T) {
	res := format(t, `A\footnote{Note.} b`)
	assert.Equal(t,
		`<div class="body"><p>A<a class="footnote-ref" href="#fn-1" id="fnref-1"><sup>1</sup></a> b</p>`+
			"\n<div class=\"footnotes\">\n"+
			`<div class="footnote" id="fn-1"><sup>1</sup> Note.</div>`+
			"\n</div>\n</div>",
		res.HTML)
}

func TestFigureCaption(t *testing.T) {
	res := format(t, "\\begin{figure}\\caption{Cat}\\label{f}\\end{figure}See \\ref{f}.")
	assert.Contains(t, res.HTML, `<div class="caption" id="fig-1">Figure 1: Cat</div>`)
	assert.Contains(t, res.HTML, `<a class="ref" href="#fig-1">1</a>`)
}

func TestRepairs(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		command string
		env     string
	}{
		{"item outside list", `\item x`, "item", ""},
		{"unclosed environment", `\begin{center}x`, "", "center"},
		{"tab outside tabular", `a & b`, "", ""},
		{"duplicate label", `\label{a}\label{a}`, "label", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := format(t, tt.src)
			require.NotEmpty(t, res.Warnings)
			assert.Equal(t, tt.command, res.Warnings[0].Command)
			assert.Equal(t, tt.env, res.Warnings[0].Env)
			assert.NotEmpty(t, res.Warnings[0].Error())
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	res := format(t, `\foo{x}`)
	assert.Equal(t, `<div class="body"><!-- unknown: \foo --><p>x</p></div>`, res.HTML)

	res = format(t, `a \foo b`)
	assert.Equal(t, `<div class="body"><p>a <!-- unknown: \foo -->b</p></div>`, res.HTML)

	res = format(t, `\begin{widget}x\end{widget}`)
	assert.Equal(t, "<div class=\"body\">\n<div class=\"env-widget\"><p>x</p></div>\n</div>", res.HTML)
}

func TestCSS(t *testing.T) {
	res := format(t, `\textbf{Bold} and \textit{italic}`, latexhtml.WithCSS(true))
	assert.Equal(t,
		".bf { font-weight: bold; }\n"+
			".body { max-width: 40em; margin: 0 auto; line-height: 1.4; }\n"+
			".it { font-style: italic; }\n",
		res.CSS)

	res = format(t, `x`)
	assert.Empty(t, res.CSS)
}

func TestStandalone(t *testing.T) {
	res := format(t, `\title{The \emph{T}}\maketitle`, latexhtml.WithStandalone(true))
	assert.Regexp(t, `^<!DOCTYPE html>`, res.HTML)
	assert.Contains(t, res.HTML, "<title>The T</title>")
	assert.Contains(t, res.HTML, `<div class="title">The <span class="it">T</span></div>`)
	assert.Contains(t, res.HTML, "<style>\n.")
}

func TestFormatterReuse(t *testing.T) {
	root := parse(t, "\\section{A}\\label{a}\\ref{a}\\footnote{n}")
	f := latexhtml.New(latexhtml.WithCSS(true))

	first, err := f.Format(root)
	require.NoError(t, err)
	second, err := f.Format(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFormatRejectsScalar(t *testing.T) {
	_, err := latexhtml.Format(lambda.Null)
	assert.ErrorIs(t, err, latexhtml.ErrNotElement)
}

func TestFormatErrorLoggable(t *testing.T) {
	fe := latexhtml.FormatError{Command: "ref", Reason: "undefined label"}
	assert.Equal(t, `latexhtml: \ref: undefined label`, fe.Error())
	assert.Equal(t, "ref", fe.Loggable()["command"])
}
