package latex_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_latex "github.com/Neumenon/lambda/internal/mock/latex"
	"github.com/Neumenon/lambda/lambda"
	"github.com/Neumenon/lambda/latex"
)

func newDoc(t *testing.T) *lambda.Document {
	t.Helper()
	d, err := lambda.NewDocument(lambda.WithGrowSize(8192))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func build(t *testing.T, src string) lambda.Item {
	t.Helper()
	root, err := latex.ParseDocument(newDoc(t), []byte(src))
	require.NoError(t, err, src)
	return root
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"styled text",
			`\textbf{Bold} and \textit{italic}`,
			`<latex_document; <textbf; "Bold">, " and ", <textit; "italic">>`,
		},
		{
			"sections",
			"\\section{Intro}\nA.\n\\subsection{B}\nC.",
			`<latex_document; <section; "Intro">, " A. ", <subsection; "B">, " C.">`,
		},
		{
			"itemize",
			"\\begin{itemize}\n\\item X\n\\item Y\n\\end{itemize}",
			`<latex_document; <itemize environment: true; " ", <item>, "X ", <item>, "Y ">>`,
		},
		{
			"dashes stay as text",
			`Hello --- world`,
			`<latex_document; "Hello --- world">`,
		},
		{
			"paragraph break",
			"a\n\n  b\\par c",
			`<latex_document; "a", <parbreak>, "b", <parbreak>, "c">`,
		},
		{
			"comments",
			"a % note\n   b",
			`<latex_document; "a b">`,
		},
		{
			"space after control word",
			`\LaTeX is`,
			`<latex_document; <LaTeX>, "is">`,
		},
		{
			"optional argument",
			`\item[foo] x`,
			`<latex_document; <item opt: "foo">, " x">`,
		},
		{
			"starred command",
			`\section*{Intro}`,
			`<latex_document; <section star: true; "Intro">>`,
		},
		{
			"mixed argument",
			`\textbf{a \emph{b}}`,
			`<latex_document; <textbf; <group; "a ", <emph; "b">>>>`,
		},
		{
			"control space",
			`a\ b \textbf{c\ d}`,
			`<latex_document; "a", <space>, "b ", <textbf; <group; "c", <space>, "d">>>`,
		},
		{
			"bare group",
			`{\bf x} y`,
			`<latex_document; <group; <bf>, "x">, " y">`,
		},
		{
			"environment arguments",
			`\begin{tabular}{ll}a & b\\ c\end{tabular}`,
			`<latex_document; <tabular environment: true, arg: "ll"; "a ", <tab>, " b", <linebreak>, " c">>`,
		},
		{
			"math",
			`$x^2$ and \[y\]`,
			`<latex_document; <math mode: "inline"; "x^2">, " and ", <math mode: "display"; "y">>`,
		},
		{
			"math environment",
			`\begin{equation}E=mc^2\end{equation}`,
			`<latex_document; <math mode: "display", name: "equation"; "E=mc^2">>`,
		},
		{
			"verbatim",
			"\\begin{verbatim}\n<b>&\n\\end{verbatim}",
			`<latex_document; <verbatim environment: true; "<b>&\n">>`,
		},
		{
			"verb",
			`\verb|a{b|`,
			`<latex_document; <verb; "a{b">>`,
		},
		{
			"escapes",
			`50\% off \& more\,x`,
			"<latex_document; \"50% off & more\u2009x\">",
		},
		{
			"accents",
			`\'{e}t\'e \"o \c{c} \ss{} \o`,
			`<latex_document; "été ö ç ß ø">`,
		},
		{
			"unclosed environment",
			`\begin{itemize}\item x`,
			`<latex_document; <itemize environment: true, unclosed: true; <item>, "x">>`,
		},
		{
			"outer end closes inner environment",
			`\begin{a}\begin{b}x\end{a}`,
			`<latex_document; <a environment: true; <b environment: true, unclosed: true; "x">>>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lambda.EmitMark(build(t, tt.src)))
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		line, col int
	}{
		{"stray brace", "ok\n  }", 2, 3},
		{"stray end", `\end{x}`, 1, 1},
		{"mismatched end", `\begin{a}x\end{b}`, 1, 11},
		{"begin without name", `\begin x`, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := latex.ParseDocument(newDoc(t), []byte(tt.src))
			require.Error(t, err)
			var pe *latex.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Pos.Line, err.Error())
			assert.Equal(t, tt.col, pe.Pos.Column, err.Error())
		})
	}
}

func TestParseDocumentSetsRoot(t *testing.T) {
	d := newDoc(t)
	root, err := latex.ParseDocument(d, []byte("x"))
	require.NoError(t, err)
	assert.True(t, root.Same(d.Root()))
}

func TestElementLength(t *testing.T) {
	root := build(t, "\\begin{figure}[h]\n\\caption[short]{Long \\emph{caption}}\n\\label{f}\\end{figure} \\item[a] b")

	var walk func(it lambda.Item)
	walk = func(it lambda.Item) {
		if it.Type() != lambda.TypeElement {
			return
		}
		r := lambda.Read(it).AsElement()
		assert.Equal(t, it.Element().Len(), r.ChildCount()+r.AttrCount(), r.TagName())
		for _, c := range it.Element().Attrs() {
			walk(c)
		}
		for _, c := range it.Element().Children() {
			walk(c)
		}
	}
	walk(root)
}

func TestBuildThroughForeignCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := []byte(`\begin{x}y`)
	tc := latex.Parse(src).Walk()

	c := mock_latex.NewMockCursor(ctrl)
	c.EXPECT().GotoFirstChild().DoAndReturn(tc.GotoFirstChild).AnyTimes()
	c.EXPECT().GotoNextSibling().DoAndReturn(tc.GotoNextSibling).AnyTimes()
	c.EXPECT().GotoParent().DoAndReturn(tc.GotoParent).AnyTimes()
	c.EXPECT().CurrentFieldID().DoAndReturn(tc.CurrentFieldID).AnyTimes()
	c.EXPECT().NodeType().DoAndReturn(tc.NodeType).AnyTimes()
	c.EXPECT().SourceRange().DoAndReturn(tc.SourceRange).AnyTimes()

	root, err := latex.Build(newDoc(t), src, c)
	require.NoError(t, err)
	// the mock cannot report missing delimiters
	assert.Equal(t, `<latex_document; <x environment: true; "y">>`, lambda.EmitMark(root))
}

func TestBuildRejectsUnknownSymbol(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock_latex.NewMockCursor(ctrl)

	gomock.InOrder(
		c.EXPECT().NodeType().Return(latex.SymSourceFile),
		c.EXPECT().GotoFirstChild().Return(true),
		c.EXPECT().NodeType().Return(uint16(200)),
		c.EXPECT().SourceRange().Return(uint32(0), uint32(1)),
		c.EXPECT().GotoParent().Return(true),
	)

	_, err := latex.Build(newDoc(t), []byte("x"), c)
	var pe *latex.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "symbol(200)")
}

func TestBuildRequiresSourceFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock_latex.NewMockCursor(ctrl)
	c.EXPECT().NodeType().Return(latex.SymText)

	_, err := latex.Build(newDoc(t), nil, c)
	assert.Error(t, err)
}
