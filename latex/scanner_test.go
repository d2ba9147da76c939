package latex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/latex"
)

func TestParseTree(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`\textbf{x} y`, "(source_file (generic_command (command_name) (curly_group (text))) (space) (text))"},
		{"a\n\nb", "(source_file (text) (parbreak) (text))"},
		{`\\[2pt]`, "(source_file (line_break (brack_group (text))))"},
		{`$x$`, "(source_file (inline_formula (text)))"},
		{`$$x$$`, "(source_file (displayed_equation (text)))"},
		{`\(x\)`, "(source_file (inline_formula (text)))"},
		{"% c\nx", "(source_file (comment) (text))"},
		{`\begin{quote}q\end{quote}`, "(source_file (generic_environment (begin (command_name) (curly_group (text))) (text) (end (command_name) (curly_group (text)))))"},
		{`\begin{verbatim}\x{\end{verbatim}`, "(source_file (verbatim_environment (begin (command_name) (curly_group (text))) (text) (end (command_name) (curly_group (text)))))"},
		{`\'e`, "(source_file (generic_command (command_name) (text)))"},
		{`a]`, "(source_file (text) (text))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tree := latex.Parse([]byte(tt.src))
			require.NoError(t, tree.Err())
			assert.Equal(t, tt.want, tree.String())
		})
	}
}

func TestTreeCursor(t *testing.T) {
	src := []byte(`\emph{hi} there`)
	c := latex.Parse(src).Walk()

	assert.Equal(t, latex.SymSourceFile, c.NodeType())
	assert.False(t, c.GotoParent())

	require.True(t, c.GotoFirstChild())
	assert.Equal(t, latex.SymGenericCommand, c.NodeType())
	start, end := c.SourceRange()
	assert.Equal(t, `\emph{hi}`, string(src[start:end]))

	require.True(t, c.GotoFirstChild())
	assert.Equal(t, latex.FieldCommand, c.CurrentFieldID())
	require.True(t, c.GotoNextSibling())
	assert.Equal(t, latex.FieldArg, c.CurrentFieldID())
	assert.False(t, c.GotoNextSibling())

	require.True(t, c.GotoParent())
	require.True(t, c.GotoNextSibling())
	assert.Equal(t, latex.SymSpace, c.NodeType())
}

func TestUnclosedMarkedMissing(t *testing.T) {
	c := latex.Parse([]byte(`{open`)).Walk()
	require.True(t, c.GotoFirstChild())
	assert.Equal(t, latex.SymCurlyGroup, c.NodeType())
	assert.True(t, c.Missing())
}

func TestTreeErr(t *testing.T) {
	err := latex.Parse([]byte("x\n\\end{y}")).Err()
	var pe *latex.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Pos.Line)
	assert.Equal(t, `unexpected "\\end{y}"`, pe.Message)
	assert.Equal(t, "latex: unexpected \"\\\\end{y}\" at 2:1", err.Error())
}

func TestSymbolName(t *testing.T) {
	assert.Equal(t, "generic_command", latex.SymbolName(latex.SymGenericCommand))
	assert.Equal(t, "ERROR", latex.SymbolName(latex.SymError))
	assert.Equal(t, "symbol(99)", latex.SymbolName(99))
}
