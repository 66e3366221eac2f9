package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed runs lines through p the way the aggregator does and returns the first failure
func feed(p *SourceParser, lines ...string) error {
	for _, line := range lines {
		if err := p.ParseLine(line + NewlineMarker); err != nil {
			return err
		}
	}
	return nil
}

// render parses lines and returns the finalized markdown
func render(t *testing.T, lines ...string) string {
	t.Helper()
	p := NewSourceParser("test.h")
	require.NoError(t, feed(p, lines...))
	return Finalize(p.Complete().Render(NewStyleRegistry()))
}

func countDiagnostics(entries []Entry, msg string) int {
	n := 0
	for _, e := range entries {
		if e.Kind == EntryLiteral && strings.Contains(e.Value, msg) {
			n++
		}
	}
	return n
}

func TestFunctionSignatureResolution(t *testing.T) {
	p := NewSourceParser("math.h")
	err := feed(p,
		"/**",
		" * @function add",
		" * Adds two numbers.",
		" */",
		"int add(int a, int b) {",
	)
	require.NoError(t, err)

	entries := p.scopes.content[RootScope]
	require.Len(t, entries, 2)
	assert.Equal(t, EntryHeader, entries[0].Kind)
	assert.Equal(t, "function", entries[0].Token)
	assert.Equal(t, "int add(int a, int b) {", entries[0].Value)
	assert.Equal(t, Slug("int add(int a, int b) {"), entries[0].Anchor)
	assert.Nil(t, p.pending)

	require.Len(t, p.links, 1)
	assert.Equal(t, Link{Kind: LinkDeclaration, Command: "function", Text: "int add(int a, int b) {", Line: 5}, p.links[0])
}

func TestFunctionSignatureShapes(t *testing.T) {
	tests := []struct {
		name        string
		function    string
		declaration string
		expected    string
	}{
		{
			name:        "export macro stripped",
			function:    "add",
			declaration: "MYLIB_EXPORT int add(int a, int b);",
			expected:    "int add(int a, int b)",
		},
		{
			name:        "trailing qualifier kept",
			function:    "size",
			declaration: "    size_t size() const override;",
			expected:    "size_t size() const",
		},
		{
			name:        "out of class definition",
			function:    "resize",
			declaration: "void Widget::resize(int w, int h)",
			expected:    "void Widget::resize(int w, int h)",
		},
		{
			name:        "nested generics and groups",
			function:    "sorted",
			declaration: "template <typename T> std::vector<T> sorted(const std::vector<T>& in, bool (*less)(T, T)) const {",
			expected:    "template &lt;typename T&gt; std::vector&lt;T&gt; sorted(const std::vector&lt;T&gt;&amp; in, bool (*less)(T, T)) const",
		},
		{
			name:        "pointer return",
			function:    "name",
			declaration: "const char *name(void);",
			expected:    "const char *name(void)",
		},
		{
			name:        "inline body stops at its opening brace",
			function:    "add",
			declaration: "int add(int a, int b) { return (a + b); }",
			expected:    "int add(int a, int b) {",
		},
		{
			name:        "trailing comment dropped",
			function:    "reset",
			declaration: "void reset(); // clears state (idempotent)",
			expected:    "void reset()",
		},
		{
			name:        "name inside a type is skipped",
			function:    "run",
			declaration: "std::function<void(int run)> run(int n);",
			expected:    "std::function&lt;void(int run)&gt; run(int n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewSourceParser("api.h")
			require.NoError(t, feed(p, "/**", " * @function "+tt.function, " */", tt.declaration))
			entry := p.scopes.content[RootScope][0]
			assert.Equal(t, tt.expected, entry.Value)
			assert.Equal(t, Slug(tt.expected), entry.Anchor)
			assert.Nil(t, p.pending)
		})
	}
}

func TestFunctionScanSkipsOtherDeclarations(t *testing.T) {
	p := NewSourceParser("api.h")
	require.NoError(t, feed(p,
		"/**",
		" * @function second",
		" */",
		"// int second(",
		"void first(int x);",
		"",
		"void second(int y);",
	))
	assert.Equal(t, "void second(int y)", p.scopes.content[RootScope][0].Value)
}

func TestOnlyOneFunctionPending(t *testing.T) {
	p := NewSourceParser("api.h")
	err := feed(p,
		"/**",
		" * @function add",
		" * @function sub",
		" */",
		"int sub(int a, int b);",
	)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, 2, perr.Ref)
	assert.Contains(t, perr.Msg, "Only one brief or function allowed")
	assert.Contains(t, err.Error(), "api.h at 3 (see line 2)")

	doc := p.Complete()
	entries := doc.Content[RootScope]
	assert.Equal(t, 1, countDiagnostics(entries, "Only one brief or function allowed"))
	assert.Equal(t, 0, countDiagnostics(entries, "function not found"))
	for _, e := range entries {
		assert.NotEqual(t, "sub", e.Value)
	}
}

func TestFunctionNotFound(t *testing.T) {
	t.Run("next doc comment opens first", func(t *testing.T) {
		p := NewSourceParser("api.h")
		err := feed(p,
			"/**",
			" * @function add",
			" */",
			"int other(int a);",
			"/**",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "function not found")
		assert.Contains(t, err.Error(), "api.h at 5 (see line 2)")
	})

	t.Run("end of file", func(t *testing.T) {
		p := NewSourceParser("api.h")
		require.NoError(t, feed(p, "/**", " * @function add", " */"))
		doc := p.Complete()
		assert.Equal(t, 1, countDiagnostics(doc.Content[RootScope], "function not found"))
	})
}

func TestCannotUnderstandFunction(t *testing.T) {
	p := NewSourceParser("api.h")
	err := feed(p,
		"/**",
		" * @function add",
		" */",
		"int add(int a,",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot understand as a function")
}

func TestSingleLineDocComment(t *testing.T) {
	p := NewSourceParser("api.h")
	require.NoError(t, feed(p, "/** not a block */", "int x;"))
	assert.Equal(t, stateOutside, p.state)
}

func TestEmptyDocComment(t *testing.T) {
	p := NewSourceParser("api.h")
	require.NoError(t, feed(p, "/**/", "int secret_impl = 42;"))
	assert.Equal(t, stateOutside, p.state)
	assert.Equal(t, "", render(t, "/**/", "int secret_impl = 42;", "/** x */"))
}

func TestScopeBookkeeping(t *testing.T) {
	p := NewSourceParser("api.h")
	require.NoError(t, feed(p,
		"/**",
		" * @namespace outer",
		" * @class Inner",
		" * @scopeend",
		" * @scopeend",
		" * @namespace outer",
		" * @scopeend",
		" */",
	))

	assert.Equal(t, []string{RootScope, "outer", "Inner"}, p.scopes.order)
	assert.Equal(t, []string{RootScope}, p.scopes.stack)

	header := p.scopes.content["Inner"][2]
	assert.Equal(t, Header("class", "outer::Inner", "inner"), header)

	kinds := make([]LinkKind, 0, len(p.links))
	for _, l := range p.links {
		kinds = append(kinds, l.Kind)
	}
	assert.Equal(t, []LinkKind{
		LinkDeclaration, LinkDepthOpen,
		LinkDeclaration, LinkDepthOpen,
		LinkDepthClose, LinkDepthClose,
		LinkDeclaration, LinkDepthOpen, LinkDepthClose,
	}, kinds)
}

func TestScopeEndAtRootKeepsRoot(t *testing.T) {
	p := NewSourceParser("api.h")
	require.NoError(t, feed(p, "/**", " * @scopeend", " * text", " */"))
	assert.Equal(t, []string{RootScope}, p.scopes.stack)
	assert.Equal(t, LinkDepthClose, p.links[0].Kind)
}

func TestAnnotationCommands(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{
			name:     "generic token uses default style",
			lines:    []string{"/**", " * @note keep it short", " */"},
			expected: "##### keep it short \n",
		},
		{
			name:     "built in param style",
			lines:    []string{"/**", " * @param a first operand", " */"},
			expected: "###### *Param:* a first operand \n",
		},
		{
			name:     "style directive",
			lines:    []string{"/**", " * @style note > **Note:** %1", " * @note careful", " */"},
			expected: "> **Note:** careful \n",
		},
		{
			name:     "malformed style is ignored",
			lines:    []string{"/**", " * @style nospace", " * @brief one liner", " */"},
			expected: "###### one liner \n",
		},
		{
			name:     "raw joins until eol",
			lines:    []string{"/**", " * @raw <b>bold</b> ", " * @raw tail", " * @eol", " */"},
			expected: "<b>bold</b> tail\n",
		},
		{
			name:     "ignore",
			lines:    []string{"/**", " * @ignore this line", " */"},
			expected: "",
		},
		{
			name:     "decoded value",
			lines:    []string{"/**", " * @raw @{x40}toc", " * @eol", " */"},
			expected: "@toc\n",
		},
		{
			name:     "struct opens a scope without header or toc entry",
			lines:    []string{"/**", " * @toc", " * @struct S", " * @scopeend", " */"},
			expected: "\n---\n\n---\n",
		},
		{
			name:     "scope has no header",
			lines:    []string{"/**", " * @scope section", " * @scopeend", " */"},
			expected: "\n---\n\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, tt.lines...))
		})
	}
}

func TestDateAnnotation(t *testing.T) {
	now := time.Date(2026, time.October, 19, 8, 30, 0, 0, time.UTC)
	p := NewSourceParser("api.h", WithClock(func() time.Time { return now }))
	require.NoError(t, feed(p, "/**", " * @date", " */"))

	out := Finalize(p.Complete().Render(NewStyleRegistry()))
	assert.Equal(t, "###### "+now.Format(DefaultDateLayout)+" \n", out)

	p = NewSourceParser("api.h", WithClock(func() time.Time { return now }), WithDateLayout("2006-01-02"))
	require.NoError(t, feed(p, "/**", " * @date", " */"))
	assert.Equal(t, "###### 2026-10-19 \n", Finalize(p.Complete().Render(NewStyleRegistry())))
}

func TestProseLines(t *testing.T) {
	out := render(t,
		"/**",
		" * # Title",
		" * <b>hi</b> & co",
		" * a star @{x2a} and a \\* escape",
		"   no decoration",
		" */",
		"code outside is dropped",
	)
	assert.Equal(t, "# Title\n&lt;b&gt;hi&lt;/b&gt; &amp; co\na star * and a \\* escape\n   no decoration\n", out)
}

func TestFencedExamples(t *testing.T) {
	out := render(t,
		"/**",
		" * Example:",
		" * ```",
		` * if (a < b) { puts("x\n"); }`,
		" * ~~~ stays literal",
		" * ```",
		" * ~~~",
		" *     indented <tt>",
		" * ~~~",
		" */",
	)
	expected := "Example:\n" +
		"```\n" +
		`if (a < b) { puts("x\n"); }  ` + "\n" +
		"~~~ stays literal  \n" +
		"```\n" +
		"~~~\n" +
		"    indented <tt>  \n" +
		"~~~\n"
	assert.Equal(t, expected, out)
}

func TestAnnotationInsideFence(t *testing.T) {
	p := NewSourceParser("api.h")
	require.NoError(t, feed(p, "/**", " * ```", " * @brief still a command", " * ```", " */"))
	entries := p.scopes.content[RootScope]
	require.Len(t, entries, 3)
	assert.Equal(t, Header("brief", "still a command", ""), entries[1])
}
