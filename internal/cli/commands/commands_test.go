package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapc/internal/cli/output"
	"github.com/leapstack-labs/leapc/internal/cli/testutil"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/internal/engine"
	"github.com/leapstack-labs/leapc/internal/state"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewLexCommand(), "lex [file]", []string{"layout", "names"}},
		{NewCheckCommand(), "check [path...]", []string{"changed", "no-history"}},
		{NewHistoryCommand(), "history [run-id]", []string{"limit"}},
		{NewREPLCommand(), "repl", []string{"history"}},
		{NewWatchCommand(), "watch", []string{"debounce", "no-history"}},
		{NewServeCommand("dev"), "serve", []string{"port", "watch", "no-project"}},
		{NewLSPCommand("dev"), "lsp", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "foo", displayText("foo"))
	assert.Equal(t, `""`, displayText(""))
	assert.Equal(t, `"\n"`, displayText("\n"))
	assert.Equal(t, `"'a b'"`, displayText("'a b'"))
}

func TestKindStyle(t *testing.T) {
	styles := output.DefaultStyles()

	assert.Equal(t, styles.Muted, kindStyle(styles, "Indent"))
	assert.Equal(t, styles.Muted, kindStyle(styles, "Eof"))
	assert.Equal(t, styles.Success, kindStyle(styles, "IntLit"))
	assert.Equal(t, styles.Info, kindStyle(styles, "class"))
	assert.Equal(t, styles.TokenKind, kindStyle(styles, "Ident"))
	assert.Equal(t, styles.TokenKind, kindStyle(styles, "+="))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 file", plural(1, "file"))
	assert.Equal(t, "0 files", plural(0, "file"))
	assert.Equal(t, "3 errors", plural(3, "error"))
}

func TestResolveCheckPaths(t *testing.T) {
	root := testutil.SetupTestProject(t)
	testutil.WriteFile(t, filepath.Join(root, "src", "notes.txt"), "ignored")
	eng, err := engine.New(engine.Config{SourceDir: filepath.Join(root, "src")})
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	paths, err := resolveCheckPaths(eng, nil)
	require.NoError(t, err)
	assert.Empty(t, paths, "no arguments means the whole tree")

	paths, err = resolveCheckPaths(eng, []string{filepath.Join(root, "src")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "pkg", "bad.leap"),
		filepath.Join(root, "src", "point.leap"),
	}, paths)

	_, err = resolveCheckPaths(eng, []string{filepath.Join(root, "src", "none")})
	assert.ErrorContains(t, err, "cannot check")

	empty := filepath.Join(root, "empty")
	testutil.WriteFile(t, filepath.Join(empty, "README"), "")
	_, err = resolveCheckPaths(eng, []string{empty})
	assert.ErrorContains(t, err, "no source files found")
}

func sampleCheckOutput() *CheckOutput {
	return newCheckOutput(&engine.Report{
		Run:    &state.Run{ID: "run-1"},
		Status: state.RunStatusFailed,
		Files: []engine.FileReport{
			{Path: "a.leap", Tokens: 4, Names: 1},
			{Path: "b.leap", Tokens: 3, Names: 1, Diagnostics: []driver.Diagnostic{{
				Path:    "b.leap",
				Code:    "UnexpectedChar",
				Message: "unexpected character '@' at (4,5)",
			}}},
			{Path: "c.leap", ReadError: "permission denied"},
		},
		Skipped:  []string{"d.leap"},
		Totals:   state.RunTotals{Files: 3, Tokens: 7, Errors: 2},
		Duration: 1234567 * time.Nanosecond,
	})
}

func TestNewCheckOutput(t *testing.T) {
	out := sampleCheckOutput()

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, "1ms", out.Duration)
	require.Len(t, out.Files, 3)
	assert.Equal(t, 1, out.Files[1].Errors)
	assert.Equal(t, 1, out.Files[2].Errors, "a read failure counts as one error")
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "b.leap", out.Errors[0].Path)
}

func TestRenderCheck(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		renderCheckMarkdown(tr.Renderer, sampleCheckOutput())

		out := tr.Output()
		testutil.AssertNoANSI(t, out)
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "# Check failed")
		assert.Contains(t, out, "- **Run:** `run-1`")
		assert.Contains(t, out, "- **Skipped:** 1")
		assert.Contains(t, out, "| b.leap |")
		assert.Contains(t, out, "**UnexpectedChar**")
	})

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRenderer("text", false)
		renderCheckText(tr.Renderer, sampleCheckOutput())

		out := tr.Output()
		testutil.AssertNoANSI(t, out)
		assert.Contains(t, out, "✓ a.leap 4 tokens")
		assert.Contains(t, out, "✗ c.leap permission denied")
		assert.Contains(t, out, "run run-1")
		assert.Contains(t, tr.ErrorOutput(), "b.leap:0:0: UnexpectedChar")
		assert.Contains(t, tr.ErrorOutput(), "Check failed: 3 files, 7 tokens, 2 errors in 1ms (1 unchanged skipped)")
	})
}

func TestREPLSession(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		s := newREPLSession(tr.Renderer, driver.Options{})

		assert.False(t, s.feed("x = 1"))
		assert.False(t, s.pending())
		assert.Contains(t, tr.Output(), "| Ident |")
		assert.Contains(t, tr.Output(), "| IntLit |")
		assert.NotContains(t, tr.Output(), "Newline")
	})

	t.Run("block", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		s := newREPLSession(tr.Renderer, driver.Options{})
		s.feed(".layout")

		s.feed("if x:")
		assert.True(t, s.pending())
		s.feed("    pass")
		assert.Empty(t, tr.ErrorOutput())
		assert.NotContains(t, tr.Output(), "| Indent |", "blocks are held until an empty line")

		s.feed("")
		assert.False(t, s.pending())
		assert.Contains(t, tr.Output(), "| Indent |")
		assert.Contains(t, tr.Output(), "| Dedent |")
	})

	t.Run("errors and toggles", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		s := newREPLSession(tr.Renderer, driver.Options{})

		s.feed(".names")
		s.feed(".normalize")
		assert.True(t, s.opts.NormalizeIdentifiers)
		s.feed("a = @ + a")
		assert.Contains(t, tr.Output(), "names: a")
		assert.Contains(t, tr.ErrorOutput(), "1:5: UnexpectedChar")

		s.feed(".bogus")
		assert.Contains(t, tr.ErrorOutput(), "unknown command: .bogus")
	})

	t.Run("interrupt discards block", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		s := newREPLSession(tr.Renderer, driver.Options{})
		s.feed("class A:")
		s.reset()
		assert.False(t, s.pending())
	})

	t.Run("quit", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		s := newREPLSession(tr.Renderer, driver.Options{})
		assert.False(t, s.feed(".help"))
		assert.Contains(t, tr.Output(), ".normalize")
		assert.True(t, s.feed(".quit"))
		assert.True(t, s.feed(".EXIT"))
	})
}
