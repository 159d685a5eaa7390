package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/leapc/internal/cli/output"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/leapstack-labs/leapc/pkg/token"
	"github.com/spf13/cobra"
)

// LexOptions holds options for the lex command.
type LexOptions struct {
	Layout bool
	Names  bool
}

// NewLexCommand creates the lex command.
func NewLexCommand() *cobra.Command {
	opts := &LexOptions{}

	cmd := &cobra.Command{
		Use:   "lex [file]",
		Short: "Print the tokens of a source file",
		Long: `Tokenize one source file and print its tokens and lexing faults.

Reads standard input when no file is given or the file is "-".
Layout tokens (Newline, Indent, Dedent, Eof) are hidden unless --layout is set.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # Tokenize a file
  leapc lex src/point.leap

  # Include block structure tokens
  leapc lex --layout src/point.leap

  # Tokenize standard input as JSON
  echo 'x = 1' | leapc lex -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLex(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Layout, "layout", false, "Include Newline, Indent, Dedent and Eof tokens")
	cmd.Flags().BoolVar(&opts.Names, "names", false, "List the distinct identifier names")

	return cmd
}

// LexOutput is the structured output of the lex command.
type LexOutput struct {
	Path   string             `json:"path" yaml:"path"`
	Hash   string             `json:"hash" yaml:"hash"`
	Tokens []driver.TokenInfo `json:"tokens" yaml:"tokens"`
	Errors []DiagnosticOutput `json:"errors" yaml:"errors"`
	Names  []string           `json:"names,omitempty" yaml:"names,omitempty"`
}

// DiagnosticOutput is one lexing fault.
type DiagnosticOutput struct {
	Path      string `json:"path" yaml:"path"`
	Line      int    `json:"line" yaml:"line"`
	Column    int    `json:"column" yaml:"column"`
	EndLine   int    `json:"end_line" yaml:"end_line"`
	EndColumn int    `json:"end_column" yaml:"end_column"`
	Code      string `json:"code" yaml:"code"`
	Message   string `json:"message" yaml:"message"`
}

func newDiagnosticOutput(d driver.Diagnostic) DiagnosticOutput {
	return DiagnosticOutput{
		Path:      d.Path,
		Line:      d.Start.Line,
		Column:    d.Start.Column,
		EndLine:   d.End.Line,
		EndColumn: d.End.Column,
		Code:      d.Code,
		Message:   d.Message,
	}
}

func runLex(cmd *cobra.Command, args []string, opts *LexOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	path, src, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	unit := driver.Compile(path, src, cmdCtx.DriverOptions())
	defer unit.Release()

	out := &LexOutput{
		Path:   path,
		Hash:   unit.Hash,
		Tokens: unit.TokenInfos(opts.Layout),
		Errors: make([]DiagnosticOutput, 0, len(unit.Errors)),
	}
	if opts.Names {
		out.Names = unit.DistinctNames()
	}
	for _, d := range unit.Diagnostics() {
		out.Errors = append(out.Errors, newDiagnosticOutput(d))
	}

	if handled, err := r.Structured(out); handled {
		if err != nil {
			return err
		}
	} else {
		renderLex(r, out)
	}

	if len(out.Errors) > 0 && cmdCtx.Cfg.Lexer.FatalErrors {
		return errLexFaults
	}
	return nil
}

func readSource(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return "<stdin>", string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return args[0], string(data), nil
}

func renderLex(r *output.Renderer, out *LexOutput) {
	r.Header(1, fmt.Sprintf("%s (%d tokens)", out.Path, len(out.Tokens)))

	styled := r.EffectiveMode() == output.ModeText
	rows := make([][]string, len(out.Tokens))
	for i, tok := range out.Tokens {
		kind := tok.Kind
		if styled {
			kind = kindStyle(r.Styles(), tok.Kind).Render(kind)
		}
		rows[i] = []string{
			kind,
			displayText(tok.Text),
			fmt.Sprintf("%d:%d", tok.Line, tok.Column),
			fmt.Sprintf("%d..%d", tok.Start, tok.End),
		}
	}
	r.Table([]string{"Kind", "Text", "Position", "Span"}, rows)

	if len(out.Names) > 0 {
		r.Println()
		r.Header(2, "Names")
		if r.EffectiveMode() == output.ModeMarkdown {
			for _, n := range out.Names {
				r.Println("- `" + n + "`")
			}
		} else {
			r.Println(strings.Join(out.Names, ", "))
		}
	}

	renderDiagnostics(r, out.Errors)
}

// renderDiagnostics prints faults after a result. Markdown keeps them in
// the document; text mode writes them to the error stream.
func renderDiagnostics(r *output.Renderer, diags []DiagnosticOutput) {
	if len(diags) == 0 {
		return
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println()
		r.Header(2, fmt.Sprintf("Errors (%d)", len(diags)))
		for _, d := range diags {
			r.Println(fmt.Sprintf("- `%s:%d:%d` **%s**: %s", d.Path, d.Line, d.Column, d.Code, d.Message))
		}
		return
	}
	styles := r.Styles()
	for _, d := range diags {
		loc := styles.Path.Render(fmt.Sprintf("%s:%d:%d", d.Path, d.Line, d.Column))
		r.Error(fmt.Sprintf("%s: %s: %s", loc, styles.Bold.Render(d.Code), d.Message))
	}
}

// kindStyle picks the style for a token kind in text output.
func kindStyle(styles *output.Styles, kind string) lipgloss.Style {
	switch kind {
	case "Newline", "Indent", "Dedent", "Eof":
		return styles.Muted
	case "IntLit", "StrLit":
		return styles.Success
	}
	if token.LookupIdent(kind).IsKeyword() {
		return styles.Info
	}
	return styles.TokenKind
}

// displayText quotes token text that would be invisible in a table cell.
func displayText(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return strconv.Quote(s)
	}
	return s
}
