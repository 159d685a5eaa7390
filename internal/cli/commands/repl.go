package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapc/internal/cli/output"
	"github.com/leapstack-labs/leapc/internal/driver"
	"github.com/spf13/cobra"
)

const (
	replPrompt         = "leapc> "
	replContinuePrompt = "   ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Tokenize input interactively",
		Long: `Start an interactive session that prints the tokens of each input.

A line ending in ':' opens a block; the block is tokenized when an empty line
is entered. Dot-commands toggle what is shown; type .help for the list.`,
		Example: `  # Start the REPL
  leapc repl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}

	cmd.Flags().String("history", "", "History file (default: repl.history_file)")

	return cmd
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	historyFile := cmdCtx.Cfg.REPL.HistoryFile
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
			cmdCtx.Logger.Warn("history disabled", "error", err)
			historyFile = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := newREPLSession(cmdCtx.Renderer, cmdCtx.DriverOptions())

	cmdCtx.Renderer.Println("leapc tokenizer REPL")
	cmdCtx.Renderer.Println("Type .help for commands, .quit to exit")
	cmdCtx.Renderer.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if s.feed(line) {
			return nil
		}
		if s.pending() {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// replSession holds the state of one interactive session. It is driven a
// line at a time by feed.
type replSession struct {
	r      *output.Renderer
	opts   driver.Options
	layout bool
	names  bool

	block strings.Builder
}

func newREPLSession(r *output.Renderer, opts driver.Options) *replSession {
	return &replSession{r: r, opts: opts}
}

// pending reports whether a block is being collected.
func (s *replSession) pending() bool {
	return s.block.Len() > 0
}

func (s *replSession) reset() {
	s.block.Reset()
}

// feed processes one input line and reports whether the session should end.
func (s *replSession) feed(line string) bool {
	if s.pending() {
		if strings.TrimSpace(line) != "" {
			s.block.WriteString(line + "\n")
			return false
		}
		src := s.block.String()
		s.reset()
		s.eval(src)
		return false
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return false
	case strings.HasPrefix(trimmed, "."):
		return s.dotCommand(trimmed)
	case strings.HasSuffix(strings.TrimRight(line, " \t"), ":"):
		s.block.WriteString(line + "\n")
		return false
	}
	s.eval(line + "\n")
	return false
}

// eval tokenizes src and prints the result.
func (s *replSession) eval(src string) {
	unit := driver.Compile("<repl>", src, s.opts)
	defer unit.Release()

	rows := [][]string{}
	for _, tok := range unit.TokenInfos(s.layout) {
		rows = append(rows, []string{
			s.r.Styles().TokenKind.Render(tok.Kind),
			displayText(tok.Text),
			fmt.Sprintf("%d:%d", tok.Line, tok.Column),
		})
	}
	if len(rows) > 0 {
		s.r.Table([]string{"Kind", "Text", "Position"}, rows)
	}
	if s.names {
		if names := unit.DistinctNames(); len(names) > 0 {
			s.r.Muted("names: " + strings.Join(names, ", "))
		}
	}
	for _, d := range unit.Diagnostics() {
		s.r.Error(fmt.Sprintf("%d:%d: %s: %s", d.Start.Line, d.Start.Column, d.Code, d.Message))
	}
}

// dotCommand runs a dot-command and reports whether the session should end.
func (s *replSession) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		s.r.Println(replHelp)
	case ".layout":
		s.layout = !s.layout
		s.r.Muted(fmt.Sprintf("layout tokens %s", onOff(s.layout)))
	case ".names":
		s.names = !s.names
		s.r.Muted(fmt.Sprintf("names %s", onOff(s.names)))
	case ".normalize":
		s.opts.NormalizeIdentifiers = !s.opts.NormalizeIdentifiers
		s.r.Muted(fmt.Sprintf("identifier normalization %s", onOff(s.opts.NormalizeIdentifiers)))
	case ".clear":
		s.r.Printf("\033[H\033[2J")
	default:
		s.r.Warning(fmt.Sprintf("unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

const replHelp = `
Commands:
  .help         Show this help message
  .layout       Toggle Newline, Indent, Dedent and Eof tokens
  .names        Toggle the list of distinct identifier names
  .normalize    Toggle NFKC identifier normalization
  .clear        Clear the screen
  .quit / .exit Exit the REPL

Tips:
  - A line ending in ':' starts a block; finish it with an empty line
  - Use arrow keys to navigate history
  - Tab completes dot-commands`

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".layout"),
		readline.PcItem(".names"),
		readline.PcItem(".normalize"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
