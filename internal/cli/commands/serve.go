package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapc/internal/api"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Watch     bool
	NoProject bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tokenizer and check history over HTTP",
		Long: `Start a local HTTP server exposing the tokenizer and the check history.

Endpoints:
  GET  /healthz          Liveness and version
  POST /api/tokenize     Tokenize {"source": "..."}
  POST /api/check        Check the project (?changed=true skips clean files)
  GET  /api/runs         Recent runs (?limit=N)
  GET  /api/runs/{id}    One run with its file results
  GET  /api/events       Server-sent check events

With --no-project only /healthz and /api/tokenize are served.`,
		Example: `  # Serve on the configured port (default 8787)
  leapc serve

  # Serve on another port and re-check on change
  leapc serve --port 9000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version, opts)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: serve.port)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-check sources as they change and push events")
	cmd.Flags().BoolVar(&opts.NoProject, "no-project", false, "Serve only the tokenizer")

	return cmd
}

func runServe(cmd *cobra.Command, version string, opts *ServeOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg

	serverCfg := api.Config{
		Options: cmdCtx.DriverOptions(),
		Port:    cfg.Serve.Port,
		Watch:   opts.Watch,
		Version: version,
		Logger:  cmdCtx.Logger,
	}

	if !opts.NoProject {
		if err := cfg.ValidateDirectories(); err != nil {
			return err
		}
		eng, err := createEngine(cfg, cmdCtx.Logger, true)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()
		serverCfg.Engine = eng
	}

	server := api.NewServer(serverCfg)

	r := cmdCtx.Renderer
	r.Println(fmt.Sprintf("Serving on http://localhost:%d", cfg.Serve.Port))
	r.Muted("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}
