// Package cli holds the sercha-ingest commands. Commands read their
// services from package state that main fills in through SetWiring.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/config"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

var version = "dev"

// Services is what a command runs against
type Services struct {
	Ingest driving.IngestService
	Search driving.SearchService

	// Serve runs the HTTP API until shutdown. Only set in serve mode.
	Serve func(ctx context.Context) error

	// Supported lists the file suffixes the extractor registry accepts
	Supported []string

	// Close releases every client opened for the command
	Close func() error
}

// Options are the global flags handed to the wiring
type Options struct {
	Mode       config.Mode
	EnvFile    string
	ConfigFile string
}

// Wiring builds the services for one command invocation
type Wiring func(ctx context.Context, opts Options) (*Services, error)

var (
	wiring Wiring

	ingestService driving.IngestService
	searchService driving.SearchService
	serveFunc     func(ctx context.Context) error
	supported     []string
	closeFunc     func() error
)

// Global flags
var (
	userID     string
	envFile    string
	configFile string
)

// skipWiring marks commands that need no backends
const skipWiring = "skip-wiring"

var rootCmd = &cobra.Command{
	Use:   "sercha-ingest",
	Short: "Per-user document ingestion and semantic search",
	Long: `sercha-ingest turns text and PDF, DOCX or TXT files into embedded,
per-user vector points and searches them.

Run "serve" for the HTTP API, or use the ingest, search, points and watch
commands against the configured stores directly.`,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "owner id for ingested and queried points")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load (missing file is ignored)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML or TOML config file (overrides CONFIG_FILE)")
}

// SetVersion sets the version printed by the version command and served by the API
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Version returns the build version
func Version() string {
	return version
}

// SetWiring installs the function that builds services before each command
func SetWiring(w Wiring) {
	wiring = w
}

// Execute runs the root command and releases whatever the wiring opened,
// whether or not the command succeeded
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, teardown())
}

// SetOutput redirects command output, for tests and embedding
func SetOutput(w io.Writer) {
	rootCmd.SetOut(w)
	rootCmd.SetErr(w)
}

func bootstrap(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipWiring] == "true" || wiring == nil {
		return nil
	}

	mode := config.ModeCLI
	if cmd == serveCmd {
		mode = config.ModeServe
	}

	svc, err := wiring(cmd.Context(), Options{Mode: mode, EnvFile: envFile, ConfigFile: configFile})
	if err != nil {
		return err
	}

	ingestService = svc.Ingest
	searchService = svc.Search
	serveFunc = svc.Serve
	supported = svc.Supported
	closeFunc = svc.Close
	return nil
}

func teardown() error {
	if closeFunc == nil {
		return nil
	}
	err := closeFunc()
	closeFunc = nil
	return err
}

// requireUser returns the --user flag or an error naming it
func requireUser() (string, error) {
	if userID == "" {
		return "", errors.New("--user is required")
	}
	return userID, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
