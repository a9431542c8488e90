// Package cli implements the molsieve command line.  Commands run the
// screening pipeline in-process, or call a running API server when --server
// is set.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/client"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// Backend is what the commands need from either the in-process services or
// the remote API.
type Backend interface {
	ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error)
	BatchValidate(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error)
	PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error)
	Generate(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error)
}

// BackendFactory builds the in-process backend.  The returned func releases
// it.
type BackendFactory func(ctx context.Context, cfg *config.Config, log logging.Logger) (Backend, func() error, error)

// Migrator drives schema migrations.
type Migrator interface {
	Up() error
	Down(steps int) error
	Version() (version uint, dirty bool, err error)
}

// MigratorFactory builds a Migrator for the configured database.
type MigratorFactory func(cfg config.DatabaseConfig, log logging.Logger) Migrator

// CommandDependencies are injected by cmd/molsieve.
type CommandDependencies struct {
	LocalBackend BackendFactory
	Migrator     MigratorFactory
}

type cliContextKey struct{}

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Timeout      time.Duration
	ServerAddr   string
}

// CLIContext carries the initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration

	deps       CommandDependencies
	serverAddr string

	once    sync.Once
	backend Backend
	release func() error
	err     error
}

// Backend resolves the backend on first use, so commands that never need
// it (migrate) never dial the API or build the pipeline.
func (c *CLIContext) Backend(ctx context.Context) (Backend, error) {
	c.once.Do(func() {
		if c.serverAddr != "" {
			cl, err := client.NewClient(c.serverAddr, client.WithTimeout(c.Timeout))
			if err != nil {
				c.err = err
				return
			}
			c.backend = remoteBackend{c: cl}
			return
		}
		if c.deps.LocalBackend == nil {
			c.err = errors.New(errors.ErrCodeServiceUnavailable, "no in-process backend; pass --server")
			return
		}
		c.backend, c.release, c.err = c.deps.LocalBackend(ctx, c.Config, c.Logger)
	})
	return c.backend, c.err
}

func (c *CLIContext) close() error {
	if c.release == nil {
		return nil
	}
	return c.release()
}

// NewRootCommand creates the root command with its global flags and every
// subcommand.
func NewRootCommand(deps CommandDependencies) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "molsieve",
		Short:   "MolSieve: molecular candidate screening and ranking",
		Long:    "MolSieve validates molecular structures, screens them for toxicophores and\nassay interference, estimates synthesizability and ranks generated candidates.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", config.Version, config.GitCommit, config.BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, deps)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./molsieve.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "global operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address, e.g. http://localhost:8080 (default: run in-process)")

	cmd.AddCommand(
		NewValidateCmd(),
		NewBatchValidateCmd(),
		NewGenerateCmd(),
		NewPredictCmd(),
		NewMigrateCmd(deps.Migrator),
		NewVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, deps CommandDependencies) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown output format %q", opts.OutputFormat))
	}

	cfg, err := initConfig(cmd, opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
		deps:         deps,
		serverAddr:   opts.ServerAddr,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads --config, else the first file found on the search path,
// else defaults.  MOLSIEVE_* environment variables apply in every case.
func initConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadFromFile(opts.ConfigPath)
	}

	searchPaths := []string{"./molsieve.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".molsieve", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/molsieve/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.LoadFromFile(p)
		}
	}
	return config.LoadFromEnv()
}

// initLogger writes console logs to stderr so stdout stays machine-readable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:            strings.ToLower(opts.LogLevel),
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by the root pre-run.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// backendFor resolves the backend and a context bounded by --timeout.  done
// cancels the context and releases the backend.
func backendFor(cmd *cobra.Command) (b Backend, ctx context.Context, done func(), err error) {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cc.Timeout)
	done = func() {
		cancel()
		if cerr := cc.close(); cerr != nil {
			cc.Logger.Warn("failed to release backend", logging.Err(cerr))
		}
	}
	b, err = cc.Backend(ctx)
	if err != nil {
		done()
		return nil, nil, nil, err
	}
	return b, ctx, done, nil
}

// Execute runs the root command and prints any error to stderr.
func Execute(deps CommandDependencies) error {
	rootCmd := NewRootCommand(deps)
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

type textProvider interface {
	Text() string
}

// PrintResult writes data in the selected --output format.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "json"
	if cc, err := GetCLIContext(cmd); err == nil {
		format = cc.OutputFormat
	}
	switch format {
	case "json":
		return printJSON(cmd, data)
	case "table":
		if tp, ok := data.(tableProvider); ok {
			fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
			return nil
		}
		return printText(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case textProvider:
		fmt.Fprint(cmd.OutOrStdout(), v.Text())
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		return printJSON(cmd, data)
	}
	return nil
}

// PrintError writes err to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes an OK line to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned plain-text table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	seps := make([]string, len(headers))
	for i, w := range colWidths {
		seps[i] = strings.Repeat("-", w)
	}
	writeRow(seps)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
