package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/fplugin"
	"github.com/jward/fplugin/internal/config"
	"github.com/jward/fplugin/internal/logging"
)

var (
	flagConfig   string
	flagBaseDir  string
	flagLogLevel string
	flagHost     string
	flagFormat   string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// Loaded by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger *zap.Logger
)

// Streams the editor hosts read and write.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fplugin",
	Short: "Tag, cross-reference and file search backend for editors",
	Long: "fplugin builds ctags and cscope indexes for the repository around a directory, " +
		"loads them into the editor, finds files and runs shell commands with a timeout.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	// No Run: prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: <base-dir>/config.toml when present)")
	pf.StringVar(&flagBaseDir, "base-dir", "", "directory holding caches, catalog and saved commands (default: ~/.fplugin_tag)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&flagHost, "host", hostTerminal, "editor host: terminal|vim")
	pf.StringVar(&flagFormat, "format", "text", "output format for status, repos and cache-path: json|text")

	rootCmd.AddCommand(makeTagsCmd)
	rootCmd.AddCommand(loadTagsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reposCmd)
}

// flagKeys maps command flags onto config keys. Flags a command does not
// define are skipped.
var flagKeys = map[string]string{
	"base-dir":  "base_dir",
	"log-level": "log.level",
	"parallel":  "index.parallel",
	"tagger":    "index.tagger",
	"timeout":   "shell.timeout",
}

// setup validates the global flags, loads the configuration and builds the
// logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := validateFormat(flagFormat); err != nil {
		return err
	}
	if err := validateHost(flagHost); err != nil {
		return err
	}

	v := config.New()
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}

	loaded, err := config.Load(v, flagConfig)
	if err != nil {
		return err
	}
	log, err := logging.New(loaded.Log.Level, loaded.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	cfg, logger = loaded, log
	return nil
}

// newEngine creates an Engine talking to the host chosen with --host.
func newEngine() (*fplugin.Engine, error) {
	host, err := newHost(flagHost, stdin, stdout)
	if err != nil {
		return nil, err
	}
	e, err := fplugin.New(cfg, host, fplugin.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// resolveTargetDir returns the absolute path of the directory an operation
// starts from: the argument if given, the working directory otherwise.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
