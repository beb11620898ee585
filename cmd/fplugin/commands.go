package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var makeTagsCmd = &cobra.Command{
	Use:   "make-tags [dir]",
	Short: "Build the tags and cscope indexes for the repository around dir",
	Long: "Finds the repository root above dir, lists its source files and runs ctags and cscope " +
		"into the repository's cache directory. One tool failing does not stop the other.",
	Args: cobra.MaximumNArgs(1),
	RunE: runMakeTags,
}

func init() {
	makeTagsCmd.Flags().Bool("parallel", true, "run the tags and cscope passes concurrently")
	makeTagsCmd.Flags().String("tagger", "", "tags engine: ctags|builtin (default from config)")
}

func runMakeTags(cmd *cobra.Command, args []string) error {
	start := time.Now()
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.BuildIndex(cmd.Context(), dir)
	if res != nil {
		fmt.Fprintf(os.Stderr, "Indexed %d files of %s in %s\n", res.Files, res.Root, time.Since(start).Round(time.Millisecond))
	}
	return err
}

var loadTagsCmd = &cobra.Command{
	Use:   "load-tags [dir]",
	Short: "Register the repository's indexes with the editor",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLoadTags,
}

func runLoadTags(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	return e.LoadIndex(cmd.Context(), dir)
}

var searchCmd = &cobra.Command{
	Use:   "search [dir]",
	Short: "Find a version-controlled file by pattern and open it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	return e.SearchFiles(cmd.Context(), dir)
}

var shellCmd = &cobra.Command{
	Use:   "shell [dir]",
	Short: "Run shell commands in dir, each with a timeout",
	Long:  "Reads command lines until an empty line or exit. A command running past the timeout is killed and the loop goes on.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShell,
}

func init() {
	shellCmd.Flags().Duration("timeout", 0, "per-command timeout (default from config, 10s)")
}

func runShell(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	return e.RunShell(cmd.Context(), dir)
}

var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Saved command lines",
	// No Run: prints help by default.
}

var commandShowCmd = &cobra.Command{
	Use:   "show [dir]",
	Short: "List the saved commands and run the one picked in dir",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCommandShow,
}

var commandAddCmd = &cobra.Command{
	Use:   "add <line>...",
	Short: "Save a command line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCommandAdd,
}

var commandListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the saved commands",
	Args:  cobra.NoArgs,
	RunE:  runCommandList,
}

func init() {
	commandCmd.AddCommand(commandShowCmd)
	commandCmd.AddCommand(commandAddCmd)
	commandCmd.AddCommand(commandListCmd)
}

func runCommandShow(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	return e.RunCommand(cmd.Context(), dir)
}

func runCommandAdd(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	return e.AddCommand(strings.Join(args, " "))
}

func runCommandList(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	cmds, err := e.Commands()
	if err != nil {
		return outputError("command list", err)
	}
	return outputResult(CLIResult{Command: "command list", Results: cmds})
}

var cachePathCmd = &cobra.Command{
	Use:   "cache-path [dir]",
	Short: "Print the repository root and cache directory for dir",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCachePath,
}

func runCachePath(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	root, cacheDir, err := e.CachePath(dir)
	if err != nil {
		return outputError("cache-path", err)
	}
	return outputResult(CLIResult{Command: "cache-path", Results: CLICachePath{Root: root, CacheDir: cacheDir}})
}

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Show the index state of the repository around dir",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	st, err := e.Status(cmd.Context(), dir)
	if err != nil {
		return outputError("status", err)
	}
	return outputResult(CLIResult{Command: "status", Results: statusToCLI(st)})
}

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List the repositories recorded in the build catalog",
	Args:  cobra.NoArgs,
	RunE:  runRepos,
}

func runRepos(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()
	repos, err := e.Repositories()
	if err != nil {
		return outputError("repos", err)
	}
	out := make([]CLIRepository, 0, len(repos))
	for _, r := range repos {
		out = append(out, repositoryToCLI(r))
	}
	return outputResult(CLIResult{Command: "repos", Results: out})
}

