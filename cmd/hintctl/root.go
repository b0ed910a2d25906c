package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/pagehint/internal/logger"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logLevel string
	logDir   string
)

// Set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "hintctl",
	Short: "Simulate and inspect free page hinting",
	Long: `hintctl runs the free page hinting engine against a simulated guest
allocator, compresses range lists, and decodes hint streams written by the
stream transport.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Log engine activity to stderr at this level (debug, info, warn, error)")
	rootCmd.PersistentFlags().
		StringVar(&logDir, "log-dir", "", "Write the log to a dated file in this directory instead of stderr")

	rootCmd.SetVersionTemplate("hintctl {{.Version}}\n  commit: " + commit + "\n  built: " + date + "\n")
}

func execute() {
	err := rootCmd.Execute()
	if cerr := logger.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// initLogging enables the engine logger when --log-level or --log-dir is
// given; --log-dir alone logs at info. Without either the logger keeps
// whatever PAGEHINT_LOG selected.
func initLogging() error {
	if logLevel == "" && logDir == "" {
		return nil
	}
	lvl := slog.LevelInfo
	if logLevel != "" {
		var err error
		if lvl, err = logger.ParseLevel(logLevel); err != nil {
			return err
		}
	}
	return logger.Init(logger.Options{Enabled: true, Level: lvl, JSON: jsonOut, LogDir: logDir})
}

// Helper functions for output

// printer formats counts with digit grouping.
var printer = message.NewPrinter(language.English)

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printCount prints a labelled, digit-grouped counter line.
func printCount(label string, n uint64) {
	if !quiet {
		printer.Fprintf(os.Stdout, "  %-16s %d\n", label, n)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
