package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config is the validated CLI configuration.
type Config struct {
	// ManifestsPath is the directory holding .hcl class manifests. Empty
	// means the built-in demo classes only.
	ManifestsPath string

	// DumpTable prints the entry-point table instead of running the smoke
	// scenario.
	DumpTable bool

	LogFormat string
	LogLevel  string
}

// Level translates the validated log-level string.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("scriptbridge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
scriptbridge - native/managed lifetime bridge harness.

Usage:
  scriptbridge [options] [MANIFESTS_PATH]

Arguments:
  MANIFESTS_PATH
    Directory containing .hcl class manifests. Optional; without it only
    the built-in demo classes are registered.

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestsFlag := flagSet.String("manifests", "", "Directory containing .hcl class manifests.")
	dumpTableFlag := flagSet.Bool("dump-table", false, "Print the entry-point table and exit.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *manifestsFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config := &Config{
		ManifestsPath: path,
		DumpTable:     *dumpTableFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	}
	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
