// Package cli parses and validates the harness's command-line arguments:
// the class-manifest path, the entry-point table dump switch, and the log
// settings. It owns process-level concerns like exit codes via ExitError.
package cli
