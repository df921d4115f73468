// Command astrocam-log views and analyzes capture trace files.
//
// Trace files are written by astrocam when run with --trace or with
// trace.path set in the configuration.
//
// Usage:
//
//	astrocam-log <command> [flags] <file.clog>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show per-session statistics
//
// Examples:
//
//	# View all events
//	astrocam-log view session.clog
//
//	# View only frame events of session 3
//	astrocam-log view --category frame --session 3 session.clog
//
//	# Export to CSV
//	astrocam-log export --format csv -o session.csv session.clog
//
//	# Keep only errors
//	astrocam-log filter --category error -o errors.clog session.clog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cameraestellar/astrocam-go/cmd/astrocam-log/commands"
)

const usage = `astrocam-log - Capture Trace Analyzer

Usage:
  astrocam-log <command> [flags] <file.clog>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL or CSV format
  filter   Filter trace file and write to new file
  stats    Show per-session statistics

Use "astrocam-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "astrocam-log %s - %s\n\nUsage:\n  astrocam-log %s [flags] <file.clog>\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	return fs
}

// pathArg returns the single positional argument or exits.
func pathArg(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace file in human-readable format")
	category := fs.String("category", "", "Filter by category (state, frame, plan, config, error)")
	session := fs.String("session", "", "Filter by session id")
	path := pathArg(fs, args)

	filter, err := commands.BuildFilter(commands.FilterOptions{Category: *category, Session: *session})
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace file to JSONL or CSV format")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := pathArg(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace file and write to new file")
	output := fs.String("o", "", "Output file (required)")
	runID := fs.String("run-id", "", "Filter by run ID")
	session := fs.String("session", "", "Filter by session id")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	category := fs.String("category", "", "Filter by category (state, frame, plan, config, error)")
	path := pathArg(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		RunID:     *runID,
		Session:   *session,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Category:  *category,
	}
	n, err := commands.RunFilter(path, *output, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show per-session statistics")
	path := pathArg(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
