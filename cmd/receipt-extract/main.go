// Command receipt-extract prints the fields found in receipt text read from
// a file or stdin.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-manager/internal/extraction"
	"github.com/zombor/receipt-manager/internal/logging"
)

func main() {
	fs := ff.NewFlagSet("receipt-extract")
	var (
		pretty   = fs.BoolLong("pretty", "Indent the JSON output")
		logLevel = fs.StringLong("log-level", "warn", "Log level: debug, info, warn or error")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_EXTRACT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(logging.Config{Level: level})

	if err := run(fs.GetArgs(), os.Stdin, os.Stdout, *pretty); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, pretty bool) error {
	var (
		text []byte
		err  error
	)
	switch len(args) {
	case 0:
		text, err = io.ReadAll(stdin)
	case 1:
		text, err = os.ReadFile(args[0])
	default:
		return fmt.Errorf("expected at most one file, got %d", len(args))
	}
	if err != nil {
		return fmt.Errorf("reading receipt text: %w", err)
	}

	result := extraction.Extract(string(text))
	if result == nil {
		slog.Warn("No text to extract from")
	} else {
		slog.Debug("Extracted receipt fields",
			"found", result.Found(),
			"date", result.Date != nil,
			"total", result.Total != nil,
			"merchant", result.Merchant != nil,
			"location", result.Location != nil,
			"category", result.SuggestedCategory,
		)
	}

	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
