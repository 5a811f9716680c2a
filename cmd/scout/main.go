// Package main provides the scout command line tool: a one-shot wallet
// profile or a side-by-side comparison of two wallets.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/solana-scout/internal/app"
	"github.com/solana-scout/internal/config"
	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/logging"
	"github.com/solana-scout/internal/render"
)

const usage = `Solana Scout - wallet profile and risk report

Usage:
  scout [--json] [--rpc=URL] <address>
  scout compare [--json] [--rpc=URL] <address1> <address2>

Flags:
  --json      print the report as JSON
  --rpc=URL   Solana RPC endpoint (default $SOLANA_RPC_URL or mainnet-beta)
  --verbose   log RPC calls to stderr
  -h, --help  show this help
`

var errUsage = errors.New("usage")

type options struct {
	compare bool
	json    bool
	rpc     string
	verbose bool
	help    bool
	args    []string
}

// parseArgs accepts flags before, between and after the positional arguments
func parseArgs(args []string) (*options, error) {
	opts := &options{}
	if len(args) > 0 && args[0] == "compare" {
		opts.compare = true
		args = args[1:]
	}

	fs := flag.NewFlagSet("scout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.json, "json", false, "")
	fs.StringVar(&opts.rpc, "rpc", "", "")
	fs.BoolVar(&opts.verbose, "verbose", false, "")
	fs.BoolVar(&opts.help, "h", false, "")
	fs.BoolVar(&opts.help, "help", false, "")

	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				opts.help = true
				return opts, nil
			}
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		opts.args = append(opts.args, rest[0])
		args = rest[1:]
	}

	if opts.help {
		return opts, nil
	}

	want := 1
	if opts.compare {
		want = 2
	}
	if len(opts.args) != want {
		return nil, errUsage
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n\n", err)
		}
		fmt.Fprint(stderr, usage)
		return 1
	}
	if opts.help {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if opts.rpc != "" {
		if err := config.ValidateEndpoint(opts.rpc); err != nil {
			reportError(apperrors.NewInvalidParameterError("rpc", err.Error()), opts, stdout, stderr)
			return 1
		}
		cfg.RPC.Endpoint = opts.rpc
	}

	// stdout carries only the report
	level := logging.LevelWarn
	if opts.verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewLoggerWithOutput(level, logging.ParseLogFormat(cfg.Logging.Format), stderr)
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RPC.Timeout)
	defer cancel()

	scout, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := scout.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Redis connection")
		}
	}()

	if opts.compare {
		err = compare(ctx, scout, opts, stdout)
	} else {
		err = profile(ctx, scout, opts, stdout)
	}
	if err != nil {
		reportError(err, opts, stdout, stderr)
		return 1
	}
	return 0
}

func profile(ctx context.Context, scout *app.Scout, opts *options, stdout io.Writer) error {
	report, err := scout.Reports.BuildReport(ctx, opts.args[0])
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(stdout, report)
	}
	return render.Report(stdout, report)
}

func compare(ctx context.Context, scout *app.Scout, opts *options, stdout io.Writer) error {
	report, err := scout.Comparisons.Compare(ctx, opts.args[0], opts.args[1])
	if err != nil {
		return err
	}
	if opts.json {
		return writeJSON(stdout, report)
	}
	return render.Comparison(stdout, report)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cliError is the JSON error document printed in --json mode
type cliError struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Address   string `json:"address"`
	Timestamp string `json:"timestamp"`
}

func reportError(err error, opts *options, stdout, stderr io.Writer) {
	catErr := apperrors.Categorize(err)
	message := catErr.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		message = "timed out waiting for the RPC endpoint: " + message
	}

	if !opts.json {
		fmt.Fprintf(stderr, "❌ Error: %s\n", message)
		return
	}

	doc := cliError{
		Error:     message,
		Code:      catErr.Code,
		Address:   strings.Join(opts.args, ","),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if werr := writeJSON(stdout, doc); werr != nil {
		fmt.Fprintf(stderr, "❌ Error: %s\n", message)
	}
}
