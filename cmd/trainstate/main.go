// Package main provides the trainstate CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logger.Error("command failed", "err", err)
		}
		os.Exit(1)
	}
}

// run dispatches one subcommand. Results go to stdout, progress to logger.
func run(args []string, stdout io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}

	switch args[0] {
	case "version":
		_, err := fmt.Fprintf(stdout, "trainstate %s\n", version)
		return err
	case "inspect":
		return runInspect(args[1:], stdout)
	case "demo":
		return runDemo(args[1:], stdout, logger)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "trainstate - training state checkpoints for Born")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version                           Show version")
	fmt.Fprintln(w, "  inspect [-filter EXPR] [-values] FILE")
	fmt.Fprintln(w, "                                    Print a checkpoint's header and tensors")
	fmt.Fprintln(w, "  demo [-steps N] [-ema D] [-out FILE]")
	fmt.Fprintln(w, "                                    Train a linear regression and optionally save it")
}
