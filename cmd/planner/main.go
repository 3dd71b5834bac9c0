// Command planner is a terminal client for the travel-planning backend.
//
//	planner [-metrics-out FILE] <command> [flags] [args]
//
// Run planner without arguments for the command list. Results are printed
// to stdout as JSON; failures go to stderr with a non-zero exit status.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/infra"
	"github.com/wanderplan/wanderplan/internal/logging"
	"github.com/wanderplan/wanderplan/internal/result"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("planner", flag.ContinueOnError)
	global.SetOutput(stderr)
	metricsOut := global.String("metrics-out", "", "write gateway metrics in text format to `file` on exit")
	global.Usage = func() { usage(global, stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(global, stderr)
		return 2
	}
	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		usage(global, stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	if err := cfg.ValidateClient(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logger := logging.NewWithWriter(stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := infra.NewCredentialStore(ctx, cfg)
	if err != nil {
		logger.Error("open credential store", "backend", cfg.CredentialBackend, "error", err)
		return 1
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	c := newClient(cfg, store, logger, registry)
	c.session.Restore(ctx)
	c.out, c.errOut = stdout, stderr

	code := cmd.run(ctx, c, rest)
	if *metricsOut != "" {
		if err := prometheus.WriteToTextfile(*metricsOut, registry); err != nil {
			logger.Warn("write metrics", "path", *metricsOut, "error", err)
		}
	}
	return code
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: planner [flags] <command> [command flags] [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-13s %s\n", name, commands[name].help)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}

// emit prints a successful envelope's data, or its error, and returns the
// process exit code.
func emit[T any](c *client, env result.Envelope[T]) int {
	if !env.Success {
		msg := env.Message()
		if code := env.StatusCode(); code != 0 {
			msg = fmt.Sprintf("%s (status %d)", msg, code)
		}
		fmt.Fprintln(c.errOut, "error:", msg)
		return 1
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env.Data); err != nil {
		fmt.Fprintln(c.errOut, "error:", err)
		return 1
	}
	return 0
}
