// Package main implements cachectl, the operator CLI for the Jassistant
// cache registry. It loads the cache configuration, builds a registry
// over the configured cache directory, and runs one admin operation:
//
//	cachectl [-config cache.yaml] stats
//	cachectl [-config cache.yaml] clear [-scope all|memory|disk|expired|<instance>]
//	cachectl [-config cache.yaml] cleanup
//
// Reports are printed as JSON for piping into jq or a dashboard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fishinsevens/Jassistant/pkg/cache"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("cachectl failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("cachectl", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to cache configuration YAML (optional)")
	verbose := flags.Bool("verbose", false, "enable debug logging")
	flags.Usage = func() { usage(flags) }
	if err := flags.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	command := flags.Arg(0)
	if command == "" {
		flags.Usage()
		return fmt.Errorf("no command given")
	}

	cfg, err := cache.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	// The CLI is a one-shot tool; background sweeps belong to the service.
	cfg.Janitor.Enabled = false

	ctx := context.Background()
	registry, err := cache.NewRegistry(ctx, cfg, cache.WithRegistryLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("Registry close failed", "error", err)
		}
	}()

	// Each subcommand parses its own flags; the top-level FlagSet stops at
	// the command word, so "clear -scope expired" must be re-parsed here to
	// reach the registry with the scope the operator typed.
	switch command {
	case "stats":
		if err := noMoreArgs(command, flags.Args()[1:]); err != nil {
			return err
		}
		return printJSON(out, registry.ComprehensiveStats())
	case "clear":
		clearFlags := flag.NewFlagSet("clear", flag.ContinueOnError)
		scope := clearFlags.String("scope", cache.ScopeAll, "clear scope: all|memory|disk|expired|query|artifact|snapshot")
		if err := clearFlags.Parse(flags.Args()[1:]); err != nil {
			return err
		}
		if err := noMoreArgs(command, clearFlags.Args()); err != nil {
			return err
		}
		counts, err := registry.ClearAll(ctx, *scope)
		if err != nil {
			return err
		}
		return printJSON(out, counts)
	case "cleanup":
		if err := noMoreArgs(command, flags.Args()[1:]); err != nil {
			return err
		}
		return printJSON(out, registry.CleanupAllExpired(ctx))
	default:
		flags.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// noMoreArgs rejects trailing arguments a subcommand does not take, so a
// mistyped invocation fails loudly instead of running something else.
func noMoreArgs(command string, rest []string) error {
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments after %q: %v", command, rest)
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `cachectl - Jassistant cache registry admin tool

Usage:
  cachectl [flags] stats     print merged statistics for every cache instance
  cachectl [flags] clear     clear cached entries (see clear -scope)
  cachectl [flags] cleanup   remove expired entries from disk-backed caches

Flags:
`)
	flags.PrintDefaults()
}
