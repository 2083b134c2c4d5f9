// Package main provides the testselect binary entry point.
// testselect resolves test selectors (classes, methods, nested classes and
// nested methods) against Java source roots.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/testselect/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "testselect"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Resolve test selectors against Java sources",
		Long: `testselect resolves test selectors against Java source roots.

Selectors are written as identifiers:
  class:org.example.FooTest
  method:org.example.FooTest#adds(int, int)
  nested-class:org.example.FooTest/org.example.FooTest$Nested
  nested-method:org.example.FooTest/org.example.FooTest$Nested#works()

Configuration is read from testselect.yaml in the current or a parent
directory, or from the file given with --config.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	cmd.AddCommand(resolveCmd(&flags))
	cmd.AddCommand(initCmd())

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

type resolveFlags struct {
	selectors   []string
	sourceRoots []string
	exclude     []string
	concurrency int
	watch       bool
	metricsAddr string
}

func resolveCmd(global *globalFlags) *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve [identifier...]",
		Short: "Resolve selectors and report failures",
		Long: `Resolve parses every selector identifier, resolves it against the
configured source roots and prints one line per selector. The command fails
if any selector does not resolve.

With --watch the sources are watched and the selectors are resolved again
whenever a compilation unit changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append(append([]string{}, flags.selectors...), args...)
			if len(ids) == 0 {
				return fmt.Errorf("no selectors given")
			}

			cfg, err := loadConfig(global.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyResolveFlags(cmd, cfg, &flags)
			if global.logLevel != "" {
				cfg.Log.Level = global.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			a, err := newApp(cfg, logger, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if cfg.Classpath.Watch {
				if flags.metricsAddr != "" {
					go a.serveMetrics(ctx, flags.metricsAddr)
				}
				return a.watch(ctx, ids)
			}

			summary, err := a.resolve(ctx, ids)
			if err != nil {
				return err
			}
			if summary.failed > 0 {
				return fmt.Errorf("%d of %d selectors failed to resolve", summary.failed, summary.total)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&flags.selectors, "select", "s", nil, "Selector identifier (repeatable)")
	cmd.Flags().StringArrayVar(&flags.sourceRoots, "source-root", nil, "Source root directory or glob (repeatable); overrides config")
	cmd.Flags().StringArrayVar(&flags.exclude, "exclude", nil, "Exclude pattern for root-relative source paths (repeatable)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Concurrent resolutions; overrides config")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Resolve again when sources change")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while watching")

	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.ProjectConfigFile,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := config.NewLoader(nil).EnsureProjectConfig(dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// loadConfig loads an explicit config file, or the layered configuration.
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader(nil)
	if path != "" {
		return loader.LoadFile(path)
	}
	return loader.Load()
}

// applyResolveFlags overrides config values with flags given on the command
// line. Roots from the command line are relative to the working directory.
func applyResolveFlags(cmd *cobra.Command, cfg *config.Config, flags *resolveFlags) {
	if len(flags.sourceRoots) > 0 {
		cfg.Classpath.Roots = flags.sourceRoots
		cfg.BaseDir = ""
	}
	if len(flags.exclude) > 0 {
		cfg.Classpath.Exclude = flags.exclude
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Discovery.Concurrency = flags.concurrency
	}
	if flags.watch {
		cfg.Classpath.Watch = true
	}
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
