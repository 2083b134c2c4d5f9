package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/testselect/classpath"
	"github.com/c360studio/testselect/classpath/java"
	"github.com/c360studio/testselect/config"
	"github.com/c360studio/testselect/discovery"
)

// app wires the source loader, metrics and discovery requests for one
// command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer

	registry *prometheus.Registry
	metrics  *classpath.Metrics
	source   *java.SourceLoader
	loader   classpath.ClassLoader
}

type summary struct {
	total  int
	failed int
}

func newApp(cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	roots, err := java.ResolveRoots(cfg.ResolvedRoots())
	if err != nil {
		return nil, fmt.Errorf("resolve source roots: %w", err)
	}

	source, err := java.NewSourceLoader(java.LoaderConfig{
		Roots:   roots,
		Exclude: cfg.Classpath.Exclude,
		Parent:  classpath.System(),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create source loader: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := classpath.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	logger.Debug("Source loader ready",
		"loader", source.Name(),
		"roots", roots)

	return &app{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		registry: registry,
		metrics:  metrics,
		source:   source,
		loader:   classpath.Instrument(source, metrics),
	}, nil
}

// resolve parses ids into a fresh request, resolves it and prints one line
// per selector. Only parse failures and cancellation are returned as errors.
func (a *app) resolve(ctx context.Context, ids []string) (summary, error) {
	selectors, err := discovery.ParseAll(ids, a.loader)
	if err != nil {
		return summary{}, err
	}

	req := discovery.NewRequest(
		discovery.WithLogger(a.logger),
		discovery.WithConcurrency(a.cfg.Discovery.Concurrency))
	req.Add(selectors...)

	results, err := req.Resolve(ctx)
	if err != nil {
		return summary{}, err
	}

	s := summary{total: len(results)}
	for _, res := range results {
		if res.OK() {
			fmt.Fprintf(a.out, "ok    %s\n", discovery.Identifier(res.Selector))
			continue
		}
		s.failed++
		fmt.Fprintf(a.out, "FAIL  %s: %v\n", discovery.Identifier(res.Selector), res.Err)
	}
	fmt.Fprintf(a.out, "%d selectors, %d failed\n", s.total, s.failed)
	return s, nil
}

// watch resolves ids once and again after every batch of source changes
// that dropped a cached compilation unit. It returns when ctx ends.
func (a *app) watch(ctx context.Context, ids []string) error {
	w, err := java.NewWatcher(java.WatcherConfig{
		Loader:        a.source,
		DebounceDelay: a.cfg.Classpath.Debounce,
		Logger:        a.logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	if _, err := a.resolve(ctx, ids); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if !ev.Invalidated {
				continue
			}
			changed := 1 + drain(w.Events())
			a.logger.Info("Sources changed, resolving again",
				"path", ev.Path,
				"changes", changed)
			if _, err := a.resolve(ctx, ids); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

// drain consumes events already queued and returns how many it read.
func drain(events <-chan java.WatchEvent) int {
	n := 0
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

// serveMetrics exposes the loader metrics until ctx ends.
func (a *app) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("Metrics server failed", "error", err)
	}
}
