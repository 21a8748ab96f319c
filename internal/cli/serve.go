package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/exprgraph/pkg/cache"
	"github.com/matzehuels/exprgraph/pkg/graph"
	"github.com/matzehuels/exprgraph/pkg/model"
	"github.com/matzehuels/exprgraph/pkg/render"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type serveOptions struct {
	addr    string
	run     bool
	noCache bool
}

// serveCommand creates the serve command for inspecting a model over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{addr: c.Config.Addr}

	cmd := &cobra.Command{
		Use:   "serve [model]",
		Short: "Serve a read-only view of a model over HTTP",
		Long: `Serve a read-only view of a model over HTTP.

One state is initialized at startup (and the moves replayed with --run).
The server exposes:

  GET /healthz          liveness probe
  GET /metrics          Prometheus metrics
  GET /graph.dot        DOT source annotated with values
  GET /graph.svg        rendered SVG
  GET /nodes            JSON document of all nodes and edges
  GET /nodes/{name}     values of one node`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.run, "run", false, "replay the model's moves before serving")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the SVG cache")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, path string, opts serveOptions) error {
	ctx := cmd.Context()
	reg := c.enableMetrics()

	b, err := c.loadModel(ctx, path)
	if err != nil {
		return err
	}
	s, err := b.Graph.NewState()
	if err != nil {
		return err
	}
	if opts.run {
		if _, err := b.Run(ctx, s); err != nil {
			return err
		}
	}

	ch := c.newCache(opts.noCache)
	defer ch.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           c.newInspectHandler(b, s, reg, ch),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	printInfo(cmd.ErrOrStderr(), "serving %s on %s", b.Model.Name, StyleLink.Render("http://"+opts.addr))
	return listenAndServe(ctx, srv)
}

// listenAndServe runs srv until ctx ends, then shuts it down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// newInspectHandler routes read-only views of one state of b. The state is
// never mutated after startup, so handlers may read it concurrently.
func (c *CLI) newInspectHandler(b *model.Built, s *graph.State, reg *prometheus.Registry, ch cache.Cache) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/graph.dot", func(w http.ResponseWriter, r *http.Request) {
		opts := render.Options{State: s, Detailed: r.URL.Query().Has("detailed")}
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write([]byte(render.ToDOT(b.Graph, opts)))
	})
	r.Get("/graph.svg", func(w http.ResponseWriter, r *http.Request) {
		opts := render.Options{State: s, Detailed: r.URL.Query().Has("detailed")}
		svg, err := c.renderSVG(r.Context(), ch, render.ToDOT(b.Graph, opts))
		if err != nil {
			loggerFromContext(r.Context()).Error("render svg", "err", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	})

	r.Get("/nodes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, render.ToDocument(b.Graph, s))
	})
	r.Get("/nodes/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		for _, n := range b.Snapshot(s) {
			if n.Name == name {
				writeJSON(w, r, n)
				return
			}
		}
		http.Error(w, fmt.Sprintf("unknown node %q", name), http.StatusNotFound)
	})

	return r
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		loggerFromContext(r.Context()).Error("encode response", "path", r.URL.Path, "err", err)
	}
}

// requestLogger logs each request at debug level with the logger attached
// to the server's base context.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		loggerFromContext(r.Context()).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
		)
	})
}
