package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/reactor"
	"github.com/AnatoleLucet/reactor/internal/scenario"
)

// maxScenarioSize bounds the body of a run request.
const maxScenarioSize = 1 << 20

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	MaxUpdates int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenario runs over HTTP",
		Long: `Serve scenario runs over HTTP.

Endpoints:
  POST /run      replay the YAML scenario in the body (?format=json for JSON)
  GET  /metrics  prometheus metrics of every run
  GET  /health   liveness probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "address to listen on")
	cmd.Flags().IntVar(&opts.MaxUpdates, "max-updates", 0, "circular update threshold (default 100)")

	return cmd
}

func serve(ctx context.Context, opts *ServeOptions) error {
	reg := prometheus.NewRegistry()
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewServer(reg, opts.MaxUpdates),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// NewServer returns the HTTP handler of the serve command.
// Every run reports its metrics to reg.
func NewServer(reg *prometheus.Registry, maxUpdates int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Post("/run", func(w http.ResponseWriter, r *http.Request) {
		s, err := scenario.Load(io.LimitReader(r.Body, maxScenarioSize))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		opts := []reactor.Option{
			reactor.WithRegisterer(reg),
			reactor.WithContext(r.Context()),
			reactor.WithLogger(slog.Default().With("request_id", middleware.GetReqID(r.Context()))),
		}
		if maxUpdates > 0 {
			opts = append(opts, reactor.WithMaxUpdateCount(maxUpdates))
		}

		result, err := scenario.Run(s, opts...)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		if r.URL.Query().Get("format") == "json" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(result)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, result.String())
	})

	return r
}
