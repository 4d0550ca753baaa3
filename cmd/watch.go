package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"tidbyt.dev/transportnsw"
	"tidbyt.dev/transportnsw/model"
	"tidbyt.dev/transportnsw/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch <stop_id>",
	Short: "Repeatedly shows the next departure from a stop",
	Args:  cobra.ExactArgs(1),
	RunE:  watch,
}

var (
	watchRoute       string
	watchDestination string
	watchInterval    time.Duration
	watchFormat      string
	watchRecord      bool
	metricsAddr      string
)

func init() {
	watchCmd.Flags().StringVarP(&watchRoute, "route", "r", "", "Restrict to a specific route")
	watchCmd.Flags().StringVarP(&watchDestination, "destination", "d", "", "Restrict to a specific destination (wins over --route)")
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 30*time.Second, "How often to look up departures")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "text", "Output format: text, csv or json")
	watchCmd.Flags().BoolVarP(&watchRecord, "record", "", false, "Record every result in the history")
	watchCmd.Flags().StringVarP(&metricsAddr, "metrics-addr", "", "", "Serve Prometheus metrics on this address, e.g. :9100")
}

// Registers the client's metrics on a fresh registry and returns a
// handler exposing them.
func metricsHandler(client *transportnsw.Client) (http.Handler, error) {
	reg := prometheus.NewRegistry()

	metrics, err := transportnsw.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	client.Metrics = metrics

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

// Looks up one departure, writes it out and records it if s is
// non-nil.
func watchOnce(ctx context.Context, client *transportnsw.Client, q transportnsw.Query, w io.Writer, s storage.Storage) error {
	d := client.Lookup(ctx, q)

	if s != nil {
		err := s.WriteObservation(observation(q.StopID, d, time.Now()))
		if err != nil {
			return fmt.Errorf("recording: %w", err)
		}
	}

	return writeDepartures(w, watchFormat, []model.Departure{d})
}

func watch(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	client := NewClient(cfg)

	if metricsAddr != "" {
		handler, err := metricsHandler(client)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			log.Printf("serving /metrics on %s", metricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	var s storage.Storage
	if watchRecord {
		s, err = OpenStorage(cfg)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer s.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := transportnsw.Query{
		StopID:      args[0],
		Route:       watchRoute,
		Destination: watchDestination,
		APIKey:      cfg.APIKey,
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		if err := watchOnce(ctx, client, q, os.Stdout, s); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
