package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/transportnsw"
	"tidbyt.dev/transportnsw/config"
	"tidbyt.dev/transportnsw/dlog"
	"tidbyt.dev/transportnsw/model"
	"tidbyt.dev/transportnsw/storage"
)

var rootCmd = &cobra.Command{
	Use:          "transportnsw",
	Short:        "Transport NSW departures tool",
	Long:         "Looks up upcoming departures using the Transport NSW departure monitor",
	SilenceUsage: true,
}

var (
	configPath string
	apiKey     string
	endpoint   string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&apiKey, "api-key", "k", "", "Transport NSW API key (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "", "", "Departure monitor URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log lookup failures to stderr")
	rootCmd.AddCommand(departuresCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, config.Default(
		transportnsw.DefaultEndpoint,
		transportnsw.DefaultTimeout,
		transportnsw.DefaultMaxResults,
	))
	if err != nil {
		return nil, err
	}

	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func NewClient(cfg *config.Config) *transportnsw.Client {
	c := transportnsw.NewClient()
	c.Endpoint = cfg.Endpoint
	c.Timeout = cfg.Timeout
	c.MaxResults = cfg.MaxResults

	if verbose {
		c.Logger = dlog.NewLogger(
			dlog.LoggerSetOutput(os.Stderr),
			dlog.LoggerSetPrefix("transportnsw: "),
			dlog.LoggerSetFlags(log.Ltime|log.Lmicroseconds),
		)
	} else {
		c.Logger = dlog.Discard()
	}

	return c
}

func OpenStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.History.Driver {
	case "memory":
		return storage.NewMemoryStorage(), nil

	case "postgres":
		s, err := storage.NewPSQLStorage(cfg.History.DSN, false)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	sqliteCfg := storage.SQLiteConfig{}
	if cfg.History.Directory != "" {
		sqliteCfg.OnDisk = true
		sqliteCfg.Directory = cfg.History.Directory
	}

	s, err := storage.NewSQLiteStorage(sqliteCfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func observation(stopID string, d model.Departure, now time.Time) *storage.Observation {
	o := &storage.Observation{
		StopID:     stopID,
		ObservedAt: now,
	}
	if d.Available {
		o.Route = d.Route
		o.Destination = d.Destination
		o.Mode = d.Mode.String()
		o.Due = d.Due
		o.Delay = d.Delay
		o.RealTime = d.RealTime
		o.Available = true
	}
	return o
}
