package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/transportnsw"
	"tidbyt.dev/transportnsw/model"
)

var departuresCmd = &cobra.Command{
	Use:   "departures <stop_id>",
	Short: "Shows the next departure from a stop",
	Args:  cobra.ExactArgs(1),
	RunE:  departures,
}

var (
	route       string
	destination string
	limit       int
	all         bool
	format      string
	record      bool
)

func init() {
	departuresCmd.Flags().StringVarP(&route, "route", "r", "", "Restrict to a specific route")
	departuresCmd.Flags().StringVarP(&destination, "destination", "d", "", "Restrict to a specific destination (wins over --route)")
	departuresCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of departures to select (overrides config)")
	departuresCmd.Flags().BoolVarP(&all, "all", "a", false, "Show every selected departure, not just the next")
	departuresCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, csv or json")
	departuresCmd.Flags().BoolVarP(&record, "record", "", false, "Record the result in the history")
}

func departures(cmd *cobra.Command, args []string) error {
	stopID := args[0]

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	client := NewClient(cfg)
	if limit > 0 {
		client.MaxResults = limit
	}

	q := transportnsw.Query{
		StopID:      stopID,
		Route:       route,
		Destination: destination,
		APIKey:      cfg.APIKey,
	}

	var result []model.Departure
	if all {
		events, err := client.Departures(context.Background(), q)
		if err != nil {
			client.Logger.Printf("stop %s: %v", stopID, err)
		}
		for _, ev := range events {
			result = append(result, model.NewDeparture(stopID, ev))
		}
		if len(result) == 0 {
			result = append(result, model.Departure{})
		}
	} else {
		result = append(result, client.Lookup(context.Background(), q))
	}

	if record {
		s, err := OpenStorage(cfg)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer s.Close()

		err = s.WriteObservation(observation(stopID, result[0], time.Now()))
		if err != nil {
			return fmt.Errorf("recording: %w", err)
		}
	}

	return writeDepartures(os.Stdout, format, result)
}
