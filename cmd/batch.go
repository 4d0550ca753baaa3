package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/transportnsw"
	"tidbyt.dev/transportnsw/model"
	"tidbyt.dev/transportnsw/parse"
)

var batchCmd = &cobra.Command{
	Use:   "batch <queries.csv>",
	Short: "Looks up the next departure for every row of a CSV file",
	Long:  "Reads a CSV file with columns stop_id, route and destination, and looks up the next departure for each row",
	Args:  cobra.ExactArgs(1),
	RunE:  batch,
}

var (
	batchFormat string
	batchRecord bool
)

func init() {
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "csv", "Output format: text, csv or json")
	batchCmd.Flags().BoolVarP(&batchRecord, "record", "", false, "Record the results in the history")
}

func batch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening queries: %w", err)
	}
	defer f.Close()

	queries, err := parse.ParseQueries(f)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	client := NewClient(cfg)

	results := make([]model.Departure, 0, len(queries))
	for _, q := range queries {
		results = append(results, client.Lookup(context.Background(), transportnsw.Query{
			StopID:      q.StopID,
			Route:       q.Route,
			Destination: q.Destination,
			APIKey:      cfg.APIKey,
		}))
	}

	if batchRecord {
		s, err := OpenStorage(cfg)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer s.Close()

		now := time.Now()
		for i, d := range results {
			err = s.WriteObservation(observation(queries[i].StopID, d, now))
			if err != nil {
				return fmt.Errorf("recording: %w", err)
			}
		}
	}

	return writeDepartures(os.Stdout, batchFormat, results)
}
