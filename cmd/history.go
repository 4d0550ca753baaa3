package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/transportnsw/model"
	"tidbyt.dev/transportnsw/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists recorded departures",
	Args:  cobra.NoArgs,
	RunE:  history,
}

var (
	historyStop  string
	historyLimit int
)

func init() {
	historyCmd.Flags().StringVarP(&historyStop, "stop", "s", "", "Restrict to a specific stop")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Limit the number of observations listed")
}

func history(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	s, err := OpenStorage(cfg)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer s.Close()

	observations, err := s.ListObservations(storage.ListObservationsFilter{
		StopID: historyStop,
		Limit:  historyLimit,
	})
	if err != nil {
		return err
	}

	for _, o := range observations {
		if !o.Available {
			fmt.Printf("%s %s %s\n", o.ObservedAt.Local().Format(time.DateTime), o.StopID, model.NotAvailable)
			continue
		}
		fmt.Printf(
			"%s %s %s %s to %s in %d min, delay %d min\n",
			o.ObservedAt.Local().Format(time.DateTime),
			o.StopID,
			o.Mode,
			o.Route,
			o.Destination,
			o.Due,
			o.Delay,
		)
	}

	return nil
}
