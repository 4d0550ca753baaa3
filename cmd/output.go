package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/transportnsw/model"
)

type departureCSV struct {
	StopID      string `csv:"stop_id"`
	Route       string `csv:"route"`
	Due         string `csv:"due"`
	Delay       string `csv:"delay"`
	RealTime    string `csv:"real_time"`
	Destination string `csv:"destination"`
	Mode        string `csv:"mode"`
}

func writeDepartures(w io.Writer, format string, departures []model.Departure) error {
	switch format {
	case "text":
		for _, d := range departures {
			if !d.Available {
				fmt.Fprintf(w, "%s\n", model.NotAvailable)
				continue
			}
			realTime := ""
			if d.RealTime {
				realTime = " (live)"
			}
			fmt.Fprintf(w, "%s %s %s in %d min, delay %d min%s\n", d.Mode, d.Route, d.Destination, d.Due, d.Delay, realTime)
		}
		return nil

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(departures)

	case "csv":
		rows := make([]*departureCSV, 0, len(departures))
		for _, d := range departures {
			v := d.Values()
			rows = append(rows, &departureCSV{
				StopID:      v[0],
				Route:       v[1],
				Due:         v[2],
				Delay:       v[3],
				RealTime:    v[4],
				Destination: v[5],
				Mode:        v[6],
			})
		}
		return gocsv.Marshal(rows, w)
	}

	return fmt.Errorf("unknown format '%s'", format)
}
