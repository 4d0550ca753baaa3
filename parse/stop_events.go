package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Timestamp layout used by the departure monitor. Always UTC.
const TimeLayout = "2006-01-02T15:04:05Z"

var ErrMissingStopEvents = errors.New("no stopEvents in response")

// One departure from the departure monitor's stopEvents list.
//
// Timestamps are kept as delivered and parsed with Times, so a
// malformed event only fails the lookups that actually examine it.
type StopEvent struct {
	RouteNumber     string
	DestinationName string
	ModeCode        int

	// Set if the event carried an isRealtimeControlled key, whatever
	// its value.
	RealtimeControlled bool

	DepartureTimePlanned   string
	DepartureTimeEstimated string
}

type departureMonitorJSON struct {
	StopEvents json.RawMessage `json:"stopEvents"`
}

type stopEventJSON struct {
	IsRealtimeControlled   json.RawMessage `json:"isRealtimeControlled"`
	DepartureTimePlanned   string          `json:"departureTimePlanned"`
	DepartureTimeEstimated string          `json:"departureTimeEstimated"`
	Transportation         struct {
		Number  string `json:"number"`
		Product struct {
			Class int `json:"class"`
		} `json:"product"`
		Destination struct {
			Name string `json:"name"`
		} `json:"destination"`
	} `json:"transportation"`
}

// Parses a departure monitor response into StopEvents, preserving
// the order in which they were delivered.
func ParseStopEvents(buf []byte) ([]*StopEvent, error) {
	monitor := departureMonitorJSON{}
	if err := json.Unmarshal(buf, &monitor); err != nil {
		return nil, errors.Wrap(err, "unmarshaling departure monitor json")
	}

	if len(monitor.StopEvents) == 0 || bytes.Equal(monitor.StopEvents, []byte("null")) {
		return nil, ErrMissingStopEvents
	}

	raw := []*stopEventJSON{}
	if err := json.Unmarshal(monitor.StopEvents, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshaling stopEvents")
	}

	events := make([]*StopEvent, 0, len(raw))
	for i, r := range raw {
		if r == nil {
			return nil, fmt.Errorf("null stop event (index %d)", i)
		}

		events = append(events, &StopEvent{
			RouteNumber:            r.Transportation.Number,
			DestinationName:        r.Transportation.Destination.Name,
			ModeCode:               r.Transportation.Product.Class,
			RealtimeControlled:     len(r.IsRealtimeControlled) > 0,
			DepartureTimePlanned:   r.DepartureTimePlanned,
			DepartureTimeEstimated: r.DepartureTimeEstimated,
		})
	}

	return events, nil
}

// Parses the event's planned and estimated departure times. The
// estimate is zero unless the event is realtime controlled and has
// one.
func (ev *StopEvent) Times() (planned time.Time, estimated time.Time, err error) {
	planned, err = time.Parse(TimeLayout, ev.DepartureTimePlanned)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "parsing departureTimePlanned")
	}

	if ev.RealtimeControlled && ev.DepartureTimeEstimated != "" {
		estimated, err = time.Parse(TimeLayout, ev.DepartureTimeEstimated)
		if err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, "parsing departureTimeEstimated")
		}
	}

	return planned, estimated, nil
}
