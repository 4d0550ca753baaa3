package transportnsw

import (
	"fmt"
	"math"
	"time"

	"tidbyt.dev/transportnsw/model"
	"tidbyt.dev/transportnsw/parse"
)

// Selects which stop events a query is interested in.
type Filter struct {
	kind  filterKind
	value string
}

type filterKind int

const (
	filterAny filterKind = iota
	filterRoute
	filterDestination
)

// Matches the next departures of any route.
//
// Unlike the other filters, this one only looks at the first
// MaxResults events delivered by the departure monitor. If some of
// those have already left, fewer than MaxResults events are
// returned even if later events would have qualified.
func FilterAny() Filter {
	return Filter{kind: filterAny}
}

// Matches events with exactly this route number.
func FilterRoute(route string) Filter {
	return Filter{kind: filterRoute, value: route}
}

// Matches events with exactly this destination name.
func FilterDestination(destination string) Filter {
	return Filter{kind: filterDestination, value: destination}
}

func (f Filter) match(ev *parse.StopEvent) bool {
	switch f.kind {
	case filterRoute:
		return ev.RouteNumber == f.value
	case filterDestination:
		return ev.DestinationName == f.value
	}
	return true
}

func (f Filter) String() string {
	switch f.kind {
	case filterRoute:
		return "route=" + f.value
	case filterDestination:
		return "destination=" + f.value
	}
	return "any"
}

// Converts a stop event into an Event relative to now. Returns false
// if the event's departure isn't strictly after now, and an error if
// its timestamps can't be parsed.
func normalize(ev *parse.StopEvent, now time.Time) (model.Event, bool, error) {
	planned, estimated, err := ev.Times()
	if err != nil {
		return model.Event{}, false, err
	}

	effective := planned
	if ev.RealtimeControlled && !estimated.IsZero() {
		effective = estimated
	}

	if !effective.After(now) {
		return model.Event{}, false, nil
	}

	delay := 0
	if !effective.Before(planned) {
		delay = roundMinutes(effective.Sub(planned))
	} else {
		delay = -roundMinutes(planned.Sub(effective))
	}

	return model.Event{
		Route:       ev.RouteNumber,
		Destination: ev.DestinationName,
		Mode:        model.ModeFromCode(ev.ModeCode),
		Planned:     planned,
		Effective:   effective,
		RealTime:    ev.RealtimeControlled,
		Due:         roundMinutes(effective.Sub(now)),
		Delay:       delay,
	}, true, nil
}

// Rounds a non-negative duration to whole minutes, half to even.
//
// Only the whole seconds within the last day are considered, so 25h3m
// rounds to 63.
func roundMinutes(d time.Duration) int {
	seconds := int64(d/time.Second) % (24 * 60 * 60)
	return int(math.RoundToEven(float64(seconds) / 60))
}

// Picks up to maxResults upcoming events matching filter, in the
// order they were delivered. Departed events never count towards
// maxResults. Only events the filter accepts are normalized, so a
// malformed event fails the selection only if it is examined.
func selectEvents(events []*parse.StopEvent, filter Filter, maxResults int, now time.Time) ([]model.Event, error) {
	if maxResults < 1 {
		maxResults = 1
	}

	candidates := events
	if filter.kind == filterAny && len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	selected := []model.Event{}
	for i, ev := range candidates {
		if !filter.match(ev) {
			continue
		}

		normalized, ok, err := normalize(ev, now)
		if err != nil {
			return nil, fmt.Errorf("stop event %d: %w", i, err)
		}
		if !ok {
			continue
		}

		selected = append(selected, normalized)
		if len(selected) >= maxResults {
			break
		}
	}

	return selected, nil
}

// Reduces the selected events to the Departure for a stop. The first
// event is the soonest, as the departure monitor delivers them in
// order of departure.
func reduce(events []model.Event, stopID string) model.Departure {
	if len(events) == 0 {
		return model.Departure{}
	}
	return model.NewDeparture(stopID, events[0])
}
