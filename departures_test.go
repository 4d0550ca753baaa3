package transportnsw

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/transportnsw/model"
	"tidbyt.dev/transportnsw/parse"
)

// Internal selection and time arithmetic. These are exercised end to
// end in client_test.go, but the edge cases are easier to pin down
// here.

func at(h, m, s int) time.Time {
	return time.Date(2018, 6, 1, h, m, s, 0, time.UTC)
}

func TestRoundMinutes(t *testing.T) {
	for _, tc := range []struct {
		d        time.Duration
		expected int
	}{
		{0, 0},
		{29 * time.Second, 0},
		{30 * time.Second, 0}, // half to even
		{31 * time.Second, 1},
		{59*time.Second + 900*time.Millisecond, 1},
		{90 * time.Second, 2}, // half to even
		{150 * time.Second, 2},
		{15 * time.Minute, 15},
		{15*time.Minute + 29*time.Second, 15},
		{15*time.Minute + 30*time.Second, 16},
		{24 * time.Hour, 0},
		{25*time.Hour + 3*time.Minute, 63},
	} {
		assert.Equal(t, tc.expected, roundMinutes(tc.d), "%s", tc.d)
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(parse.TimeLayout)
}

func scheduled(route string, planned time.Time) *parse.StopEvent {
	return &parse.StopEvent{
		RouteNumber:          route,
		DepartureTimePlanned: stamp(planned),
	}
}

func TestNormalizeScheduled(t *testing.T) {
	ev, ok, err := normalize(&parse.StopEvent{
		RouteNumber:          "T1",
		DestinationName:      "Emu Plains",
		ModeCode:             1,
		DepartureTimePlanned: stamp(at(10, 5, 0)),
	}, at(9, 50, 0))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, model.Event{
		Route:       "T1",
		Destination: "Emu Plains",
		Mode:        model.ModeTrain,
		Planned:     at(10, 5, 0),
		Effective:   at(10, 5, 0),
		RealTime:    false,
		Due:         15,
		Delay:       0,
	}, ev)
}

func TestNormalizeRealtime(t *testing.T) {
	for _, tc := range []struct {
		name      string
		planned   time.Time
		estimated time.Time
		now       time.Time
		due       int
		delay     int
	}{
		{"late", at(10, 0, 0), at(10, 7, 0), at(9, 50, 0), 17, 7},
		{"early", at(10, 0, 0), at(9, 58, 0), at(9, 50, 0), 8, -2},
		{"on time", at(10, 0, 0), at(10, 0, 0), at(9, 59, 30), 0, 0},
		{"late past planned", at(10, 0, 0), at(10, 7, 0), at(10, 3, 0), 4, 7},
		{"early by seconds", at(10, 0, 0), at(9, 59, 0), at(9, 50, 0), 9, -1},
		{"late by more than a day", at(10, 0, 0), at(10, 0, 0).Add(25 * time.Hour), at(9, 50, 0), 70, 60},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok, err := normalize(&parse.StopEvent{
				RouteNumber:            "333",
				ModeCode:               5,
				RealtimeControlled:     true,
				DepartureTimePlanned:   stamp(tc.planned),
				DepartureTimeEstimated: stamp(tc.estimated),
			}, tc.now)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, ev.RealTime)
			assert.Equal(t, tc.estimated, ev.Effective)
			assert.Equal(t, tc.planned, ev.Planned)
			assert.Equal(t, tc.due, ev.Due)
			assert.Equal(t, tc.delay, ev.Delay)
			assert.Equal(t, model.ModeBus, ev.Mode)
		})
	}
}

func TestNormalizeRealtimeWithoutEstimate(t *testing.T) {
	ev, ok, err := normalize(&parse.StopEvent{
		RealtimeControlled:   true,
		DepartureTimePlanned: stamp(at(10, 0, 0)),
	}, at(9, 50, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ev.RealTime)
	assert.Equal(t, at(10, 0, 0), ev.Effective)
	assert.Equal(t, 10, ev.Due)
	assert.Equal(t, 0, ev.Delay)
}

func TestNormalizeDeparted(t *testing.T) {
	now := at(10, 0, 0)

	// Scheduled in the past, at now, and a second after now.
	_, ok, err := normalize(scheduled("T1", at(9, 59, 0)), now)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = normalize(scheduled("T1", now), now)
	require.NoError(t, err)
	assert.False(t, ok)
	ev, ok, err := normalize(scheduled("T1", at(10, 0, 1)), now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, ev.Due)

	// Realtime estimate decides, not the planned time.
	_, ok, err = normalize(&parse.StopEvent{
		RealtimeControlled:     true,
		DepartureTimePlanned:   stamp(at(10, 5, 0)),
		DepartureTimeEstimated: stamp(at(9, 59, 59)),
	}, now)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = normalize(&parse.StopEvent{
		RealtimeControlled:     true,
		DepartureTimePlanned:   stamp(at(9, 55, 0)),
		DepartureTimeEstimated: stamp(at(10, 1, 0)),
	}, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNormalizeUnknownMode(t *testing.T) {
	ev, ok, err := normalize(&parse.StopEvent{
		ModeCode:             3,
		DepartureTimePlanned: stamp(at(11, 0, 0)),
	}, at(10, 0, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ModeUnknown, ev.Mode)
	assert.Equal(t, "unknown", ev.Mode.String())
}

func TestNormalizeBadTimestamp(t *testing.T) {
	_, _, err := normalize(&parse.StopEvent{DepartureTimePlanned: "yesterday"}, at(10, 0, 0))
	assert.Error(t, err)

	_, _, err = normalize(&parse.StopEvent{
		RealtimeControlled:     true,
		DepartureTimePlanned:   stamp(at(10, 5, 0)),
		DepartureTimeEstimated: "garbage",
	}, at(10, 0, 0))
	assert.Error(t, err)
}

// Stop events for routes A, B and C departing every other minute,
// starting at 10:00.
func abcEvents() []*parse.StopEvent {
	events := []*parse.StopEvent{}
	for i, route := range []string{"A", "B", "C", "A", "B", "C", "A", "B", "C"} {
		ev := scheduled(route, at(10, 2*i, 0))
		ev.DestinationName = "To " + route
		ev.ModeCode = 5
		events = append(events, ev)
	}
	return events
}

func routesOf(events []model.Event) []string {
	routes := []string{}
	for _, ev := range events {
		routes = append(routes, fmt.Sprintf("%s@%s", ev.Route, ev.Planned.Format("15:04")))
	}
	return routes
}

func selectRoutes(t *testing.T, events []*parse.StopEvent, filter Filter, maxResults int, now time.Time) []string {
	selected, err := selectEvents(events, filter, maxResults, now)
	require.NoError(t, err)
	return routesOf(selected)
}

func TestSelectByRoute(t *testing.T) {
	now := at(9, 0, 0)

	assert.Equal(t, []string{"B@10:02", "B@10:08", "B@10:14"}, selectRoutes(t, abcEvents(), FilterRoute("B"), 3, now))
	assert.Equal(t, []string{"B@10:02", "B@10:08"}, selectRoutes(t, abcEvents(), FilterRoute("B"), 2, now))
	assert.Equal(t, []string{"B@10:02", "B@10:08", "B@10:14"}, selectRoutes(t, abcEvents(), FilterRoute("B"), 10, now))

	// Exact match only
	assert.Empty(t, selectRoutes(t, abcEvents(), FilterRoute("b"), 3, now))
	assert.Empty(t, selectRoutes(t, abcEvents(), FilterRoute(" B"), 3, now))
	assert.Empty(t, selectRoutes(t, abcEvents(), FilterRoute("D"), 3, now))
}

func TestSelectByRouteSkipsDeparted(t *testing.T) {
	// First B (10:02) has left. Scan continues past it without
	// counting it.
	assert.Equal(t, []string{"B@10:08", "B@10:14"}, selectRoutes(t, abcEvents(), FilterRoute("B"), 2, at(10, 3, 0)))

	assert.Empty(t, selectRoutes(t, abcEvents(), FilterRoute("B"), 2, at(11, 0, 0)))
}

func TestSelectByDestination(t *testing.T) {
	assert.Equal(t, []string{"C@10:04"}, selectRoutes(t, abcEvents(), FilterDestination("To C"), 1, at(9, 0, 0)))
	assert.Equal(t, []string{"C@10:10", "C@10:16"}, selectRoutes(t, abcEvents(), FilterDestination("To C"), 3, at(10, 5, 0)))
	assert.Empty(t, selectRoutes(t, abcEvents(), FilterDestination("to c"), 3, at(9, 0, 0)))
}

func TestSelectAnyIsPositional(t *testing.T) {
	now := at(10, 1, 0)

	// Only the first 3 events are considered. The first has left,
	// so only 2 are returned even though more would qualify.
	assert.Equal(t, []string{"B@10:02", "C@10:04"}, selectRoutes(t, abcEvents()[:5], FilterAny(), 3, now))

	assert.Empty(t, selectRoutes(t, abcEvents(), FilterAny(), 1, now))

	assert.Equal(t, []string{"A@10:00"}, selectRoutes(t, abcEvents(), FilterAny(), 1, at(9, 0, 0)))

	// Fewer events than maxResults
	assert.Equal(t, []string{"A@10:00", "B@10:02"}, selectRoutes(t, abcEvents()[:2], FilterAny(), 3, at(9, 0, 0)))

	assert.Empty(t, selectRoutes(t, []*parse.StopEvent{}, FilterAny(), 3, now))
}

func TestSelectNonPositiveMaxResults(t *testing.T) {
	assert.Equal(t, []string{"C@10:04"}, selectRoutes(t, abcEvents(), FilterRoute("C"), 0, at(9, 0, 0)))
	assert.Equal(t, []string{"A@10:00"}, selectRoutes(t, abcEvents(), FilterAny(), -1, at(9, 0, 0)))
}

func TestSelectDeterministic(t *testing.T) {
	now := at(10, 3, 0)
	first := selectRoutes(t, abcEvents(), FilterRoute("A"), 3, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, selectRoutes(t, abcEvents(), FilterRoute("A"), 3, now))
	}
}

func TestSelectNeverReturnsDeparted(t *testing.T) {
	events := abcEvents()
	for minute := 0; minute < 20; minute++ {
		now := at(10, minute, 30)
		for _, filter := range []Filter{FilterAny(), FilterRoute("A"), FilterDestination("To B")} {
			selected, err := selectEvents(events, filter, 9, now)
			require.NoError(t, err)
			for _, ev := range selected {
				assert.True(t, ev.Effective.After(now))
				assert.GreaterOrEqual(t, ev.Due, 0)
			}
		}
	}
}

func TestSelectIgnoresUnexaminedMalformedEvents(t *testing.T) {
	events := abcEvents()
	events[1].DepartureTimePlanned = "garbage"

	// Other routes never look at the B event.
	assert.Equal(t, []string{"A@10:00", "A@10:06"}, selectRoutes(t, events, FilterRoute("A"), 2, at(9, 0, 0)))
	assert.Equal(t, []string{"C@10:04"}, selectRoutes(t, events, FilterDestination("To C"), 1, at(9, 0, 0)))

	// Nor does Any when it lies outside the positional window.
	assert.Equal(t, []string{"A@10:00"}, selectRoutes(t, events, FilterAny(), 1, at(9, 0, 0)))

	// Examined malformed events fail the selection.
	_, err := selectEvents(events, FilterRoute("B"), 1, at(9, 0, 0))
	assert.Error(t, err)
	_, err = selectEvents(events, FilterAny(), 2, at(9, 0, 0))
	assert.Error(t, err)
}

func TestReduce(t *testing.T) {
	assert.Equal(t, model.Departure{}, reduce(nil, "200060"))
	assert.Equal(t, model.Departure{}, reduce([]model.Event{}, "200060"))

	d := reduce([]model.Event{
		{Route: "T1", Destination: "Emu Plains", Mode: model.ModeTrain, Due: 3, Delay: 1, RealTime: true},
		{Route: "T1", Destination: "Richmond", Mode: model.ModeTrain, Due: 9},
	}, "200060")
	assert.Equal(t, model.Departure{
		StopID:      "200060",
		Route:       "T1",
		Due:         3,
		Delay:       1,
		RealTime:    true,
		Destination: "Emu Plains",
		Mode:        model.ModeTrain,
		Available:   true,
	}, d)
}

func TestQueryFilter(t *testing.T) {
	assert.Equal(t, FilterAny(), Query{StopID: "1"}.Filter())
	assert.Equal(t, FilterRoute("T1"), Query{Route: "T1"}.Filter())
	assert.Equal(t, FilterDestination("Central"), Query{Destination: "Central"}.Filter())
	assert.Equal(t, FilterDestination("Central"), Query{Route: "T1", Destination: "Central"}.Filter())

	assert.Equal(t, "any", FilterAny().String())
	assert.Equal(t, "route=T1", FilterRoute("T1").String())
	assert.Equal(t, "destination=Central", FilterDestination("Central").String())
}
