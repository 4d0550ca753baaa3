package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Holds all external facing types and constants.

// Marker rendered for every field of a Departure that isn't
// available.
const NotAvailable = "n/a"

// Transport mode, as found in transportation.product.class of the
// departure monitor response.
type Mode int

const (
	ModeUnknown   Mode = 0
	ModeTrain     Mode = 1
	ModeLightrail Mode = 4
	ModeBus       Mode = 5
	ModeCoach     Mode = 7
	ModeFerry     Mode = 9
	ModeSchoolbus Mode = 11
)

var modeNames = map[Mode]string{
	ModeTrain:     "Train",
	ModeLightrail: "Lightrail",
	ModeBus:       "Bus",
	ModeCoach:     "Coach",
	ModeFerry:     "Ferry",
	ModeSchoolbus: "Schoolbus",
}

// Maps an upstream product class to a Mode. Unrecognized codes give
// ModeUnknown.
func ModeFromCode(code int) Mode {
	if _, found := modeNames[Mode(code)]; found {
		return Mode(code)
	}
	return ModeUnknown
}

func (m Mode) String() string {
	if name, found := modeNames[m]; found {
		return name
	}
	return "unknown"
}

// A departure that hasn't happened yet, with due time and delay
// computed relative to some point in time.
type Event struct {
	Route       string
	Destination string
	Mode        Mode
	Planned     time.Time
	Effective   time.Time
	RealTime    bool

	// Minutes until Effective. Never negative.
	Due int

	// Minutes Effective deviates from Planned. Negative when
	// leaving early.
	Delay int
}

// The next departure from a stop.
//
// The zero value means no departure could be found. Check Available
// before using the other fields.
type Departure struct {
	StopID      string
	Route       string
	Due         int
	Delay       int
	RealTime    bool
	Destination string
	Mode        Mode
	Available   bool
}

// Builds the Departure for an event at the given stop.
func NewDeparture(stopID string, ev Event) Departure {
	return Departure{
		StopID:      stopID,
		Route:       ev.Route,
		Due:         ev.Due,
		Delay:       ev.Delay,
		RealTime:    ev.RealTime,
		Destination: ev.Destination,
		Mode:        ev.Mode,
		Available:   true,
	}
}

// Field values as strings, in the order of Fields(). All are
// NotAvailable if d isn't available.
func (d Departure) Values() []string {
	if !d.Available {
		return []string{NotAvailable, NotAvailable, NotAvailable, NotAvailable, NotAvailable, NotAvailable, NotAvailable}
	}

	realTime := "n"
	if d.RealTime {
		realTime = "y"
	}

	return []string{
		d.StopID,
		d.Route,
		strconv.Itoa(d.Due),
		strconv.Itoa(d.Delay),
		realTime,
		d.Destination,
		d.Mode.String(),
	}
}

// Names of the fields returned by Values().
func Fields() []string {
	return []string{"stop_id", "route", "due", "delay", "real_time", "destination", "mode"}
}

func (d Departure) MarshalJSON() ([]byte, error) {
	if !d.Available {
		out := map[string]string{}
		for _, f := range Fields() {
			out[f] = NotAvailable
		}
		return json.Marshal(out)
	}

	realTime := "n"
	if d.RealTime {
		realTime = "y"
	}

	return json.Marshal(struct {
		StopID      string `json:"stop_id"`
		Route       string `json:"route"`
		Due         int    `json:"due"`
		Delay       int    `json:"delay"`
		RealTime    string `json:"real_time"`
		Destination string `json:"destination"`
		Mode        string `json:"mode"`
	}{
		StopID:      d.StopID,
		Route:       d.Route,
		Due:         d.Due,
		Delay:       d.Delay,
		RealTime:    realTime,
		Destination: d.Destination,
		Mode:        d.Mode.String(),
	})
}

func (d Departure) String() string {
	if !d.Available {
		return NotAvailable
	}
	return d.Route + " to " + d.Destination + " in " + strconv.Itoa(d.Due) + " min (delay " + strconv.Itoa(d.Delay) + ")"
}
