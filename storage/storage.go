package storage

import (
	"time"
)

// Keeps a history of looked up departures. Only used by tooling; the
// client itself never stores anything.
type Storage interface {
	// Appends an observation.
	WriteObservation(o *Observation) error

	// Retrieves observations matching the filter, most recent
	// first.
	ListObservations(filter ListObservationsFilter) ([]*Observation, error)

	Close() error
}

type ListObservationsFilter struct {
	// If set, only include observations for this stop.
	StopID string

	// If >0, at most this many observations are returned.
	Limit int
}

// The outcome of one departure lookup. If Available is false, only
// StopID and ObservedAt are meaningful.
type Observation struct {
	StopID      string
	Route       string
	Destination string
	Mode        string
	Due         int
	Delay       int
	RealTime    bool
	Available   bool
	ObservedAt  time.Time
}
