package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/transportnsw/model"
)

var outputNow = time.Date(2018, 6, 1, 9, 50, 0, 0, time.UTC)

var outputDepartures = []model.Departure{
	{
		StopID:      "200060",
		Route:       "T1",
		Due:         3,
		Delay:       1,
		RealTime:    true,
		Destination: "Emu Plains",
		Mode:        model.ModeTrain,
		Available:   true,
	},
	{},
}

func TestWriteDeparturesCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeDepartures(buf, "csv", outputDepartures))

	assert.Equal(t, `stop_id,route,due,delay,real_time,destination,mode
200060,T1,3,1,y,Emu Plains,Train
n/a,n/a,n/a,n/a,n/a,n/a,n/a
`, buf.String())
}

func TestWriteDeparturesText(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeDepartures(buf, "text", outputDepartures))

	assert.Equal(t, `Train T1 Emu Plains in 3 min, delay 1 min (live)
n/a
`, buf.String())
}

func TestWriteDeparturesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeDepartures(buf, "json", outputDepartures[1:]))

	assert.JSONEq(t, `[{
		"stop_id": "n/a",
		"route": "n/a",
		"due": "n/a",
		"delay": "n/a",
		"real_time": "n/a",
		"destination": "n/a",
		"mode": "n/a"
	}]`, buf.String())
}

func TestWriteDeparturesUnknownFormat(t *testing.T) {
	assert.Error(t, writeDepartures(&bytes.Buffer{}, "xml", outputDepartures))
}

func TestObservation(t *testing.T) {
	o := observation("200060", outputDepartures[0], outputNow)
	assert.True(t, o.Available)
	assert.Equal(t, "T1", o.Route)
	assert.Equal(t, "Train", o.Mode)
	assert.Equal(t, 3, o.Due)

	o = observation("200060", model.Departure{}, outputNow)
	assert.False(t, o.Available)
	assert.Equal(t, "200060", o.StopID)
	assert.Equal(t, "", o.Route)
	assert.Equal(t, outputNow, o.ObservedAt)
}
