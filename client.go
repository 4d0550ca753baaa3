package transportnsw

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"tidbyt.dev/transportnsw/dlog"
	"tidbyt.dev/transportnsw/downloader"
	"tidbyt.dev/transportnsw/model"
	"tidbyt.dev/transportnsw/parse"
)

const (
	DefaultEndpoint   = "https://api.transport.nsw.gov.au/v1/tp/departure_mon"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxSize    = 4 << 20 // 4 MB
	DefaultMaxResults = 1
)

var (
	ErrInvalidQuery        = errors.New("invalid query")
	ErrNetworkFailure      = errors.New("network failure")
	ErrUpstreamRejected    = errors.New("request rejected by departure monitor")
	ErrMalformedResponse   = errors.New("malformed departure monitor response")
	ErrNoMatchingDeparture = errors.New("no matching departure")
)

// A single departure lookup.
//
// Destination takes precedence over Route: if both are set, events
// are filtered by destination only.
type Query struct {
	StopID      string
	Route       string
	Destination string
	APIKey      string
}

// The filter implied by the query's Route and Destination.
func (q Query) Filter() Filter {
	if q.Destination != "" {
		return FilterDestination(q.Destination)
	}
	if q.Route != "" {
		return FilterRoute(q.Route)
	}
	return FilterAny()
}

// Client queries the Transport NSW departure monitor.
//
// NewClient sets every field to its default. A zero Client works too:
// unset fields fall back to the same defaults when used.
//
// Fields must not be modified once the Client is in use. Everything
// specific to a lookup is passed in a Query, so a single Client can
// serve concurrent lookups.
type Client struct {
	Endpoint   string
	Timeout    time.Duration
	MaxSize    int
	MaxResults int
	Downloader downloader.Downloader
	Logger     *dlog.Logger

	// Optional.
	Metrics *Metrics

	// Returns the current time. Defaults to time.Now.
	TimeNow func() time.Time
}

func NewClient() *Client {
	return &Client{
		Endpoint:   DefaultEndpoint,
		Timeout:    DefaultTimeout,
		MaxSize:    DefaultMaxSize,
		MaxResults: DefaultMaxResults,
		Downloader: downloader.NewHTTPDownloader(),
		Logger:     defaultLogger(),
		TimeNow:    time.Now,
	}
}

func defaultLogger() *dlog.Logger {
	return dlog.NewLogger(
		dlog.LoggerSetOutput(os.Stderr),
		dlog.LoggerSetPrefix("transportnsw: "),
		dlog.LoggerSetFlags(log.LstdFlags|log.Lmicroseconds),
	)
}

// Gets the next departure from a stop. Route and destination may be
// left blank to not filter on them.
//
// Never fails: if no departure can be determined, for whatever
// reason, the returned Departure is not Available.
func (c *Client) GetDepartures(ctx context.Context, stopID, route, destination, apiKey string) model.Departure {
	return c.Lookup(ctx, Query{
		StopID:      stopID,
		Route:       route,
		Destination: destination,
		APIKey:      apiKey,
	})
}

// Like GetDepartures, but takes a Query.
func (c *Client) Lookup(ctx context.Context, q Query) model.Departure {
	events, err := c.Departures(ctx, q)
	if err != nil {
		c.logger().Printf("stop %s (%s): %v", q.StopID, q.Filter(), err)
		return model.Departure{}
	}
	return reduce(events, q.StopID)
}

// Gets up to MaxResults upcoming events for a query, soonest
// first.
//
// Errors match one of ErrInvalidQuery, ErrNetworkFailure,
// ErrUpstreamRejected, ErrMalformedResponse or
// ErrNoMatchingDeparture.
func (c *Client) Departures(ctx context.Context, q Query) ([]model.Event, error) {
	events, err := c.departures(ctx, q)
	if c.Metrics != nil {
		c.Metrics.observeOutcome(err)
	}
	return events, err
}

func (c *Client) departures(ctx context.Context, q Query) ([]model.Event, error) {
	if q.StopID == "" {
		return nil, fmt.Errorf("%w: missing stop id", ErrInvalidQuery)
	}
	if q.APIKey == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrInvalidQuery)
	}

	stopEvents, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	c.logger().Debugf("stop %s: %d stop events", q.StopID, len(stopEvents))

	events, err := selectEvents(stopEvents, q.Filter(), c.MaxResults, c.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: stop %s, %s", ErrNoMatchingDeparture, q.StopID, q.Filter())
	}

	return events, nil
}

// Retrieves and parses the stop events for the query's stop.
func (c *Client) fetch(ctx context.Context, q Query) ([]*parse.StopEvent, error) {
	reqURL, err := c.requestURL(q.StopID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	headers := map[string]string{
		"Accept":        "application/json",
		"Authorization": "apikey " + q.APIKey,
	}

	start := time.Now()
	body, err := c.downloader().Get(ctx, reqURL, headers, downloader.GetOptions{
		Timeout: c.timeout(),
		MaxSize: c.maxSize(),
	})
	if c.Metrics != nil {
		c.Metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		var statusErr *downloader.StatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamRejected, err)
		}
		if errors.Is(err, downloader.ErrResponseTooLarge) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	stopEvents, err := parse.ParseStopEvents(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return stopEvents, nil
}

func (c *Client) requestURL(stopID string) (string, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}

	params := u.Query()
	params.Set("outputFormat", "rapidJSON")
	params.Set("coordOutputFormat", "EPSG:4326")
	params.Set("mode", "direct")
	params.Set("type_dm", "stop")
	params.Set("name_dm", stopID)
	params.Set("departureMonitorMacro", "true")
	params.Set("TfNSWDM", "true")
	params.Set("version", "10.2.1.42")
	u.RawQuery = params.Encode()

	return u.String(), nil
}

func (c *Client) now() time.Time {
	if c.TimeNow == nil {
		return time.Now().UTC()
	}
	return c.TimeNow().UTC()
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) maxSize() int {
	if c.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return c.MaxSize
}

func (c *Client) downloader() downloader.Downloader {
	if c.Downloader == nil {
		return downloader.NewHTTPDownloader()
	}
	return c.Downloader
}

// Shared fallback for Clients built without a Logger.
var fallbackLogger = defaultLogger()

func (c *Client) logger() *dlog.Logger {
	if c.Logger == nil {
		return fallbackLogger
	}
	return c.Logger
}
