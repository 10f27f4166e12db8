// Package usgs fetches live seismic events from the USGS FDSN event web
// service and caches parsed results under a time-based TTL.
package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-region-analytics/internal/domain"
)

// DefaultBaseURL is the public USGS FDSN event query endpoint.
const DefaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// Client fetches earthquake feature collections over HTTP. Requests carry a
// bounded timeout; the client never retries, since polling a rate-limited public
// source is the caller's decision.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	clock      clockwork.Clock
}

// NewClient creates a USGS feed client. Pass an empty baseURL to use the
// public endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		clock:  clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source used for window computation and fetch
// timestamps. Tests inject a fake for deterministic output.
func (c *Client) SetClock(clk clockwork.Clock) {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	c.clock = clk
}

// FetchEvents performs one blocking GET for events of at least minMagnitude
// within the trailing window. Features missing a magnitude or a usable
// coordinate pair are dropped individually; zero usable features is a valid
// empty result, not an error. Fetch-level failures come back as a
// *domain.FetchError.
func (c *Client) FetchEvents(ctx context.Context, minMagnitude float64, window time.Duration) ([]domain.Event, domain.FetchMetadata, error) {
	now := c.clock.Now().UTC()
	params := url.Values{
		"format":       {"geojson"},
		"minmagnitude": {strconv.FormatFloat(minMagnitude, 'f', -1, 64)},
		"starttime":    {now.Add(-window).Format(time.RFC3339)},
		"orderby":      {"time"},
	}
	encoded := params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+encoded, nil)
	if err != nil {
		return nil, domain.FetchMetadata{}, &domain.FetchError{Endpoint: c.baseURL, Params: encoded, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.FetchMetadata{}, &domain.FetchError{
			Endpoint: c.baseURL,
			Params:   encoded,
			Timeout:  isTimeout(err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.FetchMetadata{}, &domain.FetchError{
			Endpoint: c.baseURL,
			Params:   encoded,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, domain.FetchMetadata{}, &domain.FetchError{
			Endpoint: c.baseURL,
			Params:   encoded,
			Err:      fmt.Errorf("decode response: %w", err),
		}
	}

	events, dropped := parseFeatures(feed.Features)
	if dropped > 0 {
		c.logger.Warn("dropped malformed feed records",
			"dropped", dropped,
			"total", len(feed.Features),
		)
	}

	meta := domain.FetchMetadata{
		FetchedAt: now,
		Count:     len(events),
	}
	if feed.Metadata.Generated > 0 {
		meta.GeneratedAt = time.UnixMilli(feed.Metadata.Generated).UTC()
	}
	return events, meta, nil
}

// parseFeatures converts GeoJSON features into events, dropping records that
// lack a magnitude or a two-element coordinate. Returns the events and the
// number of dropped records.
func parseFeatures(features []feedFeature) ([]domain.Event, int) {
	events := make([]domain.Event, 0, len(features))
	dropped := 0

	for _, f := range features {
		if f.Properties.Mag == nil || len(f.Geometry.Coordinates) < 2 {
			dropped++
			continue
		}
		lon := f.Geometry.Coordinates[0]
		lat := f.Geometry.Coordinates[1]
		if domain.ValidateCoordinate(lat, lon) != nil {
			dropped++
			continue
		}

		ev := domain.Event{
			Lat:       lat,
			Lon:       lon,
			Magnitude: *f.Properties.Mag,
			Place:     f.Properties.Place,
		}
		if len(f.Geometry.Coordinates) >= 3 {
			ev.DepthKm = f.Geometry.Coordinates[2]
		}
		if f.Properties.Time != nil {
			ev.OccurredAt = time.UnixMilli(*f.Properties.Time).UTC()
		}
		events = append(events, ev)
	}
	return events, dropped
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// USGS GeoJSON response types. Optional properties like felt-report counts,
// the tsunami flag, and review status are deliberately not modeled.

type feedResponse struct {
	Metadata struct {
		Generated int64 `json:"generated"` // epoch milliseconds
		Count     int   `json:"count"`
	} `json:"metadata"`
	Features []feedFeature `json:"features"`
}

type feedFeature struct {
	Properties struct {
		Mag   *float64 `json:"mag"` // null for some unreviewed events
		Place string   `json:"place"`
		Time  *int64   `json:"time"` // epoch milliseconds
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat, depth_km]
	} `json:"geometry"`
}
