package position

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrPositionFetch wraps every failure to read the live position feed
var ErrPositionFetch = errors.New("position fetch failed")

// RawState is one aircraft state vector as delivered by the feed. Nil
// pointers mark fields the feed did not report.
type RawState struct {
	ICAO24      string
	Callsign    string
	Longitude   *float64
	Latitude    *float64
	Altitude    *float64 // barometric, meters
	LastContact time.Time
}

// Feed returns the current aircraft states inside its bounding box
type Feed interface {
	States(ctx context.Context) ([]RawState, error)
}

// BBox is a lat/lon bounding box in degrees
type BBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// OpenSkyFeed reads the OpenSky Network /states/all endpoint
type OpenSkyFeed struct {
	baseURL  string
	user     string
	password string
	bbox     BBox
	timeout  time.Duration
	http     *http.Client
}

func NewOpenSkyFeed(baseURL, user, password string, bbox BBox, timeout time.Duration, httpClient *http.Client) *OpenSkyFeed {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenSkyFeed{
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     user,
		password: password,
		bbox:     bbox,
		timeout:  timeout,
		http:     httpClient,
	}
}

type statesResponse struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// OpenSky state vector indices
const (
	idxICAO24      = 0
	idxCallsign    = 1
	idxLastContact = 4
	idxLongitude   = 5
	idxLatitude    = 6
	idxBaroAlt     = 7
)

func (f *OpenSkyFeed) States(ctx context.Context) ([]RawState, error) {
	q := url.Values{}
	q.Set("lamin", strconv.FormatFloat(f.bbox.MinLat, 'f', -1, 64))
	q.Set("lomin", strconv.FormatFloat(f.bbox.MinLon, 'f', -1, 64))
	q.Set("lamax", strconv.FormatFloat(f.bbox.MaxLat, 'f', -1, 64))
	q.Set("lomax", strconv.FormatFloat(f.bbox.MaxLon, 'f', -1, 64))

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/states/all?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPositionFetch, err)
	}
	if f.user != "" {
		req.SetBasicAuth(f.user, f.password)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPositionFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrPositionFetch, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrPositionFetch, err)
	}

	var sr statesResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrPositionFetch, err)
	}

	states := make([]RawState, 0, len(sr.States))
	for _, row := range sr.States {
		states = append(states, parseStateVector(row))
	}
	return states, nil
}

func parseStateVector(row []any) RawState {
	var s RawState
	s.ICAO24 = strings.TrimSpace(stringAt(row, idxICAO24))
	s.Callsign = strings.TrimSpace(stringAt(row, idxCallsign))
	s.Longitude = floatAt(row, idxLongitude)
	s.Latitude = floatAt(row, idxLatitude)
	s.Altitude = floatAt(row, idxBaroAlt)
	if lc := floatAt(row, idxLastContact); lc != nil {
		s.LastContact = time.Unix(int64(*lc), 0).UTC()
	}
	return s
}

func stringAt(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return s
}

func floatAt(row []any, i int) *float64 {
	if i >= len(row) {
		return nil
	}
	v, ok := row[i].(float64)
	if !ok {
		return nil
	}
	return &v
}
