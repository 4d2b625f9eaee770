package position

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const statesBody = `{
	"time": 1700000000,
	"states": [
		["abc123", "BAW117  ", "United Kingdom", 1700000000, 1699999990, -35.5, 47.2, 11000.0, false, 240.1, 270.0, 0.0, null, 11300.0, "7000", false, 0],
		["def456", "", "Ireland", 1700000000, 1699999995, -20.0, 55.0, 10500.0, false, 230.0, 260.0, 0.0, null, 10800.0, null, false, 0],
		["ghi789", "EIN12", "Ireland", 1700000000, 1699999995, -12.0, 52.0, null, true, 0.0, 0.0, 0.0, null, null, null, false, 0]
	]
}`

func TestOpenSkyFeedParsesStateVectors(t *testing.T) {
	var gotQuery, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/states/all" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		gotUser, _, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(statesBody))
	}))
	defer srv.Close()

	bbox := BBox{MinLat: 40, MaxLat: 60, MinLon: -60, MaxLon: -10}
	feed := NewOpenSkyFeed(srv.URL, "alice", "secret", bbox, time.Second, srv.Client())

	states, err := feed.States(context.Background())
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	if gotQuery != "lamax=60&lamin=40&lomax=-10&lomin=-60" {
		t.Fatalf("query = %q", gotQuery)
	}
	if gotUser != "alice" {
		t.Fatalf("basic auth user = %q, want alice", gotUser)
	}
	if len(states) != 3 {
		t.Fatalf("len(states) = %d, want 3", len(states))
	}

	first := states[0]
	if first.ICAO24 != "abc123" || first.Callsign != "BAW117" {
		t.Fatalf("first = %+v", first)
	}
	if first.Longitude == nil || *first.Longitude != -35.5 || *first.Latitude != 47.2 || *first.Altitude != 11000 {
		t.Fatalf("first position not decoded: %+v", first)
	}
	if !first.LastContact.Equal(time.Unix(1699999990, 0)) {
		t.Fatalf("last contact = %v", first.LastContact)
	}
	if states[2].Altitude != nil {
		t.Fatalf("null altitude decoded as %v", *states[2].Altitude)
	}
}

func TestOpenSkyFeedAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); ok {
			t.Errorf("unexpected basic auth header")
		}
		w.Write([]byte(`{"time": 1700000000, "states": null}`))
	}))
	defer srv.Close()

	feed := NewOpenSkyFeed(srv.URL, "", "", BBox{}, time.Second, srv.Client())
	states, err := feed.States(context.Background())
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	if len(states) != 0 {
		t.Fatalf("len(states) = %d, want 0", len(states))
	}
}

func TestOpenSkyFeedErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}},
		{"malformed", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"states": [`))
		}},
		{"slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			feed := NewOpenSkyFeed(srv.URL, "", "", BBox{}, 100*time.Millisecond, srv.Client())
			_, err := feed.States(context.Background())
			if !errors.Is(err, ErrPositionFetch) {
				t.Fatalf("err = %v, want ErrPositionFetch", err)
			}
		})
	}
}
