package zone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"velocirrus/internal/model"
	"velocirrus/internal/observability"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrZoneFetch wraps every failure to obtain zones from the remote service
var ErrZoneFetch = errors.New("zone fetch failed")

const maxResponseBytes = 16 << 20

// Client talks to the remote zone prediction service
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, timeout: timeout, http: httpClient}
}

// Fetch requests the zone features valid at the given time
func (c *Client) Fetch(ctx context.Context, credential string, at time.Time) (*geojson.FeatureCollection, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: zone service url not configured", ErrZoneFetch)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad service url: %v", ErrZoneFetch, err)
	}
	q := u.Query()
	q.Set("key", credential)
	q.Set("time", at.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrZoneFetch, err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// the url carries the credential, report only the cause
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrZoneFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrZoneFetch, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrZoneFetch, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrZoneFetch, err)
	}
	return fc, nil
}

// ZonesFromFeatures converts polygon features into zones. Only outer rings
// are used; holes are dropped with a warning. Features that are not polygons
// or whose boundary fails validation are skipped with a warning.
func ZonesFromFeatures(ctx context.Context, fc *geojson.FeatureCollection, rep observability.Reporter) []model.Zone {
	var zones []model.Zone
	if fc == nil {
		return zones
	}

	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			warn(ctx, rep, fmt.Sprintf("feature %d has no geometry; skipped", i))
			continue
		}

		name := stringProperty(ctx, rep, f, i, "name", fmt.Sprintf("Zone %d", i+1))
		severity := model.Severity(stringProperty(ctx, rep, f, i, "severity", string(model.SeverityDanger)))
		if severity != model.SeverityWarning {
			severity = model.SeverityDanger
		}

		var polygons []orb.Polygon
		var names []string
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
			names = append(names, name)
		case orb.MultiPolygon:
			for j, p := range g {
				polygons = append(polygons, p)
				names = append(names, fmt.Sprintf("%s #%d", name, j+1))
			}
		default:
			warn(ctx, rep, fmt.Sprintf("zone %q: unsupported geometry %s; skipped", name, f.Geometry.GeoJSONType()))
			continue
		}

		for j, p := range polygons {
			if len(p) == 0 {
				warn(ctx, rep, fmt.Sprintf("zone %q: polygon has no rings; skipped", names[j]))
				continue
			}
			if len(p) > 1 {
				warn(ctx, rep, fmt.Sprintf("zone %q: %d holes dropped, outer ring used", names[j], len(p)-1))
			}

			z := model.NewZone(names[j], p[0], severity)
			if err := model.ValidateZone(z); err != nil {
				warn(ctx, rep, fmt.Sprintf("%v; skipped", err))
				continue
			}
			zones = append(zones, z)
		}
	}

	return zones
}

// stringProperty reads an optional string property. Values of another type
// are replaced by def with a warning.
func stringProperty(ctx context.Context, rep observability.Reporter, f *geojson.Feature, i int, key, def string) string {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		warn(ctx, rep, fmt.Sprintf("feature %d: property %q is a %T, not a string; using %q", i, key, v, def))
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func warn(ctx context.Context, rep observability.Reporter, msg string) {
	rep.Report(ctx, observability.Event{
		Kind:      observability.KindGeometryWarning,
		Component: observability.ComponentZones,
		Message:   msg,
	})
}
