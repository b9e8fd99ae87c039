package mds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	mdserr "github.com/user/mds-pull/internal/errors"
	"github.com/user/mds-pull/internal/logging"
	"github.com/user/mds-pull/internal/provider"
)

// maxPages bounds a single provider's paging loop.
var maxPages = 10000

// Getter is the HTTP capability the client needs.
type Getter interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// Client queries a fixed set of configured providers, one request at a time.
type Client struct {
	http      Getter
	providers []provider.Provider
}

func NewClient(g Getter, providers []provider.Provider) *Client {
	return &Client{
		http:      g,
		providers: providers,
	}
}

func (c *Client) Providers() []provider.Provider {
	return c.providers
}

// GetStatusChanges requests /status_changes from every provider.
// Providers that fail are left out of the result and reported in the returned error.
func (c *Client) GetStatusChanges(ctx context.Context, q StatusChangesQuery) (PayloadMap, error) {
	params := url.Values{}
	params.Set("start_time", millis(q.Range.Start))
	params.Set("end_time", millis(q.Range.End))
	if q.BBox != "" {
		params.Set("bbox", q.BBox)
	}
	return c.request(ctx, StatusChanges, params, q.Paging)
}

// GetTrips requests /trips from every provider, bounding trips by their end time.
func (c *Client) GetTrips(ctx context.Context, q TripsQuery) (PayloadMap, error) {
	params := url.Values{}
	params.Set("min_end_time", millis(q.Range.Start))
	params.Set("max_end_time", millis(q.Range.End))
	if q.DeviceID != "" {
		params.Set("device_id", q.DeviceID)
	}
	if q.VehicleID != "" {
		params.Set("vehicle_id", q.VehicleID)
	}
	if q.BBox != "" {
		params.Set("bbox", q.BBox)
	}
	return c.request(ctx, Trips, params, q.Paging)
}

func (c *Client) request(ctx context.Context, dt Datatype, params url.Values, paging bool) (PayloadMap, error) {
	results := make(PayloadMap, 0, len(c.providers))
	var errs []error

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		pages, err := c.fetch(ctx, p, dt, params, paging)
		if err != nil {
			logging.Error("provider request failed",
				zap.String("provider", p.Name),
				zap.String("datatype", string(dt)),
				zap.Error(err),
			)
			errs = append(errs, mdserr.Network(fmt.Sprintf("%s from %s", dt, p.Name), err).
				WithContext("provider_id", p.ID.String()))
			continue
		}

		logging.Info("provider request complete",
			zap.String("provider", p.Name),
			zap.String("datatype", string(dt)),
			zap.Int("pages", len(pages)),
		)
		results = append(results, ProviderPayload{Provider: p, Payload: pages})
	}

	return results, errors.Join(errs...)
}

func (c *Client) fetch(ctx context.Context, p provider.Provider, dt Datatype, params url.Values, paging bool) (Payload, error) {
	if p.APIURL == "" {
		return nil, fmt.Errorf("provider %s has no mds_api_url", p.Name)
	}

	next, err := endpoint(p.APIURL, dt, params)
	if err != nil {
		return nil, err
	}
	header := headers(p)
	seen := make(map[string]bool)

	var pages Payload
	for next != "" && len(pages) < maxPages {
		if seen[next] {
			logging.Warn("provider returned a paging loop", zap.String("provider", p.Name), zap.String("url", next))
			break
		}
		seen[next] = true

		body, err := c.http.Get(ctx, next, header)
		if err != nil {
			return nil, err
		}

		var pg page
		if err := json.Unmarshal(body, &pg); err != nil {
			return nil, fmt.Errorf("decode page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, json.RawMessage(body))

		if !paging {
			break
		}
		next = pg.Links.Next
	}
	if paging && next != "" && len(pages) >= maxPages {
		logging.Warn("provider page limit reached, results truncated",
			zap.String("provider", p.Name),
			zap.Int("pages", len(pages)),
			zap.String("next", next),
		)
	}
	return pages, nil
}

func endpoint(apiURL string, dt Datatype, params url.Values) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid mds_api_url %q: %w", apiURL, err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + string(dt)
	u.RawPath = ""

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func headers(p provider.Provider) http.Header {
	h := http.Header{}
	if p.Auth.Version != "" {
		h.Set("Accept", "application/vnd.mds.provider+json;version="+p.Auth.Version)
	} else {
		h.Set("Accept", "application/json")
	}
	for k, v := range p.Auth.Headers {
		h.Set(k, v)
	}
	if p.Auth.Token != "" {
		h.Set("Authorization", p.Auth.Scheme()+" "+p.Auth.Token)
	}
	return h
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
