// Package spacex is a read-only client for the SpaceX REST API (v4).
package spacex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/shaharia-lab/spacex-mcp/observability"
)

const (
	DefaultBaseURL = "https://api.spacexdata.com/v4"
	defaultTimeout = 20 * time.Second
)

// Client fetches launches, rockets, ships and launchpads. It is safe for
// concurrent use.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  observability.Logger
}

type ClientOption func(*Client)

// WithTimeout bounds each HTTP round trip.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRateLimit allows at most r requests per second with the given burst.
// A zero rate disables limiting.
func WithRateLimit(r float64, burst int) ClientOption {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.http.SetHeader("User-Agent", ua)
	}
}

func WithLogger(logger observability.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
		logger: observability.NewNullLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Launches(ctx context.Context) ([]Launch, error) {
	return getList[Launch](ctx, c, "Launches", "/launches")
}

func (c *Client) Launch(ctx context.Context, id string) (*Launch, error) {
	var out Launch
	if err := c.get(ctx, "Launch", "/launches/{id}", id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpcomingLaunches(ctx context.Context) ([]Launch, error) {
	return getList[Launch](ctx, c, "UpcomingLaunches", "/launches/upcoming")
}

func (c *Client) PastLaunches(ctx context.Context) ([]Launch, error) {
	return getList[Launch](ctx, c, "PastLaunches", "/launches/past")
}

func (c *Client) LatestLaunch(ctx context.Context) (*Launch, error) {
	var out Launch
	if err := c.get(ctx, "LatestLaunch", "/launches/latest", "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) NextLaunch(ctx context.Context) (*Launch, error) {
	var out Launch
	if err := c.get(ctx, "NextLaunch", "/launches/next", "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Rockets(ctx context.Context) ([]Rocket, error) {
	return getList[Rocket](ctx, c, "Rockets", "/rockets")
}

func (c *Client) Rocket(ctx context.Context, id string) (*Rocket, error) {
	var out Rocket
	if err := c.get(ctx, "Rocket", "/rockets/{id}", id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ships(ctx context.Context) ([]Ship, error) {
	return getList[Ship](ctx, c, "Ships", "/ships")
}

func (c *Client) Ship(ctx context.Context, id string) (*Ship, error) {
	var out Ship
	if err := c.get(ctx, "Ship", "/ships/{id}", id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Launchpads(ctx context.Context) ([]Launchpad, error) {
	return getList[Launchpad](ctx, c, "Launchpads", "/launchpads")
}

func (c *Client) Launchpad(ctx context.Context, id string) (*Launchpad, error) {
	var out Launchpad
	if err := c.get(ctx, "Launchpad", "/launchpads/{id}", id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func getList[T any](ctx context.Context, c *Client, op, path string) ([]T, error) {
	var out []T
	if err := c.get(ctx, op, path, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get issues GET path and decodes the JSON body into out. Paths containing
// {id} require a non-empty id.
//
// The body is decoded here rather than through resty's SetResult: resty only
// unmarshals responses whose Content-Type is JSON, and it reports a decode
// failure through the same error as a transport failure. Decoding by hand
// accepts any Content-Type and yields a distinct "decode <op> response" error.
func (c *Client) get(ctx context.Context, op, path, id string, out interface{}) (err error) {
	ctx, span := observability.StartSpan(ctx, "spacex.Client."+op)
	defer func() { observability.EndSpan(span, err) }()
	span.SetAttributes(attribute.String("spacex.path", path))

	req := c.http.R().SetContext(ctx)
	if strings.Contains(path, "{id}") {
		if strings.TrimSpace(id) == "" {
			return ErrMissingID
		}
		req.SetPathParam("id", id)
		span.SetAttributes(attribute.String("spacex.id", id))
	}

	if c.limiter != nil {
		if err = c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("spacex api: rate limit wait: %w", err)
		}
	}

	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("spacex api: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	c.logger.WithFields(map[string]interface{}{
		"op":          op,
		"url":         resp.Request.URL,
		"status":      resp.StatusCode(),
		"duration_ms": resp.Time().Milliseconds(),
	}).Debug("SpaceX API call finished")

	if resp.IsError() {
		return &APIError{
			Method:     http.MethodGet,
			URL:        resp.Request.URL,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       truncate(strings.TrimSpace(resp.String()), maxErrorBody),
		}
	}

	if err = json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("spacex api: decode %s response: %w", op, err)
	}
	return nil
}
