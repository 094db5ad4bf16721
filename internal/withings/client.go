package withings

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bodycomp/bodycomp/internal/errors"
	"github.com/bodycomp/bodycomp/internal/logging"
	"github.com/bodycomp/bodycomp/internal/models"
)

// MeasureURL is the vendor measurement endpoint.
const MeasureURL = BaseURL + "/v2/measure"

// Client fetches body-composition measurements from the Withings API.
// It satisfies models.MeasurementSource.
type Client struct {
	auth       *Auth
	client     *http.Client
	logger     *logging.Logger
	measureURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientHTTP overrides the HTTP client used for measurement calls.
func WithClientHTTP(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithMeasureEndpoint points measurement calls at a different URL.
func WithMeasureEndpoint(url string) ClientOption {
	return func(cl *Client) {
		cl.measureURL = url
	}
}

// NewClient creates a measurement client on top of an Auth session.
func NewClient(auth *Auth, logger *logging.Logger, opts ...ClientOption) *Client {
	c := &Client{
		auth:       auth,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		measureURL: MeasureURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetMeasurements issues one authenticated call for the window
// [start, end] and maps the vendor's group/measure format into domain
// records. On a 401 the in-memory session is invalidated and the call
// retried exactly once with a freshly authenticated session; a second
// failure propagates.
func (c *Client) GetMeasurements(ctx context.Context, start, end time.Time) ([]models.Measurement, error) {
	groups, err := c.fetchGroups(ctx, start, end)
	if errors.IsUnauthorized(err) {
		c.logger.WarnWithContext(ctx, "measurement fetch unauthorized, retrying with fresh session")
		c.auth.Invalidate()
		groups, err = c.fetchGroups(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}

	return measurementsFromGroups(groups), nil
}

func (c *Client) fetchGroups(ctx context.Context, start, end time.Time) ([]measureGroup, error) {
	tok, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("action", "getmeas")
	form.Set("meastypes", measTypes)
	form.Set("category", "1") // real measurements only, no user-entered goals
	form.Set("startdate", strconv.FormatInt(start.Unix(), 10))
	form.Set("enddate", strconv.FormatInt(end.Unix(), 10))
	form.Set("lastupdate", strconv.FormatInt(start.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.measureURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeoutErr(err) {
			return nil, &errors.ErrTimeout{Operation: "measurement fetch", Err: err}
		}
		return nil, &errors.ErrAPI{Endpoint: c.measureURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ErrAPI{Endpoint: c.measureURL, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &errors.ErrAPI{Endpoint: c.measureURL, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errors.ErrAPI{Endpoint: c.measureURL, StatusCode: resp.StatusCode}
	}

	env, err := decodeMeasureEnvelope(body, c.measureURL)
	if err != nil {
		return nil, err
	}
	return env.Body.MeasureGroups, nil
}

var _ models.MeasurementSource = (*Client)(nil)
