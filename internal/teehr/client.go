package teehr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/Iron-Ham/teehrview/internal/errors"
	"github.com/Iron-Ham/teehrview/internal/logging"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// DatasetLister lists the datasets available for selection.
type DatasetLister interface {
	ListDatasets(ctx context.Context) ([]Dataset, error)
}

// DatasetLister is implemented by *Client; the workflow core depends only on
// the interface.
var _ DatasetLister = (*Client)(nil)

// Client talks to a TEEHR dataset API over HTTP/JSON.
type Client struct {
	baseURL       string
	http          *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	logger        *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (its Timeout is kept).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = uint64(n)
	}
}

// WithRetryInterval sets the initial backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:       strings.TrimRight(u.String(), "/"),
		http:          &http.Client{Timeout: timeout},
		maxRetries:    2,
		retryInterval: 250 * time.Millisecond,
		logger:        logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("teehr-client")
	return c, nil
}

// ListDatasets returns every dataset the API exposes.
func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var out []Dataset
	if err := c.do(ctx, http.MethodGet, "/datasets", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Dataset{}
	}
	return out, nil
}

// MetricOptions returns the metrics the dataset can compute.
func (c *Client) MetricOptions(ctx context.Context, datasetID int) ([]MetricOption, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, datasetPath(datasetID, "get_metric_fields"), nil, &names); err != nil {
		return nil, err
	}
	out := make([]MetricOption, len(names))
	for i, n := range names {
		out[i] = MetricOption{Name: n}
	}
	return out, nil
}

// GroupByFields returns the joined-timeseries fields of the dataset.
func (c *Client) GroupByFields(ctx context.Context, datasetID int) ([]FieldOption, error) {
	var out []FieldOption
	if err := c.do(ctx, http.MethodGet, datasetPath(datasetID, "get_data_fields"), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []FieldOption{}
	}
	return out, nil
}

// FilterOperators returns the operators the dataset accepts. The API answers
// with a name→symbol object; the result is ordered like ValidOperators and
// unknown symbols are dropped.
func (c *Client) FilterOperators(ctx context.Context, datasetID int) ([]OperatorOption, error) {
	var raw map[string]string
	if err := c.do(ctx, http.MethodGet, datasetPath(datasetID, "get_filter_operators"), nil, &raw); err != nil {
		return nil, err
	}

	rank := make(map[Operator]int)
	for i, op := range ValidOperators() {
		rank[op] = i
	}

	out := make([]OperatorOption, 0, len(raw))
	for name, symbol := range raw {
		op := Operator(symbol)
		if !op.Valid() {
			c.logger.Debug("dropping unknown operator", "name", name, "symbol", symbol)
			continue
		}
		out = append(out, OperatorOption{Name: name, Symbol: op})
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i].Symbol] < rank[out[j].Symbol] })
	return out, nil
}

// UniqueFieldValues returns the distinct values of field in the dataset.
func (c *Client) UniqueFieldValues(ctx context.Context, datasetID int, field string) ([]FieldValue, error) {
	body := map[string]string{"field_name": field}
	var records []map[string]any
	if err := c.do(ctx, http.MethodPost, datasetPath(datasetID, "get_unique_field_values"), body, &records); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("unique_%s_values", field)
	out := make([]FieldValue, 0, len(records))
	for _, rec := range records {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		out = append(out, FieldValue(fmt.Sprint(v)))
	}
	return out, nil
}

// QueryMetrics validates q and runs it against the dataset.
func (c *Client) QueryMetrics(ctx context.Context, datasetID int, q MetricQuery) (*MetricResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := c.do(ctx, http.MethodPost, datasetPath(datasetID, "get_metrics"), q, &records); err != nil {
		return nil, err
	}
	preferred := append(append([]string{}, q.GroupBy...), q.IncludeMetrics...)
	return NewMetricResult(records, preferred), nil
}

func datasetPath(datasetID int, action string) string {
	return fmt.Sprintf("/datasets/%d/%s", datasetID, action)
}

// do performs one API call with retries. Network failures, 5xx and 429 are
// retried; everything else fails immediately.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
	}

	attempt := 0
	op := func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return errors.Join(errors.ErrAPIUnavailable, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return errors.Join(errors.ErrAPIUnavailable, err)
		}

		c.logger.Debug("api request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"attempt", attempt,
			"duration_ms", time.Since(start).Milliseconds())

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := errors.NewAPIError(method, path, resp.StatusCode).WithBody(string(data))
			if apiErr.IsRetryable() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if out != nil && len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode %s response: %w", path, err))
			}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.logger.Warn("api request failed, retrying",
			"method", method,
			"path", path,
			"error", err.Error(),
			"wait_ms", wait.Milliseconds())
	})
}
