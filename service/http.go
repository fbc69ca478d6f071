package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/unkn0wn-root/caseflow"
	"github.com/unkn0wn-root/caseflow/cases"
)

// Client implements Service over HTTP.
type Client struct {
	base *url.URL
	hc   *http.Client
	log  caseflow.Logger
}

var _ Service = (*Client)(nil)

type Config struct {
	// Required. e.g. "http://localhost:8000".
	BaseURL string

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
	Logger     caseflow.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("service: base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("service: invalid base URL: %w", err)
	}

	c := &Client{base: base}
	c.hc = cfg.HTTPClient
	if c.hc == nil {
		c.hc = &http.Client{Timeout: 30 * time.Second}
	}
	c.log = cfg.Logger
	if c.log == nil {
		c.log = caseflow.NopLogger{}
	}
	return c, nil
}

// listResponse mirrors the backend's paginated envelope.
type listResponse struct {
	Cases      []cases.Case `json:"cases"`
	Pagination struct {
		NextCursor         string `json:"next_cursor"`
		HasMore            bool   `json:"has_more"`
		CurrentPageSize    int    `json:"current_page_size"`
		TotalCount         int    `json:"total_count"`
		LargeResultWarning bool   `json:"large_result_warning"`
	} `json:"pagination"`
}

func (c *Client) ListCases(ctx context.Context, f cases.Filter, cursor string, limit int) (caseflow.Page[cases.Case], error) {
	if limit <= 0 {
		limit = caseflow.DefaultPageSize
	}
	q := f.Params()
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var lr listResponse
	if err := c.get(ctx, "/api/cases", q, &lr); err != nil {
		return caseflow.Page[cases.Case]{}, err
	}
	return caseflow.Page[cases.Case]{
		Items:       lr.Cases,
		Total:       lr.Pagination.TotalCount,
		HasMore:     lr.Pagination.HasMore,
		NextCursor:  lr.Pagination.NextCursor,
		LargeResult: lr.Pagination.LargeResultWarning,
	}, nil
}

func (c *Client) GetCase(ctx context.Context, id string) (cases.Case, error) {
	var out cases.Case
	err := c.get(ctx, "/api/cases/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) SetupStatus(ctx context.Context) (cases.SetupStatus, error) {
	var out cases.SetupStatus
	err := c.get(ctx, "/api/setup/status", nil, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context, f cases.Filter) (cases.StatsSummary, error) {
	var out cases.StatsSummary
	err := c.get(ctx, "/api/stats/summary", f.Params(), &out)
	return out, err
}

func (c *Client) Demographics(ctx context.Context, f cases.Filter) (cases.Demographics, error) {
	var out cases.Demographics
	err := c.get(ctx, "/api/statistics/demographics", f.Params(), &out)
	return out, err
}

func (c *Client) Weapons(ctx context.Context, f cases.Filter) (cases.CategoryStats, error) {
	return c.categories(ctx, "/api/statistics/weapons", "weapons", f)
}

func (c *Client) Circumstances(ctx context.Context, f cases.Filter) (cases.CategoryStats, error) {
	return c.categories(ctx, "/api/statistics/circumstances", "circumstances", f)
}

func (c *Client) Relationships(ctx context.Context, f cases.Filter) (cases.CategoryStats, error) {
	return c.categories(ctx, "/api/statistics/relationships", "relationships", f)
}

// categories decodes the {<field>: [...], total_cases} envelope shared by
// the weapon/circumstance/relationship endpoints.
func (c *Client) categories(ctx context.Context, path, field string, f cases.Filter) (cases.CategoryStats, error) {
	var raw map[string]json.RawMessage
	if err := c.get(ctx, path, f.Params(), &raw); err != nil {
		return cases.CategoryStats{}, err
	}

	var out cases.CategoryStats
	if b, ok := raw[field]; ok {
		if err := json.Unmarshal(b, &out.Categories); err != nil {
			return cases.CategoryStats{}, caseflow.Terminal("malformed response", 0, err)
		}
	}
	if b, ok := raw["total_cases"]; ok {
		if err := json.Unmarshal(b, &out.TotalCases); err != nil {
			return cases.CategoryStats{}, caseflow.Terminal("malformed response", 0, err)
		}
	}
	return out, nil
}

func (c *Client) Geography(ctx context.Context, f cases.Filter, topN int) (cases.GeoStats, error) {
	q := f.Params()
	if topN > 0 {
		q.Set("top_n", strconv.Itoa(topN))
	}
	var out cases.GeoStats
	err := c.get(ctx, "/api/statistics/geographic", q, &out)
	return out, err
}

func (c *Client) Trend(ctx context.Context, f cases.Filter) (cases.TrendStats, error) {
	var out cases.TrendStats
	err := c.get(ctx, "/api/statistics/trends", f.Params(), &out)
	return out, err
}

func (c *Client) Seasonal(ctx context.Context, f cases.Filter) (cases.SeasonalStats, error) {
	var out cases.SeasonalStats
	err := c.get(ctx, "/api/statistics/seasonal", f.Params(), &out)
	return out, err
}

func (c *Client) TimelineData(ctx context.Context, f cases.Filter, g cases.Granularity) (cases.TimelineData, error) {
	q := f.TimelineParams()
	if g != "" {
		q.Set("granularity", string(g))
	}
	var out cases.TimelineData
	err := c.get(ctx, "/api/timeline/data", q, &out)
	return out, err
}

func (c *Client) TimelineTrends(ctx context.Context, f cases.Filter, metric cases.TrendMetric, g cases.Granularity, window int) (cases.TimelineTrends, error) {
	q := f.TimelineParams()
	if metric != "" {
		q.Set("metric", string(metric))
	}
	if g != "" {
		q.Set("granularity", string(g))
	}
	if window > 0 {
		q.Set("moving_average_window", strconv.Itoa(window))
	}
	var out cases.TimelineTrends
	err := c.get(ctx, "/api/timeline/trends", q, &out)
	return out, err
}

func (c *Client) MapCounties(ctx context.Context, f cases.Filter) (cases.MapData, error) {
	var out cases.MapData
	err := c.get(ctx, "/api/map/counties", f.MapParams(), &out)
	return out, err
}

func (c *Client) MapCases(ctx context.Context, f cases.Filter, county string, limit int) (cases.MapCases, error) {
	q := f.MapParams()
	if county != "" {
		q.Set("county", county)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out cases.MapCases
	err := c.get(ctx, "/api/map/cases", q, &out)
	return out, err
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	// JoinPath keeps any prefix on the configured base (e.g. /v1).
	u := c.base.JoinPath(path)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return caseflow.Terminal("malformed request", 0, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return caseflow.Terminal("request canceled", 0, err)
		}
		// dial failures, resets, timeouts: all worth a retry
		return caseflow.Transient("request failed", 0, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var eb errorBody
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		_ = json.Unmarshal(body, &eb)
		c.log.Warn("request failed", caseflow.Fields{
			"path": path, "status": res.StatusCode, "detail": eb.Detail,
		})
		return caseflow.FromStatus(res.StatusCode, eb.Detail)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return caseflow.Terminal("malformed response", res.StatusCode, err)
	}
	return nil
}
