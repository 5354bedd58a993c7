// Package client reads public reports from a running API server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"seotrack/internal/report"
	"seotrack/internal/service"
	"seotrack/pkg/circuitbreaker"
	"seotrack/pkg/trace"
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404, e.g. an unknown project code.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.Breaker
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(c *Client) { c.cb = circuitbreaker.New(cfg) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cb: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: 3,
			Timeout:          15 * time.Second,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report fetches one page of the public report for code.
func (c *Client) Report(ctx context.Context, code string, f report.Filter, page int) (*service.Report, error) {
	q := FilterQuery(f)
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}

	var r service.Report
	if err := c.getJSON(ctx, reportPath(code), q, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Month fetches the public month view.
func (c *Client) Month(ctx context.Context, code string, year, month int) (*service.MonthReport, error) {
	path := fmt.Sprintf("%s/months/%d/%d", reportPath(code), year, month)

	var r service.MonthReport
	if err := c.getJSON(ctx, path, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Export streams the XLSX workbook of the filtered report into w.
func (c *Client) Export(ctx context.Context, code string, f report.Filter, w io.Writer) error {
	return c.do(ctx, reportPath(code)+"/export", FilterQuery(f), func(body io.Reader) error {
		_, err := io.Copy(w, body)
		return err
	})
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, path, q, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(out)
	})
}

// do issues a GET through the breaker. Only transport errors and 5xx count
// as failures; a 4xx is the caller's problem, not the server's.
func (c *Client) do(ctx context.Context, path string, q url.Values, read func(io.Reader) error) error {
	var apiErr *Error
	err := c.cb.Execute(func() error {
		u := c.baseURL + path
		if len(q) > 0 {
			u += "?" + q.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		// 传播 trace_id
		if traceID := trace.FromContext(ctx); traceID != "" {
			req.Header.Set(trace.HeaderName, traceID)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			e := &Error{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
			if resp.StatusCode >= 500 {
				return e
			}
			apiErr = e
			return nil
		}
		return read(resp.Body)
	})
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}
	return nil
}

func errorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}

func reportPath(code string) string {
	return "/public/reports/" + url.PathEscape(service.NormalizeCode(code))
}

// FilterQuery encodes f as the query parameters the report endpoints
// accept. Unconstrained fields are omitted.
func FilterQuery(f report.Filter) url.Values {
	q := url.Values{}
	if f.Year != 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.Month != 0 {
		q.Set("month", strconv.Itoa(f.Month))
	}
	if f.TitleContains != "" {
		q.Set("title", f.TitleContains)
	}
	if f.Completion != "" && f.Completion != report.CompletionAny {
		q.Set("completion", string(f.Completion))
	}
	if f.Live != "" && f.Live != report.LiveAny {
		q.Set("live", string(f.Live))
	}
	return q
}
