package client

import (
	"context"
	"sync"

	"seotrack/internal/report"
	"seotrack/internal/service"
)

// Session follows one public report while the reader changes filters and
// pages. Responses that arrive after a newer request was issued are
// dropped, so the last request always wins.
type Session struct {
	client *Client
	code   string
	view   *report.View

	mu      sync.Mutex
	current *service.Report
}

func NewSession(c *Client, code string, f report.Filter) *Session {
	return &Session{client: c, code: code, view: report.NewView(f)}
}

// SetFilter changes the filter; a different filter goes back to page 1.
func (s *Session) SetFilter(f report.Filter) { s.view.SetFilter(f) }

func (s *Session) SetPage(p int) { s.view.SetPage(p) }

func (s *Session) Filter() report.Filter { return s.view.Filter() }

func (s *Session) Page() int { return s.view.Page() }

// Refresh fetches the report for the current filter and page. applied is
// false when a newer Refresh was started before this one finished; the
// result is then discarded and Current is left untouched.
func (s *Session) Refresh(ctx context.Context) (r *service.Report, applied bool, err error) {
	t := s.view.Begin()
	r, err = s.client.Report(ctx, s.code, t.Filter, t.Page)
	if err != nil {
		if !s.view.Accept(t) {
			return nil, false, nil
		}
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Settle and the store happen under one lock so an older response can
	// never overwrite a newer one.
	if !s.view.Settle(t, r.Page.CurrentPage) {
		return nil, false, nil
	}
	s.current = r
	return r, true, nil
}

// Current returns the last applied report, or nil.
func (s *Session) Current() *service.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
