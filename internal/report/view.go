package report

import "sync"

// Ticket identifies one fetch issued by a View.
type Ticket struct {
	ID     uint64
	Filter Filter
	Page   int
}

// View is the filter and page state behind a rendered report. Changing
// the filter sends the view back to page 1, and only the response to the
// most recently issued ticket may be applied.
type View struct {
	mu     sync.Mutex
	filter Filter
	page   int
	issued uint64
}

// NewView starts on page 1 with the given filter.
func NewView(f Filter) *View {
	return &View{filter: f, page: 1}
}

// Filter returns the active filter.
func (v *View) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Page returns the active 1-indexed page.
func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// SetFilter replaces the filter. Any change resets the page to 1; setting
// an equivalent filter keeps the current page.
func (v *View) SetFilter(f Filter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if f.Canonical() != v.filter.Canonical() {
		v.filter = f
		v.page = 1
	}
}

// SetPage moves to page p; values below 1 become 1. The upper bound is
// enforced by Paginate when the page is rendered.
func (v *View) SetPage(p int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p < 1 {
		p = 1
	}
	v.page = p
}

// Begin issues a ticket for a fetch of the current state.
func (v *View) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	return Ticket{ID: v.issued, Filter: v.filter, Page: v.page}
}

// Accept reports whether t is the latest ticket issued. Responses to older
// tickets must be discarded.
func (v *View) Accept(t Ticket) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return t.ID == v.issued
}

// Settle records the page the server actually rendered (after clamping),
// provided t is still current.
func (v *View) Settle(t Ticket, renderedPage int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t.ID != v.issued {
		return false
	}
	if renderedPage >= 1 {
		v.page = renderedPage
	}
	return true
}
