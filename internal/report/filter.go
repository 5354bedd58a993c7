package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"seotrack/internal/model"
)

// CompletionState filters on Achievement.Completed.
type CompletionState string

const (
	CompletionAny       CompletionState = "any"
	CompletionCompleted CompletionState = "completed"
	CompletionPending   CompletionState = "pending"
)

// LiveState filters on Achievement.Applied.
type LiveState string

const (
	LiveAny     LiveState = "any"
	LiveLive    LiveState = "live"
	LiveNotLive LiveState = "not-live"
)

// Filter is a conjunction of optional sub-filters. The zero value, like
// any field left at zero (or "any"), matches everything. Month is 1-12.
type Filter struct {
	Year          int             `json:"year,omitempty"`
	Month         int             `json:"month,omitempty"`
	TitleContains string          `json:"title,omitempty"`
	Completion    CompletionState `json:"completion,omitempty"`
	Live          LiveState       `json:"live,omitempty"`
}

// IsZero reports whether f matches every achievement.
func (f Filter) IsZero() bool {
	return f.Year == 0 && f.Month == 0 && f.TitleContains == "" &&
		(f.Completion == "" || f.Completion == CompletionAny) &&
		(f.Live == "" || f.Live == LiveAny)
}

// Canonical spells out "any" for unset completion and live states, so
// filters that match the same achievements compare equal.
func (f Filter) Canonical() Filter {
	if f.Completion == "" {
		f.Completion = CompletionAny
	}
	if f.Live == "" {
		f.Live = LiveAny
	}
	return f
}

// Match reports whether a satisfies every active sub-filter of f.
func Match(a model.Achievement, f Filter) bool {
	if f.Year != 0 && a.Date.UTC().Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(a.Date.UTC().Month()) != f.Month {
		return false
	}
	if f.TitleContains != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(f.TitleContains)) {
		return false
	}

	switch f.Completion {
	case CompletionCompleted:
		if !a.Completed {
			return false
		}
	case CompletionPending:
		if a.Completed {
			return false
		}
	}

	switch f.Live {
	case LiveLive:
		if !a.Applied {
			return false
		}
	case LiveNotLive:
		if a.Applied {
			return false
		}
	}

	return true
}

// Apply returns the achievements matching f, preserving order.
func Apply(list []model.Achievement, f Filter) []model.Achievement {
	out := make([]model.Achievement, 0, len(list))
	for _, a := range list {
		if Match(a, f) {
			out = append(out, a)
		}
	}
	return out
}

// ParseFilter builds a Filter from user-facing values, where "" and "all"
// mean no constraint.
func ParseFilter(year, month, title, completion, live string) (Filter, error) {
	var f Filter

	if v := strings.TrimSpace(year); v != "" && v != "all" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return Filter{}, fmt.Errorf("invalid year %q", year)
		}
		f.Year = y
	}

	if v := strings.TrimSpace(month); v != "" && v != "all" {
		m, err := strconv.Atoi(v)
		if err != nil || m < int(time.January) || m > int(time.December) {
			return Filter{}, fmt.Errorf("invalid month %q: expected 1-12", month)
		}
		f.Month = m
	}

	f.TitleContains = strings.TrimSpace(title)

	switch c := CompletionState(strings.ToLower(strings.TrimSpace(completion))); c {
	case "", "all", CompletionAny:
		f.Completion = CompletionAny
	case CompletionCompleted, CompletionPending:
		f.Completion = c
	default:
		return Filter{}, fmt.Errorf("invalid completion state %q", completion)
	}

	switch l := LiveState(strings.ToLower(strings.TrimSpace(live))); l {
	case "", "all", LiveAny:
		f.Live = LiveAny
	case LiveLive, LiveNotLive:
		f.Live = l
	default:
		return Filter{}, fmt.Errorf("invalid live state %q", live)
	}

	return f, nil
}
