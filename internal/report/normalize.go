// Package report holds the pure achievement report engine: record
// normalisation, filtering, aggregation, pagination and monthly grouping.
// Every function here is synchronous and works on in-memory slices.
package report

import (
	"fmt"
	"strings"
	"time"

	"seotrack/internal/model"
)

// ParseDate parses a calendar date. Besides YYYY-MM-DD it accepts RFC 3339
// timestamps, keeping only their UTC calendar date. The result is always
// midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation(model.DateLayout, s, time.UTC); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(ts), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date in the wire format.
func FormatDate(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}

// Normalize maps a persisted record into the application representation.
// Missing optional text becomes "".
func Normalize(rec model.AchievementRecord) (model.Achievement, error) {
	date, err := ParseDate(rec.Date)
	if err != nil {
		return model.Achievement{}, fmt.Errorf("achievement %s: %w", rec.ID, err)
	}

	return model.Achievement{
		ID:          rec.ID,
		ProjectID:   rec.ProjectID,
		Title:       rec.Title,
		Description: deref(rec.Description),
		Date:        date,
		Category:    rec.Category,
		Completed:   rec.IsCompleted,
		Applied:     rec.IsAppliedToWebsite,
		Link:        deref(rec.Link),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

// NormalizeAll normalizes recs in order, failing on the first bad record.
func NormalizeAll(recs []model.AchievementRecord) ([]model.Achievement, error) {
	out := make([]model.Achievement, 0, len(recs))
	for _, rec := range recs {
		a, err := Normalize(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Record is the inverse of Normalize.
func Record(a model.Achievement) model.AchievementRecord {
	description := a.Description
	link := a.Link
	return model.AchievementRecord{
		ID:                 a.ID,
		ProjectID:          a.ProjectID,
		Title:              a.Title,
		Description:        &description,
		Date:               FormatDate(a.Date),
		Category:           a.Category,
		IsCompleted:        a.Completed,
		IsAppliedToWebsite: a.Applied,
		Link:               &link,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

// Records maps Record over list.
func Records(list []model.Achievement) []model.AchievementRecord {
	out := make([]model.AchievementRecord, len(list))
	for i, a := range list {
		out[i] = Record(a)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
