package report

import (
	"math"

	"seotrack/internal/model"
)

// Stats summarises a set of achievements. Pending is always
// Total - Completed; applied status never affects it.
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Applied        int `json:"applied"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completion_rate"`
	AppliedRate    int `json:"applied_rate"`
	PendingRate    int `json:"pending_rate"`
}

// Aggregate computes Stats over list.
func Aggregate(list []model.Achievement) Stats {
	s := Stats{Total: len(list)}
	for _, a := range list {
		if a.Completed {
			s.Completed++
		}
		if a.Applied {
			s.Applied++
		}
	}
	s.Pending = s.Total - s.Completed
	s.CompletionRate = Percent(s.Completed, s.Total)
	s.AppliedRate = Percent(s.Applied, s.Total)
	s.PendingRate = Percent(s.Pending, s.Total)
	return s
}

// Percent is round(100*count/total), or 0 when total is 0.
func Percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}
