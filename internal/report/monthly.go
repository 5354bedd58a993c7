package report

import (
	"sort"
	"time"

	"seotrack/internal/model"
)

// MonthGroup is the subset of achievements dated within one calendar
// month, with its aggregate.
type MonthGroup struct {
	Year         int                 `json:"year"`
	Month        int                 `json:"month"`
	MonthName    string              `json:"month_name"`
	Achievements []model.Achievement `json:"-"`
	Stats        Stats               `json:"stats"`
}

// GroupMonth selects the achievements whose own date falls in year/month
// (1-12). Creation timestamps are never consulted.
func GroupMonth(list []model.Achievement, year, month int) MonthGroup {
	subset := Apply(list, Filter{Year: year, Month: month})
	return MonthGroup{
		Year:         year,
		Month:        month,
		MonthName:    MonthName(month),
		Achievements: subset,
		Stats:        Aggregate(subset),
	}
}

// AvailableYears lists the distinct achievement years, newest first.
func AvailableYears(list []model.Achievement) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, a := range list {
		y := a.Date.UTC().Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// MonthName is the user-facing label of a 1-indexed month, or "" when out
// of range.
func MonthName(month int) string {
	if month < int(time.January) || month > int(time.December) {
		return ""
	}
	return time.Month(month).String()
}

// SortByDateDesc orders list newest date first, keeping the existing order
// among equal dates.
func SortByDateDesc(list []model.Achievement) []model.Achievement {
	out := make([]model.Achievement, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
