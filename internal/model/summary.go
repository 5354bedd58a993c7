package model

import "time"

// MonthlySummary is the narrative for one project month. Month is 1-12.
type MonthlySummary struct {
	ProjectID string    `json:"project_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
