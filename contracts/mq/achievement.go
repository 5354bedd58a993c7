package mq

import "time"

type AchievementPayload struct {
	AchievementID      string    `json:"achievement_id"`
	ProjectID          string    `json:"project_id"`
	Title              string    `json:"title,omitempty"`
	Date               string    `json:"date,omitempty"`
	IsCompleted        bool      `json:"is_completed"`
	IsAppliedToWebsite bool      `json:"is_applied_to_website"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// SummarySavedPayload 月度总结保存事件
type SummarySavedPayload struct {
	ProjectID  string    `json:"project_id"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	OccurredAt time.Time `json:"occurred_at"`
}
