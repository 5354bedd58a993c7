package mq

import "time"

// ProjectPayload is carried by project.created / updated / deleted.
type ProjectPayload struct {
	ProjectID   string    `json:"project_id"`
	UserID      string    `json:"user_id"`
	ProjectCode string    `json:"project_code"`
	Name        string    `json:"name,omitempty"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
