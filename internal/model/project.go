package model

import "time"

// Project statuses.
const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectPaused    = "paused"
)

// ValidProjectStatus reports whether s is one of the enumerated statuses.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectPaused:
		return true
	}
	return false
}

type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"` // active / completed / paused
	ClientName  string    `json:"client_name"`
	URL         string    `json:"url"`
	ProjectCode string    `json:"project_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectListItem is a project as shown in its owner's project list.
type ProjectListItem struct {
	Project
	AchievementCount int `json:"achievement_count"`
}

// ProjectInput is the body of a create request.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ClientName  string `json:"client_name"`
	URL         string `json:"url"`
}

// ProjectUpdate is a partial update; nil fields are left untouched.
type ProjectUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	ClientName  *string `json:"client_name"`
	URL         *string `json:"url"`
}

// Empty reports whether the update changes nothing.
func (u ProjectUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Status == nil && u.ClientName == nil && u.URL == nil
}

// PublicProject is the subset of a project exposed on the client report.
type PublicProject struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"description_html"`
	Status          string    `json:"status"`
	ClientName      string    `json:"client_name"`
	URL             string    `json:"url"`
	ProjectCode     string    `json:"project_code"`
	CreatedAt       time.Time `json:"created_at"`
}
