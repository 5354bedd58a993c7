package model

import "time"

// DateLayout is the wire and storage format of achievement dates.
const DateLayout = "2006-01-02"

// Categories is the fixed set of achievement categories.
var Categories = []string{
	"On-Page SEO",
	"Technical SEO",
	"Content SEO",
	"Link Building",
	"Local SEO",
	"Analytics & Reporting",
	"Keyword Research",
	"Competitor Analysis",
}

// DefaultCategory is used when a new achievement names none.
const DefaultCategory = "On-Page SEO"

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// AchievementRecord is an achievement as persisted and sent over the wire:
// snake_case flags, a YYYY-MM-DD date string and nullable text.
type AchievementRecord struct {
	ID                 string    `json:"id"`
	ProjectID          string    `json:"project_id"`
	Title              string    `json:"title"`
	Description        *string   `json:"description"`
	Date               string    `json:"date"`
	Category           string    `json:"category"`
	IsCompleted        bool      `json:"is_completed"`
	IsAppliedToWebsite bool      `json:"is_applied_to_website"`
	Link               *string   `json:"link"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Achievement is the application-level record the report engine works on.
// Date is always midnight UTC.
type Achievement struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Date        time.Time
	Category    string
	Completed   bool
	Applied     bool
	Link        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AchievementInput is the body of a create request.
type AchievementInput struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Date               string `json:"date"`
	Category           string `json:"category"`
	IsCompleted        bool   `json:"is_completed"`
	IsAppliedToWebsite bool   `json:"is_applied_to_website"`
	Link               string `json:"link"`
}

// AchievementUpdate is a partial update; nil fields are left untouched.
type AchievementUpdate struct {
	Title              *string `json:"title"`
	Description        *string `json:"description"`
	Date               *string `json:"date"`
	Category           *string `json:"category"`
	IsCompleted        *bool   `json:"is_completed"`
	IsAppliedToWebsite *bool   `json:"is_applied_to_website"`
	Link               *string `json:"link"`
}

// Empty reports whether the update changes nothing.
func (u AchievementUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Date == nil && u.Category == nil &&
		u.IsCompleted == nil && u.IsAppliedToWebsite == nil && u.Link == nil
}

// PublicAchievement is the subset of an achievement shown to clients.
type PublicAchievement struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	DescriptionHTML    string `json:"description_html"`
	Date               string `json:"date"`
	Category           string `json:"category"`
	IsCompleted        bool   `json:"is_completed"`
	IsAppliedToWebsite bool   `json:"is_applied_to_website"`
	Link               string `json:"link,omitempty"`
}
