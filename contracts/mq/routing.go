package mq

// Routing keys published on the events exchange.
const (
	ProjectCreated     = "project.created"
	ProjectUpdated     = "project.updated"
	ProjectDeleted     = "project.deleted"
	AchievementCreated = "achievement.created"
	AchievementUpdated = "achievement.updated"
	AchievementDeleted = "achievement.deleted"
	SummarySaved       = "summary.saved"
)

// Aggregate types stored with each outbox event.
const (
	AggregateProject     = "project"
	AggregateAchievement = "achievement"
	AggregateSummary     = "summary"
)
