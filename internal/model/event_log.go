package model

import "time"

// Log levels
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Log categories
const (
	LogCategoryAuth    = "auth"
	LogCategoryContent = "content"
	LogCategoryProfile = "profile"
	LogCategoryMedia   = "media"
	LogCategoryCache   = "cache"
	LogCategoryConfig  = "config"
	LogCategorySystem  = "system"
)

// LogEntry is a row of the event log.
type LogEntry struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId,omitempty"`
	Metadata  string    `json:"metadata"` // JSON string
	CreatedAt time.Time `json:"createdAt"`
}
