package model

import "time"

// QueryLog records a single protected-command invocation for usage stats.
type QueryLog struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"index"`
	ChatID    int64
	Command   string `gorm:"index"`
	Argument  string
	Outcome   string // "ok" or an error kind
	CreatedAt time.Time
}
