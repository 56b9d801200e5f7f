package model

import (
	"time"

	"habitloop/internal/schedule"
)

// Task is a recurring habit: it repeats on a fixed set of weekdays and
// carries the streak of consecutive completed occurrences.
type Task struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index"`
	Title     string
	Category  string             `gorm:"default:General"`
	Frequency schedule.Frequency `gorm:"type:text"`
	Streak    int                `gorm:"default:0"`
	// NextDueAt caches the date of the earliest occurrence not yet
	// completed. Recomputed on completion and on frequency change.
	NextDueAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
