package model

import "time"

// Completion records that one occurrence of a task was done. The unique
// index over (task_id, date) makes recording idempotent: a retry of the
// same occurrence cannot insert a second row.
type Completion struct {
	ID          uint      `gorm:"primaryKey"`
	TaskID      uint      `gorm:"index:idx_task_date,unique"`
	Date        time.Time `gorm:"index:idx_task_date,unique"`
	CompletedAt time.Time
}
