package model

import "time"

// User anchors task ownership. Identity itself comes from the external
// session layer; TelegramID is set once the user links the reminder bot.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"index"`
	Name       string
	Email      string `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
