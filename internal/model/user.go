package model

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:150;not null" json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
}
