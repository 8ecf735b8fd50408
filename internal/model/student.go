package model

import "time"

type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	StudentClass string    `gorm:"column:student_class;size:50;not null" json:"student_class"`
	Stream       string    `gorm:"size:200;not null" json:"stream"`   // comma-joined selection
	Subjects     string    `gorm:"size:500;not null" json:"subjects"` // comma-joined selection
	Interests    string    `gorm:"type:text" json:"interests"`
	Skills       string    `gorm:"type:text" json:"skills"`
	CreatedAt    time.Time `json:"created_at"`
}
