package models

import "time"

// ActivityModel is one activity log row.
type ActivityModel struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	Kind     string    `gorm:"size:32;index;not null"`
	Subject  string    `gorm:"size:255"`
	TargetID int64     `gorm:"index"`
	Outcome  string    `gorm:"size:16;not null"`
	Detail   string    `gorm:"type:text"`
	At       time.Time `gorm:"index;not null"`
}

// TableName sets the table name
func (ActivityModel) TableName() string {
	return "activities"
}
