package models

import "time"

// AppUser represents an application-side identity that provider accounts link to
type AppUser struct {
	ID        string    `json:"user_id" gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// TableName specifies the table name for AppUser
func (AppUser) TableName() string {
	return "users"
}
