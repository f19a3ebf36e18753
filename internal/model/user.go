package model

import (
	"time"
)

type User struct {
	ID           uint64  `gorm:"primaryKey"`
	Email        *string `gorm:"type:varchar(100);uniqueIndex:idx_email"`
	Name         *string `gorm:"type:varchar(50)"`
	Password     *string `gorm:"type:varchar(255)"`
	AvatarURL    *string `gorm:"type:varchar(255)"`
	IsDelete     bool    `gorm:"type:tinyint(1);default:0"`
	LastActiveAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}
