package models

import (
	"time"

	"quizblog/auth"
)

type User struct {
	Model
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Password     string    `json:"-" gorm:"not null"`
	Role         auth.Role `json:"role" gorm:"not null;default:'Visitor'"`
	RegisterDate time.Time `json:"register_date" gorm:"autoCreateTime;index"`
}

type SubscribedUser struct {
	Model
	Name             string    `json:"name" gorm:"not null"`
	Email            string    `json:"email" gorm:"uniqueIndex;not null"`
	SubscriptionDate time.Time `json:"subscription_date" gorm:"autoCreateTime"`
}
