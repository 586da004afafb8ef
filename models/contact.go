package models

import (
	"time"

	"gorm.io/datatypes"
)

type Reply struct {
	ReplyName string    `json:"reply_name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	ReplyDate time.Time `json:"reply_date"`
}

type Contact struct {
	Model
	ContactName string                     `json:"contact_name" gorm:"not null"`
	Email       string                     `json:"email" gorm:"not null"`
	Message     string                     `json:"message" gorm:"not null"`
	ContactDate time.Time                  `json:"contact_date" gorm:"autoCreateTime"`
	Replies     datatypes.JSONSlice[Reply] `json:"replies"`
}

type Broadcast struct {
	Model
	Title     string    `json:"title" gorm:"not null"`
	Message   string    `json:"message" gorm:"not null"`
	SentBy    string    `json:"sent_by"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
