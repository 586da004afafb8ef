package models

import (
	"time"

	"gorm.io/datatypes"
)

type Category struct {
	Model
	Title         string                      `json:"title" gorm:"uniqueIndex;not null"`
	Description   string                      `json:"description" gorm:"not null"`
	CreationDate  time.Time                   `json:"creation_date" gorm:"autoCreateTime"`
	Quizes        datatypes.JSONSlice[string] `json:"quizes"`
	CreatedBy     string                      `json:"created_by"`
	LastUpdatedBy string                      `json:"last_updated_by,omitempty"`
}

type Quiz struct {
	Model
	Title         string                      `json:"title" gorm:"uniqueIndex;not null"`
	Description   string                      `json:"description" gorm:"not null"`
	CreationDate  time.Time                   `json:"creation_date" gorm:"autoCreateTime"`
	Category      string                      `json:"category" gorm:"index"`
	Questions     datatypes.JSONSlice[string] `json:"questions"`
	CreatedBy     string                      `json:"created_by"`
	LastUpdatedBy string                      `json:"last_updated_by,omitempty"`
}

func (Quiz) TableName() string { return "quizzes" }
