package models

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultQuestionDuration is the time allowed per question, in seconds.
const DefaultQuestionDuration = 40

type AnswerOption struct {
	AnswerText   string  `json:"answerText"`
	Explanations *string `json:"explanations"`
	IsCorrect    bool    `json:"isCorrect"`
}

type Question struct {
	Model
	QuestionText  string                            `json:"questionText" gorm:"not null"`
	AnswerOptions datatypes.JSONSlice[AnswerOption] `json:"answerOptions"`
	CreationDate  time.Time                         `json:"creation_date" gorm:"autoCreateTime"`
	Category      string                            `json:"category" gorm:"index"`
	Quiz          string                            `json:"quiz" gorm:"index"`
	CreatedBy     string                            `json:"created_by"`
	LastUpdatedBy string                            `json:"last_updated_by,omitempty"`
	Duration      int                               `json:"duration" gorm:"not null;default:40"`
}

type Score struct {
	Model
	// ScoreID is the client-generated identifier of a quiz attempt.
	ScoreID  string    `json:"id" gorm:"column:score_id;uniqueIndex;not null"`
	Marks    int       `json:"marks"`
	OutOf    int       `json:"out_of"`
	Category string    `json:"category" gorm:"index"`
	Quiz     string    `json:"quiz" gorm:"index"`
	Review   string    `json:"review"`
	TakenBy  string    `json:"taken_by" gorm:"index"`
	TestDate time.Time `json:"test_date" gorm:"autoCreateTime"`
}
