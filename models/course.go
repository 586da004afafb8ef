package models

import "time"

type CourseCategory struct {
	Model
	Title         string    `json:"title" gorm:"uniqueIndex;not null"`
	Description   string    `json:"description" gorm:"not null"`
	CreatedBy     string    `json:"created_by"`
	LastUpdatedBy string    `json:"last_updated_by,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Course struct {
	Model
	Title          string    `json:"title" gorm:"uniqueIndex;not null"`
	Description    string    `json:"description" gorm:"not null"`
	CourseCategory string    `json:"courseCategory" gorm:"index"`
	CreatedBy      string    `json:"created_by"`
	LastUpdatedBy  string    `json:"last_updated_by,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Chapter struct {
	Model
	Title          string    `json:"title" gorm:"uniqueIndex;not null"`
	Description    string    `json:"description" gorm:"not null"`
	Course         string    `json:"course" gorm:"index"`
	CourseCategory string    `json:"courseCategory" gorm:"index"`
	CreatedBy      string    `json:"created_by"`
	LastUpdatedBy  string    `json:"last_updated_by,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Notes struct {
	Model
	Title          string    `json:"title" gorm:"uniqueIndex;not null"`
	Description    string    `json:"description" gorm:"not null"`
	NotesFile      string    `json:"notes_file"`
	Chapter        string    `json:"chapter" gorm:"index"`
	Course         string    `json:"course" gorm:"index"`
	CourseCategory string    `json:"courseCategory" gorm:"index"`
	UploadedBy     string    `json:"uploaded_by"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Notes) TableName() string { return "notes" }

type Download struct {
	Model
	Notes          string    `json:"notes" gorm:"index"`
	Chapter        string    `json:"chapter"`
	Course         string    `json:"course"`
	CourseCategory string    `json:"courseCategory"`
	DownloadedBy   string    `json:"downloaded_by" gorm:"index"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
