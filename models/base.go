package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model carries the opaque id shared by every collection.
type Model struct {
	ID string `json:"_id" gorm:"primaryKey;type:varchar(36)"`
}

func (m Model) GetID() string { return m.ID }

func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Quiz{},
		&Question{},
		&Score{},
		&CourseCategory{},
		&Course{},
		&Chapter{},
		&Notes{},
		&Download{},
		&Contact{},
		&SubscribedUser{},
		&Broadcast{},
	}
}
