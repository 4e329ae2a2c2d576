package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Song is an uploaded track. AudioPath and CoverPath are public paths of files
// held by the file stage.
type Song struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Title      string    `json:"title" gorm:"size:255;not null"`
	Artist     string    `json:"artist" gorm:"size:255;not null;index"`
	AudioPath  string    `json:"audioUrl" gorm:"size:512;not null"`
	CoverPath  string    `json:"coverImage" gorm:"size:512;not null"`
	Genre      string    `json:"genre" gorm:"size:100"`
	Duration   int       `json:"duration" gorm:"not null;default:0"` // seconds
	UploadedBy *string   `json:"uploadedBy" gorm:"size:36;index"`
	Uploader   *User     `json:"uploader,omitempty" gorm:"foreignKey:UploadedBy;references:ID"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
