package models

import (
	"time"
)

type Content struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	Title        string    `json:"title" gorm:"type:text;not null"`
	URL          string    `json:"url" gorm:"type:text;not null"`
	Published    string    `json:"published" gorm:"type:text;index:idx_content_published"`
	ContentType  string    `json:"contentType" gorm:"type:text;index:idx_content_type"`
	Publication  string    `json:"publication" gorm:"type:text"`
	Person       string    `json:"person" gorm:"type:text"`
	Organization string    `json:"organization" gorm:"type:text;index:idx_content_organization"`
	Industry     []string  `json:"industry" gorm:"type:text;serializer:json"`
	Topics       []string  `json:"topics" gorm:"type:text;serializer:json"`
	Tags         []string  `json:"tags" gorm:"type:text;serializer:json"`
	CDate        time.Time `json:"cdate" gorm:"autoCreateTime"`
	MDate        time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

func (Content) TableName() string {
	return "content"
}
