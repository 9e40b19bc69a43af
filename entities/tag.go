package entities

import "github.com/google/uuid"

type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"not null" json:"name"`
	Slug string    `gorm:"uniqueIndex;not null" json:"slug"`

	Timestamp
}
