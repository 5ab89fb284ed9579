package models

import (
	"time"
)

// Link represents a shortened URL.
//
// The slug is unique across the whole table regardless of owner; the
// unique index is the final authority when two writers race the service
// level pre-check. OwnerID is the opaque identifier of the actor that
// created the link and never changes after creation. Deletion is a hard
// delete, there is no tombstone.
type Link struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	OwnerID     string    `gorm:"not null;index" json:"owner_id"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	OriginalURL string    `gorm:"not null" json:"original_url"`
}
