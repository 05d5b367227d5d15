package model

import "time"

// DefaultTagColor is applied when a tag is created without a color.
const DefaultTagColor = "#000000"

// Tag is a named, colored label attachable to many todos,
// optionally grouped under a category.
type Tag struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Color      string    `json:"color" db:"color"`
	CategoryID *string   `json:"category_id,omitempty" db:"category_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
