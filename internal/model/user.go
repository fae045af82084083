package model

import "time"

// User is a local copy of an account owned by the external auth provider,
// refreshed from token claims whenever the user saves or likes a recipe
type User struct {
	ID        string    `gorm:"size:64;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:255" json:"name"`
	Image     string    `gorm:"type:text" json:"image"`
}
