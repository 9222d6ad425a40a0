package models

import "time"

// User represents a reseller synchronized from the devmaster directory.
// The primary key is the external reseller id, never generated locally.
type User struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	Name       string    `json:"name"`
	Email      string    `gorm:"uniqueIndex" json:"email"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Clients   []Client   `json:"clients,omitempty"`
	Favorites []Favorite `json:"favorites,omitempty"`
}

// Verification holds a pending 6-digit email code. At most one row exists
// per user: issuing a new code deletes the previous ones.
type Verification struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int       `gorm:"index" json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Token     string    `gorm:"uniqueIndex" json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the opaque bearer credential minted after a successful
// verification. ExpiresAt is nil for sessions without expiry.
type Session struct {
	ID           int        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int        `gorm:"index" json:"userId"`
	User         *User      `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	SessionToken string     `gorm:"uniqueIndex" json:"sessionToken"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}
