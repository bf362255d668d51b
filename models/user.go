package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered identity. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Username       string    `gorm:"size:64;uniqueIndex;not null" bson:"username" json:"username"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash   string    `gorm:"size:255" bson:"passwordHash" json:"-"`
	Bio            string    `gorm:"size:500" bson:"bio" json:"bio"`
	ProfilePicture string    `gorm:"size:1024" bson:"profilePicture" json:"profilePicture"`
	Bookmarks      IDSet     `gorm:"type:text;serializer:json" bson:"bookmarks" json:"bookmarks"`
	Provider       string    `gorm:"size:32;index:idx_users_provider" bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderID     string    `gorm:"size:255;index:idx_users_provider" bson:"providerId,omitempty" json:"-"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OwnerSummary is the public projection of a User embedded in posts and comments.
type OwnerSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// Summary projects the user to its public owner summary.
func (u *User) Summary() *OwnerSummary {
	return &OwnerSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeSave ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
