package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID        string        `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Text      string        `gorm:"type:text;not null" bson:"text" json:"text"`
	AuthorID  string        `gorm:"size:36;index;not null" bson:"author" json:"-"`
	Author    *OwnerSummary `gorm:"-" bson:"-" json:"author"`
	PostID    string        `gorm:"size:36;index;not null" bson:"post" json:"post"`
	Likes     IDSet         `gorm:"type:text;serializer:json" bson:"likes" json:"likes"`
	CreatedAt time.Time     `gorm:"index" bson:"createdAt" json:"createdAt"`
}
