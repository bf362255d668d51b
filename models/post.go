package models

import (
	"strings"
	"time"
)

// Category classifies a post.
type Category string

const (
	CategoryNotes    Category = "Notes"
	CategoryVideo    Category = "Video"
	CategoryArticle  Category = "Article"
	CategoryTutorial Category = "Tutorial"
	CategoryResource Category = "Resource"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryNotes, CategoryVideo, CategoryArticle, CategoryTutorial, CategoryResource}

// ParseCategory validates a category name. An empty name yields the default Article.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryArticle, true
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Post is a unit of shared content with optional media attachments.
type Post struct {
	ID          string        `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Title       string        `gorm:"size:255;not null" bson:"title" json:"title"`
	Description string        `gorm:"type:text;not null" bson:"description" json:"description"`
	Content     string        `gorm:"type:text" bson:"content" json:"content"`
	Category    Category      `gorm:"size:32;index;default:'Article'" bson:"category" json:"category"`
	Tags        []string      `gorm:"type:text;serializer:json" bson:"tags" json:"tags"`
	Media       []Media       `gorm:"type:text;serializer:json" bson:"media" json:"media"`
	AuthorID    string        `gorm:"size:36;index;not null" bson:"author" json:"-"`
	Author      *OwnerSummary `gorm:"-" bson:"-" json:"author"`
	Likes       IDSet         `gorm:"type:text;serializer:json" bson:"likes" json:"likes"`
	Views       int64         `gorm:"not null;default:0" bson:"views" json:"views"`
	CreatedAt   time.Time     `gorm:"index" bson:"createdAt" json:"createdAt"`
}

// Normalize replaces nil collections with empty ones so responses never carry null arrays.
func (p *Post) Normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Media == nil {
		p.Media = []Media{}
	}
	if p.Likes == nil {
		p.Likes = IDSet{}
	}
}

// NormalizeTags trims tags, drops empties and duplicates, keeping first appearance order.
func NormalizeTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
