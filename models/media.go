package models

import "strings"

// MediaKind is the coarse type of an attachment.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Media is an attachment stored by a file store.
type Media struct {
	Type     MediaKind `bson:"type" json:"type"`
	URL      string    `bson:"url" json:"url"`
	Filename string    `bson:"filename" json:"filename"`
}

// ClassifyMedia maps a content type to a media kind by its prefix.
func ClassifyMedia(contentType string) MediaKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaImage
	case strings.HasPrefix(ct, "video/"):
		return MediaVideo
	default:
		return MediaDocument
	}
}
