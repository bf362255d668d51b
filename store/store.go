// Package store persists identities, posts and comments. MongoStore is the
// document-store backend; GormStore keeps the same contract on MySQL.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cppla/sharehub/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// PostFilter narrows SearchPosts. Empty fields do not filter.
type PostFilter struct {
	Query    string
	Category string
	AuthorID string
}

// UserStore persists identities.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	// FindUsersByIDs returns the users that exist, keyed by ID.
	FindUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	CountUsers(ctx context.Context) (int64, error)
}

// PostStore persists posts. Lists are ordered newest first.
type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	// FindPostsByIDs returns the posts that exist, keyed by ID.
	FindPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error)
	// ListPosts returns one page; a limit of 0 returns everything after offset.
	ListPosts(ctx context.Context, offset, limit int) ([]*models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	SearchPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	// SavePost replaces the whole post document.
	SavePost(ctx context.Context, p *models.Post) error
	// IncrementPostViews adds one view atomically.
	IncrementPostViews(ctx context.Context, id string) error
	DeletePost(ctx context.Context, id string) error
}

// CommentStore persists comments. Lists are ordered newest first.
type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	FindCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	SaveComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByPost(ctx context.Context, postID string) (int64, error)
	CountComments(ctx context.Context) (int64, error)
}

// Store is the full persistence contract used by the services.
type Store interface {
	UserStore
	PostStore
	CommentStore
	Close(ctx context.Context) error
}
