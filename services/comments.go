package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/utils"
)

// CommentService manages comments attached to posts.
type CommentService struct {
	store store.Store
	Now   func() time.Time
}

func NewCommentService(st store.Store) *CommentService {
	return &CommentService{store: st, Now: time.Now}
}

// List returns the comments of a post, newest first. An unknown post simply has none.
func (s *CommentService) List(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := s.store.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, ErrServer(err)
	}
	if err := attachCommentAuthors(ctx, s.store, comments...); err != nil {
		return nil, ErrServer(err)
	}
	return comments, nil
}

// Create adds a comment to an existing post.
func (s *CommentService) Create(ctx context.Context, owner *models.User, postID, text string) (*models.Comment, error) {
	text = utils.PlainText(text)
	if text == "" {
		return nil, ErrValidation("Comment text is required")
	}
	if _, err := s.store.FindPostByID(ctx, postID); err != nil {
		return nil, notFoundOr(err, "Post not found")
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		AuthorID:  owner.ID,
		PostID:    postID,
		Likes:     models.IDSet{},
		CreatedAt: s.Now(),
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, ErrServer(err)
	}
	comment.Author = owner.Summary()
	return comment, nil
}

// Delete removes the comment when actorID wrote it.
func (s *CommentService) Delete(ctx context.Context, id, actorID string) error {
	comment, err := s.store.FindCommentByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Comment not found")
	}
	if comment.AuthorID != actorID {
		return ErrForbidden()
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return notFoundOr(err, "Comment not found")
	}
	return nil
}

// ToggleLike flips actorID's like on the comment.
func (s *CommentService) ToggleLike(ctx context.Context, id, actorID string) (*models.Comment, bool, error) {
	comment, err := s.store.FindCommentByID(ctx, id)
	if err != nil {
		return nil, false, notFoundOr(err, "Comment not found")
	}
	var liked bool
	comment.Likes, liked = comment.Likes.Toggle(actorID)
	if err := s.store.SaveComment(ctx, comment); err != nil {
		return nil, false, ErrServer(err)
	}
	if err := attachCommentAuthors(ctx, s.store, comment); err != nil {
		return nil, false, ErrServer(err)
	}
	return comment, liked, nil
}
