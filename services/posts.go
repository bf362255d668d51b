package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/storage"
	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/utils"
)

// MaxMediaFiles is the default number of attachments accepted per post.
const MaxMediaFiles = 5

// PostService implements listing, reading, authoring, liking and searching posts.
type PostService struct {
	store store.Store
	files storage.FileStore
	// CascadeComments removes a post's comments together with the post.
	CascadeComments bool
	MaxMedia        int
	MaxUploadBytes  int64
	Now             func() time.Time
}

func NewPostService(st store.Store, files storage.FileStore) *PostService {
	return &PostService{store: st, files: files, MaxMedia: MaxMediaFiles, Now: time.Now}
}

// PostPage is one page of the newest-first post listing.
type PostPage struct {
	Posts       []*models.Post `json:"posts"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	Total       int64          `json:"total"`
}

// PostInput is the content of a new post.
type PostInput struct {
	Title       string
	Description string
	Content     string
	Category    string
	Tags        []string
}

// PostPatch lists the only fields an owner may change. Nil fields are left alone.
type PostPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Content     *string   `json:"content"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
}

// List returns page (1-based) of size limit; both must already be positive.
func (s *PostService) List(ctx context.Context, page, limit int) (*PostPage, error) {
	total, err := s.store.CountPosts(ctx)
	if err != nil {
		return nil, ErrServer(err)
	}
	result := &PostPage{
		Posts:       []*models.Post{},
		CurrentPage: page,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		Total:       total,
	}
	// pages past the end are empty; checking first keeps (page-1)*limit from overflowing
	if page > result.TotalPages {
		return result, nil
	}
	posts, err := s.store.ListPosts(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, ErrServer(err)
	}
	if err := attachPostAuthors(ctx, s.store, posts...); err != nil {
		return nil, ErrServer(err)
	}
	result.Posts = posts
	return result, nil
}

// Get counts one view and returns the post.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	if err := s.store.IncrementPostViews(ctx, id); err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	return s.load(ctx, id)
}

func (s *PostService) load(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	if err := attachPostAuthors(ctx, s.store, post); err != nil {
		return nil, ErrServer(err)
	}
	return post, nil
}

// Create stores the uploads and persists a new post owned by owner.
func (s *PostService) Create(ctx context.Context, owner *models.User, in PostInput, uploads []storage.Upload) (*models.Post, error) {
	title := utils.PlainText(in.Title)
	description := utils.PlainText(in.Description)
	if title == "" || description == "" {
		return nil, ErrValidation("Title and description are required")
	}
	category, ok := models.ParseCategory(in.Category)
	if !ok {
		return nil, ErrValidation("Invalid category")
	}
	if n := s.MaxMedia; n > 0 && len(uploads) > n {
		return nil, ErrValidation("Too many media files")
	}

	for _, u := range uploads {
		if s.MaxUploadBytes > 0 && u.Size > s.MaxUploadBytes {
			return nil, ErrValidation("File too large")
		}
	}

	saved := make([]storage.StoredFile, 0, len(uploads))
	media := make([]models.Media, 0, len(uploads))
	for _, u := range uploads {
		stored, err := s.files.Save(ctx, u)
		if err != nil {
			s.discard(saved)
			return nil, ErrServer(err)
		}
		saved = append(saved, stored)
		media = append(media, models.Media{
			Type:     models.ClassifyMedia(stored.ContentType),
			URL:      stored.URL,
			Filename: stored.Name,
		})
	}

	post := &models.Post{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Content:     utils.Sanitize(in.Content),
		Category:    category,
		Tags:        sanitizeTags(in.Tags),
		Media:       media,
		AuthorID:    owner.ID,
		Likes:       models.IDSet{},
		CreatedAt:   s.Now(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		s.discard(saved)
		return nil, ErrServer(err)
	}
	post.Author = owner.Summary()
	return post, nil
}

// discard removes files saved for a post that was never created.
func (s *PostService) discard(files []storage.StoredFile) {
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, f := range files {
		if err := s.files.Remove(ctx, f); err != nil {
			utils.Sugar.Warnf("discard upload failed file=%s err=%v", f.Name, err)
		}
	}
}

// Update merges the allowed fields of patch into the post when actorID owns it.
func (s *PostService) Update(ctx context.Context, id, actorID string, patch PostPatch) (*models.Post, error) {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	if post.AuthorID != actorID {
		return nil, ErrForbidden()
	}

	if patch.Title != nil {
		title := utils.PlainText(*patch.Title)
		if title == "" {
			return nil, ErrValidation("Title is required")
		}
		post.Title = title
	}
	if patch.Description != nil {
		description := utils.PlainText(*patch.Description)
		if description == "" {
			return nil, ErrValidation("Description is required")
		}
		post.Description = description
	}
	if patch.Content != nil {
		post.Content = utils.Sanitize(*patch.Content)
	}
	if patch.Category != nil {
		category, ok := models.ParseCategory(*patch.Category)
		if !ok {
			return nil, ErrValidation("Invalid category")
		}
		post.Category = category
	}
	if patch.Tags != nil {
		post.Tags = sanitizeTags(*patch.Tags)
	}

	if err := s.store.SavePost(ctx, post); err != nil {
		return nil, ErrServer(err)
	}
	if err := attachPostAuthors(ctx, s.store, post); err != nil {
		return nil, ErrServer(err)
	}
	return post, nil
}

// Delete removes the post when actorID owns it.
func (s *PostService) Delete(ctx context.Context, id, actorID string) error {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Post not found")
	}
	if post.AuthorID != actorID {
		return ErrForbidden()
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return notFoundOr(err, "Post not found")
	}
	if s.CascadeComments {
		if n, err := s.store.DeleteCommentsByPost(ctx, id); err != nil {
			utils.Sugar.Warnf("cascade comment delete failed post=%s err=%v", id, err)
		} else {
			utils.Sugar.Debugf("cascade deleted %d comments of post %s", n, id)
		}
	}
	return nil
}

// ToggleLike flips actorID's like and reports whether the post is liked afterwards.
func (s *PostService) ToggleLike(ctx context.Context, id, actorID string) (*models.Post, bool, error) {
	post, err := s.store.FindPostByID(ctx, id)
	if err != nil {
		return nil, false, notFoundOr(err, "Post not found")
	}
	var liked bool
	post.Likes, liked = post.Likes.Toggle(actorID)
	if err := s.store.SavePost(ctx, post); err != nil {
		return nil, false, ErrServer(err)
	}
	if err := attachPostAuthors(ctx, s.store, post); err != nil {
		return nil, false, ErrServer(err)
	}
	return post, liked, nil
}

// Search matches text and/or an exact category, newest first. Empty filters return every post.
func (s *PostService) Search(ctx context.Context, query, category string) ([]*models.Post, error) {
	posts, err := s.store.SearchPosts(ctx, store.PostFilter{
		Query:    strings.TrimSpace(query),
		Category: strings.TrimSpace(category),
	})
	if err != nil {
		return nil, ErrServer(err)
	}
	if err := attachPostAuthors(ctx, s.store, posts...); err != nil {
		return nil, ErrServer(err)
	}
	return posts, nil
}

func sanitizeTags(tags []string) []string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		clean = append(clean, utils.PlainText(t))
	}
	return models.NormalizeTags(clean)
}

