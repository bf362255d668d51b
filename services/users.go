package services

import (
	"context"
	"strings"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/storage"
	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/utils"
)

const maxBioRunes = 500

// UserService serves public profiles, profile edits and bookmarks.
type UserService struct {
	store          store.Store
	files          storage.FileStore
	MaxUploadBytes int64
}

func NewUserService(st store.Store, files storage.FileStore) *UserService {
	return &UserService{store: st, files: files}
}

// Stats are public site counters.
type Stats struct {
	UserCount    int64 `json:"userCount"`
	PostCount    int64 `json:"postCount"`
	CommentCount int64 `json:"commentCount"`
}

// Profile returns the user and their posts, newest first.
func (s *UserService) Profile(ctx context.Context, username string) (*models.User, []*models.Post, error) {
	user, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, notFoundOr(err, "User not found")
	}
	posts, err := s.store.SearchPosts(ctx, store.PostFilter{AuthorID: user.ID})
	if err != nil {
		return nil, nil, ErrServer(err)
	}
	summary := user.Summary()
	for _, p := range posts {
		p.Normalize()
		p.Author = summary
	}
	return user, posts, nil
}

// UpdateBio changes only the bio. A nil bio leaves the profile unchanged.
func (s *UserService) UpdateBio(ctx context.Context, actorID string, bio *string) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, actorID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	if bio == nil {
		return user, nil
	}
	clean := utils.PlainText(*bio)
	if rs := []rune(clean); len(rs) > maxBioRunes {
		clean = string(rs[:maxBioRunes])
	}
	user.Bio = clean
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, ErrServer(err)
	}
	return user, nil
}

// SetProfilePicture stores the upload and points the profile at it.
func (s *UserService) SetProfilePicture(ctx context.Context, actorID string, upload *storage.Upload) (string, error) {
	if upload == nil {
		return "", ErrValidation("No file uploaded")
	}
	if s.MaxUploadBytes > 0 && upload.Size > s.MaxUploadBytes {
		return "", ErrValidation("File too large")
	}
	user, err := s.store.FindUserByID(ctx, actorID)
	if err != nil {
		return "", notFoundOr(err, "User not found")
	}
	stored, err := s.files.Save(ctx, *upload)
	if err != nil {
		return "", ErrServer(err)
	}
	user.ProfilePicture = stored.URL
	if err := s.store.SaveUser(ctx, user); err != nil {
		return "", ErrServer(err)
	}
	return user.ProfilePicture, nil
}

// ToggleBookmark flips postID in the actor's bookmarks. The post is not required to exist.
func (s *UserService) ToggleBookmark(ctx context.Context, actorID, postID string) (bool, error) {
	user, err := s.store.FindUserByID(ctx, actorID)
	if err != nil {
		return false, notFoundOr(err, "User not found")
	}
	var bookmarked bool
	user.Bookmarks, bookmarked = user.Bookmarks.Toggle(postID)
	if err := s.store.SaveUser(ctx, user); err != nil {
		return false, ErrServer(err)
	}
	return bookmarked, nil
}

// Bookmarks resolves the actor's bookmarks in bookmark order, skipping posts that no longer exist.
func (s *UserService) Bookmarks(ctx context.Context, actorID string) ([]*models.Post, error) {
	user, err := s.store.FindUserByID(ctx, actorID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	found, err := s.store.FindPostsByIDs(ctx, user.Bookmarks.Slice())
	if err != nil {
		return nil, ErrServer(err)
	}
	posts := make([]*models.Post, 0, len(found))
	for _, id := range user.Bookmarks {
		if p, ok := found[id]; ok {
			posts = append(posts, p)
		}
	}
	if err := attachPostAuthors(ctx, s.store, posts...); err != nil {
		return nil, ErrServer(err)
	}
	return posts, nil
}

// Stats counts users, posts and comments.
func (s *UserService) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	var err error
	if st.UserCount, err = s.store.CountUsers(ctx); err != nil {
		return nil, ErrServer(err)
	}
	if st.PostCount, err = s.store.CountPosts(ctx); err != nil {
		return nil, ErrServer(err)
	}
	if st.CommentCount, err = s.store.CountComments(ctx); err != nil {
		return nil, ErrServer(err)
	}
	return &st, nil
}
