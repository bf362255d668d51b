package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/routes"
	"github.com/cppla/sharehub/storage"
	"github.com/cppla/sharehub/store/storetest"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "sharehub-client")
	if err != nil {
		panic(err)
	}
	os.Setenv("JWT_SECRET", "client-test-secret")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("GIN_PATH", filepath.Join(dir, "gin.log"))
	os.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestClient(t *testing.T) *Client {
	srv := httptest.NewServer(routes.SetupRouter(storetest.NewMemoryStore(), &storage.FakeFileStore{}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api/")
}

func TestSessionRequire(t *testing.T) {
	var s *Session
	assert.False(t, s.Authenticated())
	assert.Equal(t, ErrLoginRequired, s.Require())

	s = &Session{Token: "t", User: &User{ID: "u"}}
	assert.NoError(t, s.Require())
	s.Clear()
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User)
}

func TestProtectedCallsNeedSession(t *testing.T) {
	c := New("http://127.0.0.1:0/api")
	ctx := context.Background()

	_, err := c.CreatePost(ctx, nil, NewPost{Title: "t", Description: "d"})
	assert.Equal(t, ErrLoginRequired, err)
	_, _, err = c.TogglePostLike(ctx, &Session{}, "p")
	assert.Equal(t, ErrLoginRequired, err)
	_, err = c.ToggleBookmark(ctx, nil, "p")
	assert.Equal(t, ErrLoginRequired, err)
	assert.NoError(t, c.Logout(ctx, nil))
}

func TestClientEndToEnd(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	alice, err := c.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, alice.User)
	assert.Equal(t, "alice", alice.User.Username)

	_, err = c.Register(ctx, "alice", "alice@example.com", "secret123")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "User already exists", apiErr.Message)

	bob, err := c.Register(ctx, "bob", "bob@example.com", "secret123")
	require.NoError(t, err)

	post, err := c.CreatePost(ctx, alice, NewPost{
		Title:       "Photo dump",
		Description: "pictures",
		Category:    "Notes",
		Tags:        []string{"trip", "summer"},
		Media: []File{
			{Name: "a.png", ContentType: "image/png", Data: []byte("png")},
			{Name: "notes.pdf", Data: []byte("%PDF-1.4\n")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryNotes, post.Category)
	assert.Equal(t, []string{"trip", "summer"}, post.Tags)
	require.Len(t, post.Media, 2)
	assert.Equal(t, models.MediaImage, post.Media[0].Type)
	assert.Equal(t, models.MediaDocument, post.Media[1].Type)

	_, err = c.UpdatePost(ctx, bob, post.ID, PostUpdate{Title: strPtr("mine now")})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	updated, err := c.UpdatePost(ctx, alice, post.ID, PostUpdate{Description: strPtr("better pictures")})
	require.NoError(t, err)
	assert.Equal(t, "better pictures", updated.Description)
	assert.Equal(t, "Photo dump", updated.Title)

	liked, on, err := c.TogglePostLike(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, liked.Likes.Contains(bob.User.ID))

	got, err := c.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)

	comment, err := c.CreateComment(ctx, bob, post.ID, "great shots")
	require.NoError(t, err)
	_, on, err = c.ToggleCommentLike(ctx, alice, comment.ID)
	require.NoError(t, err)
	assert.True(t, on)
	comments, err := c.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].Author.Username)
	require.NoError(t, c.DeleteComment(ctx, bob, comment.ID))

	found, err := c.SearchPosts(ctx, "dump", "Notes")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	marked, err := c.ToggleBookmark(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.True(t, marked)
	bookmarks, err := c.Bookmarks(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, post.ID, bookmarks[0].ID)

	require.NoError(t, c.UpdateBio(ctx, alice, "photographer"))
	assert.Equal(t, "photographer", alice.User.Bio)
	pic, err := c.UploadProfilePicture(ctx, alice, File{Name: "me.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/me.png", pic)

	profile, err := c.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "photographer", profile.User.Bio)
	assert.Empty(t, profile.User.Email)
	assert.Len(t, profile.Posts, 1)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{UserCount: 2, PostCount: 1, CommentCount: 0}, stats)

	me, err := c.Me(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	require.NoError(t, c.DeletePost(ctx, alice, post.ID))
	_, err = c.GetPost(ctx, post.ID)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	require.NoError(t, c.Logout(ctx, alice))
	assert.False(t, alice.Authenticated())
}

func TestFeedLoadMore(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	s, err := c.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		_, err := c.CreatePost(ctx, s, NewPost{Title: "post", Description: "d"})
		require.NoError(t, err)
	}

	feed := NewFeed(c, 3)
	assert.True(t, feed.HasMore())
	pages := 0
	for feed.HasMore() {
		_, err := feed.LoadMore(ctx)
		require.NoError(t, err)
		pages++
	}
	assert.Equal(t, 3, pages)
	assert.Len(t, feed.Posts, 7)
	assert.Len(t, feed.Cards(s), 7)

	more, err := feed.LoadMore(ctx)
	require.NoError(t, err)
	assert.Nil(t, more)

	feed.Reset()
	assert.Empty(t, feed.Posts)
	assert.True(t, feed.HasMore())
}

func TestFeedEmpty(t *testing.T) {
	c := newTestClient(t)
	feed := NewFeed(c, 0)
	assert.Equal(t, 10, feed.Limit)
	posts, err := feed.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.False(t, feed.HasMore())
}

func TestNewPostCard(t *testing.T) {
	created := time.Date(2024, 5, 17, 12, 0, 0, 0, time.Local)
	post := &models.Post{
		ID:        "p1",
		Title:     "Hello",
		Category:  models.CategoryVideo,
		Author:    &models.OwnerSummary{ID: "u1", Username: "émile", ProfilePicture: "/uploads/e.png"},
		Likes:     models.IDSet{"u2", "u3"},
		Views:     42,
		CreatedAt: created,
		Media: []models.Media{
			{Type: models.MediaDocument, URL: "/uploads/a.pdf"},
			{Type: models.MediaImage, URL: "/uploads/b.png"},
		},
	}

	anon := NewPostCard(post, nil)
	assert.Equal(t, "É", anon.AuthorInitial)
	assert.Equal(t, "émile", anon.AuthorName)
	assert.Equal(t, 2, anon.LikeCount)
	assert.False(t, anon.Liked)
	assert.False(t, anon.CanEdit)
	assert.Equal(t, "May 17, 2024", anon.Date)
	assert.Equal(t, "/uploads/b.png", anon.Thumbnail)
	assert.EqualValues(t, 42, anon.Views)

	fan := NewPostCard(post, &Session{Token: "t", User: &User{ID: "u2"}})
	assert.True(t, fan.Liked)
	assert.False(t, fan.CanEdit)

	owner := NewPostCard(post, &Session{Token: "t", User: &User{ID: "u1"}})
	assert.False(t, owner.Liked)
	assert.True(t, owner.CanEdit)

	orphan := NewPostCard(&models.Post{ID: "p2"}, nil)
	assert.Equal(t, "U", orphan.AuthorInitial)
	assert.Equal(t, "Unknown", orphan.AuthorName)
	assert.Equal(t, 0, orphan.LikeCount)
}

func strPtr(s string) *string { return &s }
