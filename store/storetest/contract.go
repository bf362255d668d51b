package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/store"
)

// RunContract checks the behavior every store.Store backend must share.
// open is called once per subtest and must return an empty store. Subtests named in skip are skipped.
func RunContract(t *testing.T, open func(t *testing.T) store.Store, skip ...string) {
	cases := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, st store.Store)
	}{
		{"Users", contractUsers},
		{"PostRoundTrip", contractPostRoundTrip},
		{"ListNewestFirst", contractListNewestFirst},
		{"Search", contractSearch},
		{"Views", contractViews},
		{"DeletePost", contractDeletePost},
		{"Comments", contractComments},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			for _, name := range skip {
				if name == c.name {
					t.Skipf("%s not supported by this backend", name)
				}
			}
			c.fn(t, context.Background(), open(t))
		})
	}
}

var contractEpoch = time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)

func contractUsers(t *testing.T, ctx context.Context, st store.Store) {
	ann := &models.User{ID: "u1", Username: "ann", Email: "ann@example.com", Bookmarks: models.IDSet{"p2", "p1"}, Provider: "github", ProviderID: "42"}
	require.NoError(t, st.CreateUser(ctx, ann))
	require.NoError(t, st.CreateUser(ctx, &models.User{ID: "u2", Username: "bob", Email: "bob@example.com", Bookmarks: models.IDSet{}}))

	err := st.CreateUser(ctx, &models.User{ID: "u3", Username: "carl", Email: "ann@example.com", Bookmarks: models.IDSet{}})
	assert.True(t, errors.Is(err, store.ErrDuplicate), "duplicate email: %v", err)
	err = st.CreateUser(ctx, &models.User{ID: "u4", Username: "ann", Email: "other@example.com", Bookmarks: models.IDSet{}})
	assert.True(t, errors.Is(err, store.ErrDuplicate), "duplicate username: %v", err)

	got, err := st.FindUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, models.IDSet{"p2", "p1"}, got.Bookmarks)

	got, err = st.FindUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.ID)

	got, err = st.FindUserByProvider(ctx, "github", "42")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = st.FindUserByID(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound), "missing user: %v", err)

	byID, err := st.FindUsersByIDs(ctx, []string{"u1", "u2", "missing"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.Equal(t, "bob", byID["u2"].Username)
	empty, err := st.FindUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	got, err = st.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	got.Bio = "hello"
	got.Bookmarks = got.Bookmarks.Remove("p2")
	require.NoError(t, st.SaveUser(ctx, got))
	got, err = st.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, models.IDSet{"p1"}, got.Bookmarks)

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func contractPostRoundTrip(t *testing.T, ctx context.Context, st store.Store) {
	in := &models.Post{
		ID:          "p1",
		Title:       `Tom & Jerry's "Guide"`,
		Description: "2 < 3",
		Category:    models.CategoryTutorial,
		Tags:        []string{"go", "c&c"},
		Media:       []models.Media{{Type: models.MediaImage, URL: "/uploads/a.png", Filename: "a.png"}},
		AuthorID:    "u1",
		Likes:       models.IDSet{"u2"},
		CreatedAt:   contractEpoch,
	}
	require.NoError(t, st.CreatePost(ctx, in))

	got, err := st.FindPostByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.Category, got.Category)
	assert.Equal(t, in.Tags, got.Tags)
	assert.Equal(t, in.Media, got.Media)
	assert.Equal(t, in.Likes, got.Likes)
	assert.Equal(t, "u1", got.AuthorID)
	assert.True(t, contractEpoch.Equal(got.CreatedAt), "createdAt %v", got.CreatedAt)

	got.Likes, _ = got.Likes.Toggle("u3")
	got.Tags = []string{"rust"}
	require.NoError(t, st.SavePost(ctx, got))
	got, err = st.FindPostByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{"u2", "u3"}, got.Likes)
	assert.Equal(t, []string{"rust"}, got.Tags)

	byID, err := st.FindPostsByIDs(ctx, []string{"p1", "gone"})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Contains(t, byID, "p1")
}

func contractListNewestFirst(t *testing.T, ctx context.Context, st store.Store) {
	for i := 0; i < 5; i++ {
		require.NoError(t, st.CreatePost(ctx, &models.Post{
			ID:        fmt.Sprintf("p%d", i),
			Title:     "t",
			AuthorID:  "u1",
			Likes:     models.IDSet{},
			CreatedAt: contractEpoch.Add(time.Duration(i) * time.Minute),
		}))
	}
	// same timestamp as p4, inserted later
	require.NoError(t, st.CreatePost(ctx, &models.Post{ID: "tie", Title: "t", AuthorID: "u1", Likes: models.IDSet{}, CreatedAt: contractEpoch.Add(4 * time.Minute)}))

	posts, err := st.ListPosts(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"tie", "p4", "p3"}, postIDs(posts))

	posts, err = st.ListPosts(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1", "p0"}, postIDs(posts))

	posts, err = st.ListPosts(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, posts)

	n, err := st.CountPosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
}

func contractSearch(t *testing.T, ctx context.Context, st store.Store) {
	seed := []*models.Post{
		{ID: "1", Title: "Learning Go", Category: models.CategoryTutorial, AuthorID: "u1"},
		{ID: "2", Title: "Cooking", Tags: []string{"golang"}, Category: models.CategoryNotes, AuthorID: "u2"},
		{ID: "3", Title: "Travel", Description: "Tom & Jerry's trip", Category: models.CategoryNotes, AuthorID: "u1"},
	}
	for i, p := range seed {
		p.Likes = models.IDSet{}
		p.CreatedAt = contractEpoch.Add(time.Duration(i) * time.Second)
		require.NoError(t, st.CreatePost(ctx, p))
	}

	posts, err := st.SearchPosts(ctx, store.PostFilter{Query: "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, postIDs(posts))

	posts, err = st.SearchPosts(ctx, store.PostFilter{Query: "Jerry's"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, postIDs(posts))

	posts, err = st.SearchPosts(ctx, store.PostFilter{Category: "Notes", AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, postIDs(posts))

	posts, err = st.SearchPosts(ctx, store.PostFilter{Category: "Poetry"})
	require.NoError(t, err)
	assert.Empty(t, posts)

	posts, err = st.SearchPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, postIDs(posts))
}

func contractViews(t *testing.T, ctx context.Context, st store.Store) {
	require.NoError(t, st.CreatePost(ctx, &models.Post{ID: "p", Title: "t", AuthorID: "u1", Likes: models.IDSet{}, CreatedAt: contractEpoch}))
	for i := 0; i < 3; i++ {
		require.NoError(t, st.IncrementPostViews(ctx, "p"))
	}
	got, err := st.FindPostByID(ctx, "p")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Views)

	err = st.IncrementPostViews(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound), "missing post: %v", err)
}

func contractDeletePost(t *testing.T, ctx context.Context, st store.Store) {
	require.NoError(t, st.CreatePost(ctx, &models.Post{ID: "p", Title: "t", AuthorID: "u1", Likes: models.IDSet{}, CreatedAt: contractEpoch}))
	require.NoError(t, st.DeletePost(ctx, "p"))

	_, err := st.FindPostByID(ctx, "p")
	assert.True(t, errors.Is(err, store.ErrNotFound), "deleted post: %v", err)
	err = st.DeletePost(ctx, "p")
	assert.True(t, errors.Is(err, store.ErrNotFound), "second delete: %v", err)
}

func contractComments(t *testing.T, ctx context.Context, st store.Store) {
	for i, c := range []*models.Comment{
		{ID: "c1", PostID: "p", AuthorID: "u1", Text: "first"},
		{ID: "c2", PostID: "p", AuthorID: "u2", Text: "I'd say 2 < 3 & ok"},
		{ID: "c3", PostID: "other", AuthorID: "u1", Text: "elsewhere"},
	} {
		c.Likes = models.IDSet{}
		c.CreatedAt = contractEpoch.Add(time.Duration(i) * time.Second)
		require.NoError(t, st.CreateComment(ctx, c))
	}

	comments, err := st.ListCommentsByPost(ctx, "p")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, "I'd say 2 < 3 & ok", comments[0].Text)
	assert.Equal(t, "c1", comments[1].ID)

	c, err := st.FindCommentByID(ctx, "c1")
	require.NoError(t, err)
	c.Likes = c.Likes.Add("u9")
	require.NoError(t, st.SaveComment(ctx, c))
	c, err = st.FindCommentByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{"u9"}, c.Likes)

	require.NoError(t, st.DeleteComment(ctx, "c1"))
	err = st.DeleteComment(ctx, "c1")
	assert.True(t, errors.Is(err, store.ErrNotFound), "second delete: %v", err)

	n, err := st.DeleteCommentsByPost(ctx, "p")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := st.CountComments(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func postIDs(posts []*models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}
