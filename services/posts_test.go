package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/storage"
)

func strPtr(s string) *string { return &s }

func TestCreatePostDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")

	p, err := f.posts.Create(ctx, owner, PostInput{
		Title:       "  Hello <script>alert(1)</script>",
		Description: "desc",
		Tags:        []string{"go", " go ", "", "web"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, models.CategoryArticle, p.Category)
	assert.Equal(t, []string{"go", "web"}, p.Tags)
	assert.Empty(t, p.Likes)
	assert.EqualValues(t, 0, p.Views)
	require.NotNil(t, p.Author)
	assert.Equal(t, owner.ID, p.Author.ID)
	assert.Equal(t, "alice", p.Author.Username)
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")

	_, err := f.posts.Create(ctx, owner, PostInput{Title: "", Description: "d"}, nil)
	requireKind(t, err, KindValidation)
	_, err = f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "   "}, nil)
	requireKind(t, err, KindValidation)
	_, err = f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "d", Category: "Podcast"}, nil)
	requireKind(t, err, KindValidation)

	n, _ := f.store.CountPosts(ctx)
	assert.EqualValues(t, 0, n)
}

func TestCreatePostWithMedia(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")

	uploads := []storage.Upload{
		storage.FromBytes("a.png", "image/png", []byte("png")),
		storage.FromBytes("b.mp4", "video/mp4", []byte("mp4")),
		storage.FromBytes("c.pdf", "application/pdf", []byte("%PDF-1.4")),
	}
	p, err := f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "d", Category: "Resource"}, uploads)
	require.NoError(t, err)
	require.Len(t, p.Media, 3)
	assert.Equal(t, models.MediaImage, p.Media[0].Type)
	assert.Equal(t, models.MediaVideo, p.Media[1].Type)
	assert.Equal(t, models.MediaDocument, p.Media[2].Type)
	assert.Equal(t, "/uploads/a.png", p.Media[0].URL)
	assert.Len(t, f.files.Saved, 3)
}

func TestCreatePostMediaLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")

	f.posts.MaxMedia = 2
	uploads := make([]storage.Upload, 3)
	for i := range uploads {
		uploads[i] = storage.FromBytes(fmt.Sprintf("%d.png", i), "image/png", []byte("x"))
	}
	_, err := f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "d"}, uploads)
	requireKind(t, err, KindValidation)

	f.posts.MaxUploadBytes = 2
	_, err = f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "d"}, []storage.Upload{
		storage.FromBytes("big.png", "image/png", []byte("too big")),
	})
	requireKind(t, err, KindValidation)

	f.posts.MaxUploadBytes = 0
	f.files.Err = errors.New("disk full")
	_, err = f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "d"}, uploads[:1])
	requireKind(t, err, KindServer)
	assert.Empty(t, f.files.Saved)
}

func TestCreatePostLeavesNoOrphanUploads(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")

	// the oversized file comes last, so nothing may be saved before it is checked
	f.posts.MaxUploadBytes = 4
	_, err := f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "d", Category: "Notes"}, []storage.Upload{
		storage.FromBytes("small.png", "image/png", []byte("ok")),
		storage.FromBytes("big.png", "image/png", []byte("too big")),
	})
	requireKind(t, err, KindValidation)
	assert.Empty(t, f.files.Saved)
	assert.Empty(t, f.files.Removed)

	f.posts.MaxUploadBytes = 0
	f.files.Err = errors.New("quota exceeded")
	f.files.FailAfter = 1
	_, err = f.posts.Create(ctx, owner, PostInput{Title: "t", Description: "d", Category: "Notes"}, []storage.Upload{
		storage.FromBytes("a.png", "image/png", []byte("a")),
		storage.FromBytes("b.png", "image/png", []byte("b")),
	})
	requireKind(t, err, KindServer)
	assert.Empty(t, f.files.Saved)
	require.Len(t, f.files.Removed, 1)
	assert.Equal(t, "a.png", f.files.Removed[0].Name)

	n, err := f.store.CountPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")
	for i := 0; i < 25; i++ {
		f.post(t, owner, fmt.Sprintf("post %02d", i))
	}

	page1, err := f.posts.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page1.Posts, 10)
	assert.Equal(t, 3, page1.TotalPages)
	assert.EqualValues(t, 25, page1.Total)
	assert.Equal(t, "post 24", page1.Posts[0].Title)

	page3, err := f.posts.List(ctx, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page3.Posts, 5)
	assert.Equal(t, "post 00", page3.Posts[4].Title)
	assert.Equal(t, 3, page3.CurrentPage)

	page4, err := f.posts.List(ctx, 4, 10)
	require.NoError(t, err)
	assert.Empty(t, page4.Posts)
	assert.NotNil(t, page4.Posts)

	huge, err := f.posts.List(ctx, math.MaxInt, 100)
	require.NoError(t, err)
	assert.Empty(t, huge.Posts)
	assert.Equal(t, math.MaxInt, huge.CurrentPage)
	assert.Equal(t, 1, huge.TotalPages)

	for _, p := range page1.Posts {
		require.NotNil(t, p.Author)
		assert.Equal(t, "alice", p.Author.Username)
	}
}

func TestListEmpty(t *testing.T) {
	f := newFixture()
	page, err := f.posts.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPages)
	assert.Empty(t, page.Posts)
}

func TestGetCountsViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.post(t, f.register(t, "alice"), "t")

	var got *models.Post
	var err error
	for i := 0; i < 4; i++ {
		got, err = f.posts.Get(ctx, p.ID)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 4, got.Views)

	_, err = f.posts.Get(ctx, "missing")
	requireKind(t, err, KindNotFound)
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")
	other := f.register(t, "bob")
	p := f.post(t, owner, "original")

	_, _, err := f.posts.ToggleLike(ctx, p.ID, other.ID)
	require.NoError(t, err)
	_, err = f.posts.Get(ctx, p.ID)
	require.NoError(t, err)

	tags := []string{"x"}
	_, err = f.posts.Update(ctx, p.ID, other.ID, PostPatch{Title: strPtr("hacked"), Content: strPtr("spam"), Tags: &tags})
	requireKind(t, err, KindForbidden)
	kept, err := f.store.FindPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", kept.Title)
	assert.Equal(t, p.Content, kept.Content)
	assert.Equal(t, p.Tags, kept.Tags)
	assert.Equal(t, models.IDSet{other.ID}, kept.Likes)
	assert.EqualValues(t, 1, kept.Views)

	_, err = f.posts.Update(ctx, "missing", other.ID, PostPatch{})
	requireKind(t, err, KindNotFound)

	tags = []string{"a", "a", "b"}
	updated, err := f.posts.Update(ctx, p.ID, owner.ID, PostPatch{
		Title:    strPtr("renamed"),
		Category: strPtr("Tutorial"),
		Tags:     &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "about original", updated.Description)
	assert.Equal(t, models.CategoryTutorial, updated.Category)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)
	assert.Equal(t, owner.ID, updated.AuthorID)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	_, err = f.posts.Update(ctx, p.ID, owner.ID, PostPatch{Category: strPtr("Nope")})
	requireKind(t, err, KindValidation)
	_, err = f.posts.Update(ctx, p.ID, owner.ID, PostPatch{Title: strPtr(" ")})
	requireKind(t, err, KindValidation)
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")
	other := f.register(t, "bob")
	p := f.post(t, owner, "t")
	_, err := f.comments.Create(ctx, other, p.ID, "nice")
	require.NoError(t, err)

	_, _, err = f.posts.ToggleLike(ctx, p.ID, owner.ID)
	require.NoError(t, err)

	requireKind(t, f.posts.Delete(ctx, p.ID, other.ID), KindForbidden)
	kept, err := f.store.FindPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", kept.Title)
	assert.Equal(t, models.IDSet{owner.ID}, kept.Likes)
	assert.EqualValues(t, 0, kept.Views)

	require.NoError(t, f.posts.Delete(ctx, p.ID, owner.ID))
	requireKind(t, f.posts.Delete(ctx, p.ID, owner.ID), KindNotFound)

	_, err = f.posts.Get(ctx, p.ID)
	requireKind(t, err, KindNotFound)

	// comments survive by default
	n, _ := f.store.CountComments(ctx)
	assert.EqualValues(t, 1, n)
}

func TestDeletePostCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.posts.CascadeComments = true
	owner := f.register(t, "alice")
	p := f.post(t, owner, "t")
	keep := f.post(t, owner, "keep")
	for _, id := range []string{p.ID, p.ID, keep.ID} {
		_, err := f.comments.Create(ctx, owner, id, "hi")
		require.NoError(t, err)
	}

	require.NoError(t, f.posts.Delete(ctx, p.ID, owner.ID))
	n, _ := f.store.CountComments(ctx)
	assert.EqualValues(t, 1, n)
}

func TestTogglePostLike(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")
	fan := f.register(t, "bob")
	p := f.post(t, owner, "t")

	got, liked, err := f.posts.ToggleLike(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, models.IDSet{fan.ID}, got.Likes)

	got, liked, err = f.posts.ToggleLike(ctx, p.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, got.Likes)

	_, _, err = f.posts.ToggleLike(ctx, "missing", fan.ID)
	requireKind(t, err, KindNotFound)
}

func TestSearchPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")
	_, err := f.posts.Create(ctx, owner, PostInput{Title: "Learning Go", Description: "basics", Category: "Tutorial"}, nil)
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, owner, PostInput{Title: "Trip", Description: "photos", Category: "Notes", Tags: []string{"travel"}}, nil)
	require.NoError(t, err)

	posts, err := f.posts.Search(ctx, "go", "")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Learning Go", posts[0].Title)
	assert.NotNil(t, posts[0].Author)

	posts, err = f.posts.Search(ctx, "", "Notes")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	posts, err = f.posts.Search(ctx, "travel", "Tutorial")
	require.NoError(t, err)
	assert.Empty(t, posts)

	posts, err = f.posts.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestPlainTextFieldsStayLiteral(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.register(t, "alice")

	title := `Tom & Jerry's "Guide" <b>now</b>`
	p, err := f.posts.Create(ctx, owner, PostInput{
		Title:       title,
		Description: "2 < 3 & 4 > 1",
		Content:     "<p>Fish & chips</p>",
		Tags:        []string{"R&D", "<i>it's</i>"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry's "Guide" now`, p.Title)
	assert.Equal(t, "2 < 3 & 4 > 1", p.Description)
	assert.Equal(t, []string{"R&D", "it's"}, p.Tags)
	// rich content keeps its allowed markup
	assert.Equal(t, "<p>Fish &amp; chips</p>", p.Content)

	hits, err := f.posts.Search(ctx, "Jerry's", "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, p.ID, hits[0].ID)

	// sending the stored title back does not alter it
	updated, err := f.posts.Update(ctx, p.ID, owner.ID, PostPatch{Title: strPtr(p.Title), Description: strPtr(p.Description)})
	require.NoError(t, err)
	assert.Equal(t, p.Title, updated.Title)
	assert.Equal(t, p.Description, updated.Description)

	c, err := f.comments.Create(ctx, owner, p.ID, "I'd say 2 < 3 & ok")
	require.NoError(t, err)
	assert.Equal(t, "I'd say 2 < 3 & ok", c.Text)
}
