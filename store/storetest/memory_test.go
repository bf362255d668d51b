package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/store"
)

func TestMemoryStoreContract(t *testing.T) {
	RunContract(t, func(*testing.T) store.Store { return NewMemoryStore() })
}

func TestStoredRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	p := &models.Post{ID: "p", Likes: models.IDSet{"a"}}
	require.NoError(t, m.CreatePost(ctx, p))
	p.Likes[0] = "mutated"

	got, err := m.FindPostByID(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{"a"}, got.Likes)

	got.Likes[0] = "mutated again"
	again, err := m.FindPostByID(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{"a"}, again.Likes)
}

func TestListPostsNegativeOffset(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.CreatePost(ctx, &models.Post{ID: "p"}))

	posts, err := m.ListPosts(ctx, -10, 5)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
