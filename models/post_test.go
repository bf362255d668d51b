package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("")
	assert.True(t, ok)
	assert.Equal(t, CategoryArticle, c)

	for _, want := range Categories {
		got, ok := ParseCategory(" " + string(want) + " ")
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok = ParseCategory("Podcast")
	assert.False(t, ok)
	_, ok = ParseCategory("notes")
	assert.False(t, ok, "categories are case sensitive")
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web"}, NormalizeTags([]string{" go", "", "web", "go ", "  "}))
	assert.Equal(t, []string{}, NormalizeTags(nil))
}

func TestClassifyMedia(t *testing.T) {
	assert.Equal(t, MediaImage, ClassifyMedia("image/png"))
	assert.Equal(t, MediaImage, ClassifyMedia("IMAGE/JPEG"))
	assert.Equal(t, MediaVideo, ClassifyMedia("video/mp4"))
	assert.Equal(t, MediaDocument, ClassifyMedia("application/pdf"))
	assert.Equal(t, MediaDocument, ClassifyMedia(""))
}

func TestPostJSONHidesAuthorID(t *testing.T) {
	p := &Post{ID: "p1", Title: "t", AuthorID: "u1", Author: &OwnerSummary{ID: "u1", Username: "ann"}}
	p.Normalize()
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.NotContains(t, raw, "AuthorID")
	assert.Equal(t, []interface{}{}, raw["likes"])
	assert.Equal(t, []interface{}{}, raw["media"])
	author := raw["author"].(map[string]interface{})
	assert.Equal(t, "ann", author["username"])
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	u := User{ID: "u1", Username: "ann", PasswordHash: "secret-hash", ProviderID: "123"}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret-hash")
	assert.NotContains(t, string(b), "123")
	assert.Equal(t, &OwnerSummary{ID: "u1", Username: "ann"}, u.Summary())
}
