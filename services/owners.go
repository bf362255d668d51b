package services

import (
	"context"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/utils"
)

// attachPostAuthors fills Author on every post with one batched lookup.
// Posts whose author no longer exists keep a nil Author.
func attachPostAuthors(ctx context.Context, users store.UserStore, posts ...*models.Post) error {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	found, err := users.FindUsersByIDs(ctx, utils.UniqueStrings(ids))
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Normalize()
		if u, ok := found[p.AuthorID]; ok {
			p.Author = u.Summary()
		}
	}
	return nil
}

func attachCommentAuthors(ctx context.Context, users store.UserStore, comments ...*models.Comment) error {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	found, err := users.FindUsersByIDs(ctx, utils.UniqueStrings(ids))
	if err != nil {
		return err
	}
	for _, c := range comments {
		if c.Likes == nil {
			c.Likes = models.IDSet{}
		}
		if u, ok := found[c.AuthorID]; ok {
			c.Author = u.Summary()
		}
	}
	return nil
}
