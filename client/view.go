package client

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cppla/sharehub/models"
)

const cardDateLayout = "Jan 2, 2006"

// PostCard is everything a feed card shows for one post.
type PostCard struct {
	ID            string
	Title         string
	Description   string
	Category      models.Category
	Tags          []string
	AuthorName    string
	AuthorPicture string
	AuthorInitial string
	Thumbnail     string
	LikeCount     int
	Liked         bool
	Views         int64
	Date          string
	CanEdit       bool
}

// NewPostCard derives the card for post as seen by session s, which may be nil.
func NewPostCard(post *models.Post, s *Session) PostCard {
	card := PostCard{
		ID:            post.ID,
		Title:         post.Title,
		Description:   post.Description,
		Category:      post.Category,
		Tags:          post.Tags,
		AuthorName:    "Unknown",
		AuthorInitial: "U",
		LikeCount:     len(post.Likes),
		Views:         post.Views,
		Date:          post.CreatedAt.Local().Format(cardDateLayout),
	}
	if post.Author != nil {
		if post.Author.Username != "" {
			card.AuthorName = post.Author.Username
			card.AuthorInitial = initial(post.Author.Username)
		}
		card.AuthorPicture = post.Author.ProfilePicture
	}
	for _, m := range post.Media {
		if m.Type == models.MediaImage {
			card.Thumbnail = m.URL
			break
		}
	}
	if s.Authenticated() && s.User != nil {
		card.Liked = post.Likes.Contains(s.User.ID)
		card.CanEdit = post.Author != nil && post.Author.ID == s.User.ID
	}
	return card
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "U"
	}
	return string(unicode.ToUpper(r))
}

// Feed accumulates pages of the post listing for infinite scrolling.
type Feed struct {
	client     *Client
	Limit      int
	Posts      []*models.Post
	Page       int
	TotalPages int
}

func NewFeed(c *Client, limit int) *Feed {
	if limit <= 0 {
		limit = 10
	}
	return &Feed{client: c, Limit: limit}
}

// HasMore reports whether another page can be loaded.
func (f *Feed) HasMore() bool {
	return f.Page == 0 || f.Page < f.TotalPages
}

// LoadMore fetches the next page and appends it. It returns the posts just loaded.
func (f *Feed) LoadMore(ctx context.Context) ([]*models.Post, error) {
	if !f.HasMore() {
		return nil, nil
	}
	page, err := f.client.ListPosts(ctx, f.Page+1, f.Limit)
	if err != nil {
		return nil, err
	}
	f.Page = page.CurrentPage
	f.TotalPages = page.TotalPages
	f.Posts = append(f.Posts, page.Posts...)
	return page.Posts, nil
}

// Reset drops every loaded page.
func (f *Feed) Reset() {
	f.Posts = nil
	f.Page = 0
	f.TotalPages = 0
}

// Cards renders every loaded post for session s.
func (f *Feed) Cards(s *Session) []PostCard {
	cards := make([]PostCard, 0, len(f.Posts))
	for _, p := range f.Posts {
		cards = append(cards, NewPostCard(p, s))
	}
	return cards
}
