// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/store"
)

var _ store.Store = (*MemoryStore)(nil)

type postRow struct {
	seq  int
	post models.Post
}

type commentRow struct {
	seq     int
	comment models.Comment
}

// MemoryStore keeps copies of every record so callers cannot mutate stored state
// without going through a Save call.
type MemoryStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]models.User
	posts    map[string]*postRow
	comments map[string]*commentRow
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[string]models.User{},
		posts:    map[string]*postRow{},
		comments: map[string]*commentRow{},
	}
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func copyUser(u models.User) *models.User {
	u.Bookmarks = append(models.IDSet(nil), u.Bookmarks...)
	return &u
}

func copyPost(p models.Post) *models.Post {
	p.Tags = append([]string(nil), p.Tags...)
	p.Media = append([]models.Media(nil), p.Media...)
	p.Likes = append(models.IDSet(nil), p.Likes...)
	p.Author = nil
	return &p
}

func copyComment(c models.Comment) *models.Comment {
	c.Likes = append(models.IDSet(nil), c.Likes...)
	c.Author = nil
	return &c
}

// Users

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return errors.WithStack(store.ErrDuplicate)
	}
	if err := m.checkUnique(u); err != nil {
		return err
	}
	m.users[u.ID] = *copyUser(*u)
	return nil
}

func (m *MemoryStore) checkUnique(u *models.User) error {
	for id, other := range m.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email {
			return errors.WithStack(store.ErrDuplicate)
		}
	}
	return nil
}

func (m *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, errors.WithStack(store.ErrNotFound)
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.ID == id })
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Username == username })
}

func (m *MemoryStore) FindUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Provider == provider && u.ProviderID == providerID })
}

func (m *MemoryStore) FindUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUnique(u); err != nil {
		return err
	}
	m.users[u.ID] = *copyUser(*u)
	return nil
}

func (m *MemoryStore) CountUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

// Posts

func (m *MemoryStore) CreatePost(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.ID]; ok {
		return errors.WithStack(store.ErrDuplicate)
	}
	m.seq++
	m.posts[p.ID] = &postRow{seq: m.seq, post: *copyPost(*p)}
	return nil
}

func (m *MemoryStore) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.posts[id]
	if !ok {
		return nil, errors.WithStack(store.ErrNotFound)
	}
	return copyPost(row.post), nil
}

func (m *MemoryStore) FindPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*models.Post{}
	for _, id := range ids {
		if row, ok := m.posts[id]; ok {
			out[id] = copyPost(row.post)
		}
	}
	return out, nil
}

// sortedPosts returns matching posts newest first; equal timestamps keep the later insert first.
func (m *MemoryStore) sortedPosts(match func(models.Post) bool) []*models.Post {
	rows := make([]*postRow, 0, len(m.posts))
	for _, row := range m.posts {
		if match(row.post) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*models.Post, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyPost(row.post))
	}
	return out
}

func (m *MemoryStore) ListPosts(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sortedPosts(func(models.Post) bool { return true })
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*models.Post{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) CountPosts(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.posts)), nil
}

func (m *MemoryStore) SearchPosts(ctx context.Context, filter store.PostFilter) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(filter.Query)
	return m.sortedPosts(func(p models.Post) bool {
		if filter.Category != "" && string(p.Category) != filter.Category {
			return false
		}
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			return false
		}
		if q == "" {
			return true
		}
		fields := append([]string{p.Title, p.Description, p.Content}, p.Tags...)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}), nil
}

func (m *MemoryStore) SavePost(ctx context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.posts[p.ID]; ok {
		row.post = *copyPost(*p)
		return nil
	}
	m.seq++
	m.posts[p.ID] = &postRow{seq: m.seq, post: *copyPost(*p)}
	return nil
}

func (m *MemoryStore) IncrementPostViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.posts[id]
	if !ok {
		return errors.WithStack(store.ErrNotFound)
	}
	row.post.Views++
	return nil
}

func (m *MemoryStore) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return errors.WithStack(store.ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}

// Comments

func (m *MemoryStore) CreateComment(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[c.ID]; ok {
		return errors.WithStack(store.ErrDuplicate)
	}
	m.seq++
	m.comments[c.ID] = &commentRow{seq: m.seq, comment: *copyComment(*c)}
	return nil
}

func (m *MemoryStore) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.comments[id]
	if !ok {
		return nil, errors.WithStack(store.ErrNotFound)
	}
	return copyComment(row.comment), nil
}

func (m *MemoryStore) ListCommentsByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := []*commentRow{}
	for _, row := range m.comments {
		if row.comment.PostID == postID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.comment.CreatedAt.Equal(b.comment.CreatedAt) {
			return a.comment.CreatedAt.After(b.comment.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*models.Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyComment(row.comment))
	}
	return out, nil
}

func (m *MemoryStore) SaveComment(ctx context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.comments[c.ID]; ok {
		row.comment = *copyComment(*c)
		return nil
	}
	m.seq++
	m.comments[c.ID] = &commentRow{seq: m.seq, comment: *copyComment(*c)}
	return nil
}

func (m *MemoryStore) DeleteComment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return errors.WithStack(store.ErrNotFound)
	}
	delete(m.comments, id)
	return nil
}

func (m *MemoryStore) DeleteCommentsByPost(ctx context.Context, postID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, row := range m.comments {
		if row.comment.PostID == postID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountComments(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.comments)), nil
}
