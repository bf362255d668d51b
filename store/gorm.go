package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/sharehub/models"
)

var _ Store = (*GormStore)(nil)

// GormStore implements Store on a relational database. Array fields are JSON
// columns so every entity remains a single row.
type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormStore wraps an opened gorm handle. The handle should be opened with TranslateError
// so unique violations map to ErrDuplicate.
func NewGormStore(db *gorm.DB, timeout time.Duration) *GormStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GormStore{db: db, timeout: timeout}
}

// Models lists the tables this store migrates.
func Models() []interface{} {
	return []interface{}{&models.User{}, &models.Post{}, &models.Comment{}}
}

func (s *GormStore) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.WithStack(ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.WithStack(ErrDuplicate)
	default:
		return errors.Wrap(err, what)
	}
}

// Close releases the connection pool.
func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	db, cancel := s.session(ctx)
	defer cancel()
	return translate(db.Create(u).Error, "create user")
}

func (s *GormStore) findUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var u models.User
	if err := db.Where(query, args...).First(&u).Error; err != nil {
		return nil, translate(err, "find user")
	}
	return &u, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *GormStore) FindUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	return s.findUser(ctx, "provider = ? AND provider_id = ?", provider, providerID)
}

func (s *GormStore) FindUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	db, cancel := s.session(ctx)
	defer cancel()
	var users []*models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err, "find users")
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *GormStore) SaveUser(ctx context.Context, u *models.User) error {
	db, cancel := s.session(ctx)
	defer cancel()
	return translate(db.Save(u).Error, "save user")
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	return s.countOf(ctx, &models.User{})
}

func (s *GormStore) countOf(ctx context.Context, model interface{}) (int64, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var n int64
	err := db.Model(model).Count(&n).Error
	return n, translate(err, "count")
}

// Posts

func (s *GormStore) CreatePost(ctx context.Context, p *models.Post) error {
	db, cancel := s.session(ctx)
	defer cancel()
	return translate(db.Create(p).Error, "create post")
}

func (s *GormStore) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var p models.Post
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "find post")
	}
	return &p, nil
}

func (s *GormStore) FindPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	out := map[string]*models.Post{}
	if len(ids) == 0 {
		return out, nil
	}
	db, cancel := s.session(ctx)
	defer cancel()
	var posts []*models.Post
	if err := db.Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, translate(err, "find posts")
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

func (s *GormStore) ListPosts(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	if offset < 0 {
		offset = 0
	}
	q := db.Order("created_at desc, id desc").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	posts := []*models.Post{}
	if err := q.Find(&posts).Error; err != nil {
		return nil, translate(err, "list posts")
	}
	return posts, nil
}

func (s *GormStore) CountPosts(ctx context.Context) (int64, error) {
	return s.countOf(ctx, &models.Post{})
}

func (s *GormStore) SearchPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	q := db.Model(&models.Post{})
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("title LIKE ? OR description LIKE ? OR content LIKE ? OR tags LIKE ?", like, like, like, like)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	posts := []*models.Post{}
	if err := q.Order("created_at desc, id desc").Find(&posts).Error; err != nil {
		return nil, translate(err, "search posts")
	}
	return posts, nil
}

func (s *GormStore) SavePost(ctx context.Context, p *models.Post) error {
	db, cancel := s.session(ctx)
	defer cancel()
	return translate(db.Save(p).Error, "save post")
}

func (s *GormStore) IncrementPostViews(ctx context.Context, id string) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return translate(res.Error, "increment views")
	}
	if res.RowsAffected == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

func (s *GormStore) DeletePost(ctx context.Context, id string) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return translate(res.Error, "delete post")
	}
	if res.RowsAffected == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

// Comments

func (s *GormStore) CreateComment(ctx context.Context, c *models.Comment) error {
	db, cancel := s.session(ctx)
	defer cancel()
	return translate(db.Create(c).Error, "create comment")
}

func (s *GormStore) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	var c models.Comment
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err, "find comment")
	}
	return &c, nil
}

func (s *GormStore) ListCommentsByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	comments := []*models.Comment{}
	if err := db.Where("post_id = ?", postID).Order("created_at desc, id desc").Find(&comments).Error; err != nil {
		return nil, translate(err, "list comments")
	}
	return comments, nil
}

func (s *GormStore) SaveComment(ctx context.Context, c *models.Comment) error {
	db, cancel := s.session(ctx)
	defer cancel()
	return translate(db.Save(c).Error, "save comment")
}

func (s *GormStore) DeleteComment(ctx context.Context, id string) error {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return translate(res.Error, "delete comment")
	}
	if res.RowsAffected == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

func (s *GormStore) DeleteCommentsByPost(ctx context.Context, postID string) (int64, error) {
	db, cancel := s.session(ctx)
	defer cancel()
	res := db.Where("post_id = ?", postID).Delete(&models.Comment{})
	return res.RowsAffected, translate(res.Error, "delete comments")
}

func (s *GormStore) CountComments(ctx context.Context) (int64, error) {
	return s.countOf(ctx, &models.Comment{})
}
