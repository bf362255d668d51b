package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/sharehub/models"
)

var _ Store = (*MongoStore)(nil)

// MongoStore keeps users, posts and comments in three collections keyed by UUID strings.
type MongoStore struct {
	db       *mongo.Database
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
	timeout  time.Duration
}

// NewMongoStore wraps a connected database. timeout bounds every single operation.
func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoStore{
		db:       db,
		users:    db.Collection("users"),
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
		timeout:  timeout,
	}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// EnsureIndexes creates the unique identity indexes, the post text index and the sort indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*s.timeout)
	defer cancel()

	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "providerId", Value: 1}}},
	}); err != nil {
		return errors.Wrap(err, "create user indexes")
	}

	if _, err := s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "content", Value: "text"},
			{Key: "tags", Value: "text"},
		}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return errors.Wrap(err, "create post indexes")
	}

	if _, err := s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return errors.Wrap(err, "create comment indexes")
	}
	return nil
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *MongoStore) findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.WithStack(ErrNotFound)
	}
	return errors.Wrapf(err, "find one in %s", coll.Name())
}

func (s *MongoStore) insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return errors.WithStack(ErrDuplicate)
	}
	return errors.Wrapf(err, "insert into %s", coll.Name())
}

func (s *MongoStore) replace(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return errors.WithStack(ErrDuplicate)
	}
	return errors.Wrapf(err, "replace in %s", coll.Name())
}

func (s *MongoStore) deleteOne(ctx context.Context, coll *mongo.Collection, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete from %s", coll.Name())
	}
	if res.DeletedCount == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

func (s *MongoStore) count(ctx context.Context, coll *mongo.Collection, filter bson.M) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	n, err := coll.CountDocuments(ctx, filter)
	return n, errors.Wrapf(err, "count %s", coll.Name())
}

func (s *MongoStore) findPosts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Post, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cursor, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find posts")
	}
	defer cursor.Close(ctx)

	posts := []*models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "decode posts")
	}
	return posts, nil
}

// Users

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	return s.insert(ctx, s.users, u)
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, s.users, bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, s.users, bson.M{"email": email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, s.users, bson.M{"username": username}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	var u models.User
	if err := s.findOne(ctx, s.users, bson.M{"provider": provider, "providerId": providerID}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) FindUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *MongoStore) SaveUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	return s.replace(ctx, s.users, u.ID, u)
}

func (s *MongoStore) CountUsers(ctx context.Context) (int64, error) {
	return s.count(ctx, s.users, bson.M{})
}

// Posts

func (s *MongoStore) CreatePost(ctx context.Context, p *models.Post) error {
	return s.insert(ctx, s.posts, p)
}

func (s *MongoStore) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := s.findOne(ctx, s.posts, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) FindPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	out := map[string]*models.Post{}
	if len(ids) == 0 {
		return out, nil
	}
	posts, err := s.findPosts(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

func (s *MongoStore) ListPosts(ctx context.Context, offset, limit int) ([]*models.Post, error) {
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().SetSort(newestFirst).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.findPosts(ctx, bson.M{}, opts)
}

func (s *MongoStore) CountPosts(ctx context.Context) (int64, error) {
	return s.count(ctx, s.posts, bson.M{})
}

func (s *MongoStore) SearchPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	query := bson.M{}
	if filter.Query != "" {
		query["$text"] = bson.M{"$search": filter.Query}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.AuthorID != "" {
		query["author"] = filter.AuthorID
	}
	return s.findPosts(ctx, query, options.Find().SetSort(newestFirst))
}

func (s *MongoStore) SavePost(ctx context.Context, p *models.Post) error {
	return s.replace(ctx, s.posts, p.ID, p)
}

func (s *MongoStore) IncrementPostViews(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return errors.Wrap(err, "increment views")
	}
	if res.MatchedCount == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	return s.deleteOne(ctx, s.posts, id)
}

// Comments

func (s *MongoStore) CreateComment(ctx context.Context, c *models.Comment) error {
	return s.insert(ctx, s.comments, c)
}

func (s *MongoStore) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.findOne(ctx, s.comments, bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) ListCommentsByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cursor, err := s.comments.Find(ctx, bson.M{"post": postID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, errors.Wrap(err, "find comments")
	}
	defer cursor.Close(ctx)

	comments := []*models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, errors.Wrap(err, "decode comments")
	}
	return comments, nil
}

func (s *MongoStore) SaveComment(ctx context.Context, c *models.Comment) error {
	return s.replace(ctx, s.comments, c.ID, c)
}

func (s *MongoStore) DeleteComment(ctx context.Context, id string) error {
	return s.deleteOne(ctx, s.comments, id)
}

func (s *MongoStore) DeleteCommentsByPost(ctx context.Context, postID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.comments.DeleteMany(ctx, bson.M{"post": postID})
	if err != nil {
		return 0, errors.Wrap(err, "delete comments")
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) CountComments(ctx context.Context) (int64, error) {
	return s.count(ctx, s.comments, bson.M{})
}
