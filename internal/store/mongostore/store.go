// Package mongostore implements store.Store on top of MongoDB collections
// "users", "posts" and "replies". Documents use the same field names the
// JSON API exposes.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pliu/blog/internal/models"
	"github.com/pliu/blog/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client  *mongo.Client
	users   *mongo.Collection
	posts   *mongo.Collection
	replies *mongo.Collection
}

var _ store.Store = (*MongoStore)(nil)

// Connect dials the deployment, pings it and ensures the unique indexes on
// users exist.
func Connect(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := New(client.Database(database))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New builds a store over an existing database handle. The caller owns the
// client.
func New(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:   db.Collection("users"),
		posts:   db.Collection("posts"),
		replies: db.Collection("replies"),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return wrapErr(err)
	}
	_, err = s.replies.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "replyTo", Value: 1}}})
	return wrapErr(err)
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// idValue is the stored form of an id: an ObjectId when id is a valid hex
// ObjectId, the plain string otherwise. Documents written by earlier
// deployments carry ObjectId keys.
func idValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func idFilter(id string) bson.M {
	return bson.M{"_id": idValue(id)}
}

func ownedFilter(id, email string) bson.M {
	return bson.M{"_id": idValue(id), "email": email}
}

// insertDoc encodes v and swaps its string _id for idValue. String ids
// decode back from ObjectId keys as hex.
func insertDoc(v any, id string) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for i := range doc {
		if doc[i].Key == "_id" {
			doc[i].Value = idValue(id)
		}
	}
	return doc, nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, v any, id string) error {
	doc, err := insertDoc(v, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	_, err = coll.InsertOne(ctx, doc)
	return wrapErr(err)
}

func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapErr(err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, wrapErr(err)
	}
	return &out, nil
}

// updateOne and deleteOne report ErrNotFound when nothing matched.
func updateOne(ctx context.Context, coll *mongo.Collection, filter, update any) error {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, filter any) error {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return wrapErr(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var byCreatedAt = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return insertOne(ctx, s.users, user, user.ID)
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"email": email})
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"username": username})
}

func (s *MongoStore) GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return []models.User{}, nil
	}
	return findAll[models.User](ctx, s.users, bson.M{"email": bson.M{"$in": emails}})
}

func (s *MongoStore) UpdateProfilePic(ctx context.Context, email, profilePic string) error {
	return updateOne(ctx, s.users, bson.M{"email": email}, bson.M{"$set": bson.M{"profilePic": profilePic}})
}

func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = newID()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	post.UpdatedAt = post.CreatedAt
	return insertOne(ctx, s.posts, post, post.ID)
}

func (s *MongoStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	return findAll[models.Post](ctx, s.posts, bson.M{}, byCreatedAt)
}

func (s *MongoStore) ListPostsByEmail(ctx context.Context, email string) ([]models.Post, error) {
	return findAll[models.Post](ctx, s.posts, bson.M{"email": email}, byCreatedAt)
}

func (s *MongoStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return findOne[models.Post](ctx, s.posts, idFilter(id))
}

func (s *MongoStore) GetOwnedPost(ctx context.Context, id, email string) (*models.Post, error) {
	return findOne[models.Post](ctx, s.posts, ownedFilter(id, email))
}

func (s *MongoStore) UpdatePost(ctx context.Context, id, title, body string) error {
	return updateOne(ctx, s.posts, idFilter(id), bson.M{"$set": bson.M{
		"title":     title,
		"body":      body,
		"updatedAt": time.Now().UTC(),
	}})
}

// DeletePost removes only the post document; its replies stay behind.
func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	return deleteOne(ctx, s.posts, idFilter(id))
}

func (s *MongoStore) CreateReply(ctx context.Context, reply *models.Reply) error {
	if reply.ID == "" {
		reply.ID = newID()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	return insertOne(ctx, s.replies, reply, reply.ID)
}

func (s *MongoStore) ListReplies(ctx context.Context, postID string) ([]models.Reply, error) {
	return findAll[models.Reply](ctx, s.replies, bson.M{"replyTo": postID}, byCreatedAt)
}

func (s *MongoStore) GetOwnedReply(ctx context.Context, id, email string) (*models.Reply, error) {
	return findOne[models.Reply](ctx, s.replies, ownedFilter(id, email))
}

func (s *MongoStore) DeleteReply(ctx context.Context, id string) error {
	return deleteOne(ctx, s.replies, idFilter(id))
}
