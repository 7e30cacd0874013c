package store

import (
	"context"
	"errors"

	"github.com/pliu/blog/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup, including
	// owner-scoped lookups where the record exists but belongs to someone else.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique field (email, username) is taken.
	ErrConflict = errors.New("already exists")
)

type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error)
	UpdateProfilePic(ctx context.Context, email, profilePic string) error

	// Post operations
	CreatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByEmail(ctx context.Context, email string) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetOwnedPost(ctx context.Context, id, email string) (*models.Post, error)
	UpdatePost(ctx context.Context, id, title, body string) error
	DeletePost(ctx context.Context, id string) error

	// Reply operations
	CreateReply(ctx context.Context, reply *models.Reply) error
	ListReplies(ctx context.Context, postID string) ([]models.Reply, error)
	GetOwnedReply(ctx context.Context, id, email string) (*models.Reply, error)
	DeleteReply(ctx context.Context, id string) error

	Close() error
}
