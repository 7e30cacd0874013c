package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/blog/internal/models"
)

const postColumns = "id, title, body, email, username, created_at, updated_at"

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Body, &p.Email, &p.Username, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt

	query := s.rebind("INSERT INTO posts (" + postColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, post.ID, post.Title, post.Body, post.Email, post.Username, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *SQLStore) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return posts, nil
}

func (s *SQLStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.queryPosts(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at ASC")
}

func (s *SQLStore) ListPostsByEmail(ctx context.Context, email string) ([]models.Post, error) {
	return s.queryPosts(ctx, "SELECT "+postColumns+" FROM posts WHERE email = ? ORDER BY created_at ASC", email)
}

func (s *SQLStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	query := s.rebind("SELECT " + postColumns + " FROM posts WHERE id = ?")
	post, err := scanPost(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err)
	}
	return post, nil
}

func (s *SQLStore) GetOwnedPost(ctx context.Context, id, email string) (*models.Post, error) {
	query := s.rebind("SELECT " + postColumns + " FROM posts WHERE id = ? AND email = ?")
	post, err := scanPost(s.db.QueryRowContext(ctx, query, id, email))
	if err != nil {
		return nil, wrapErr(err)
	}
	return post, nil
}

func (s *SQLStore) UpdatePost(ctx context.Context, id, title, body string) error {
	return s.execOne(ctx, "UPDATE posts SET title = ?, body = ?, updated_at = ? WHERE id = ?",
		title, body, time.Now().UTC(), id)
}

// DeletePost removes only the post row; its replies stay behind.
func (s *SQLStore) DeletePost(ctx context.Context, id string) error {
	return s.execOne(ctx, "DELETE FROM posts WHERE id = ?", id)
}
