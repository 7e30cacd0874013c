package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/blog/internal/models"
)

const replyColumns = "id, reply_to, comment, email, username, created_at"

func scanReply(row scanner) (*models.Reply, error) {
	var r models.Reply
	if err := row.Scan(&r.ID, &r.ReplyTo, &r.Comment, &r.Email, &r.Username, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) CreateReply(ctx context.Context, reply *models.Reply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO replies (" + replyColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, reply.ID, reply.ReplyTo, reply.Comment, reply.Email, reply.Username, reply.CreatedAt)
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *SQLStore) ListReplies(ctx context.Context, postID string) ([]models.Reply, error) {
	query := s.rebind("SELECT " + replyColumns + " FROM replies WHERE reply_to = ? ORDER BY created_at ASC")
	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	replies := []models.Reply{}
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		replies = append(replies, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return replies, nil
}

func (s *SQLStore) GetOwnedReply(ctx context.Context, id, email string) (*models.Reply, error) {
	query := s.rebind("SELECT " + replyColumns + " FROM replies WHERE id = ? AND email = ?")
	reply, err := scanReply(s.db.QueryRowContext(ctx, query, id, email))
	if err != nil {
		return nil, wrapErr(err)
	}
	return reply, nil
}

func (s *SQLStore) DeleteReply(ctx context.Context, id string) error {
	return s.execOne(ctx, "DELETE FROM replies WHERE id = ?", id)
}
