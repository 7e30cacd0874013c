package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/blog/internal/models"
)

const userColumns = "id, email, username, password, admin, profile_pic, created_at"

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.Admin, &u.ProfilePic, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.Username, user.Password, user.Admin, user.ProfilePic, user.CreatedAt)
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

func (s *SQLStore) getUserBy(ctx context.Context, column, value string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE " + column + " = ?")
	user, err := scanUser(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, wrapErr(err)
	}
	return user, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserBy(ctx, "email", email)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserBy(ctx, "username", username)
}

func (s *SQLStore) GetUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	users := []models.User{}
	if len(emails) == 0 {
		return users, nil
	}

	args := make([]any, len(emails))
	for i, e := range emails {
		args[i] = e
	}
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE email IN (" + placeholders(len(emails)) + ")")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return users, nil
}

func (s *SQLStore) UpdateProfilePic(ctx context.Context, email, profilePic string) error {
	return s.execOne(ctx, "UPDATE users SET profile_pic = ? WHERE email = ?", profilePic, email)
}
