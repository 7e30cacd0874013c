package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pliu/blog/internal/auth"
	"github.com/pliu/blog/internal/logging"
	"github.com/pliu/blog/internal/middleware"
	"github.com/pliu/blog/internal/models"
	"github.com/pliu/blog/internal/store"
	"github.com/pliu/blog/internal/store/sqlstore"
	"github.com/pliu/blog/internal/ws"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlstore.SQLStore {
	t.Helper()
	s, err := sqlstore.New(context.Background(), sqlstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	issuer, err := auth.NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	return issuer
}

func newTestHub(t *testing.T) *ws.Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(logging.Discard())
	go hub.Run(ctx)
	return hub
}

// seedUser stores a user with a real bcrypt hash of password.
func seedUser(t *testing.T, s store.Store, email, username, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Email: email, Username: username, Password: hash}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, target, &buf)
}

func as(req *http.Request, u *models.User) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), auth.Identity{UserID: u.ID, Email: u.Email}))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

// failingStore fails every call it overrides with errBoom.
type failingStore struct {
	store.Store
}

var errBoom = errors.New("db error: boom")

func (failingStore) GetUserByEmail(context.Context, string) (*models.User, error) { return nil, errBoom }
func (failingStore) ListPosts(context.Context) ([]models.Post, error)             { return nil, errBoom }
func (failingStore) GetPost(context.Context, string) (*models.Post, error)        { return nil, errBoom }
func (failingStore) GetOwnedPost(context.Context, string, string) (*models.Post, error) {
	return nil, errBoom
}
func (failingStore) UpdateProfilePic(context.Context, string, string) error { return errBoom }
