package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pliu/blog/internal/logging"
	"github.com/pliu/blog/internal/models"
	"github.com/pliu/blog/internal/store"
	"github.com/pliu/blog/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlogHandler(t *testing.T, s store.Store) *BlogHandler {
	t.Helper()
	return &BlogHandler{
		Store:    s,
		Hub:      newTestHub(t),
		Upgrader: ws.Upgrader(""),
		Logger:   logging.Discard(),
	}
}

func seedPost(t *testing.T, s store.Store, owner *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Body: title + " body", Email: owner.Email, Username: owner.Username}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func TestCreatePost(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")

	rr := httptest.NewRecorder()
	req := as(jsonRequest(t, "POST", "/create", CreatePostRequest{Title: "Hello", Body: "World"}), alice)
	http.HandlerFunc(handler.Create).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "blog created", body["message"])

	post, err := s.GetPost(context.Background(), body["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "a@x.com", post.Email)
	assert.Equal(t, "alice", post.Username)
}

func TestCreatePost_StoreFailure(t *testing.T) {
	handler := newBlogHandler(t, failingStore{})
	rr := httptest.NewRecorder()
	req := as(jsonRequest(t, "POST", "/create", CreatePostRequest{Title: "x"}), &models.User{Email: "a@x.com"})
	http.HandlerFunc(handler.Create).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Server error", decodeBody(t, rr)["message"])
}

func TestListPosts(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")
	bob := seedUser(t, s, "b@x.com", "bob", "p")
	seedUser(t, s, "c@x.com", "carol", "p")
	seedPost(t, s, alice, "one")
	seedPost(t, s, alice, "two")
	seedPost(t, s, bob, "three")

	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.ListPosts).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Posts []models.Post `json:"posts"`
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got.Posts, 3)
	assert.Len(t, got.Users, 2)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestListPosts_StoreFailure(t *testing.T) {
	handler := newBlogHandler(t, failingStore{})
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.ListPosts).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestDashboard(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")
	bob := seedUser(t, s, "b@x.com", "bob", "p")
	seedPost(t, s, alice, "mine")
	seedPost(t, s, bob, "theirs")

	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Dashboard).ServeHTTP(rr, as(httptest.NewRequest("GET", "/dashboard", nil), alice))
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		User  models.User   `json:"user"`
		Posts []models.Post `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "alice", got.User.Username)
	require.Len(t, got.Posts, 1)
	assert.Equal(t, "mine", got.Posts[0].Title)
}

func TestGetBlog(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")
	bob := seedUser(t, s, "b@x.com", "bob", "p")
	post := seedPost(t, s, alice, "hello")
	require.NoError(t, s.CreateReply(context.Background(), &models.Reply{ReplyTo: post.ID, Comment: "nice", Email: bob.Email, Username: bob.Username}))

	rr := httptest.NewRecorder()
	req := mux.SetURLVars(httptest.NewRequest("GET", "/blog/"+post.ID, nil), map[string]string{"id": post.ID})
	http.HandlerFunc(handler.GetBlog).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		BlogPost models.Post    `json:"blogPost"`
		Replies  []models.Reply `json:"replies"`
		Users    []models.User  `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, post.ID, got.BlogPost.ID)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "nice", got.Replies[0].Comment)
	assert.Len(t, got.Users, 2)

	t.Run("missing post", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := mux.SetURLVars(httptest.NewRequest("GET", "/blog/nope", nil), map[string]string{"id": "nope"})
		http.HandlerFunc(handler.GetBlog).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Post not found", decodeBody(t, rr)["message"])
	})

	t.Run("store failure", func(t *testing.T) {
		h := newBlogHandler(t, failingStore{})
		rr := httptest.NewRecorder()
		req := mux.SetURLVars(httptest.NewRequest("GET", "/blog/x", nil), map[string]string{"id": "x"})
		http.HandlerFunc(h.GetBlog).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestUpdatePost(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")
	bob := seedUser(t, s, "b@x.com", "bob", "p")
	post := seedPost(t, s, alice, "draft")

	t.Run("owner", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := as(jsonRequest(t, "PUT", "/update", UpdatePostRequest{ID: post.ID, Title: "final", Body: "text"}), alice)
		http.HandlerFunc(handler.Update).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "updated", decodeBody(t, rr)["message"])

		got, err := s.GetPost(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", got.Title)
	})

	t.Run("non-owner and missing look the same", func(t *testing.T) {
		rr := httptest.NewRecorder()
		http.HandlerFunc(handler.Update).ServeHTTP(rr, as(jsonRequest(t, "PUT", "/update", UpdatePostRequest{ID: post.ID, Title: "hijack"}), bob))
		other := httptest.NewRecorder()
		http.HandlerFunc(handler.Update).ServeHTTP(other, as(jsonRequest(t, "PUT", "/update", UpdatePostRequest{ID: "missing", Title: "x"}), bob))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, other.Code, rr.Code)
		assert.Equal(t, other.Body.String(), rr.Body.String())
		assert.Equal(t, "Not authorized or post not found", decodeBody(t, rr)["message"])

		got, err := s.GetPost(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", got.Title)
	})
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")
	bob := seedUser(t, s, "b@x.com", "bob", "p")
	post := seedPost(t, s, alice, "doomed")
	reply := &models.Reply{ReplyTo: post.ID, Comment: "hi", Email: bob.Email, Username: bob.Username}
	require.NoError(t, s.CreateReply(context.Background(), reply))

	t.Run("non-owner cannot delete post", func(t *testing.T) {
		rr := httptest.NewRecorder()
		http.HandlerFunc(handler.Delete).ServeHTTP(rr, as(jsonRequest(t, "DELETE", "/delete", map[string]any{"blogId": post.ID}), bob))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Not authorized or post not found", decodeBody(t, rr)["message"])

		_, err := s.GetPost(context.Background(), post.ID)
		assert.NoError(t, err)
	})

	t.Run("non-owner cannot delete reply", func(t *testing.T) {
		rr := httptest.NewRecorder()
		http.HandlerFunc(handler.Delete).ServeHTTP(rr, as(jsonRequest(t, "DELETE", "/delete", map[string]any{"blogId": reply.ID, "comment": true}), alice))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Not authorized or reply not found", decodeBody(t, rr)["message"])
	})

	t.Run("owner deletes reply", func(t *testing.T) {
		rr := httptest.NewRecorder()
		http.HandlerFunc(handler.Delete).ServeHTTP(rr, as(jsonRequest(t, "DELETE", "/delete", map[string]any{"blogId": reply.ID, "comment": "yes"}), bob))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "deleted", decodeBody(t, rr)["message"])

		replies, err := s.ListReplies(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Empty(t, replies)
	})

	t.Run("owner deletes post", func(t *testing.T) {
		rr := httptest.NewRecorder()
		http.HandlerFunc(handler.Delete).ServeHTTP(rr, as(jsonRequest(t, "DELETE", "/delete", map[string]any{"blogId": post.ID, "comment": false}), alice))
		assert.Equal(t, http.StatusOK, rr.Code)

		_, err := s.GetPost(context.Background(), post.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		h := newBlogHandler(t, failingStore{})
		rr := httptest.NewRecorder()
		http.HandlerFunc(h.Delete).ServeHTTP(rr, as(jsonRequest(t, "DELETE", "/delete", map[string]any{"blogId": "x"}), alice))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestComment(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")
	post := seedPost(t, s, alice, "post")

	rr := httptest.NewRecorder()
	req := as(jsonRequest(t, "POST", "/comment", CommentRequest{ReplyTo: post.ID, Comment: "first"}), alice)
	http.HandlerFunc(handler.Comment).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "comment added", body["message"])
	assert.NotEmpty(t, body["id"])

	replies, err := s.ListReplies(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "alice", replies[0].Username)
}

func TestLive(t *testing.T) {
	s := newTestStore(t)
	handler := newBlogHandler(t, s)
	alice := seedUser(t, s, "a@x.com", "alice", "p")
	post := seedPost(t, s, alice, "live")

	r := mux.NewRouter()
	r.HandleFunc("/blog/{id}/live", handler.Live)
	srv := httptest.NewServer(r)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/blog/missing/live", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/blog/"+post.ID+"/live", nil)
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	rr := httptest.NewRecorder()
	req := as(jsonRequest(t, "POST", "/comment", CommentRequest{ReplyTo: post.ID, Comment: "pushed"}), alice)
	http.HandlerFunc(handler.Comment).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event LiveEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "reply_added", event.Type)
	require.NotNil(t, event.Reply)
	assert.Equal(t, "pushed", event.Reply.Comment)
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(false))
	assert.False(t, truthy(""))
	assert.False(t, truthy(float64(0)))
	assert.True(t, truthy(true))
	assert.True(t, truthy("true"))
	assert.True(t, truthy(float64(1)))
	assert.True(t, truthy(map[string]any{}))
}
