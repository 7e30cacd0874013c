package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pliu/blog/internal/logging"
	"github.com/pliu/blog/internal/middleware"
	"github.com/pliu/blog/internal/models"
	"github.com/pliu/blog/internal/store"
	"github.com/pliu/blog/internal/ws"
)

const (
	msgPostNotFound  = "Not authorized or post not found"
	msgReplyNotFound = "Not authorized or reply not found"
)

// LiveEvent is what readers of /blog/{id}/live receive.
type LiveEvent struct {
	Type    string        `json:"type"`
	Reply   *models.Reply `json:"reply,omitempty"`
	ReplyID string        `json:"replyId,omitempty"`
}

type BlogHandler struct {
	Store    store.Store
	Hub      *ws.Hub
	Upgrader *websocket.Upgrader
	Logger   logging.Logger
}

type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpdatePostRequest struct {
	ID    string `json:"id"`
	Title string `json:"blogTitle"`
	Body  string `json:"blogBody"`
}

type DeleteRequest struct {
	BlogID  string `json:"blogId"`
	Comment any    `json:"comment"`
}

type CommentRequest struct {
	ReplyTo string `json:"replyTo"`
	Comment string `json:"comment"`
}

func (h *BlogHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.Logger.Error(r.Context(), op, "error", err, "path", r.URL.Path)
	message(w, http.StatusInternalServerError, "Server error")
}

// author loads the verified caller's user record. It writes the response
// itself when that fails.
func (h *BlogHandler) author(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, _ := middleware.IdentityFromContext(r.Context())
	user, err := h.Store.GetUserByEmail(r.Context(), id.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			message(w, http.StatusNotFound, "User not found")
			return nil, false
		}
		h.serverError(w, r, "load author", err)
		return nil, false
	}
	return user, true
}

func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Store.ListPosts(r.Context())
	if err != nil {
		h.serverError(w, r, "list posts", err)
		return
	}
	users, err := h.Store.GetUsersByEmails(r.Context(), uniqueEmails(nil, posts, nil))
	if err != nil {
		h.serverError(w, r, "list post authors", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "users": users})
}

func (h *BlogHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.author(w, r)
	if !ok {
		return
	}
	posts, err := h.Store.ListPostsByEmail(r.Context(), user.Email)
	if err != nil {
		h.serverError(w, r, "list own posts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "posts": posts})
}

func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	post, err := h.Store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			message(w, http.StatusNotFound, "Post not found")
			return
		}
		h.serverError(w, r, "get post", err)
		return
	}

	replies, err := h.Store.ListReplies(r.Context(), id)
	if err != nil {
		h.serverError(w, r, "list replies", err)
		return
	}

	users, err := h.Store.GetUsersByEmails(r.Context(), uniqueEmails([]string{post.Email}, nil, replies))
	if err != nil {
		h.serverError(w, r, "list reply authors", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"blogPost": post, "replies": replies, "users": users})
}

// Live streams reply events for an existing post over a websocket.
func (h *BlogHandler) Live(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.Store.GetPost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			message(w, http.StatusNotFound, "Post not found")
			return
		}
		h.serverError(w, r, "get post", err)
		return
	}
	ws.ServeWs(h.Hub, h.Upgrader, w, r, id)
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decode(w, r, &req) {
		return
	}
	user, ok := h.author(w, r)
	if !ok {
		return
	}

	post := &models.Post{
		Title:    req.Title,
		Body:     req.Body,
		Email:    user.Email,
		Username: user.Username,
	}
	if err := h.Store.CreatePost(r.Context(), post); err != nil {
		h.serverError(w, r, "create post", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "blog created", "id": post.ID})
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if !decode(w, r, &req) {
		return
	}

	id, _ := middleware.IdentityFromContext(r.Context())
	if _, err := h.Store.GetOwnedPost(r.Context(), req.ID, id.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			message(w, http.StatusNotFound, msgPostNotFound)
			return
		}
		h.serverError(w, r, "get owned post", err)
		return
	}

	if err := h.Store.UpdatePost(r.Context(), req.ID, req.Title, req.Body); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			message(w, http.StatusNotFound, msgPostNotFound)
			return
		}
		h.serverError(w, r, "update post", err)
		return
	}

	message(w, http.StatusOK, "updated")
}

// Delete removes the caller's post, or the caller's reply when the body's
// comment flag is set.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !decode(w, r, &req) {
		return
	}

	id, _ := middleware.IdentityFromContext(r.Context())
	ctx := r.Context()

	if truthy(req.Comment) {
		reply, err := h.Store.GetOwnedReply(ctx, req.BlogID, id.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				message(w, http.StatusNotFound, msgReplyNotFound)
				return
			}
			h.serverError(w, r, "get owned reply", err)
			return
		}
		if err := h.Store.DeleteReply(ctx, reply.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.serverError(w, r, "delete reply", err)
			return
		}
		h.Hub.Publish(ctx, reply.ReplyTo, LiveEvent{Type: "reply_deleted", ReplyID: reply.ID})
		message(w, http.StatusOK, "deleted")
		return
	}

	if _, err := h.Store.GetOwnedPost(ctx, req.BlogID, id.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			message(w, http.StatusNotFound, msgPostNotFound)
			return
		}
		h.serverError(w, r, "get owned post", err)
		return
	}
	if err := h.Store.DeletePost(ctx, req.BlogID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, "delete post", err)
		return
	}
	message(w, http.StatusOK, "deleted")
}

func (h *BlogHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decode(w, r, &req) {
		return
	}
	user, ok := h.author(w, r)
	if !ok {
		return
	}

	reply := &models.Reply{
		ReplyTo:  req.ReplyTo,
		Comment:  req.Comment,
		Email:    user.Email,
		Username: user.Username,
	}
	if err := h.Store.CreateReply(r.Context(), reply); err != nil {
		h.serverError(w, r, "create reply", err)
		return
	}

	h.Hub.Publish(r.Context(), reply.ReplyTo, LiveEvent{Type: "reply_added", Reply: reply})
	writeJSON(w, http.StatusOK, map[string]string{"message": "comment added", "id": reply.ID})
}
