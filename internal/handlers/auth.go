package handlers

import (
	"errors"
	"net/http"

	"github.com/pliu/blog/internal/auth"
	"github.com/pliu/blog/internal/logging"
	"github.com/pliu/blog/internal/middleware"
	"github.com/pliu/blog/internal/models"
	"github.com/pliu/blog/internal/store"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	ProfilePic string `json:"profilePic"`
}

type AuthHandler struct {
	Store   store.Store
	Issuer  *auth.Issuer
	Revoker auth.Revoker
	Cookies auth.CookiePolicy
	Logger  logging.Logger
}

func loginResult(w http.ResponseWriter, status int, errMsg string) {
	writeJSON(w, status, map[string]any{"loggedIn": false, "error": errMsg})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		message(w, http.StatusBadRequest, "email, username and password are required")
		return
	}

	ctx := r.Context()
	for _, lookup := range []func() (*models.User, error){
		func() (*models.User, error) { return h.Store.GetUserByEmail(ctx, req.Email) },
		func() (*models.User, error) { return h.Store.GetUserByUsername(ctx, req.Username) },
	} {
		_, err := lookup()
		if err == nil {
			message(w, http.StatusConflict, "user exists")
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			h.Logger.Error(ctx, "register lookup", "error", err)
			message(w, http.StatusInternalServerError, "Server error")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Logger.Error(ctx, "hash password", "error", err)
		message(w, http.StatusInternalServerError, "Server error")
		return
	}

	user := &models.User{
		Email:      req.Email,
		Username:   req.Username,
		Password:   hash,
		Admin:      false,
		ProfilePic: req.ProfilePic,
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			message(w, http.StatusConflict, "user exists")
			return
		}
		h.Logger.Error(ctx, "create user", "error", err)
		message(w, http.StatusInternalServerError, "Server error")
		return
	}

	message(w, http.StatusCreated, "user created")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if !decode(w, r, &creds) {
		return
	}

	ctx := r.Context()
	user, err := h.Store.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			loginResult(w, http.StatusUnauthorized, "No user found")
			return
		}
		h.Logger.Error(ctx, "login lookup", "error", err)
		loginResult(w, http.StatusInternalServerError, "Server error")
		return
	}

	if !auth.CheckPassword(user.Password, creds.Password) {
		loginResult(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	token, _, err := h.Issuer.Issue(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		h.Logger.Error(ctx, "issue token", "error", err)
		loginResult(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.Cookies.SetSession(w, token, h.Issuer.TTL(), user.Email, user.Username)
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true})
}

// Logout clears the session cookies. A still-valid token is also revoked
// when revocation is enabled; failures there do not fail the logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.TokenCookie); err == nil && cookie.Value != "" {
		if claims, err := h.Issuer.Verify(cookie.Value); err == nil {
			if err := h.Revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				h.Logger.Warn(r.Context(), "revoke token", "error", err)
			}
		}
	}

	h.Cookies.ClearSession(w)
	message(w, http.StatusOK, "logged out")
}

// Check reports the verified caller. Only reachable behind middleware.Auth.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "email": id.Email})
}

func (h *AuthHandler) UpdatePicture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfilePic string `json:"profilePic"`
	}
	if !decode(w, r, &req) {
		return
	}

	id, _ := middleware.IdentityFromContext(r.Context())
	if err := h.Store.UpdateProfilePic(r.Context(), id.Email, req.ProfilePic); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			message(w, http.StatusNotFound, "User not found")
			return
		}
		h.Logger.Error(r.Context(), "update profile pic", "error", err)
		message(w, http.StatusInternalServerError, "Server error")
		return
	}

	message(w, http.StatusOK, "Profile picture updated")
}
