package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/blog/internal/auth"
	"github.com/pliu/blog/internal/handlers"
	"github.com/pliu/blog/internal/logging"
	"github.com/pliu/blog/internal/middleware"
)

// Routes bundles what the router needs to build the handler tree.
type Routes struct {
	Auth          *handlers.AuthHandler
	Blog          *handlers.BlogHandler
	Issuer        *auth.Issuer
	Revoker       auth.Revoker
	Logger        logging.Logger
	AllowedOrigin string
}

// NewRouter wires every endpoint. Logging, CORS and the body limit wrap the
// whole router so preflight requests are answered before method matching.
func NewRouter(rt Routes) http.Handler {
	protected := middleware.Auth(rt.Issuer, rt.Revoker, rt.Logger)
	guard := func(f http.HandlerFunc) http.Handler { return protected(f) }

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/", rt.Blog.ListPosts).Methods("GET")
	r.HandleFunc("/blog/{id}", rt.Blog.GetBlog).Methods("GET")
	r.HandleFunc("/blog/{id}/live", rt.Blog.Live).Methods("GET")
	r.HandleFunc("/login", rt.Auth.Login).Methods("POST")
	r.HandleFunc("/register", rt.Auth.Register).Methods("POST")
	r.HandleFunc("/logout", rt.Auth.Logout).Methods("GET")

	// Session endpoints
	r.Handle("/auth", guard(rt.Auth.Check)).Methods("GET")
	r.Handle("/dashboard", guard(rt.Blog.Dashboard)).Methods("GET")
	r.Handle("/create", guard(rt.Blog.Create)).Methods("POST")
	r.Handle("/update", guard(rt.Blog.Update)).Methods("PUT")
	r.Handle("/delete", guard(rt.Blog.Delete)).Methods("DELETE")
	r.Handle("/comment", guard(rt.Blog.Comment)).Methods("POST")
	r.Handle("/picture", guard(rt.Auth.UpdatePicture)).Methods("PUT")

	var h http.Handler = r
	h = middleware.BodyLimit(middleware.MaxBodyBytes)(h)
	h = middleware.CORS(rt.AllowedOrigin)(h)
	h = middleware.Logging(rt.Logger)(h)
	return h
}
