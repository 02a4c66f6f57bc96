package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the /api/v1 routing table. Authenticate runs on every
// route so public endpoints still see the actor when a token is supplied;
// the per-handler permission checks decide the rest.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(h.Authenticate)

	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Identity.
	v1.HandleFunc("/auth/signup", h.Signup).Methods(http.MethodPost)
	v1.HandleFunc("/auth/token", h.Token).Methods(http.MethodPost)

	// Account management. The fixed /users/me routes must be registered
	// before the {username} ones so "me" is never treated as a username.
	users := v1.PathPrefix("/users").Subrouter()
	users.Use(h.RequireAuth)
	users.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	users.HandleFunc("/me", h.UpdateMe).Methods(http.MethodPatch)
	users.HandleFunc("", h.ListUsers).Methods(http.MethodGet)
	users.HandleFunc("", h.CreateUser).Methods(http.MethodPost)
	users.HandleFunc("/{username}", h.GetUser).Methods(http.MethodGet)
	users.HandleFunc("/{username}", h.UpdateUser).Methods(http.MethodPatch)
	users.HandleFunc("/{username}", h.DeleteUser).Methods(http.MethodDelete)

	// Catalog.
	v1.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	v1.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost)
	v1.HandleFunc("/categories/{slug}", h.DeleteCategory).Methods(http.MethodDelete)
	v1.HandleFunc("/genres", h.ListGenres).Methods(http.MethodGet)
	v1.HandleFunc("/genres", h.CreateGenre).Methods(http.MethodPost)
	v1.HandleFunc("/genres/{slug}", h.DeleteGenre).Methods(http.MethodDelete)
	v1.HandleFunc("/titles", h.ListTitles).Methods(http.MethodGet)
	v1.HandleFunc("/titles", h.CreateTitle).Methods(http.MethodPost)
	v1.HandleFunc("/titles/{title_id}", h.GetTitle).Methods(http.MethodGet)
	v1.HandleFunc("/titles/{title_id}", h.UpdateTitle).Methods(http.MethodPatch)
	v1.HandleFunc("/titles/{title_id}", h.DeleteTitle).Methods(http.MethodDelete)

	// Reviews and comments, nested under their parents.
	v1.HandleFunc("/titles/{title_id}/reviews", h.ListReviews).Methods(http.MethodGet)
	v1.HandleFunc("/titles/{title_id}/reviews", h.CreateReview).Methods(http.MethodPost)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}", h.GetReview).Methods(http.MethodGet)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}", h.UpdateReview).Methods(http.MethodPatch)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}", h.DeleteReview).Methods(http.MethodDelete)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}/comments", h.ListComments).Methods(http.MethodGet)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}/comments", h.CreateComment).Methods(http.MethodPost)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}/comments/{comment_id}", h.GetComment).Methods(http.MethodGet)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}/comments/{comment_id}", h.UpdateComment).Methods(http.MethodPatch)
	v1.HandleFunc("/titles/{title_id}/reviews/{review_id}/comments/{comment_id}", h.DeleteComment).Methods(http.MethodDelete)

	return router
}
