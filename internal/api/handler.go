// Package api is the HTTP layer: request decoding and validation,
// authorization checks through internal/perm, and the mapping of store
// results onto status codes.
package api

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"reviewhub/internal/mail"
	"reviewhub/internal/store"
	"reviewhub/pkg/auth"
)

// Handler carries the collaborators every endpoint needs.
type Handler struct {
	users        store.UserStore
	catalog      store.CatalogStore
	reviews      store.ReviewStore
	mailer       mail.Mailer
	logger       *slog.Logger
	validator    *validator.Validate
	tokenManager auth.TokenManager
}

// NewHandler wires the handler together.
func NewHandler(
	users store.UserStore,
	catalog store.CatalogStore,
	reviews store.ReviewStore,
	mailer mail.Mailer,
	logger *slog.Logger,
	v *validator.Validate,
	tm auth.TokenManager,
) *Handler {
	return &Handler{
		users:        users,
		catalog:      catalog,
		reviews:      reviews,
		mailer:       mailer,
		logger:       logger,
		validator:    v,
		tokenManager: tm,
	}
}
