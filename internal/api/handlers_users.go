package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"reviewhub/internal/domain"
	"reviewhub/internal/perm"
)

// ListUsers handles GET /api/v1/users (admin only).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanManageUsers(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	params := listParamsFromRequest(r)
	users, total, err := h.users.List(ctx, params)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Count: total, Page: params.Page, PageSize: params.PageSize, Results: users,
	})
}

// CreateUser handles POST /api/v1/users (admin only). Accounts created this
// way still go through the sign-up flow to obtain a confirmation code.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanManageUsers(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req domain.CreateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	user := &domain.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Role:      role,
		Bio:       req.Bio,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := h.users.Create(ctx, user); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "User created by admin",
		slog.String("userID", user.ID), slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusCreated, user)
}

// GetUser handles GET /api/v1/users/{username} (admin only).
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanManageUsers(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	user, err := h.users.GetByUsername(ctx, mux.Vars(r)["username"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// UpdateUser handles PATCH /api/v1/users/{username} (admin only, may change
// roles).
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	if !perm.CanManageUsers(actor) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req domain.UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.GetByUsername(ctx, mux.Vars(r)["username"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	applyUserPatch(user, &req, perm.CanChangeRole(actor))
	if err := h.users.Update(ctx, user); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/{username} (admin only).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanManageUsers(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	username := mux.Vars(r)["username"]
	if err := h.users.Delete(ctx, username); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "User deleted by admin", slog.String("username", username))
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)

	user, err := h.users.GetByID(ctx, actor.UserID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/users/me. A role field sent by a non-admin
// is ignored, the rest of the patch still applies.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)

	var req domain.UpdateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.GetByID(ctx, actor.UserID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	applyUserPatch(user, &req, perm.CanChangeRole(actor))
	if err := h.users.Update(ctx, user); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "Profile updated", slog.String("userID", user.ID))
	h.respondJSON(w, r, http.StatusOK, user)
}

func applyUserPatch(user *domain.User, req *domain.UpdateUserRequest, allowRole bool) {
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil && allowRole {
		user.Role = *req.Role
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
}
