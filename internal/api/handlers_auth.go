package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"reviewhub/internal/domain"
	"reviewhub/internal/mail"
	"reviewhub/internal/store"
	"reviewhub/pkg/auth"
)

// Signup handles POST /api/v1/auth/signup. Repeating a sign-up with the same
// (username, email) pair is idempotent and just reissues the confirmation
// code; reusing either half of the pair with a different counterpart is a
// conflict.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.SignupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	byUsername, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		h.respondDomainError(w, r, err)
		return
	}

	if byUsername != nil {
		if byUsername.Email != req.Email {
			h.respondError(w, r, http.StatusConflict, "username already used with another email")
			return
		}
		// Same pair: reuse the record, last-issued code wins.
		if err := h.issueConfirmation(w, r, byUsername); err != nil {
			return
		}
		h.logger.InfoContext(ctx, "Repeated signup, confirmation code reissued",
			slog.String("username", req.Username))
		h.respondJSON(w, r, http.StatusOK, req)
		return
	}

	if _, err := h.users.GetByEmail(ctx, req.Email); err == nil {
		h.respondError(w, r, http.StatusConflict, "email already used with another username")
		return
	} else if !errors.Is(err, store.ErrUserNotFound) {
		h.respondDomainError(w, r, err)
		return
	}

	code, err := newCode()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to issue confirmation code")
		return
	}

	user := &domain.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Email:    req.Email,
		Role:     domain.RoleUser,
		CodeHash: code.hash,
	}
	// The insert is the authoritative uniqueness check; concurrent sign-ups
	// for the same identity resolve to one row here.
	if err := h.users.Create(ctx, user); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if !h.sendCode(w, r, user, code.plain) {
		return
	}
	h.logger.InfoContext(ctx, "User signed up",
		slog.String("userID", user.ID), slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusOK, req)
}

type issuedCode struct {
	plain string
	hash  string
}

func newCode() (issuedCode, error) {
	plain, err := auth.NewConfirmationCode()
	if err != nil {
		return issuedCode{}, err
	}
	hash, err := auth.HashConfirmationCode(plain)
	if err != nil {
		return issuedCode{}, err
	}
	return issuedCode{plain: plain, hash: hash}, nil
}

// issueConfirmation stores a fresh code hash for an existing user and mails
// the plaintext. A non-nil return means a response has been written.
func (h *Handler) issueConfirmation(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	ctx := r.Context()
	code, err := newCode()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "failed to issue confirmation code")
		return err
	}
	if err := h.users.SetConfirmationCode(ctx, user.ID, code.hash); err != nil {
		h.respondDomainError(w, r, err)
		return err
	}
	if !h.sendCode(w, r, user, code.plain) {
		return errors.New("mail dispatch failed")
	}
	return nil
}

func (h *Handler) sendCode(w http.ResponseWriter, r *http.Request, user *domain.User, code string) bool {
	subject, body := mail.ConfirmationBody(user.Username, code)
	if err := h.mailer.Send(user.Email, subject, body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to send confirmation email",
			slog.String("userID", user.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "failed to send confirmation email")
		return false
	}
	return true
}

// Token handles POST /api/v1/auth/token: exchanges a confirmation code for a
// bearer token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.TokenRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if user.CodeHash == "" || !auth.CheckConfirmationCode(req.ConfirmationCode, user.CodeHash) {
		h.logger.WarnContext(ctx, "Invalid confirmation code",
			slog.String("username", req.Username))
		h.respondJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": "invalid confirmation code",
			"field": "confirmation_code",
		})
		return
	}

	if err := h.users.MarkConfirmed(ctx, user.ID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	token, err := h.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate access token",
			slog.String("userID", user.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.logger.InfoContext(ctx, "Access token issued",
		slog.String("userID", user.ID), slog.String("username", user.Username))
	h.respondJSON(w, r, http.StatusCreated, domain.TokenResponse{Token: token})
}
