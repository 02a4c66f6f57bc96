package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"reviewhub/internal/domain"
	"reviewhub/internal/perm"
)

// Review endpoints are nested under /titles/{title_id}/reviews; reads are
// public, creation needs any authenticated actor, update/delete the author
// or a moderator/admin.

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	titleID := mux.Vars(r)["title_id"]

	if _, err := h.catalog.GetTitle(ctx, titleID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	params := listParamsFromRequest(r)
	reviews, total, err := h.reviews.ListReviews(ctx, titleID, params)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Count: total, Page: params.Page, PageSize: params.PageSize, Results: reviews,
	})
}

func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	review, err := h.reviews.GetReview(r.Context(), vars["title_id"], vars["review_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	if !perm.CanCreateContent(actor) {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	titleID := mux.Vars(r)["title_id"]
	if _, err := h.catalog.GetTitle(ctx, titleID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	var req domain.CreateReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	author, err := h.users.GetByID(ctx, actor.UserID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	review := &domain.Review{
		ID:       uuid.NewString(),
		TitleID:  titleID,
		AuthorID: author.ID,
		Author:   author.Username,
		Text:     req.Text,
		Score:    req.Score,
	}
	// The unique (title, author) constraint decides the duplicate case, a
	// concurrent double submit yields exactly one conflict here.
	if err := h.reviews.CreateReview(ctx, review); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "Review created",
		slog.String("reviewID", review.ID), slog.String("titleID", titleID))
	h.respondJSON(w, r, http.StatusCreated, review)
}

func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	if actor == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	vars := mux.Vars(r)
	review, err := h.reviews.GetReview(ctx, vars["title_id"], vars["review_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !perm.CanModifyContent(actor, review.AuthorID) {
		h.respondError(w, r, http.StatusForbidden, "not the author, moderator or admin")
		return
	}

	var req domain.UpdateReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := h.reviews.UpdateReview(ctx, review); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	if actor == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	vars := mux.Vars(r)
	review, err := h.reviews.GetReview(ctx, vars["title_id"], vars["review_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !perm.CanModifyContent(actor, review.AuthorID) {
		h.respondError(w, r, http.StatusForbidden, "not the author, moderator or admin")
		return
	}

	if err := h.reviews.DeleteReview(ctx, review.ID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "Review deleted", slog.String("reviewID", review.ID))
	w.WriteHeader(http.StatusNoContent)
}

// getReviewInTitle resolves the nested {title_id}/{review_id} pair shared by
// all comment routes.
func (h *Handler) getReviewInTitle(w http.ResponseWriter, r *http.Request) (*domain.Review, bool) {
	vars := mux.Vars(r)
	review, err := h.reviews.GetReview(r.Context(), vars["title_id"], vars["review_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return nil, false
	}
	return review, true
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	review, ok := h.getReviewInTitle(w, r)
	if !ok {
		return
	}

	params := listParamsFromRequest(r)
	comments, total, err := h.reviews.ListComments(ctx, review.ID, params)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Count: total, Page: params.Page, PageSize: params.PageSize, Results: comments,
	})
}

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	review, ok := h.getReviewInTitle(w, r)
	if !ok {
		return
	}
	comment, err := h.reviews.GetComment(r.Context(), review.ID, mux.Vars(r)["comment_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, comment)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	if !perm.CanCreateContent(actor) {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	review, ok := h.getReviewInTitle(w, r)
	if !ok {
		return
	}

	var req domain.CreateCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	author, err := h.users.GetByID(ctx, actor.UserID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	comment := &domain.Comment{
		ID:       uuid.NewString(),
		ReviewID: review.ID,
		AuthorID: author.ID,
		Author:   author.Username,
		Text:     req.Text,
	}
	if err := h.reviews.CreateComment(ctx, comment); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "Comment created",
		slog.String("commentID", comment.ID), slog.String("reviewID", review.ID))
	h.respondJSON(w, r, http.StatusCreated, comment)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	if actor == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	review, ok := h.getReviewInTitle(w, r)
	if !ok {
		return
	}
	comment, err := h.reviews.GetComment(ctx, review.ID, mux.Vars(r)["comment_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !perm.CanModifyContent(actor, comment.AuthorID) {
		h.respondError(w, r, http.StatusForbidden, "not the author, moderator or admin")
		return
	}

	var req domain.UpdateCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Text != nil {
		comment.Text = *req.Text
	}

	if err := h.reviews.UpdateComment(ctx, comment); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, comment)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)
	if actor == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	review, ok := h.getReviewInTitle(w, r)
	if !ok {
		return
	}
	comment, err := h.reviews.GetComment(ctx, review.ID, mux.Vars(r)["comment_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !perm.CanModifyContent(actor, comment.AuthorID) {
		h.respondError(w, r, http.StatusForbidden, "not the author, moderator or admin")
		return
	}

	if err := h.reviews.DeleteComment(ctx, comment.ID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "Comment deleted", slog.String("commentID", comment.ID))
	w.WriteHeader(http.StatusNoContent)
}
