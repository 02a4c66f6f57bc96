package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"reviewhub/internal/domain"
	"reviewhub/internal/store"
)

// listResponse is the envelope for every paginated collection.
type listResponse struct {
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Results  interface{} `json:"results"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response",
				slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// respondDomainError maps the store/validation error taxonomy onto HTTP
// status codes; anything unrecognized is a 500.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.respondJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": vErr.Message,
			"field": vErr.Field,
		})
	case errors.Is(err, store.ErrUserConflict),
		errors.Is(err, store.ErrSlugConflict),
		errors.Is(err, store.ErrDuplicateReview):
		h.respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrGenreNotFound),
		errors.Is(err, store.ErrTitleNotFound),
		errors.Is(err, store.ErrReviewNotFound),
		errors.Is(err, store.ErrCommentNotFound):
		h.respondError(w, r, http.StatusNotFound, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "Unhandled internal error",
			slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeAndValidate decodes the JSON body into dst and runs the request
// validator over it. A false return means a response has been written.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := h.validator.StructCtx(r.Context(), dst); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			first := vErrs[0]
			h.respondJSON(w, r, http.StatusBadRequest, map[string]string{
				"error": "validation failed on tag '" + first.Tag() + "'",
				"field": first.Field(),
			})
			return false
		}
		h.respondError(w, r, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

// listParamsFromRequest reads page/page_size/search query parameters.
func listParamsFromRequest(r *http.Request) store.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return store.ListParams{Page: page, PageSize: pageSize, Search: q.Get("search")}.Normalize()
}
