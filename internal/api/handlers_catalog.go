package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"reviewhub/internal/domain"
	"reviewhub/internal/perm"
	"reviewhub/internal/store"
)

// Categories and genres share the create/list/delete shape; only admins may
// mutate, reads are public.

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromRequest(r)
	categories, total, err := h.catalog.ListCategories(r.Context(), params)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Count: total, Page: params.Page, PageSize: params.PageSize, Results: categories,
	})
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanMutateCatalog(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req domain.CreateCategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	category := &domain.Category{ID: uuid.NewString(), Name: req.Name, Slug: req.Slug}
	if err := h.catalog.CreateCategory(ctx, category); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "Category created", slog.String("slug", category.Slug))
	h.respondJSON(w, r, http.StatusCreated, category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanMutateCatalog(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	if err := h.catalog.DeleteCategory(ctx, mux.Vars(r)["slug"]); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromRequest(r)
	genres, total, err := h.catalog.ListGenres(r.Context(), params)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Count: total, Page: params.Page, PageSize: params.PageSize, Results: genres,
	})
}

func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanMutateCatalog(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req domain.CreateCategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	genre := &domain.Genre{ID: uuid.NewString(), Name: req.Name, Slug: req.Slug}
	if err := h.catalog.CreateGenre(ctx, genre); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "Genre created", slog.String("slug", genre.Slug))
	h.respondJSON(w, r, http.StatusCreated, genre)
}

func (h *Handler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanMutateCatalog(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}
	if err := h.catalog.DeleteGenre(ctx, mux.Vars(r)["slug"]); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTitles handles GET /api/v1/titles with category/genre/name/year
// filters.
func (h *Handler) ListTitles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	filter := store.TitleFilter{
		ListParams:   listParamsFromRequest(r),
		CategorySlug: q.Get("category"),
		Name:         q.Get("name"),
		Year:         year,
	}
	if genres, ok := q["genre"]; ok {
		filter.GenreSlugs = genres
	}

	titles, total, err := h.catalog.ListTitles(r.Context(), filter)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Count: total, Page: filter.Page, PageSize: filter.PageSize, Results: titles,
	})
}

func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	title, err := h.catalog.GetTitle(r.Context(), mux.Vars(r)["title_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, title)
}

func (h *Handler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanMutateCatalog(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req domain.CreateTitleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	title := &domain.Title{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}
	if err := h.catalog.CreateTitle(ctx, title, req.Category, req.Genres); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "Title created", slog.String("titleID", title.ID))
	h.respondJSON(w, r, http.StatusCreated, title)
}

func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanMutateCatalog(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req domain.UpdateTitleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	title, err := h.catalog.GetTitle(ctx, mux.Vars(r)["title_id"])
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if err := h.catalog.UpdateTitle(ctx, title, req.Category, req.Genres); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	// Re-read so the response carries the resolved references and rating.
	updated, err := h.catalog.GetTitle(ctx, title.ID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, updated)
}

func (h *Handler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !perm.CanMutateCatalog(actorFrom(ctx)) {
		h.respondError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	id := mux.Vars(r)["title_id"]
	if err := h.catalog.DeleteTitle(ctx, id); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.logger.InfoContext(ctx, "Title deleted", slog.String("titleID", id))
	w.WriteHeader(http.StatusNoContent)
}
