package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"reviewhub/internal/domain"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrTitleNotFound    = errors.New("title not found")
	ErrSlugConflict     = errors.New("slug already taken")
)

// CatalogStore persists categories, genres and titles. Title reads carry the
// live rating derived from the current review set.
type CatalogStore interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context, params ListParams) ([]*domain.Category, int, error)
	DeleteCategory(ctx context.Context, slug string) error

	CreateGenre(ctx context.Context, genre *domain.Genre) error
	ListGenres(ctx context.Context, params ListParams) ([]*domain.Genre, int, error)
	DeleteGenre(ctx context.Context, slug string) error

	// CreateTitle resolves the category and genre slugs and writes the title
	// plus its genre links in one transaction. The resolved references are
	// filled into title before returning.
	CreateTitle(ctx context.Context, title *domain.Title, categorySlug string, genreSlugs []string) error
	GetTitle(ctx context.Context, id string) (*domain.Title, error)
	ListTitles(ctx context.Context, filter TitleFilter) ([]*domain.Title, int, error)
	// UpdateTitle rewrites the scalar fields and, when categorySlug or
	// genreSlugs are non-nil, the respective references.
	UpdateTitle(ctx context.Context, title *domain.Title, categorySlug *string, genreSlugs []string) error
	DeleteTitle(ctx context.Context, id string) error
}

// MockCatalogStore is the in-memory CatalogStore. It shares a MockReviewStore
// so that title reads see the same review set the review endpoints mutate,
// and so that title deletion cascades.
type MockCatalogStore struct {
	mu         sync.RWMutex
	categories map[string]*domain.Category // key: slug
	genres     map[string]*domain.Genre    // key: slug
	titles     map[string]*domain.Title    // key: title ID
	reviews    *MockReviewStore
}

// NewMockCatalogStore creates an empty MockCatalogStore backed by the given
// review store (may be nil when ratings are irrelevant to the test).
func NewMockCatalogStore(reviews *MockReviewStore) *MockCatalogStore {
	return &MockCatalogStore{
		categories: make(map[string]*domain.Category),
		genres:     make(map[string]*domain.Genre),
		titles:     make(map[string]*domain.Title),
		reviews:    reviews,
	}
}

func (m *MockCatalogStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[category.Slug]; ok {
		return ErrSlugConflict
	}
	cp := *category
	m.categories[category.Slug] = &cp
	return nil
}

func (m *MockCatalogStore) ListCategories(ctx context.Context, params ListParams) ([]*domain.Category, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	params = params.Normalize()
	var all []*domain.Category
	for _, c := range m.categories {
		if params.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(params.Search)) {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return pageCategories(all, params)
}

func (m *MockCatalogStore) DeleteCategory(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[slug]
	if !ok {
		return ErrCategoryNotFound
	}
	delete(m.categories, slug)
	// Referencing titles lose the category, they are not deleted.
	for _, t := range m.titles {
		if t.Category != nil && t.Category.ID == c.ID {
			t.Category = nil
		}
	}
	return nil
}

func (m *MockCatalogStore) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.genres[genre.Slug]; ok {
		return ErrSlugConflict
	}
	cp := *genre
	m.genres[genre.Slug] = &cp
	return nil
}

func (m *MockCatalogStore) ListGenres(ctx context.Context, params ListParams) ([]*domain.Genre, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	params = params.Normalize()
	var all []*domain.Genre
	for _, g := range m.genres {
		if params.Search != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(params.Search)) {
			continue
		}
		cp := *g
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return pageGenres(all, params)
}

func (m *MockCatalogStore) DeleteGenre(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.genres[slug]
	if !ok {
		return ErrGenreNotFound
	}
	delete(m.genres, slug)
	for _, t := range m.titles {
		kept := t.Genres[:0]
		for _, tg := range t.Genres {
			if tg.ID != g.ID {
				kept = append(kept, tg)
			}
		}
		t.Genres = kept
	}
	return nil
}

func (m *MockCatalogStore) resolveRefs(categorySlug string, genreSlugs []string) (*domain.Category, []domain.Genre, error) {
	var category *domain.Category
	if categorySlug != "" {
		c, ok := m.categories[categorySlug]
		if !ok {
			return nil, nil, ErrCategoryNotFound
		}
		cp := *c
		category = &cp
	}
	genres := make([]domain.Genre, 0, len(genreSlugs))
	for _, slug := range genreSlugs {
		g, ok := m.genres[slug]
		if !ok {
			return nil, nil, ErrGenreNotFound
		}
		genres = append(genres, *g)
	}
	return category, genres, nil
}

func (m *MockCatalogStore) CreateTitle(ctx context.Context, title *domain.Title, categorySlug string, genreSlugs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	category, genres, err := m.resolveRefs(categorySlug, genreSlugs)
	if err != nil {
		return err
	}
	title.Category = category
	title.Genres = genres

	cp := *title
	m.titles[title.ID] = &cp
	return nil
}

func (m *MockCatalogStore) rating(titleID string) *float64 {
	if m.reviews == nil {
		return nil
	}
	r, _ := m.reviews.TitleRating(context.Background(), titleID)
	return r
}

func (m *MockCatalogStore) GetTitle(ctx context.Context, id string) (*domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.titles[id]
	if !ok {
		return nil, ErrTitleNotFound
	}
	cp := *t
	cp.Rating = m.rating(id)
	return &cp, nil
}

func (m *MockCatalogStore) ListTitles(ctx context.Context, filter TitleFilter) ([]*domain.Title, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter.ListParams = filter.ListParams.Normalize()
	var all []*domain.Title
	for _, t := range m.titles {
		if !matchTitle(t, filter) {
			continue
		}
		cp := *t
		cp.Rating = m.rating(t.ID)
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := len(all)
	start := filter.Offset()
	if start >= total {
		return []*domain.Title{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func matchTitle(t *domain.Title, filter TitleFilter) bool {
	if filter.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Name)) {
		return false
	}
	if filter.Year != 0 && t.Year != filter.Year {
		return false
	}
	if filter.CategorySlug != "" && (t.Category == nil || t.Category.Slug != filter.CategorySlug) {
		return false
	}
	for _, want := range filter.GenreSlugs {
		found := false
		for _, g := range t.Genres {
			if g.Slug == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *MockCatalogStore) UpdateTitle(ctx context.Context, title *domain.Title, categorySlug *string, genreSlugs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.titles[title.ID]
	if !ok {
		return ErrTitleNotFound
	}

	if categorySlug != nil || genreSlugs != nil {
		wantCategory := ""
		if categorySlug != nil {
			wantCategory = *categorySlug
		} else if existing.Category != nil {
			wantCategory = existing.Category.Slug
		}
		wantGenres := genreSlugs
		if wantGenres == nil {
			for _, g := range existing.Genres {
				wantGenres = append(wantGenres, g.Slug)
			}
		}
		category, genres, err := m.resolveRefs(wantCategory, wantGenres)
		if err != nil {
			return err
		}
		title.Category = category
		title.Genres = genres
	} else {
		title.Category = existing.Category
		title.Genres = existing.Genres
	}

	cp := *title
	m.titles[title.ID] = &cp
	return nil
}

func (m *MockCatalogStore) DeleteTitle(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.titles[id]; !ok {
		return ErrTitleNotFound
	}
	delete(m.titles, id)
	if m.reviews != nil {
		m.reviews.deleteByTitle(id)
	}
	return nil
}

func pageCategories(all []*domain.Category, params ListParams) ([]*domain.Category, int, error) {
	total := len(all)
	start := params.Offset()
	if start >= total {
		return []*domain.Category{}, total, nil
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func pageGenres(all []*domain.Genre, params ListParams) ([]*domain.Genre, int, error) {
	total := len(all)
	start := params.Offset()
	if start >= total {
		return []*domain.Genre{}, total, nil
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}
