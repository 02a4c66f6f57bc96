package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"reviewhub/internal/domain"
)

// PostgresCatalogStore implements CatalogStore on PostgreSQL. Cascades
// (title -> reviews -> comments) are handled by the schema's foreign keys;
// deleting a category only clears the reference on its titles.
type PostgresCatalogStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresCatalogStore wraps an already-connected database handle.
func NewPostgresCatalogStore(db *sqlx.DB, logger *slog.Logger) (*PostgresCatalogStore, error) {
	if db == nil {
		return nil, errors.New("database handle cannot be nil for PostgresCatalogStore")
	}
	return &PostgresCatalogStore{db: db, logger: logger}, nil
}

func (s *PostgresCatalogStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	return s.createTerm(ctx, "categories", category.ID, category.Name, category.Slug)
}

func (s *PostgresCatalogStore) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	return s.createTerm(ctx, "genres", genre.ID, genre.Name, genre.Slug)
}

// createTerm inserts into categories or genres, both share the same shape.
func (s *PostgresCatalogStore) createTerm(ctx context.Context, table, id, name, slug string) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, name, slug) VALUES ($1, $2, $3)`, table)

	s.logger.DebugContext(ctx, "Executing create query", slog.String("table", table), slog.String("slug", slug))
	_, err := s.db.ExecContext(ctx, query, id, name, slug)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			s.logger.WarnContext(ctx, "Slug already taken (unique constraint violation)",
				slog.String("table", table), slog.String("slug", slug))
			return ErrSlugConflict
		}
		s.logger.ErrorContext(ctx, "Failed to insert into DB",
			slog.String("table", table), slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (s *PostgresCatalogStore) ListCategories(ctx context.Context, params ListParams) ([]*domain.Category, int, error) {
	var out []*domain.Category
	total, err := s.listTerms(ctx, "categories", params, &out)
	return out, total, err
}

func (s *PostgresCatalogStore) ListGenres(ctx context.Context, params ListParams) ([]*domain.Genre, int, error) {
	var out []*domain.Genre
	total, err := s.listTerms(ctx, "genres", params, &out)
	return out, total, err
}

func (s *PostgresCatalogStore) listTerms(ctx context.Context, table string, params ListParams, dest interface{}) (int, error) {
	params = params.Normalize()

	where := ""
	args := []interface{}{}
	if params.Search != "" {
		where = ` WHERE name ILIKE $1`
		args = append(args, "%"+params.Search+"%")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, table, where), args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count rows",
			slog.String("table", table), slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	if total == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`SELECT id, name, slug FROM %s%s ORDER BY name LIMIT %d OFFSET %d`,
		table, where, params.PageSize, params.Offset())
	if err := s.db.SelectContext(ctx, dest, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list rows",
			slog.String("table", table), slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return total, nil
}

func (s *PostgresCatalogStore) DeleteCategory(ctx context.Context, slug string) error {
	return s.deleteTerm(ctx, "categories", slug, ErrCategoryNotFound)
}

func (s *PostgresCatalogStore) DeleteGenre(ctx context.Context, slug string) error {
	return s.deleteTerm(ctx, "genres", slug, ErrGenreNotFound)
}

func (s *PostgresCatalogStore) deleteTerm(ctx context.Context, table, slug string, notFound error) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE slug = $1`, table), slug)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete row",
			slog.String("table", table), slog.String("slug", slug), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return checkAffected(result, notFound)
}

// titleRow is the flat scan target for title reads; the nullable columns come
// from the LEFT JOINed category and the rating aggregate.
type titleRow struct {
	ID           string          `db:"id"`
	Name         string          `db:"name"`
	Year         int             `db:"year"`
	Description  string          `db:"description"`
	Rating       sql.NullFloat64 `db:"rating"`
	CategoryID   sql.NullString  `db:"category_id"`
	CategoryName sql.NullString  `db:"category_name"`
	CategorySlug sql.NullString  `db:"category_slug"`
}

func (r *titleRow) toDomain() *domain.Title {
	t := &domain.Title{
		ID:          r.ID,
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		Genres:      []domain.Genre{},
	}
	if r.Rating.Valid {
		rating := r.Rating.Float64
		t.Rating = &rating
	}
	if r.CategoryID.Valid {
		t.Category = &domain.Category{
			ID:   r.CategoryID.String,
			Name: r.CategoryName.String,
			Slug: r.CategorySlug.String,
		}
	}
	return t
}

// titleSelect computes the rating inline so reads always reflect the current
// committed review set.
const titleSelect = `
	SELECT t.id, t.name, t.year, t.description,
	       (SELECT AVG(r.score) FROM reviews r WHERE r.title_id = t.id) AS rating,
	       c.id AS category_id, c.name AS category_name, c.slug AS category_slug
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id`

func (s *PostgresCatalogStore) CreateTitle(ctx context.Context, title *domain.Title, categorySlug string, genreSlugs []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	category, genres, err := s.resolveRefs(ctx, tx, categorySlug, genreSlugs)
	if err != nil {
		return err
	}

	var categoryID interface{}
	if category != nil {
		categoryID = category.ID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO titles (id, name, year, description, category_id) VALUES ($1, $2, $3, $4, $5)`,
		title.ID, title.Name, title.Year, title.Description, categoryID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert title", slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert title: %w", err)
	}

	if err := insertTitleGenres(ctx, tx, title.ID, genres); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit title creation: %w", err)
	}

	title.Category = category
	title.Genres = genres
	s.logger.InfoContext(ctx, "Title created", slog.String("titleID", title.ID))
	return nil
}

// resolveRefs maps the category and genre slugs to their records, inside the
// caller's transaction so a concurrent delete cannot slip between resolution
// and link insertion.
func (s *PostgresCatalogStore) resolveRefs(ctx context.Context, tx *sqlx.Tx, categorySlug string, genreSlugs []string) (*domain.Category, []domain.Genre, error) {
	var category *domain.Category
	if categorySlug != "" {
		var c domain.Category
		err := tx.GetContext(ctx, &c, `SELECT id, name, slug FROM categories WHERE slug = $1`, categorySlug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, ErrCategoryNotFound
			}
			return nil, nil, fmt.Errorf("failed to resolve category %q: %w", categorySlug, err)
		}
		category = &c
	}

	genres := []domain.Genre{}
	if len(genreSlugs) > 0 {
		err := tx.SelectContext(ctx, &genres,
			`SELECT id, name, slug FROM genres WHERE slug = ANY($1) ORDER BY name`,
			pq.Array(genreSlugs))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve genres: %w", err)
		}
		if len(genres) != len(uniqueStrings(genreSlugs)) {
			return nil, nil, ErrGenreNotFound
		}
	}
	return category, genres, nil
}

func insertTitleGenres(ctx context.Context, tx *sqlx.Tx, titleID string, genres []domain.Genre) error {
	for _, g := range genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2)`, titleID, g.ID); err != nil {
			return fmt.Errorf("failed to link genre %q: %w", g.Slug, err)
		}
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func (s *PostgresCatalogStore) GetTitle(ctx context.Context, id string) (*domain.Title, error) {
	var row titleRow
	err := s.db.GetContext(ctx, &row, titleSelect+` WHERE t.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTitleNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get title from DB",
			slog.String("titleID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get title: %w", err)
	}

	title := row.toDomain()
	genresByTitle, err := s.loadGenres(ctx, []string{title.ID})
	if err != nil {
		return nil, err
	}
	if g, ok := genresByTitle[title.ID]; ok {
		title.Genres = g
	}
	return title, nil
}

func (s *PostgresCatalogStore) ListTitles(ctx context.Context, filter TitleFilter) ([]*domain.Title, int, error) {
	filter.ListParams = filter.ListParams.Normalize()

	where := ""
	args := []interface{}{}
	and := func(clause string, arg interface{}) {
		args = append(args, arg)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.Name != "" {
		and(`t.name ILIKE $%d`, "%"+filter.Name+"%")
	}
	if filter.Year != 0 {
		and(`t.year = $%d`, filter.Year)
	}
	if filter.CategorySlug != "" {
		and(`c.slug = $%d`, filter.CategorySlug)
	}
	if len(filter.GenreSlugs) > 0 {
		and(`EXISTS (SELECT 1 FROM title_genres tg
		             JOIN genres g ON g.id = tg.genre_id
		             WHERE tg.title_id = t.id AND g.slug = ANY($%d))`,
			pq.Array(filter.GenreSlugs))
	}

	countQuery := `SELECT COUNT(*) FROM titles t LEFT JOIN categories c ON c.id = t.category_id` + where
	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count titles in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count titles: %w", err)
	}
	if total == 0 {
		return []*domain.Title{}, 0, nil
	}

	query := titleSelect + where +
		fmt.Sprintf(` ORDER BY t.name LIMIT %d OFFSET %d`, filter.PageSize, filter.Offset())
	var rows []titleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list titles from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list titles: %w", err)
	}

	titles := make([]*domain.Title, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for i := range rows {
		titles = append(titles, rows[i].toDomain())
		ids = append(ids, rows[i].ID)
	}

	genresByTitle, err := s.loadGenres(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range titles {
		if g, ok := genresByTitle[t.ID]; ok {
			t.Genres = g
		}
	}
	return titles, total, nil
}

// loadGenres fetches the genre lists for a batch of titles in one query.
func (s *PostgresCatalogStore) loadGenres(ctx context.Context, titleIDs []string) (map[string][]domain.Genre, error) {
	if len(titleIDs) == 0 {
		return map[string][]domain.Genre{}, nil
	}

	var rows []struct {
		TitleID string `db:"title_id"`
		ID      string `db:"id"`
		Name    string `db:"name"`
		Slug    string `db:"slug"`
	}
	query := `SELECT tg.title_id, g.id, g.name, g.slug
	          FROM title_genres tg
	          JOIN genres g ON g.id = tg.genre_id
	          WHERE tg.title_id = ANY($1)
	          ORDER BY g.name`
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(titleIDs)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load title genres from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load title genres: %w", err)
	}

	out := make(map[string][]domain.Genre, len(titleIDs))
	for _, r := range rows {
		out[r.TitleID] = append(out[r.TitleID], domain.Genre{ID: r.ID, Name: r.Name, Slug: r.Slug})
	}
	return out, nil
}

func (s *PostgresCatalogStore) UpdateTitle(ctx context.Context, title *domain.Title, categorySlug *string, genreSlugs []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE titles SET name = $1, year = $2, description = $3 WHERE id = $4`,
		title.Name, title.Year, title.Description, title.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update title",
			slog.String("titleID", title.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update title: %w", err)
	}
	if err := checkAffected(result, ErrTitleNotFound); err != nil {
		return err
	}

	if categorySlug != nil {
		category, _, err := s.resolveRefs(ctx, tx, *categorySlug, nil)
		if err != nil {
			return err
		}
		var categoryID interface{}
		if category != nil {
			categoryID = category.ID
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE titles SET category_id = $1 WHERE id = $2`, categoryID, title.ID); err != nil {
			return fmt.Errorf("failed to update title category: %w", err)
		}
	}

	if genreSlugs != nil {
		_, genres, err := s.resolveRefs(ctx, tx, "", genreSlugs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM title_genres WHERE title_id = $1`, title.ID); err != nil {
			return fmt.Errorf("failed to clear title genres: %w", err)
		}
		if err := insertTitleGenres(ctx, tx, title.ID, genres); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit title update: %w", err)
	}
	s.logger.InfoContext(ctx, "Title updated", slog.String("titleID", title.ID))
	return nil
}

func (s *PostgresCatalogStore) DeleteTitle(ctx context.Context, id string) error {
	// Reviews and comments go with the title via ON DELETE CASCADE.
	result, err := s.db.ExecContext(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete title from DB",
			slog.String("titleID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete title: %w", err)
	}
	return checkAffected(result, ErrTitleNotFound)
}
