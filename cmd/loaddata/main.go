// Command loaddata bulk-imports the seed CSV files into the database. Rows go
// through the same validators as the API; invalid rows are skipped and
// reported, never silently inserted.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"reviewhub/internal/domain"
	"reviewhub/internal/store"
	"reviewhub/internal/validate"
)

func main() {
	var (
		dir   = flag.String("dir", "data", "directory containing the CSV files")
		dbURL = flag.String("database-url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *dbURL == "" {
		_ = godotenv.Load()
		*dbURL = os.Getenv("DATABASE_URL")
	}

	db, err := store.Connect(*dbURL, logger)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	users, err := store.NewPostgresUserStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize user store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	catalog, err := store.NewPostgresCatalogStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize catalog store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	reviews, err := store.NewPostgresReviewStore(db, logger)
	if err != nil {
		logger.Error("Failed to initialize review store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	imp := &importer{
		ctx:     context.Background(),
		dir:     *dir,
		logger:  logger,
		users:   users,
		catalog: catalog,
		reviews: reviews,

		userIDs:       map[string]string{},
		categorySlugs: map[string]string{},
		genreSlugs:    map[string]string{},
		titleIDs:      map[string]string{},
		reviewIDs:     map[string]string{},
	}

	// Dependency order: referenced entities first.
	steps := []struct {
		file string
		load func(rows []map[string]string) (int, int)
	}{
		{"users.csv", imp.loadUsers},
		{"category.csv", imp.loadCategories},
		{"genre.csv", imp.loadGenres},
		{"titles.csv", imp.loadTitles},
		{"review.csv", imp.loadReviews},
		{"comments.csv", imp.loadComments},
	}

	// Genre links are needed before titles are inserted.
	if err := imp.readGenreLinks("genre_title.csv"); err != nil {
		logger.Error("Failed to read genre links", slog.String("error", err.Error()))
		os.Exit(1)
	}

	failed := false
	for _, step := range steps {
		rows, err := readCSV(filepath.Join(*dir, step.file))
		if err != nil {
			logger.Error("Failed to read CSV file",
				slog.String("file", step.file), slog.String("error", err.Error()))
			failed = true
			continue
		}
		ok, skipped := step.load(rows)
		logger.Info("Loaded CSV file",
			slog.String("file", step.file), slog.Int("inserted", ok), slog.Int("skipped", skipped))
		if skipped > 0 {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

type importer struct {
	ctx     context.Context
	dir     string
	logger  *slog.Logger
	users   store.UserStore
	catalog store.CatalogStore
	reviews store.ReviewStore

	// CSV id -> generated UUID (or slug for catalog terms).
	userIDs       map[string]string
	categorySlugs map[string]string
	genreSlugs    map[string]string
	titleIDs      map[string]string
	reviewIDs     map[string]string

	// CSV title id -> genre slugs, from genre_title.csv.
	titleGenres map[string][]string
}

// readCSV returns every record as a header-keyed map, like csv.DictReader.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (imp *importer) readGenreLinks(file string) error {
	rows, err := readCSV(filepath.Join(imp.dir, file))
	if err != nil {
		return err
	}
	imp.titleGenres = map[string][]string{}
	for _, row := range rows {
		imp.titleGenres[row["title_id"]] = append(imp.titleGenres[row["title_id"]], row["genre_id"])
	}
	return nil
}

func (imp *importer) skip(file, csvID string, reason error) {
	imp.logger.Warn("Skipping row",
		slog.String("file", file), slog.String("id", csvID), slog.String("reason", reason.Error()))
}

func (imp *importer) loadUsers(rows []map[string]string) (ok, skipped int) {
	for _, row := range rows {
		if err := validate.Username(row["username"]); err != nil {
			imp.skip("users.csv", row["id"], err)
			skipped++
			continue
		}
		if err := validate.Email(row["email"]); err != nil {
			imp.skip("users.csv", row["id"], err)
			skipped++
			continue
		}
		role := row["role"]
		if role == "" {
			role = domain.RoleUser
		}
		if !domain.ValidRole(role) {
			imp.skip("users.csv", row["id"], fmt.Errorf("unknown role %q", role))
			skipped++
			continue
		}

		user := &domain.User{
			ID:        uuid.NewString(),
			Username:  row["username"],
			Email:     row["email"],
			Role:      role,
			Bio:       row["bio"],
			FirstName: row["first_name"],
			LastName:  row["last_name"],
		}
		if err := imp.users.Create(imp.ctx, user); err != nil {
			imp.skip("users.csv", row["id"], err)
			skipped++
			continue
		}
		imp.userIDs[row["id"]] = user.ID
		ok++
	}
	return ok, skipped
}

func (imp *importer) loadCategories(rows []map[string]string) (ok, skipped int) {
	for _, row := range rows {
		if err := validate.Slug(row["slug"]); err != nil {
			imp.skip("category.csv", row["id"], err)
			skipped++
			continue
		}
		c := &domain.Category{ID: uuid.NewString(), Name: row["name"], Slug: row["slug"]}
		if err := imp.catalog.CreateCategory(imp.ctx, c); err != nil {
			imp.skip("category.csv", row["id"], err)
			skipped++
			continue
		}
		imp.categorySlugs[row["id"]] = c.Slug
		ok++
	}
	return ok, skipped
}

func (imp *importer) loadGenres(rows []map[string]string) (ok, skipped int) {
	for _, row := range rows {
		if err := validate.Slug(row["slug"]); err != nil {
			imp.skip("genre.csv", row["id"], err)
			skipped++
			continue
		}
		g := &domain.Genre{ID: uuid.NewString(), Name: row["name"], Slug: row["slug"]}
		if err := imp.catalog.CreateGenre(imp.ctx, g); err != nil {
			imp.skip("genre.csv", row["id"], err)
			skipped++
			continue
		}
		imp.genreSlugs[row["id"]] = g.Slug
		ok++
	}
	return ok, skipped
}

func (imp *importer) loadTitles(rows []map[string]string) (ok, skipped int) {
	for _, row := range rows {
		year, err := strconv.Atoi(row["year"])
		if err != nil {
			imp.skip("titles.csv", row["id"], fmt.Errorf("bad year %q", row["year"]))
			skipped++
			continue
		}
		if vErr := validate.Year(year); vErr != nil {
			imp.skip("titles.csv", row["id"], vErr)
			skipped++
			continue
		}

		categorySlug := ""
		if csvCat := row["category"]; csvCat != "" {
			slug, found := imp.categorySlugs[csvCat]
			if !found {
				imp.skip("titles.csv", row["id"], fmt.Errorf("unknown category id %q", csvCat))
				skipped++
				continue
			}
			categorySlug = slug
		}

		var genreSlugs []string
		badGenre := false
		for _, genreCSVID := range imp.titleGenres[row["id"]] {
			slug, found := imp.genreSlugs[genreCSVID]
			if !found {
				imp.skip("titles.csv", row["id"], fmt.Errorf("unknown genre id %q", genreCSVID))
				badGenre = true
				break
			}
			genreSlugs = append(genreSlugs, slug)
		}
		if badGenre {
			skipped++
			continue
		}

		title := &domain.Title{
			ID:          uuid.NewString(),
			Name:        row["name"],
			Year:        year,
			Description: row["description"],
		}
		if err := imp.catalog.CreateTitle(imp.ctx, title, categorySlug, genreSlugs); err != nil {
			imp.skip("titles.csv", row["id"], err)
			skipped++
			continue
		}
		imp.titleIDs[row["id"]] = title.ID
		ok++
	}
	return ok, skipped
}

func (imp *importer) loadReviews(rows []map[string]string) (ok, skipped int) {
	for _, row := range rows {
		score, err := strconv.Atoi(row["score"])
		if err != nil {
			imp.skip("review.csv", row["id"], fmt.Errorf("bad score %q", row["score"]))
			skipped++
			continue
		}
		if vErr := validate.Score(score); vErr != nil {
			imp.skip("review.csv", row["id"], vErr)
			skipped++
			continue
		}

		titleID, found := imp.titleIDs[row["title_id"]]
		if !found {
			imp.skip("review.csv", row["id"], fmt.Errorf("unknown title id %q", row["title_id"]))
			skipped++
			continue
		}
		authorID, found := imp.userIDs[row["author"]]
		if !found {
			imp.skip("review.csv", row["id"], fmt.Errorf("unknown author id %q", row["author"]))
			skipped++
			continue
		}

		review := &domain.Review{
			ID:       uuid.NewString(),
			TitleID:  titleID,
			AuthorID: authorID,
			Text:     row["text"],
			Score:    score,
		}
		if err := imp.reviews.CreateReview(imp.ctx, review); err != nil {
			imp.skip("review.csv", row["id"], err)
			skipped++
			continue
		}
		imp.reviewIDs[row["id"]] = review.ID
		ok++
	}
	return ok, skipped
}

func (imp *importer) loadComments(rows []map[string]string) (ok, skipped int) {
	for _, row := range rows {
		if err := validate.NotBlank("text", row["text"]); err != nil {
			imp.skip("comments.csv", row["id"], err)
			skipped++
			continue
		}
		reviewID, found := imp.reviewIDs[row["review_id"]]
		if !found {
			imp.skip("comments.csv", row["id"], fmt.Errorf("unknown review id %q", row["review_id"]))
			skipped++
			continue
		}
		authorID, found := imp.userIDs[row["author"]]
		if !found {
			imp.skip("comments.csv", row["id"], fmt.Errorf("unknown author id %q", row["author"]))
			skipped++
			continue
		}

		comment := &domain.Comment{
			ID:       uuid.NewString(),
			ReviewID: reviewID,
			AuthorID: authorID,
			Text:     row["text"],
		}
		if err := imp.reviews.CreateComment(imp.ctx, comment); err != nil {
			imp.skip("comments.csv", row["id"], err)
			skipped++
			continue
		}
		ok++
	}
	return ok, skipped
}
