package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"reviewhub/internal/domain"
)

// PostgresReviewStore implements ReviewStore on PostgreSQL. The one-review-
// per-(title, author) invariant is enforced by the uq_review_title_author
// constraint, so concurrent submissions resolve to one success and one
// conflict.
type PostgresReviewStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresReviewStore wraps an already-connected database handle.
func NewPostgresReviewStore(db *sqlx.DB, logger *slog.Logger) (*PostgresReviewStore, error) {
	if db == nil {
		return nil, errors.New("database handle cannot be nil for PostgresReviewStore")
	}
	return &PostgresReviewStore{db: db, logger: logger}, nil
}

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, u.username AS author, r.text, r.score, r.pub_date
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

func (s *PostgresReviewStore) CreateReview(ctx context.Context, review *domain.Review) error {
	query := `INSERT INTO reviews (id, title_id, author_id, text, score, pub_date)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	review.PubDate = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing CreateReview query",
		slog.String("reviewID", review.ID),
		slog.String("titleID", review.TitleID),
		slog.String("authorID", review.AuthorID))
	_, err := s.db.ExecContext(ctx, query,
		review.ID, review.TitleID, review.AuthorID, review.Text, review.Score, review.PubDate)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			s.logger.WarnContext(ctx, "Author has already reviewed this title (DB constraint)",
				slog.String("titleID", review.TitleID),
				slog.String("authorID", review.AuthorID),
				slog.String("constraint", pqErr.Constraint))
			return ErrDuplicateReview
		}
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (s *PostgresReviewStore) GetReview(ctx context.Context, titleID, reviewID string) (*domain.Review, error) {
	var review domain.Review
	err := s.db.GetContext(ctx, &review, reviewSelect+` WHERE r.id = $1 AND r.title_id = $2`, reviewID, titleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review from DB",
			slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (s *PostgresReviewStore) ListReviews(ctx context.Context, titleID string, params ListParams) ([]*domain.Review, int, error) {
	params = params.Normalize()

	var total int
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM reviews WHERE title_id = $1`, titleID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count reviews in DB",
			slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	if total == 0 {
		return []*domain.Review{}, 0, nil
	}

	query := reviewSelect + fmt.Sprintf(` WHERE r.title_id = $1 ORDER BY r.pub_date LIMIT %d OFFSET %d`,
		params.PageSize, params.Offset())
	var reviews []*domain.Review
	if err := s.db.SelectContext(ctx, &reviews, query, titleID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews from DB",
			slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

func (s *PostgresReviewStore) UpdateReview(ctx context.Context, review *domain.Review) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET text = $1, score = $2 WHERE id = $3`,
		review.Text, review.Score, review.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update review in DB",
			slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update review: %w", err)
	}
	return checkAffected(result, ErrReviewNotFound)
}

func (s *PostgresReviewStore) DeleteReview(ctx context.Context, reviewID string) error {
	// Comments go with the review via ON DELETE CASCADE.
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from DB",
			slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return checkAffected(result, ErrReviewNotFound)
}

func (s *PostgresReviewStore) TitleRating(ctx context.Context, titleID string) (*float64, error) {
	var rating sql.NullFloat64
	err := s.db.GetContext(ctx, &rating,
		`SELECT AVG(score) FROM reviews WHERE title_id = $1`, titleID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to compute title rating in DB",
			slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to compute rating for title %s: %w", titleID, err)
	}
	if !rating.Valid {
		return nil, nil
	}
	mean := rating.Float64
	return &mean, nil
}

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, u.username AS author, c.text, c.pub_date
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func (s *PostgresReviewStore) CreateComment(ctx context.Context, comment *domain.Comment) error {
	query := `INSERT INTO comments (id, review_id, author_id, text, pub_date)
	          VALUES ($1, $2, $3, $4, $5)`
	comment.PubDate = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		comment.ID, comment.ReviewID, comment.AuthorID, comment.Text, comment.PubDate)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create comment in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (s *PostgresReviewStore) GetComment(ctx context.Context, reviewID, commentID string) (*domain.Comment, error) {
	var comment domain.Comment
	err := s.db.GetContext(ctx, &comment, commentSelect+` WHERE c.id = $1 AND c.review_id = $2`, commentID, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get comment from DB",
			slog.String("commentID", commentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

func (s *PostgresReviewStore) ListComments(ctx context.Context, reviewID string, params ListParams) ([]*domain.Comment, int, error) {
	params = params.Normalize()

	var total int
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM comments WHERE review_id = $1`, reviewID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count comments in DB",
			slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	if total == 0 {
		return []*domain.Comment{}, 0, nil
	}

	query := commentSelect + fmt.Sprintf(` WHERE c.review_id = $1 ORDER BY c.pub_date LIMIT %d OFFSET %d`,
		params.PageSize, params.Offset())
	var comments []*domain.Comment
	if err := s.db.SelectContext(ctx, &comments, query, reviewID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list comments from DB",
			slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

func (s *PostgresReviewStore) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE comments SET text = $1 WHERE id = $2`, comment.Text, comment.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update comment in DB",
			slog.String("commentID", comment.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return checkAffected(result, ErrCommentNotFound)
}

func (s *PostgresReviewStore) DeleteComment(ctx context.Context, commentID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete comment from DB",
			slog.String("commentID", commentID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return checkAffected(result, ErrCommentNotFound)
}
