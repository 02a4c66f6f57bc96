package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"reviewhub/internal/domain"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrDuplicateReview = errors.New("author has already reviewed this title")
)

// ReviewStore persists reviews and their comments, and answers the rating
// aggregate.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *domain.Review) error
	GetReview(ctx context.Context, titleID, reviewID string) (*domain.Review, error)
	ListReviews(ctx context.Context, titleID string, params ListParams) ([]*domain.Review, int, error)
	UpdateReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, reviewID string) error

	// TitleRating returns the mean review score for the title, or nil when
	// the title has no reviews.
	TitleRating(ctx context.Context, titleID string) (*float64, error)

	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, reviewID, commentID string) (*domain.Comment, error)
	ListComments(ctx context.Context, reviewID string, params ListParams) ([]*domain.Comment, int, error)
	UpdateComment(ctx context.Context, comment *domain.Comment) error
	DeleteComment(ctx context.Context, commentID string) error
}

// MockReviewStore is the in-memory ReviewStore.
type MockReviewStore struct {
	mu       sync.RWMutex
	reviews  map[string]*domain.Review  // key: review ID
	comments map[string]*domain.Comment // key: comment ID
}

// NewMockReviewStore creates an empty MockReviewStore.
func NewMockReviewStore() *MockReviewStore {
	return &MockReviewStore{
		reviews:  make(map[string]*domain.Review),
		comments: make(map[string]*domain.Comment),
	}
}

func (m *MockReviewStore) CreateReview(ctx context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.TitleID == review.TitleID && r.AuthorID == review.AuthorID {
			return ErrDuplicateReview
		}
	}

	cp := *review
	cp.PubDate = time.Now().UTC()
	m.reviews[review.ID] = &cp
	review.PubDate = cp.PubDate
	return nil
}

func (m *MockReviewStore) GetReview(ctx context.Context, titleID, reviewID string) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[reviewID]
	if !ok || r.TitleID != titleID {
		return nil, ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockReviewStore) ListReviews(ctx context.Context, titleID string, params ListParams) ([]*domain.Review, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	params = params.Normalize()
	var all []*domain.Review
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			cp := *r
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PubDate.Before(all[j].PubDate) })

	total := len(all)
	start := params.Offset()
	if start >= total {
		return []*domain.Review{}, total, nil
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *MockReviewStore) UpdateReview(ctx context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.reviews[review.ID]
	if !ok {
		return ErrReviewNotFound
	}
	existing.Text = review.Text
	existing.Score = review.Score
	return nil
}

func (m *MockReviewStore) DeleteReview(ctx context.Context, reviewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[reviewID]; !ok {
		return ErrReviewNotFound
	}
	delete(m.reviews, reviewID)
	for id, c := range m.comments {
		if c.ReviewID == reviewID {
			delete(m.comments, id)
		}
	}
	return nil
}

func (m *MockReviewStore) TitleRating(ctx context.Context, titleID string) (*float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum, count int
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			sum += r.Score
			count++
		}
	}
	if count == 0 {
		return nil, nil
	}
	mean := float64(sum) / float64(count)
	return &mean, nil
}

func (m *MockReviewStore) CreateComment(ctx context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *comment
	cp.PubDate = time.Now().UTC()
	m.comments[comment.ID] = &cp
	comment.PubDate = cp.PubDate
	return nil
}

func (m *MockReviewStore) GetComment(ctx context.Context, reviewID, commentID string) (*domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[commentID]
	if !ok || c.ReviewID != reviewID {
		return nil, ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockReviewStore) ListComments(ctx context.Context, reviewID string, params ListParams) ([]*domain.Comment, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	params = params.Normalize()
	var all []*domain.Comment
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			cp := *c
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PubDate.Before(all[j].PubDate) })

	total := len(all)
	start := params.Offset()
	if start >= total {
		return []*domain.Comment{}, total, nil
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *MockReviewStore) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.comments[comment.ID]
	if !ok {
		return ErrCommentNotFound
	}
	existing.Text = comment.Text
	return nil
}

func (m *MockReviewStore) DeleteComment(ctx context.Context, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[commentID]; !ok {
		return ErrCommentNotFound
	}
	delete(m.comments, commentID)
	return nil
}

// deleteByTitle removes all reviews (and their comments) for a title. Used by
// the mock catalog store to mirror the database cascade.
func (m *MockReviewStore) deleteByTitle(titleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reviews {
		if r.TitleID != titleID {
			continue
		}
		delete(m.reviews, id)
		for cid, c := range m.comments {
			if c.ReviewID == id {
				delete(m.comments, cid)
			}
		}
	}
}
