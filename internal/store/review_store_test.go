package store

import (
	"context"
	"errors"
	"testing"

	"reviewhub/internal/domain"
)

func TestMockReviewStoreDuplicateReview(t *testing.T) {
	ctx := context.Background()
	s := NewMockReviewStore()

	first := &domain.Review{ID: "r1", TitleID: "t1", AuthorID: "u1", Score: 7, Text: "good"}
	if err := s.CreateReview(ctx, first); err != nil {
		t.Fatalf("first review: %v", err)
	}

	second := &domain.Review{ID: "r2", TitleID: "t1", AuthorID: "u1", Score: 3, Text: "changed my mind"}
	if err := s.CreateReview(ctx, second); !errors.Is(err, ErrDuplicateReview) {
		t.Errorf("second review by same author: err = %v, want ErrDuplicateReview", err)
	}

	// Same author, other title, and other author, same title, are both fine.
	if err := s.CreateReview(ctx, &domain.Review{ID: "r3", TitleID: "t2", AuthorID: "u1", Score: 5}); err != nil {
		t.Errorf("same author on another title: %v", err)
	}
	if err := s.CreateReview(ctx, &domain.Review{ID: "r4", TitleID: "t1", AuthorID: "u2", Score: 5}); err != nil {
		t.Errorf("another author on same title: %v", err)
	}
}

func TestMockReviewStoreTitleRating(t *testing.T) {
	ctx := context.Background()
	s := NewMockReviewStore()

	rating, err := s.TitleRating(ctx, "t1")
	if err != nil {
		t.Fatalf("TitleRating: %v", err)
	}
	if rating != nil {
		t.Errorf("rating with no reviews = %v, want nil", *rating)
	}

	scores := []int{3, 8, 10}
	authors := []string{"u1", "u2", "u3"}
	for i, score := range scores {
		err := s.CreateReview(ctx, &domain.Review{
			ID: authors[i] + "-review", TitleID: "t1", AuthorID: authors[i], Score: score,
		})
		if err != nil {
			t.Fatalf("CreateReview: %v", err)
		}
	}

	rating, err = s.TitleRating(ctx, "t1")
	if err != nil {
		t.Fatalf("TitleRating: %v", err)
	}
	if rating == nil {
		t.Fatal("rating = nil, want mean")
	}
	if want := 7.0; *rating != want {
		t.Errorf("rating = %v, want %v", *rating, want)
	}

	// Deleting a review moves the mean.
	if err := s.DeleteReview(ctx, "u3-review"); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	rating, _ = s.TitleRating(ctx, "t1")
	if want := 5.5; rating == nil || *rating != want {
		t.Errorf("rating after delete = %v, want %v", rating, want)
	}
}

func TestMockReviewStoreCommentCascade(t *testing.T) {
	ctx := context.Background()
	s := NewMockReviewStore()

	if err := s.CreateReview(ctx, &domain.Review{ID: "r1", TitleID: "t1", AuthorID: "u1", Score: 6}); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if err := s.CreateComment(ctx, &domain.Comment{ID: "c1", ReviewID: "r1", AuthorID: "u2", Text: "agreed"}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := s.DeleteReview(ctx, "r1"); err != nil {
		t.Fatalf("DeleteReview: %v", err)
	}
	if _, err := s.GetComment(ctx, "r1", "c1"); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("comment survived review deletion: err = %v", err)
	}
}

func TestMockCatalogStoreTitleCascade(t *testing.T) {
	ctx := context.Background()
	reviews := NewMockReviewStore()
	catalog := NewMockCatalogStore(reviews)

	if err := catalog.CreateGenre(ctx, &domain.Genre{ID: "g1", Name: "Drama", Slug: "drama"}); err != nil {
		t.Fatalf("CreateGenre: %v", err)
	}
	title := &domain.Title{ID: "t1", Name: "The Title", Year: 2000}
	if err := catalog.CreateTitle(ctx, title, "", []string{"drama"}); err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	if err := reviews.CreateReview(ctx, &domain.Review{ID: "r1", TitleID: "t1", AuthorID: "u1", Score: 9}); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	got, err := catalog.GetTitle(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTitle: %v", err)
	}
	if got.Rating == nil || *got.Rating != 9.0 {
		t.Errorf("title rating = %v, want 9.0", got.Rating)
	}

	if err := catalog.DeleteTitle(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTitle: %v", err)
	}
	if _, err := reviews.GetReview(ctx, "t1", "r1"); !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("review survived title deletion: err = %v", err)
	}
}

func TestMockCatalogStoreUnknownRefs(t *testing.T) {
	ctx := context.Background()
	catalog := NewMockCatalogStore(nil)

	err := catalog.CreateTitle(ctx, &domain.Title{ID: "t1", Name: "x", Year: 1999}, "nope", nil)
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("unknown category: err = %v, want ErrCategoryNotFound", err)
	}
	err = catalog.CreateTitle(ctx, &domain.Title{ID: "t1", Name: "x", Year: 1999}, "", []string{"nope"})
	if !errors.Is(err, ErrGenreNotFound) {
		t.Errorf("unknown genre: err = %v, want ErrGenreNotFound", err)
	}
}
