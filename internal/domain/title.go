package domain

// Category groups titles by kind (book, film, music ...). Addressed
// externally by slug, never by id.
type Category struct {
	ID   string `json:"-" db:"id"` // UUID
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Genre is a free-form tag shared by many titles.
type Genre struct {
	ID   string `json:"-" db:"id"` // UUID
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Title is a reviewable work. Rating is derived from the live review set on
// every read and is nil while the title has no reviews; it is never stored.
type Title struct {
	ID          string   `json:"id" db:"id"` // UUID
	Name        string   `json:"name" db:"name"`
	Year        int      `json:"year" db:"year"`
	Description string   `json:"description" db:"description"`
	Rating      *float64 `json:"rating" db:"rating"`
	Category    *Category `json:"category"`
	Genres      []Genre   `json:"genre"`
}

// CreateCategoryRequest doubles for genres, the shape is identical.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,rhslug,max=50"`
}

// CreateTitleRequest is the body of POST /titles. Category and genres are
// referenced by slug; at least one genre is required.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required,pastyear"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty" validate:"omitempty,rhslug"`
	Genres      []string `json:"genre" validate:"required,min=1,dive,rhslug"`
}

// UpdateTitleRequest is the body of PATCH /titles/{id}. Nil fields are left
// untouched; an explicitly provided genre list must still be non-empty.
type UpdateTitleRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=256"`
	Year        *int     `json:"year,omitempty" validate:"omitempty,pastyear"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,rhslug"`
	Genres      []string `json:"genre,omitempty" validate:"omitempty,min=1,dive,rhslug"`
}
