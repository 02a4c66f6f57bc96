// Package validate holds the field-level validation rules shared by the HTTP
// layer and the CSV importer. Every function is pure: it inspects its argument
// and returns a *domain.ValidationError (nil on success), never touching any
// state.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"reviewhub/internal/domain"
)

const (
	UsernameMaxLength = 150
	EmailMaxLength    = 254
	NameMaxLength     = 150
	SlugMaxLength     = 50
	ScoreMin          = 1
	ScoreMax          = 10

	// ReservedUsername collides with the /users/me route and is rejected
	// outright.
	ReservedUsername = "me"
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Username checks the account name: not the reserved value, allowed charset,
// length bound.
func Username(s string) *domain.ValidationError {
	if s == ReservedUsername {
		return domain.NewValidationError("username", "username %q is reserved", ReservedUsername)
	}
	if !usernameRe.MatchString(s) {
		return domain.NewValidationError("username", "username may only contain letters, digits and _.@+- characters")
	}
	if len(s) > UsernameMaxLength {
		return domain.NewValidationError("username", "username must be at most %d characters", UsernameMaxLength)
	}
	return nil
}

// Email checks only the length bound; address shape is left to the request
// validator's email tag.
func Email(s string) *domain.ValidationError {
	if len(s) > EmailMaxLength {
		return domain.NewValidationError("email", "email must be at most %d characters", EmailMaxLength)
	}
	return nil
}

// Name bounds first/last name length.
func Name(field, s string) *domain.ValidationError {
	if len(s) > NameMaxLength {
		return domain.NewValidationError(field, "%s must be at most %d characters", field, NameMaxLength)
	}
	return nil
}

// Slug checks the URL-safe identifier used by categories and genres.
func Slug(s string) *domain.ValidationError {
	if s == "" || !slugRe.MatchString(s) {
		return domain.NewValidationError("slug", "slug may only contain letters, digits, hyphens and underscores")
	}
	if len(s) > SlugMaxLength {
		return domain.NewValidationError("slug", "slug must be at most %d characters", SlugMaxLength)
	}
	return nil
}

// Year rejects release years in the future. There is no lower bound.
func Year(y int) *domain.ValidationError {
	if current := time.Now().Year(); y > current {
		return domain.NewValidationError("year", "year cannot exceed the current year %d", current)
	}
	return nil
}

// Score bounds a review score to [1, 10].
func Score(n int) *domain.ValidationError {
	if n < ScoreMin || n > ScoreMax {
		return domain.NewValidationError("score", "score must be between %d and %d", ScoreMin, ScoreMax)
	}
	return nil
}

// NotBlank rejects strings that are empty after trimming whitespace.
func NotBlank(field, s string) *domain.ValidationError {
	if strings.TrimSpace(s) == "" {
		return domain.NewValidationError(field, "%s cannot be blank", field)
	}
	return nil
}

// New returns a validator instance with the custom validations used by the
// request DTO tags registered on top of the built-in ones.
func New() *validator.Validate {
	v := validator.New()

	// Registration only fails for a blank tag name, which would be a
	// programming error here.
	_ = v.RegisterValidation("rhusername", func(fl validator.FieldLevel) bool {
		return Username(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("rhslug", func(fl validator.FieldLevel) bool {
		return Slug(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("pastyear", func(fl validator.FieldLevel) bool {
		return Year(int(fl.Field().Int())) == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}
