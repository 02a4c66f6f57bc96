package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"reviewhub/internal/domain"
	"reviewhub/internal/mail"
	"reviewhub/internal/store"
	"reviewhub/internal/validate"
	"reviewhub/pkg/auth"
)

type testEnv struct {
	users   *store.MockUserStore
	catalog *store.MockCatalogStore
	reviews *store.MockReviewStore
	mailer  *mail.MockMailer
	tm      auth.TokenManager
	router  *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tm, err := auth.NewTokenManager("test-secret-key-of-32-bytes-min!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	reviews := store.NewMockReviewStore()
	env := &testEnv{
		users:   store.NewMockUserStore(),
		catalog: store.NewMockCatalogStore(reviews),
		reviews: reviews,
		mailer:  mail.NewMockMailer(),
		tm:      tm,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(env.users, env.catalog, env.reviews, env.mailer, logger, validate.New(), tm)
	env.router = NewRouter(handler)
	return env
}

func (e *testEnv) addUser(t *testing.T, id, username, role string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Username: username, Email: username + "@example.com", Role: role}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func (e *testEnv) tokenFor(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := e.tm.Generate(u.ID, u.Role)
	if err != nil {
		t.Fatalf("token for %s: %v", u.Username, err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

var codeRe = regexp.MustCompile(`confirmation code: ([A-Za-z0-9]+)`)

func lastMailedCode(t *testing.T, mailer *mail.MockMailer) string {
	t.Helper()
	sent := mailer.Sent()
	if len(sent) == 0 {
		t.Fatal("no mail sent")
	}
	m := codeRe.FindStringSubmatch(sent[len(sent)-1].Body)
	if m == nil {
		t.Fatalf("no confirmation code in mail body: %q", sent[len(sent)-1].Body)
	}
	return m[1]
}

func TestSignupConfirmTokenFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "alice@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body)
	}
	code := lastMailedCode(t, env.mailer)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username": "alice", "confirmation_code": code,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("token status = %d, body %s", rec.Code, rec.Body)
	}
	var tokenResp domain.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tokenResp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if tokenResp.Token == "" {
		t.Fatal("empty token in response")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/users/me", tokenResp.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rec.Code, rec.Body)
	}
	var me domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "alice" || me.Role != domain.RoleUser {
		t.Errorf("me = %s/%s, want alice/user", me.Username, me.Role)
	}
}

func TestSignupIdempotencyAndConflicts(t *testing.T) {
	env := newTestEnv(t)
	signup := func(username, email string) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/api/v1/auth/signup", "",
			map[string]string{"username": username, "email": email})
	}

	if rec := signup("alice", "a@x.com"); rec.Code != http.StatusOK {
		t.Fatalf("first signup status = %d", rec.Code)
	}
	// Same pair again: idempotent, a fresh code goes out.
	if rec := signup("alice", "a@x.com"); rec.Code != http.StatusOK {
		t.Errorf("repeated signup status = %d, want 200", rec.Code)
	}
	if sent := env.mailer.Sent(); len(sent) != 2 {
		t.Errorf("mails sent = %d, want 2", len(sent))
	}

	if rec := signup("alice", "b@x.com"); rec.Code != http.StatusConflict {
		t.Errorf("username with new email status = %d, want 409", rec.Code)
	}
	if rec := signup("bob", "a@x.com"); rec.Code != http.StatusConflict {
		t.Errorf("email with new username status = %d, want 409", rec.Code)
	}
}

func TestSignupRejectsReservedAndBadUsernames(t *testing.T) {
	env := newTestEnv(t)
	for _, username := range []string{"me", "has space", "плохой"} {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/signup", "",
			map[string]string{"username": username, "email": "x@x.com"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("signup %q status = %d, want 400", username, rec.Code)
		}
	}
}

func TestTokenErrors(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/auth/signup", "",
		map[string]string{"username": "alice", "email": "a@x.com"})

	rec := env.do(t, http.MethodPost, "/api/v1/auth/token", "",
		map[string]string{"username": "ghost", "confirmation_code": "whatever"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown username status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/token", "",
		map[string]string{"username": "alice", "confirmation_code": "wrong-code"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong code status = %d, want 400", rec.Code)
	}
}

func seedTitle(t *testing.T, env *testEnv, id string) {
	t.Helper()
	err := env.catalog.CreateTitle(context.Background(),
		&domain.Title{ID: id, Name: "Seeded " + id, Year: 2001}, "", nil)
	if err != nil {
		t.Fatalf("seed title %s: %v", id, err)
	}
}

func TestCreateReviewDuplicateConflict(t *testing.T) {
	env := newTestEnv(t)
	seedTitle(t, env, "t1")
	alice := env.addUser(t, "u1", "alice", domain.RoleUser)
	token := env.tokenFor(t, alice)

	body := map[string]interface{}{"text": "solid", "score": 8}
	rec := env.do(t, http.MethodPost, "/api/v1/titles/t1/reviews", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first review status = %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/titles/t1/reviews", token, body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate review status = %d, want 409", rec.Code)
	}
}

func TestCreateReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	seedTitle(t, env, "t1")
	token := env.tokenFor(t, env.addUser(t, "u1", "alice", domain.RoleUser))

	testCases := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"score too high", map[string]interface{}{"text": "x", "score": 11}, http.StatusBadRequest},
		{"score too low", map[string]interface{}{"text": "x", "score": 0}, http.StatusBadRequest},
		{"blank text", map[string]interface{}{"text": "   ", "score": 5}, http.StatusBadRequest},
		{"unknown title", map[string]interface{}{"text": "x", "score": 5}, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := "/api/v1/titles/t1/reviews"
			if tc.name == "unknown title" {
				path = "/api/v1/titles/missing/reviews"
			}
			rec := env.do(t, http.MethodPost, path, token, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
		})
	}

	// Anonymous creation is a 401, not a 403.
	rec := env.do(t, http.MethodPost, "/api/v1/titles/t1/reviews", "",
		map[string]interface{}{"text": "x", "score": 5})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous review status = %d, want 401", rec.Code)
	}
}

func TestDeleteReviewPermissions(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser(t, "u-author", "author", domain.RoleUser)
	other := env.addUser(t, "u-other", "other", domain.RoleUser)
	moderator := env.addUser(t, "u-mod", "mod", domain.RoleModerator)
	admin := env.addUser(t, "u-admin", "boss", domain.RoleAdmin)

	testCases := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"non-author plain user", env.tokenFor(t, other), http.StatusForbidden},
		{"author", env.tokenFor(t, author), http.StatusNoContent},
		{"moderator", env.tokenFor(t, moderator), http.StatusNoContent},
		{"admin", env.tokenFor(t, admin), http.StatusNoContent},
	}
	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			titleID := fmt.Sprintf("t%d", i)
			reviewID := fmt.Sprintf("r%d", i)
			seedTitle(t, env, titleID)
			err := env.reviews.CreateReview(context.Background(), &domain.Review{
				ID: reviewID, TitleID: titleID, AuthorID: author.ID, Author: author.Username, Score: 5, Text: "mine",
			})
			if err != nil {
				t.Fatalf("seed review: %v", err)
			}

			path := fmt.Sprintf("/api/v1/titles/%s/reviews/%s", titleID, reviewID)
			rec := env.do(t, http.MethodDelete, path, tc.token, nil)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestMeRoleChangeIgnoredForNonAdmin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "u1", "alice", domain.RoleUser)
	token := env.tokenFor(t, alice)

	rec := env.do(t, http.MethodPatch, "/api/v1/users/me", token,
		map[string]string{"role": "admin", "bio": "still just me"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch me status = %d, body %s", rec.Code, rec.Body)
	}

	updated, err := env.users.GetByID(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Role != domain.RoleUser {
		t.Errorf("role = %q after self-patch, want unchanged %q", updated.Role, domain.RoleUser)
	}
	if updated.Bio != "still just me" {
		t.Errorf("bio = %q, rest of the patch must still apply", updated.Bio)
	}
}

func TestUserAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "u-admin", "boss", domain.RoleAdmin)
	plain := env.addUser(t, "u1", "alice", domain.RoleUser)
	adminToken := env.tokenFor(t, admin)
	plainToken := env.tokenFor(t, plain)

	if rec := env.do(t, http.MethodGet, "/api/v1/users", plainToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("list users as plain user status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/users", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("list users anonymously status = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/users", adminToken, nil); rec.Code != http.StatusOK {
		t.Errorf("list users as admin status = %d, want 200", rec.Code)
	}

	rec := env.do(t, http.MethodPatch, "/api/v1/users/alice", adminToken,
		map[string]string{"role": "moderator"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin role change status = %d, body %s", rec.Code, rec.Body)
	}
	updated, _ := env.users.GetByUsername(context.Background(), "alice")
	if updated.Role != domain.RoleModerator {
		t.Errorf("role = %q, want moderator after admin patch", updated.Role)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/users/alice", plainToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("delete user as plain user status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/users/alice", adminToken, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete user as admin status = %d, want 204", rec.Code)
	}
}

func TestCatalogMutationAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.tokenFor(t, env.addUser(t, "u-admin", "boss", domain.RoleAdmin))
	plainToken := env.tokenFor(t, env.addUser(t, "u1", "alice", domain.RoleUser))

	body := map[string]string{"name": "Films", "slug": "films"}
	if rec := env.do(t, http.MethodPost, "/api/v1/categories", plainToken, body); rec.Code != http.StatusForbidden {
		t.Errorf("create category as plain user status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/categories", adminToken, body); rec.Code != http.StatusCreated {
		t.Errorf("create category as admin status = %d, want 201", rec.Code)
	}
	// Duplicate slug is a conflict.
	if rec := env.do(t, http.MethodPost, "/api/v1/categories", adminToken, body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate category slug status = %d, want 409", rec.Code)
	}

	// Reads stay public.
	if rec := env.do(t, http.MethodGet, "/api/v1/categories", "", nil); rec.Code != http.StatusOK {
		t.Errorf("anonymous category list status = %d, want 200", rec.Code)
	}
}

func TestTitleCreateAndRating(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.tokenFor(t, env.addUser(t, "u-admin", "boss", domain.RoleAdmin))

	env.do(t, http.MethodPost, "/api/v1/categories", adminToken, map[string]string{"name": "Films", "slug": "films"})
	env.do(t, http.MethodPost, "/api/v1/genres", adminToken, map[string]string{"name": "Drama", "slug": "drama"})

	rec := env.do(t, http.MethodPost, "/api/v1/titles", adminToken, map[string]interface{}{
		"name": "The Long Year", "year": 1999, "category": "films", "genre": []string{"drama"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create title status = %d, body %s", rec.Code, rec.Body)
	}
	var created domain.Title
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode title: %v", err)
	}
	if created.Rating != nil {
		t.Errorf("fresh title rating = %v, want null", *created.Rating)
	}

	// A future year is rejected.
	rec = env.do(t, http.MethodPost, "/api/v1/titles", adminToken, map[string]interface{}{
		"name": "From The Future", "year": time.Now().Year() + 1, "genre": []string{"drama"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("future year status = %d, want 400", rec.Code)
	}

	// An empty genre list is rejected.
	rec = env.do(t, http.MethodPost, "/api/v1/titles", adminToken, map[string]interface{}{
		"name": "Genreless", "year": 1999, "genre": []string{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty genre list status = %d, want 400", rec.Code)
	}

	// Two reviews, scores 4 and 9: rating becomes their mean.
	for i, score := range []int{4, 9} {
		u := env.addUser(t, fmt.Sprintf("u%d", i), fmt.Sprintf("rev%d", i), domain.RoleUser)
		rec := env.do(t, http.MethodPost, "/api/v1/titles/"+created.ID+"/reviews", env.tokenFor(t, u),
			map[string]interface{}{"text": "opinion", "score": score})
		if rec.Code != http.StatusCreated {
			t.Fatalf("review %d status = %d, body %s", i, rec.Code, rec.Body)
		}
	}

	rec = env.do(t, http.MethodGet, "/api/v1/titles/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get title status = %d", rec.Code)
	}
	var got domain.Title
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode title: %v", err)
	}
	if got.Rating == nil || *got.Rating != 6.5 {
		t.Errorf("rating = %v, want 6.5", got.Rating)
	}
}

func TestCommentFlow(t *testing.T) {
	env := newTestEnv(t)
	seedTitle(t, env, "t1")
	author := env.addUser(t, "u1", "alice", domain.RoleUser)
	commenter := env.addUser(t, "u2", "bob", domain.RoleUser)
	err := env.reviews.CreateReview(context.Background(), &domain.Review{
		ID: "r1", TitleID: "t1", AuthorID: author.ID, Author: author.Username, Score: 5, Text: "ok",
	})
	if err != nil {
		t.Fatalf("seed review: %v", err)
	}

	base := "/api/v1/titles/t1/reviews/r1/comments"
	token := env.tokenFor(t, commenter)

	rec := env.do(t, http.MethodPost, base, token, map[string]string{"text": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank comment status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base, token, map[string]string{"text": "agreed"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create comment status = %d, body %s", rec.Code, rec.Body)
	}
	var comment domain.Comment
	if err := json.Unmarshal(rec.Body.Bytes(), &comment); err != nil {
		t.Fatalf("decode comment: %v", err)
	}
	if comment.Author != "bob" {
		t.Errorf("comment author = %q, want bob", comment.Author)
	}

	// The review author may not touch someone else's comment.
	rec = env.do(t, http.MethodDelete, base+"/"+comment.ID, env.tokenFor(t, author), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("delete foreign comment status = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, base+"/"+comment.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete own comment status = %d, want 204", rec.Code)
	}
}
