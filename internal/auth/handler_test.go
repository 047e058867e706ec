package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpilot/finpilot-api/internal/logging"
)

type noopLimiter struct{}

func (noopLimiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return false, nil
}

func (noopLimiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return nil
}

type blockedLimiter struct{}

func (blockedLimiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return true, nil
}

func (blockedLimiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return nil
}

func newTestRouter(t *testing.T, limiter RateLimiter) *chi.Mux {
	t.Helper()

	tokens, err := NewJWTService("test-secret")
	require.NoError(t, err)

	logger := logging.NewLogger(true)
	svc := NewService(newFakeUserRepo(), tokens, logger, 7*24*time.Hour)
	handler := NewHandler(svc, limiter, logger)
	middleware := NewMiddleware(tokens)

	r := chi.NewRouter()
	r.Post("/user/signup", handler.Signup)
	r.Post("/user/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/users", handler.ListUsers)
	})

	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// TestAuthFlow walks the full signup/login scenario: create, duplicate,
// wrong password, correct password, authenticated listing.
func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t, noopLimiter{})

	signup := SignupRequest{Name: "Harshvardhan", Email: "harsh@gmail.com", Password: "12345678"}

	// First signup succeeds
	rec := doJSON(t, router, http.MethodPost, "/user/signup", signup, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	assert.NotEmpty(t, body["token"])

	userBody, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "harsh@gmail.com", userBody["email"])
	assert.Equal(t, "Harshvardhan", userBody["name"])
	assert.NotEmpty(t, userBody["id"])
	assert.NotContains(t, userBody, "password")

	// Repeating the signup conflicts
	rec = doJSON(t, router, http.MethodPost, "/user/signup", signup, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decodeBody(t, rec)["error"])

	// Wrong password is a generic 401
	rec = doJSON(t, router, http.MethodPost, "/user/login",
		LoginRequest{Email: "harsh@gmail.com", Password: "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])

	// Unknown email yields the identical response
	rec = doJSON(t, router, http.MethodPost, "/user/login",
		LoginRequest{Email: "nobody@gmail.com", Password: "12345678"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["error"])

	// Correct password logs in
	rec = doJSON(t, router, http.MethodPost, "/user/login",
		LoginRequest{Email: "harsh@gmail.com", Password: "12345678"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body = decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// The token grants access to the user listing
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	rec = doJSON(t, router, http.MethodGet, "/users", nil, header)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "harsh@gmail.com", users[0]["email"])
}

func TestSignupHandler_Validation(t *testing.T) {
	router := newTestRouter(t, noopLimiter{})

	tests := []struct {
		name     string
		body     SignupRequest
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing name",
			body:     SignupRequest{Email: "a@b.com", Password: "pw"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Email, password and name are required",
		},
		{
			name:     "missing password",
			body:     SignupRequest{Name: "A", Email: "a@b.com"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Email, password and name are required",
		},
		{
			name:     "bad email",
			body:     SignupRequest{Name: "A", Email: "not-an-email", Password: "pw"},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Invalid email format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/user/signup", tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeBody(t, rec)["error"])
		})
	}
}

func TestLoginHandler_MissingFields(t *testing.T) {
	router := newTestRouter(t, noopLimiter{})

	rec := doJSON(t, router, http.MethodPost, "/user/login", LoginRequest{Email: "a@b.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password are required", decodeBody(t, rec)["error"])
}

func TestHandlers_RateLimited(t *testing.T) {
	router := newTestRouter(t, blockedLimiter{})

	rec := doJSON(t, router, http.MethodPost, "/user/signup",
		SignupRequest{Name: "A", Email: "a@b.com", Password: "pw"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/user/login",
		LoginRequest{Email: "a@b.com", Password: "pw"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestListUsers_RequiresAuth(t *testing.T) {
	router := newTestRouter(t, noopLimiter{})

	// No header
	rec := doJSON(t, router, http.MethodGet, "/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Malformed header
	header := http.Header{"Authorization": []string{"Token abc"}}
	rec = doJSON(t, router, http.MethodGet, "/users", nil, header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret
	otherTokens, err := NewJWTService("other-secret")
	require.NoError(t, err)
	forged, err := otherTokens.CreateToken(uuid.New(), "x@y.com", time.Hour)
	require.NoError(t, err)

	header = http.Header{"Authorization": []string{"Bearer " + forged}}
	rec = doJSON(t, router, http.MethodGet, "/users", nil, header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
