package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/finpilot/finpilot-api/internal/httputil"
	"github.com/finpilot/finpilot-api/internal/logging"
	"github.com/finpilot/finpilot-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// AuthResponse represents the signup and login success response
type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// Signup handles user registration
// @Summary      Sign up a new user
// @Description  Create a new user account and receive a session token
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Signup payload"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or invalid fields, or email already registered"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Server error"
// @Router       /user/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.limitExceeded(w, r, ip, "signup") {
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, token, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			logger.Warn("signup failed: missing fields")
			httputil.RespondErrorWithCode(w, "Email, password and name are required", httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("signup failed: invalid email format")
			httputil.RespondErrorWithCode(w, "Invalid email format", httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("signup failed: email already registered")
			httputil.RespondErrorWithCode(w, "User already exists", httputil.CodeUserAlreadyExists, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)

	httputil.RespondJSON(w, AuthResponse{
		Message: "User created successfully",
		Token:   token,
		User:    mapUserToResponse(newUser),
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      Log in
// @Description  Authenticate with email and password and receive a session token
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields or invalid email format"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Server error"
// @Router       /user/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.limitExceeded(w, r, ip, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	existingUser, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			logger.Warn("login failed: missing fields")
			httputil.RespondErrorWithCode(w, "Email and password are required", httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("login failed: invalid email format")
			httputil.RespondErrorWithCode(w, "Invalid email format", httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			// Unknown email and wrong password share this branch
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in", "user_id", existingUser.ID)

	httputil.RespondJSON(w, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    mapUserToResponse(existingUser),
	}, http.StatusOK)
}

// ListUsers returns every registered user's public fields
// @Summary      List users
// @Description  Debug listing of all registered users
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      500 {object} httputil.ErrorResponse "Server error"
// @Router       /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, mapUserToResponse(u))
	}

	httputil.RespondJSON(w, response, http.StatusOK)
}

// limitExceeded applies the per-IP rate limit for the given purpose and
// writes the 429 response when the caller is over the limit. Limiter
// failures are logged and the request is allowed through (fail-open).
func (h *Handler) limitExceeded(w http.ResponseWriter, r *http.Request, ip, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// getClientIP returns the caller's IP. The RealIP middleware has already
// resolved forwarding headers into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func mapUserToResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
