package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ajnadfm/core/auth"
	"ajnadfm/logger"
	"ajnadfm/model"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUsername contextKey = "username"
	ctxEmail    contextKey = "email"
	ctxToken    contextKey = "token"
)

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// RegisterHandler handles user registration.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	existing, err := h.userRepo.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		logger.Error("failed to check username", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("failed to hash password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
	}
	id, err := h.userRepo.CreateUser(r.Context(), user)
	if err != nil {
		logger.Error("failed to create user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	user.ID = id

	token, err := auth.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("user registered", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LoginRequest is the login request body. Username may also be an email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler handles user login.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username/email and password are required")
		return
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(r.Context(), strings.ToLower(req.Username))
	} else {
		user, err = h.userRepo.GetUserByUsername(r.Context(), req.Username)
	}
	if err != nil {
		logger.Error("failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("login rejected", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("login succeeded", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// bearerToken extracts the raw bearer token from the request, or "".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthMiddleware rejects requests without a valid bearer token.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims, token)))
	}
}

// OptionalAuthMiddleware attaches claims when a valid token is present
// and passes the request through either way. Used by surfaces that
// degrade gracefully for anonymous visitors.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if claims, err := auth.ParseToken(token); err == nil {
				r = r.WithContext(withClaims(r.Context(), claims, token))
			}
		}
		next.ServeHTTP(w, r)
	}
}

func withClaims(ctx context.Context, claims *auth.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID)
	ctx = context.WithValue(ctx, ctxUsername, claims.Username)
	ctx = context.WithValue(ctx, ctxEmail, claims.Email)
	return context.WithValue(ctx, ctxToken, token)
}

// userIDFromContext returns the authenticated user id, or 0.
func userIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxUserID).(int64)
	return id
}

// emailFromContext returns the authenticated email, or "".
func emailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(ctxEmail).(string)
	return email
}

// tokenFromContext returns the raw bearer token, or "".
func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ctxToken).(string)
	return token
}
