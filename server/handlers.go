package server

import (
	"encoding/json"
	"net/http"

	"ajnadfm/config"
	"ajnadfm/core/catalog"
	"ajnadfm/core/favorites"
	"ajnadfm/logger"
	"ajnadfm/repository"
	"ajnadfm/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	nasheedRepo repository.NasheedRepository
	userRepo    repository.UserRepository
	favService  *favorites.Service
	localFavs   *favorites.LocalStore
	bucket      *storage.Bucket
	resolver    *catalog.Resolver
	cfg         *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	nasheedRepo repository.NasheedRepository,
	userRepo repository.UserRepository,
	favService *favorites.Service,
	localFavs *favorites.LocalStore,
	bucket *storage.Bucket,
	resolver *catalog.Resolver,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		nasheedRepo: nasheedRepo,
		userRepo:    userRepo,
		favService:  favService,
		localFavs:   localFavs,
		bucket:      bucket,
		resolver:    resolver,
		cfg:         cfg,
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeError writes a `{error}` envelope, the shape the web client expects.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
