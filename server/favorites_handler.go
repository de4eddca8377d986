package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ajnadfm/core/favorites"
	"ajnadfm/logger"
)

// FavoritesFnRequest is the body of the favorites function.
type FavoritesFnRequest struct {
	Action    string `json:"action"`
	NasheedID string `json:"nasheed_id"`
}

// FavoritesFnHandler is the hosted favorites function. GET and
// `{action:"list"}` return the user's favorite rows; `{action:"toggle"}`
// flips a mark and answers `{favored}`. Toggling without a session is a
// 401 with the AUTH_REQUIRED marker the client keys off.
func (h *APIHandler) FavoritesFnHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	if r.Method == http.MethodGet {
		h.listFavorites(w, r, userID)
		return
	}

	var req FavoritesFnRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	action := strings.ToLower(req.Action)
	if action == "" {
		action = "toggle"
	}

	switch action {
	case "list":
		h.listFavorites(w, r, userID)
	case "toggle":
		if req.NasheedID == "" {
			writeError(w, http.StatusBadRequest, "nasheed_id required")
			return
		}
		favored, err := h.favService.Toggle(r.Context(), userID, tokenFromContext(r.Context()), req.NasheedID)
		if errors.Is(err, favorites.ErrAuthRequired) {
			writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED")
			return
		}
		if err != nil {
			logger.Error("favorite toggle failed",
				logger.Int64("user", userID), logger.String("nasheed", req.NasheedID), logger.ErrorField(err))
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"favored": favored})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *APIHandler) listFavorites(w http.ResponseWriter, r *http.Request, userID int64) {
	favMap, err := h.favService.ListMap(r.Context(), userID, tokenFromContext(r.Context()))
	if err != nil {
		logger.Error("favorites list failed", logger.Int64("user", userID), logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	type row struct {
		ID        string `json:"id"`
		NasheedID string `json:"nasheed_id"`
	}
	rows := make([]row, 0, len(favMap))
	for nasheedID, favID := range favMap {
		rows = append(rows, row{ID: favID, NasheedID: nasheedID})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}
