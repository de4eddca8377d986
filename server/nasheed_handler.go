package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ajnadfm/cache"
	"ajnadfm/core/catalog"
	"ajnadfm/core/utils"
	"ajnadfm/logger"
	"ajnadfm/model"

	"github.com/gorilla/mux"
)

// CatalogFnRequest is the body of the catalog function.
type CatalogFnRequest struct {
	Q     string `json:"q,omitempty"`
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// CatalogFnHandler is the hosted catalog function: server-filtered rows
// from the nasheeds table, newest first, range-limited by page/limit.
func (h *APIHandler) CatalogFnHandler(w http.ResponseWriter, r *http.Request) {
	var req CatalogFnRequest
	// A missing or malformed body means defaults, not an error.
	_ = json.NewDecoder(r.Body).Decode(&req)

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 50
	}
	offset := (page - 1) * limit

	rows, err := h.nasheedRepo.SearchPage(r.Context(), req.Q, offset, limit)
	if err != nil {
		logger.Error("catalog function query failed", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

// catalogRow is a catalog entry plus the display fields the web client
// renders directly.
type catalogRow struct {
	model.Nasheed
	DurationText string `json:"duration_text"`
}

func catalogView(rows []model.Nasheed) []catalogRow {
	out := make([]catalogRow, len(rows))
	for i, row := range rows {
		out[i] = catalogRow{Nasheed: row, DurationText: utils.FormatDuration(row.Duration)}
	}
	return out
}

// GetNasheedsHandler serves the web client's listing through the
// resolver race, with a short-lived cache in front.
func (h *APIHandler) GetNasheedsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", h.cfg.CatalogLimit)

	if rows, err := cache.GetCatalog(r.Context(), q, page, limit); err == nil && rows != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": catalogView(rows)})
		return
	}

	rows := h.resolver.Resolve(r.Context(), q, page, limit)
	if rows == nil {
		rows = []model.Nasheed{}
	}

	if err := cache.SetCatalog(r.Context(), q, page, limit, rows); err != nil {
		logger.Debug("failed to cache catalog listing", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": catalogView(rows)})
}

// GetNasheedURLHandler resolves a catalog row's source locator into a
// playable URL, for downloads and direct playback.
func (h *APIHandler) GetNasheedURLHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	n, err := h.nasheedRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to look up nasheed", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Bucket-derived ids are object paths with no table row behind them.
	locator := id
	if n != nil {
		locator = n.FileURL
	} else if !catalog.IsAudioFile(id) {
		writeError(w, http.StatusNotFound, "Nasheed not found")
		return
	}

	url, err := h.bucket.SignedOrPublicURL(r.Context(), locator)
	if err != nil {
		logger.Error("failed to resolve source URL", logger.String("id", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to resolve URL")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return fallback
	}
	return val
}
