package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"ajnadfm/logger"
	"ajnadfm/model"

	"github.com/google/uuid"
)

const maxUploadSize = 200 << 20 // 200 MB

// AdminNasheedsHandler is the admin function for uploading and deleting
// tracks. It is reachable only by direct invocation; no UI exposes it.
func (h *APIHandler) AdminNasheedsHandler(w http.ResponseWriter, r *http.Request) {
	allowed, err := h.isAdmin(r)
	if err != nil {
		logger.Error("admin allow-list check failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.adminUpload(w, r)
	case http.MethodDelete:
		h.adminDelete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// isAdmin verifies the caller's email against the merged allow-list:
// ADMIN_EMAILS from the environment plus rows from the admins table.
// An empty merged list admits any authenticated user.
func (h *APIHandler) isAdmin(r *http.Request) (bool, error) {
	email := strings.ToLower(emailFromContext(r.Context()))
	if email == "" {
		return false, nil
	}

	merged := make(map[string]bool, len(h.cfg.AdminEmails))
	for _, e := range h.cfg.AdminEmails {
		merged[e] = true
	}
	dbEmails, err := h.userRepo.ListAdminEmails(r.Context())
	if err != nil {
		// The table may not exist yet on a fresh deployment.
		logger.Warn("failed to read admins table", logger.ErrorField(err))
	} else {
		for _, e := range dbEmails {
			merged[e] = true
		}
	}

	if len(merged) == 0 {
		return true, nil
	}
	return merged[email], nil
}

func (h *APIHandler) adminUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	artist := strings.TrimSpace(r.FormValue("artist"))
	audioFile, audioHeader, err := r.FormFile("audio")
	if title == "" || artist == "" || err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	defer audioFile.Close()

	var duration *int
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		if d, convErr := strconv.Atoi(raw); convErr == nil {
			duration = &d
		}
	}

	now := time.Now().UnixMilli()
	audioPath := fmt.Sprintf("audio/%d-%s%s", now, uuid.NewString(), objectExt(audioHeader.Filename, ".mp3"))
	contentType := audioHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	if err := h.bucket.Upload(r.Context(), audioPath, audioFile, audioHeader.Size, contentType); err != nil {
		logger.Error("audio upload failed", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var coverPath *string
	if coverFile, coverHeader, coverErr := r.FormFile("cover"); coverErr == nil {
		defer coverFile.Close()
		p := fmt.Sprintf("covers/%d-%s%s", now, uuid.NewString(), objectExt(coverHeader.Filename, ".jpg"))
		coverType := coverHeader.Header.Get("Content-Type")
		if coverType == "" {
			coverType = "image/jpeg"
		}
		if err := h.bucket.Upload(r.Context(), p, coverFile, coverHeader.Size, coverType); err != nil {
			logger.Error("cover upload failed", logger.ErrorField(err))
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		coverPath = &p
	}

	n := &model.Nasheed{
		ID:       uuid.NewString(),
		Title:    title,
		Artist:   artist,
		Duration: duration,
		FileURL:  audioPath,
		CoverURL: coverPath,
	}
	if err := h.nasheedRepo.Create(r.Context(), n); err != nil {
		logger.Error("failed to insert nasheed row", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("nasheed uploaded",
		logger.String("id", n.ID), logger.String("title", title), logger.String("artist", artist))
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": n})
}

// AdminDeleteRequest is the delete body: the row id plus the object
// paths to clean up.
type AdminDeleteRequest struct {
	ID       string  `json:"id"`
	FileURL  string  `json:"file_url"`
	CoverURL *string `json:"cover_url"`
}

// adminDelete removes the database row first, then best-effort removes
// the associated storage objects.
func (h *APIHandler) adminDelete(w http.ResponseWriter, r *http.Request) {
	var req AdminDeleteRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	if err := h.nasheedRepo.Delete(r.Context(), req.ID); err != nil {
		logger.Error("failed to delete nasheed row", logger.String("id", req.ID), logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.FileURL != "" {
		if err := h.bucket.Remove(r.Context(), req.FileURL); err != nil {
			logger.Warn("failed to remove audio object", logger.String("path", req.FileURL), logger.ErrorField(err))
		}
	}
	if req.CoverURL != nil && *req.CoverURL != "" {
		if err := h.bucket.Remove(r.Context(), *req.CoverURL); err != nil {
			logger.Warn("failed to remove cover object", logger.String("path", *req.CoverURL), logger.ErrorField(err))
		}
	}

	logger.Info("nasheed deleted", logger.String("id", req.ID))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func objectExt(filename, fallback string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return fallback
	}
	return ext
}
