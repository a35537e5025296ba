package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"wallthumb/internal/config"
	"wallthumb/internal/logging"
)

// ConfigResponse is the user configuration without the thumbnail map,
// which is exposed through the thumbnails endpoints instead.
type ConfigResponse struct {
	Command        string `json:"command"`
	WallpapersPath string `json:"wallpapersPath"`
	DebugMode      bool   `json:"debugMode"`
	NewWallpapers  bool   `json:"newWallpapers"`
	DarkMode       bool   `json:"darkMode"`
	Language       string `json:"language"`
	Thumbnails     int    `json:"thumbnails"`
}

// SetWallpapersRequest selects a new wallpaper folder.
type SetWallpapersRequest struct {
	Path string `json:"path"`
}

// UpdateConfigRequest changes user preferences. Omitted fields are kept.
type UpdateConfigRequest struct {
	Command   *string `json:"command"`
	DarkMode  *bool   `json:"darkMode"`
	Language  *string `json:"language"`
	DebugMode *bool   `json:"debugMode"`
}

// GetConfig returns the current user configuration.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get(r.Context())
	if err != nil {
		logging.With(logging.Fields{"op": "get_config"}).WithError(err).Error("Failed to read config")
		writeJSONError(w, "Failed to read config", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, ConfigResponse{
		Command:        doc.Command,
		WallpapersPath: doc.WallpapersPath,
		DebugMode:      doc.DebugMode,
		NewWallpapers:  doc.NewWallpapers,
		DarkMode:       doc.DarkMode,
		Language:       doc.Language,
		Thumbnails:     doc.ThumbnailsHashMap.Len(),
	})
}

// SetWallpapersPath stores a new wallpaper folder, marks the cache dirty and
// starts a refresh in the background.
func (h *Handlers) SetWallpapersPath(w http.ResponseWriter, r *http.Request) {
	var req SetWallpapersRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	path := strings.TrimSpace(req.Path)
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	if !filepath.IsAbs(path) {
		writeJSONError(w, "path must be absolute", http.StatusBadRequest)
		return
	}
	path = filepath.Clean(path)

	err := h.store.Update(r.Context(), config.Partial{
		WallpapersPath: config.String(path),
		NewWallpapers:  config.Bool(true),
	})
	if err != nil {
		logging.With(logging.Fields{"op": "set_wallpapers_path", "path": path}).WithError(err).Error("Failed to update config")
		writeJSONError(w, "Failed to update config", http.StatusInternalServerError)
		return
	}

	started := h.cache.Trigger(false)
	logging.With(logging.Fields{"op": "set_wallpapers_path", "path": path, "refreshStarted": started}).Info("Wallpaper folder changed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, TriggerResponse{Status: "accepted", Started: started})
}

// UpdateConfig applies a partial preference update.
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Language != nil && strings.TrimSpace(*req.Language) == "" {
		writeJSONError(w, "language must not be empty", http.StatusBadRequest)
		return
	}

	err := h.store.Update(r.Context(), config.Partial{
		Command:   req.Command,
		DarkMode:  req.DarkMode,
		Language:  req.Language,
		DebugMode: req.DebugMode,
	})
	if err != nil {
		logging.With(logging.Fields{"op": "update_config"}).WithError(err).Error("Failed to update config")
		writeJSONError(w, "Failed to update config", http.StatusInternalServerError)
		return
	}

	if req.DebugMode != nil {
		logging.SetDebugMode(*req.DebugMode)
	}

	h.GetConfig(w, r)
}
