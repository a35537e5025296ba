package handlers

import (
	"errors"
	"net/http"

	"wallthumb/internal/launcher"
	"wallthumb/internal/logging"
)

// LaunchRequest names the thumbnail whose video should become the wallpaper.
type LaunchRequest struct {
	Handle string `json:"handle"`
}

// Launch runs the configured command for the video behind a handle.
func (h *Handlers) Launch(w http.ResponseWriter, r *http.Request) {
	var req LaunchRequest
	if err := readJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Handle == "" {
		writeJSONError(w, "handle is required", http.StatusBadRequest)
		return
	}

	video, ok := h.cache.Handles().VideoFor(req.Handle)
	if !ok {
		writeJSONError(w, "Thumbnail not found", http.StatusNotFound)
		return
	}

	doc, err := h.store.Get(r.Context())
	if err != nil {
		logging.With(logging.Fields{"op": "launch"}).WithError(err).Error("Failed to read config")
		writeJSONError(w, "Failed to read config", http.StatusInternalServerError)
		return
	}

	log := logging.With(logging.Fields{"op": "launch", "video": video})
	if err := h.launcher.Launch(r.Context(), doc.Command, video); err != nil {
		if errors.Is(err, launcher.ErrNoCommand) {
			writeJSONError(w, "No wallpaper command configured", http.StatusConflict)
			return
		}
		log.WithError(err).Error("Failed to launch wallpaper command")
		writeJSONError(w, "Failed to launch wallpaper command", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "launched", "video": video})
}
