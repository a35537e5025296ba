package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"wallthumb/internal/logging"
	"wallthumb/internal/thumbcache"
)

// thumbsPrefix is where ServeThumbnail is mounted.
const thumbsPrefix = "/thumbs/"

// RefreshResponse is a refresh Result with its error rendered as text.
type RefreshResponse struct {
	thumbcache.Result
	Error string `json:"error,omitempty"`
}

// TriggerResponse is returned when a refresh is started without waiting.
type TriggerResponse struct {
	Status  string `json:"status"`
	Started bool   `json:"started"`
}

// ThumbnailEntry describes one displayable thumbnail.
type ThumbnailEntry struct {
	Handle    string `json:"handle"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Video     string `json:"video"`
}

// RefreshThumbnails runs a refresh. With wait=false the refresh is started
// in the background and 202 is returned immediately.
func (h *Handlers) RefreshThumbnails(w http.ResponseWriter, r *http.Request) {
	force, err := queryBool(r, "force", false)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	wait, err := queryBool(r, "wait", true)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !wait {
		started := h.cache.Trigger(force)
		status := "started"
		if !started {
			status = "in_progress"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, TriggerResponse{Status: status, Started: started})
		return
	}

	res, err := h.cache.Refresh(r.Context(), force)
	if err != nil {
		// The caller went away; the run itself continues.
		logging.With(logging.Fields{"op": "refresh"}).WithError(err).Debug("Refresh waiter cancelled")
		writeJSONError(w, "refresh wait cancelled", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, RefreshResponse{Result: res, Error: res.ErrorMessage()})
}

// ListThumbnails returns the published handles in display order.
func (h *Handlers) ListThumbnails(w http.ResponseWriter, _ *http.Request) {
	handles := h.cache.Handles().List()

	entries := make([]ThumbnailEntry, 0, len(handles))
	for _, hd := range handles {
		entries = append(entries, ThumbnailEntry{
			Handle:    hd.ID,
			URL:       thumbsPrefix + url.PathEscape(hd.ID),
			Thumbnail: hd.ThumbnailID,
			Video:     hd.VideoPath,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, entries)
}

// GetProgress returns the generation counters.
func (h *Handlers) GetProgress(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, h.cache.Progress())
}

// ServeThumbnail serves the bytes behind a display handle.
func (h *Handlers) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["handle"]
	if id == "" {
		http.Error(w, "Handle required", http.StatusBadRequest)
		return
	}

	hd, ok := h.cache.Handles().Lookup(id)
	if !ok {
		http.Error(w, "Thumbnail not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", hd.ContentType)
	w.Header().Set("ETag", hd.ETag)
	// Handles change on every republish, so the bytes behind one never do.
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	http.ServeContent(w, r, hd.ThumbnailID, time.Time{}, bytes.NewReader(hd.Data))
}

// ClearThumbnails removes every artifact and empties the cache.
func (h *Handlers) ClearThumbnails(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeJSONError(w, "clear wait cancelled", http.StatusServiceUnavailable)
			return
		}
		logging.With(logging.Fields{"op": "clear"}).WithError(err).Error("Failed to clear thumbnails")
		writeJSONError(w, "Failed to clear thumbnails", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "cleared")
}
