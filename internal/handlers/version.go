package handlers

import (
	"net/http"
	"time"

	"wallthumb/internal/startup"
	"wallthumb/internal/thumbnail"
)

// serviceName identifies the daemon in /version responses.
const serviceName = "wallthumb"

// VersionResponse describes the running daemon build.
type VersionResponse struct {
	startup.BuildInfo
	Service        string    `json:"service"`
	StartedAt      time.Time `json:"startedAt"`
	ArtifactFormat string    `json:"artifactFormat"`
}

// GetVersion reports the build of this daemon, when it started and the
// artifact format it writes. Clients compare startedAt to notice restarts,
// after which every display handle has changed.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, VersionResponse{
		BuildInfo:      startup.GetBuildInfo(),
		Service:        serviceName,
		StartedAt:      h.startTime.UTC(),
		ArtifactFormat: thumbnail.Extension,
	})
}
