// Package mediatypes classifies files handled by wallthumb by extension.
//
// It is a dependency-free foundation imported by the video lister, the
// thumbnail loader and the HTTP handlers without creating import cycles.
//
// # Extension Detection
//
// Extensions are matched case-insensitively and must include the leading dot:
//
//	if mediatypes.IsVideo(filepath.Ext(path)) {
//	    // candidate for thumbnail generation
//	}
//
// # MIME Types
//
// GetMimeType returns the Content-Type used when serving a thumbnail artifact:
//
//	mimeType := mediatypes.GetMimeType(".png") // "image/png"
package mediatypes
