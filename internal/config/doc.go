// Package config persists the user-facing configuration document.
//
// The document is a single indented JSON file (config.json) holding the
// wallpaper directory, the user's launch command, UI preferences, the
// newWallpapers dirty bit and the thumbnail cache map. Store reads it,
// merges partial updates into it and writes it back atomically.
package config
