// Command thumbctl inspects and resets the wallthumb thumbnail cache on disk.
//
// Usage:
//
//	thumbctl <command> [flags]
//
// Commands:
//
//	status            Show the stored wallpaper folder, dirty flag, thumbnail
//	                  map size and the files in the thumbnail directory.
//	                  --json prints the same information as JSON.
//
//	clear-thumbnails  Delete the thumbnail directory and store an empty
//	                  thumbnail map. Asks for confirmation unless --yes.
//
//	clear-config      Delete config.json. The daemon writes the defaults
//	                  again on its next start. Asks for confirmation unless --yes.
//
// Flags:
//
//	--config-dir  Directory holding config.json (env WALLTHUMB_CONFIG_DIR)
//	--data-dir    Directory holding the thumbnails directory (env WALLTHUMB_DATA_DIR)
//
// Without a terminal on stdin the clear commands refuse to run unless --yes
// is given.
package main
