// Package watcher detects changes to the wallpapers directory and raises the
// newWallpapers dirty flag.
//
// Detection is deliberately lightweight so it stays cheap on network shares:
// each poll compares the root directory's modification time, the number of
// visible top-level entries and the modification times of top-level
// subdirectories against the state recorded after the last refresh. A change
// of the configured wallpapers path also counts. Hidden entries (prefixed
// with '.') are ignored.
//
// When a change is seen the watcher persists newWallpapers=true and asks the
// thumbnail cache for a regular (non-forced) refresh.
package watcher
