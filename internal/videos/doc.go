// Package videos enumerates the video wallpapers under a directory.
//
// DirLister walks the tree recursively on an afero.Fs, keeps files whose
// extension is a supported video format and returns their paths in lexical
// order. Hidden entries are included unless SetSkipHidden(true) was called.
// Unreadable entries are logged and skipped; only a problem with the
// root itself fails the listing.
package videos
