package mediatypes

import "strings"

// FileType represents the type of a file in the wallpapers directory.
type FileType string

const (
	// FileTypeImage represents an image file, such as a generated thumbnail.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video wallpaper.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// ImageExtensions maps file extensions to whether they are accepted as thumbnail artifacts.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// VideoExtensions maps file extensions to whether they are supported video wallpapers.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
	".m4v":  true,
	".flv":  true,
	".mpeg": true,
	".mpg":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".flv":  "video/x-flv",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
}

// GetFileType returns the FileType for a given file extension.
// Returns FileTypeOther if the extension is not recognized.
func GetFileType(ext string) FileType {
	ext = strings.ToLower(ext)
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsVideo reports whether ext names a supported video wallpaper.
func IsVideo(ext string) bool {
	return GetFileType(ext) == FileTypeVideo
}

// IsImage reports whether ext names an accepted thumbnail artifact.
func IsImage(ext string) bool {
	return GetFileType(ext) == FileTypeImage
}
