/*
Package thumbnail renders and loads the thumbnail artifacts for video
wallpapers.

# Generation

FFmpegGenerator extracts a single frame with ffmpeg, crops it to the
configured size with imaging.Fill and writes it as PNG into the output
directory. The artifact is named after the video's file stem:

	/walls/ocean.mp4 -> <outDir>/ocean.png

An artifact that already exists is reused without invoking ffmpeg. New
artifacts are written to a temporary file and renamed into place so a reader
never sees a partial image.

Frame extraction first seeks to the configured offset and falls back to the
first frame for clips shorter than the offset.

# Loading

DiskLoader reads artifacts back by identifier. Identifiers are plain file
names; anything containing a path separator or ".." is rejected with
ErrInvalidThumbnailID. Reads go through the filesystem retry helpers so a
stale NFS handle does not drop a thumbnail.

Sniff reports the Content-Type of artifact bytes and rejects data that is not
a decodable image.
*/
package thumbnail
