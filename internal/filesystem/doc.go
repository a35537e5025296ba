/*
Package filesystem provides filesystem reads with retry logic for stale file
handle errors.

Wallpaper collections frequently live on network shares. When an NFS server
restarts or a file is replaced underneath a client, operations fail with
ESTALE even though the next attempt would succeed. The helpers in this package
wrap Stat, Open and ReadFile on an afero.Fs and retry only that error, with
capped exponential backoff. Every other error is returned immediately.

# Usage

	fs := afero.NewOsFs()
	data, err := filesystem.ReadFileWithRetry(fs, "/data/thumbnails/a.png", filesystem.DefaultRetryConfig())

# Volumes

Retry metrics are labelled by volume. A VolumeResolver maps paths to the
configured volumes by longest prefix:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "videos":     cfg.WallpapersDir,
	    "thumbnails": cfg.ThumbnailDir,
	    "config":     cfg.ConfigDir,
	}))

Paths outside every volume are labelled "unknown".
*/
package filesystem
