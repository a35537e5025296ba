// Package handlers provides HTTP request handlers for the wallthumb API.
//
// It includes handlers for:
//   - Refreshing the thumbnail cache and reading generation progress
//   - Listing display handles and serving thumbnail bytes
//   - Clearing the thumbnail cache
//   - Reading and updating the user configuration
//   - Launching the wallpaper command for a thumbnail
//   - Health checks, version and Prometheus metrics
package handlers
