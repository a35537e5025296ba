// Package middleware provides HTTP middleware for the wallthumb API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Response compression (gzip) for JSON and text responses
//   - Configurable filtering for thumbnail bytes and health checks
package middleware
