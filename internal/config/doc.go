// Package config loads and persists application settings.
//
// Settings resolve in three layers, later layers winning: compiled-in
// defaults, an optional JSON settings file, and environment variables. The
// OAuth token is taken from the environment only and never written to disk.
package config
