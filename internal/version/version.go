// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// UserAgent identifies alkaid to third-party services that require it.
const UserAgent = "alkaid/" + Version + " (sensor and sky companion; https://litescript.net/alkaid)"

// Milestones:
// 0.3.0 - Place search with debounce and LRU cache, HTTP API, metrics
// 0.2.0 - Weather panel, encrypted API key storage
// 0.1.0 - Sensor cards, GPS widget, constellation map
