package models

// SneakersResponse is the success body for GET /api/sneakers/:site.
type SneakersResponse struct {
	Sneakers []Sneaker `json:"sneakers"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// SiteInfo is the routing metadata of one supported site.
type SiteInfo struct {
	Site string `json:"site"`

	// Kind is "live" for adapters backed by a real page and
	// "synthetic" for deterministic stand-ins.
	Kind string `json:"kind"`

	// DefaultQuery is the search text used when the caller gives none.
	DefaultQuery string `json:"default_query,omitempty"`
}

// SitesResponse is the response for GET /api/sites.
type SitesResponse struct {
	Sites []SiteInfo `json:"sites"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports browser session usage.
type SessionStats struct {
	MaxSessions    int `json:"max_sessions"`
	ActiveSessions int `json:"active_sessions"`
}
