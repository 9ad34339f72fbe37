package models

// SneakersRequest is the query string of GET /api/sneakers/:site.
type SneakersRequest struct {
	// Brand filters results by brand (case-insensitive). Optional.
	Brand string `form:"brand"`

	// Limit caps the number of returned records.
	// Default: 20. Max: 100.
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`

	// Query overrides the site's default search text. Optional.
	Query string `form:"q" binding:"omitempty,max=200"`
}

// Defaults applies default values to unset fields.
func (r *SneakersRequest) Defaults(defaultLimit int) {
	if r.Limit == 0 {
		r.Limit = defaultLimit
	}
}
