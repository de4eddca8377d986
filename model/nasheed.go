package model

import "time"

// Nasheed is a playable audio item in the catalog.
//
// IDs are strings rather than numeric keys: rows created through the admin
// surface carry UUID ids, while entries derived from a bucket listing use
// the object path as their id. The id is the deduplication and
// "is this the active track" key for the lifetime of a listing.
type Nasheed struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration *int   `json:"duration"` // seconds, nil until metadata is known

	// FileURL is the source locator: either an absolute URL or a
	// storage-relative object path that needs signed-URL resolution.
	FileURL  string  `json:"file_url"`
	CoverURL *string `json:"cover_url,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
}
