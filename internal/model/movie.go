// Package model holds the records exchanged between the HTTP layer and the
// stores. Field tags drive JSON (camelCase on the wire) and body validation.
package model

// Movie is a film in the catalogue. ID is zero until the store assigns one.
// Descriptive fields are stored as given.
type Movie struct {
	ID          uint64 `json:"id"`          // movies.id, assigned on first save
	Title       string `json:"title"`       // movies.title
	Description string `json:"description"` // movies.description
	Duration    uint32 `json:"duration"`    // movies.duration in minutes
	AgeLimit    uint8  `json:"ageLimit"`    // movies.age_limit, minimum viewer age
	ReleaseDate Date   `json:"releaseDate"` // movies.release_date, listing sort key
}
