package model

import "time"

// Schedule is a showtime of a movie. MovieID must name an existing movie
// whenever the schedule is created or modified.
type Schedule struct {
	ID         uint64    `json:"id"`                          // schedules.id, assigned on first save
	MovieID    uint64    `json:"movieId" validate:"required"` // schedules.movie_id
	StartsAt   time.Time `json:"startsAt"`                    // schedules.starts_at (UTC), listing sort key
	Auditorium uint16    `json:"auditorium"`                  // schedules.auditorium, hall number
	PriceCents uint32    `json:"priceCents"`                  // schedules.price_cents
}
