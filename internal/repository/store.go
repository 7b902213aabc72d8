package repository

import (
	"context" // context carries request deadlines into the store

	"github.com/iliyamo/cinema-schedule-api/internal/model" // model defines the records
)

// MovieStore is the data-access contract for movies.
type MovieStore interface {
	// Count returns the number of persisted movies.
	Count(ctx context.Context) (int, error)
	// List returns up to limit movies ordered by release date, skipping offset.
	List(ctx context.Context, offset, limit int) ([]model.Movie, error)
	// Find returns the movie or ErrMovieNotFound.
	Find(ctx context.Context, id uint64) (*model.Movie, error)
	// Exists reports whether a movie with id is persisted.
	Exists(ctx context.Context, id uint64) (bool, error)
	// Save inserts the movie when its ID is zero (assigning the ID) and
	// replaces the stored record otherwise.
	Save(ctx context.Context, m *model.Movie) error
	// Kill deletes the movie together with its schedules.
	Kill(ctx context.Context, id uint64) error
}

// ScheduleStore is the data-access contract for schedules. Count and List are
// scoped to one movie.
type ScheduleStore interface {
	Count(ctx context.Context, movieID uint64) (int, error)
	// List returns up to limit schedules of the movie ordered by showtime.
	List(ctx context.Context, movieID uint64, offset, limit int) ([]model.Schedule, error)
	// Find returns the schedule or ErrScheduleNotFound.
	Find(ctx context.Context, id uint64) (*model.Schedule, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	// Save inserts or replaces the schedule. Implementations that can lock the
	// parent row return ErrMovieNotFound when MovieID vanished meanwhile.
	Save(ctx context.Context, s *model.Schedule) error
	Kill(ctx context.Context, id uint64) error
}

var (
	_ MovieStore    = (*MovieRepo)(nil)
	_ ScheduleStore = (*ScheduleRepo)(nil)
)
