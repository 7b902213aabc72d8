package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel matching

	"github.com/iliyamo/cinema-schedule-api/internal/model" // model defines Schedule
)

const scheduleColumns = `id, movie_id, starts_at, auditorium, price_cents`

// ScheduleRepo manages persistence for schedules in MySQL. Times are stored
// as DATETIME in UTC; the DSN uses parseTime=true&loc=UTC.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

// Count returns the number of schedules of one movie.
func (r *ScheduleRepo) Count(ctx context.Context, movieID uint64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE movie_id = ?`, movieID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns one page of a movie's schedules ordered by start time.
func (r *ScheduleRepo) List(ctx context.Context, movieID uint64, offset, limit int) ([]model.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + `
               FROM schedules
               WHERE movie_id = ?
               ORDER BY starts_at ASC, id ASC
               LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, movieID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Schedule, 0, limit)
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.MovieID, &s.StartsAt, &s.Auditorium, &s.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Find retrieves a schedule by ID or returns ErrScheduleNotFound.
func (r *ScheduleRepo) Find(ctx context.Context, id uint64) (*model.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`
	var s model.Schedule
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.StartsAt, &s.Auditorium, &s.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Exists reports whether a schedule row with the given id is present.
func (r *ScheduleRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schedules WHERE id = ?)`, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Save inserts or replaces a schedule inside a transaction that first takes a
// shared lock on the parent movie row. A concurrent movie Kill therefore
// either waits for this save or makes it fail with ErrMovieNotFound.
func (r *ScheduleRepo) Save(ctx context.Context, s *model.Schedule) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var parent uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM movies WHERE id = ? LOCK IN SHARE MODE`, s.MovieID).Scan(&parent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrMovieNotFound
		}
		return err
	}

	startsAt := s.StartsAt.UTC()
	if s.ID == 0 {
		const q = `INSERT INTO schedules (movie_id, starts_at, auditorium, price_cents) VALUES (?, ?, ?, ?)`
		res, execErr := tx.ExecContext(ctx, q, s.MovieID, startsAt, s.Auditorium, s.PriceCents)
		if execErr != nil {
			err = execErr
			return err
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			err = idErr
			return err
		}
		s.ID = uint64(id)
		return nil
	}

	const q = `UPDATE schedules
               SET movie_id = ?, starts_at = ?, auditorium = ?, price_cents = ?
               WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, s.MovieID, startsAt, s.Auditorium, s.PriceCents, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrScheduleNotFound
		return err
	}
	return nil
}

// Kill deletes a schedule. ErrScheduleNotFound is returned when nothing was
// deleted.
func (r *ScheduleRepo) Kill(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}
