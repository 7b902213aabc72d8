package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel matching

	"github.com/iliyamo/cinema-schedule-api/internal/model" // model defines Movie
)

const movieColumns = `id, title, description, duration, age_limit, release_date`

// MovieRepo manages persistence for movies in MySQL.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Count returns the number of rows in the movies table.
func (r *MovieRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns one page of movies ordered by release date. Movies released
// on the same day keep insertion order.
func (r *MovieRepo) List(ctx context.Context, offset, limit int) ([]model.Movie, error) {
	const q = `SELECT ` + movieColumns + `
               FROM movies
               ORDER BY release_date ASC, id ASC
               LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Movie, 0, limit)
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Duration, &m.AgeLimit, &m.ReleaseDate); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Find retrieves a movie by its ID. It returns ErrMovieNotFound if there is
// no matching row.
func (r *MovieRepo) Find(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.Description, &m.Duration, &m.AgeLimit, &m.ReleaseDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Exists reports whether a movie row with the given id is present.
func (r *MovieRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM movies WHERE id = ?)`, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Save inserts the movie when m.ID is zero and assigns the generated ID back
// to it. Otherwise every column of the stored row is replaced. The DSN sets
// clientFoundRows so an UPDATE that changes nothing still reports one row.
func (r *MovieRepo) Save(ctx context.Context, m *model.Movie) error {
	if m.ID == 0 {
		const q = `INSERT INTO movies (title, description, duration, age_limit, release_date) VALUES (?, ?, ?, ?, ?)`
		res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.Duration, m.AgeLimit, m.ReleaseDate)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId() // obtain the auto-incremented ID
		if err != nil {
			return err
		}
		m.ID = uint64(id)
		return nil
	}
	const q = `UPDATE movies
               SET title = ?, description = ?, duration = ?, age_limit = ?, release_date = ?
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Description, m.Duration, m.AgeLimit, m.ReleaseDate, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Kill removes a movie and its schedules in one transaction so no schedule
// is left pointing at a deleted movie. ErrMovieNotFound is returned when the
// movie row does not exist.
func (r *MovieRepo) Kill(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// Ensure rollback or commit at the end
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedules WHERE movie_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrMovieNotFound
		return err
	}
	return nil
}
