// Package memory is an in-process implementation of the data-access contract.
// It backs the "memory" storage driver and the handler tests. One mutex
// guards both tables, so the parent check in ScheduleStore.Save and the
// cascade in MovieStore.Kill are atomic.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/cinema-schedule-api/internal/model"
	"github.com/iliyamo/cinema-schedule-api/internal/repository"
)

// Store holds movies and schedules keyed by id.
type Store struct {
	mu        sync.RWMutex
	movies    map[uint64]model.Movie
	schedules map[uint64]model.Schedule
	nextMovie uint64
	nextSched uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		movies:    make(map[uint64]model.Movie),
		schedules: make(map[uint64]model.Schedule),
	}
}

// Movies returns the movie view of the store.
func (s *Store) Movies() *Movies { return &Movies{s: s} }

// Schedules returns the schedule view of the store.
func (s *Store) Schedules() *Schedules { return &Schedules{s: s} }

// Movies implements repository.MovieStore.
type Movies struct{ s *Store }

func (m *Movies) Count(_ context.Context) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return len(m.s.movies), nil
}

func (m *Movies) List(_ context.Context, offset, limit int) ([]model.Movie, error) {
	m.s.mu.RLock()
	all := make([]model.Movie, 0, len(m.s.movies))
	for _, v := range m.s.movies {
		all = append(all, v)
	}
	m.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.ReleaseDate.Time().Equal(b.ReleaseDate.Time()) {
			return a.ReleaseDate.Before(b.ReleaseDate)
		}
		return a.ID < b.ID
	})
	return window(all, offset, limit), nil
}

func (m *Movies) Find(_ context.Context, id uint64) (*model.Movie, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	v, ok := m.s.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &v, nil
}

func (m *Movies) Exists(_ context.Context, id uint64) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	_, ok := m.s.movies[id]
	return ok, nil
}

func (m *Movies) Save(_ context.Context, mv *model.Movie) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if mv.ID == 0 {
		m.s.nextMovie++
		mv.ID = m.s.nextMovie
	} else if _, ok := m.s.movies[mv.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	m.s.movies[mv.ID] = *mv
	return nil
}

func (m *Movies) Kill(_ context.Context, id uint64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.movies[id]; !ok {
		return repository.ErrMovieNotFound
	}
	for sid, sc := range m.s.schedules {
		if sc.MovieID == id {
			delete(m.s.schedules, sid)
		}
	}
	delete(m.s.movies, id)
	return nil
}

// Schedules implements repository.ScheduleStore.
type Schedules struct{ s *Store }

func (sc *Schedules) Count(_ context.Context, movieID uint64) (int, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	n := 0
	for _, v := range sc.s.schedules {
		if v.MovieID == movieID {
			n++
		}
	}
	return n, nil
}

func (sc *Schedules) List(_ context.Context, movieID uint64, offset, limit int) ([]model.Schedule, error) {
	sc.s.mu.RLock()
	var all []model.Schedule
	for _, v := range sc.s.schedules {
		if v.MovieID == movieID {
			all = append(all, v)
		}
	}
	sc.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.StartsAt.Equal(b.StartsAt) {
			return a.StartsAt.Before(b.StartsAt)
		}
		return a.ID < b.ID
	})
	return window(all, offset, limit), nil
}

func (sc *Schedules) Find(_ context.Context, id uint64) (*model.Schedule, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	v, ok := sc.s.schedules[id]
	if !ok {
		return nil, repository.ErrScheduleNotFound
	}
	return &v, nil
}

func (sc *Schedules) Exists(_ context.Context, id uint64) (bool, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	_, ok := sc.s.schedules[id]
	return ok, nil
}

func (sc *Schedules) Save(_ context.Context, v *model.Schedule) error {
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	if _, ok := sc.s.movies[v.MovieID]; !ok {
		return repository.ErrMovieNotFound
	}
	if v.ID == 0 {
		sc.s.nextSched++
		v.ID = sc.s.nextSched
	} else if _, ok := sc.s.schedules[v.ID]; !ok {
		return repository.ErrScheduleNotFound
	}
	sc.s.schedules[v.ID] = *v
	return nil
}

func (sc *Schedules) Kill(_ context.Context, id uint64) error {
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	if _, ok := sc.s.schedules[id]; !ok {
		return repository.ErrScheduleNotFound
	}
	delete(sc.s.schedules, id)
	return nil
}

// window returns the [offset, offset+limit) slice of all, clamped to its
// bounds. It never returns nil so listings encode as [].
func window[T any](all []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]T{}, all[offset:end]...)
}

var (
	_ repository.MovieStore    = (*Movies)(nil)
	_ repository.ScheduleStore = (*Schedules)(nil)
)
