package handler

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/cinema-schedule-api/internal/model"
	"github.com/iliyamo/cinema-schedule-api/internal/queue"
	"github.com/iliyamo/cinema-schedule-api/internal/repository/memory"
)

var errStorage = errors.New("connection reset by peer")

// faultyMovies wraps the memory store and fails the selected operations.
type faultyMovies struct {
	*memory.Movies
	failCount, failList, failSave, failKill, failExists bool
}

func (f *faultyMovies) Count(ctx context.Context) (int, error) {
	if f.failCount {
		return 0, errStorage
	}
	return f.Movies.Count(ctx)
}

func (f *faultyMovies) List(ctx context.Context, offset, limit int) ([]model.Movie, error) {
	if f.failList {
		return nil, errStorage
	}
	return f.Movies.List(ctx, offset, limit)
}

func (f *faultyMovies) Exists(ctx context.Context, id uint64) (bool, error) {
	if f.failExists {
		return false, errStorage
	}
	return f.Movies.Exists(ctx, id)
}

func (f *faultyMovies) Save(ctx context.Context, m *model.Movie) error {
	if f.failSave {
		return errStorage
	}
	return f.Movies.Save(ctx, m)
}

func (f *faultyMovies) Kill(ctx context.Context, id uint64) error {
	if f.failKill {
		return errStorage
	}
	return f.Movies.Kill(ctx, id)
}

type faultySchedules struct {
	*memory.Schedules
	failCount, failList, failSave, failKill bool

	saveErr error // returned by Save when set
}

func (f *faultySchedules) Count(ctx context.Context, movieID uint64) (int, error) {
	if f.failCount {
		return 0, errStorage
	}
	return f.Schedules.Count(ctx, movieID)
}

func (f *faultySchedules) List(ctx context.Context, movieID uint64, offset, limit int) ([]model.Schedule, error) {
	if f.failList {
		return nil, errStorage
	}
	return f.Schedules.List(ctx, movieID, offset, limit)
}

func (f *faultySchedules) Save(ctx context.Context, s *model.Schedule) error {
	if f.failSave {
		return errStorage
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Schedules.Save(ctx, s)
}

func (f *faultySchedules) Kill(ctx context.Context, id uint64) error {
	if f.failKill {
		return errStorage
	}
	return f.Schedules.Kill(ctx, id)
}

// recorder is a queue.Sink that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []queue.CatalogEvent
}

func (r *recorder) Publish(ev queue.CatalogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []queue.CatalogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.CatalogEvent(nil), r.events...)
}
