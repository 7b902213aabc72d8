package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-schedule-api/internal/model"
	"github.com/iliyamo/cinema-schedule-api/internal/repository"
)

func TestMoviesSaveAssignsAndReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := model.Movie{Title: "A"}
	b := model.Movie{Title: "B"}
	require.NoError(t, s.Movies().Save(ctx, &a))
	require.NoError(t, s.Movies().Save(ctx, &b))
	assert.Equal(t, uint64(1), a.ID)
	assert.Equal(t, uint64(2), b.ID)

	a.Title = "A2"
	require.NoError(t, s.Movies().Save(ctx, &a))
	got, err := s.Movies().Find(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Title)

	got.Title = "mutated"
	again, _ := s.Movies().Find(ctx, a.ID)
	assert.Equal(t, "A2", again.Title, "Find returns a copy")

	assert.ErrorIs(t, s.Movies().Save(ctx, &model.Movie{ID: 99, Title: "x"}), repository.ErrMovieNotFound)
	_, err = s.Movies().Find(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
}

func TestMoviesListOrderAndWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, d := range []int{3, 1, 2, 1} {
		m := model.Movie{Title: string(rune('a' + i)), ReleaseDate: model.NewDate(2020, 1, d)}
		require.NoError(t, s.Movies().Save(ctx, &m))
	}

	all, err := s.Movies().List(ctx, 0, 10)
	require.NoError(t, err)
	var titles []string
	for _, m := range all {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, titles)

	part, _ := s.Movies().List(ctx, 1, 2)
	assert.Equal(t, "d", part[0].Title)
	assert.Len(t, part, 2)

	past, _ := s.Movies().List(ctx, 10, 2)
	assert.NotNil(t, past)
	assert.Empty(t, past)
}

func TestSchedulesRequireParent(t *testing.T) {
	s := New()
	ctx := context.Background()

	orphan := model.Schedule{MovieID: 5, StartsAt: time.Now()}
	assert.ErrorIs(t, s.Schedules().Save(ctx, &orphan), repository.ErrMovieNotFound)
	assert.Zero(t, orphan.ID)

	m := model.Movie{Title: "m"}
	require.NoError(t, s.Movies().Save(ctx, &m))
	sc := model.Schedule{MovieID: m.ID, StartsAt: time.Now()}
	require.NoError(t, s.Schedules().Save(ctx, &sc))

	assert.ErrorIs(t, s.Schedules().Save(ctx, &model.Schedule{ID: 50, MovieID: m.ID}), repository.ErrScheduleNotFound)

	n, _ := s.Schedules().Count(ctx, m.ID)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Movies().Kill(ctx, m.ID))
	ok, _ := s.Schedules().Exists(ctx, sc.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Movies().Kill(ctx, m.ID), repository.ErrMovieNotFound)
	assert.ErrorIs(t, s.Schedules().Kill(ctx, sc.ID), repository.ErrScheduleNotFound)
}

func TestConcurrentKillAndScheduleSave(t *testing.T) {
	s := New()
	ctx := context.Background()
	m := model.Movie{Title: "m"}
	require.NoError(t, s.Movies().Save(ctx, &m))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sc := model.Schedule{MovieID: m.ID, StartsAt: time.Unix(int64(i), 0)}
			_ = s.Schedules().Save(ctx, &sc)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Movies().Kill(ctx, m.ID)
	}()
	wg.Wait()

	n, _ := s.Schedules().Count(ctx, m.ID)
	assert.Zero(t, n, "no schedule may outlive its movie")
}
