package handler

import (
	"context" // context carries deadlines into the stores
	"time"    // time stamps catalog events

	"github.com/labstack/echo/v4" // echo provides the web context

	"github.com/iliyamo/cinema-schedule-api/internal/model"      // model defines Schedule
	"github.com/iliyamo/cinema-schedule-api/internal/queue"      // queue carries catalog events
	"github.com/iliyamo/cinema-schedule-api/internal/repository" // repository defines both store contracts
	"github.com/iliyamo/cinema-schedule-api/internal/response"   // response builds the envelope
)

// SchedulesPerPage is the fixed page size of schedule listings.
const SchedulesPerPage = 10

// ScheduleHandler serves the schedule resource. Every schedule it writes
// names a movie that existed when the request was checked.
type ScheduleHandler struct {
	schedules repository.ScheduleStore
	movies    repository.MovieStore // existence checks only
	events    queue.Sink
	pageSize  int
}

// NewScheduleHandler constructs a ScheduleHandler and panics if a store is nil.
func NewScheduleHandler(schedules repository.ScheduleStore, movies repository.MovieStore, events queue.Sink) *ScheduleHandler {
	if schedules == nil || movies == nil {
		panic("nil store passed to NewScheduleHandler")
	}
	if events == nil {
		events = queue.Discard{}
	}
	return &ScheduleHandler{schedules: schedules, movies: movies, events: events, pageSize: SchedulesPerPage}
}

// List returns one page of a movie's schedules ordered by showtime. Unlike
// the page number, the movie identifier must be valid.
func (h *ScheduleHandler) List(ctx context.Context, rawMovieID, rawPage string) response.Result {
	movieID, ok := parseID(rawMovieID)
	if !ok {
		return response.BadRequest(msgInvalidMovieID)
	}
	page := parsePage(rawPage)
	total, err := h.schedules.Count(ctx, movieID)
	if err != nil {
		storageFailed(ctx, err, "count schedules")
		return response.Internal(msgScheduleCount)
	}
	items, err := h.schedules.List(ctx, movieID, offset(page, h.pageSize), h.pageSize)
	if err != nil {
		storageFailed(ctx, err, "list schedules")
		return response.Internal(msgScheduleList)
	}
	if items == nil {
		items = []model.Schedule{}
	}
	return response.OK(response.List[model.Schedule]{
		Items: items,
		Total: total,
		Pages: response.Pages(total, h.pageSize),
	})
}

// Create persists a new schedule of an existing movie.
func (h *ScheduleHandler) Create(ctx context.Context, s *model.Schedule) response.Result {
	if s == nil || s.ID != 0 || !valid(s) || !h.movieExists(ctx, s.MovieID) {
		return response.BadRequest(msgInvalidData)
	}
	if err := h.schedules.Save(ctx, s); err != nil {
		if lostRace(err) {
			lookupFailed(ctx, err, "save schedule")
			return response.BadRequest(msgInvalidData)
		}
		storageFailed(ctx, err, "save schedule")
		return response.Internal(msgScheduleSave)
	}
	h.notify(queue.ActionCreated, s.ID, s.MovieID)
	return response.Empty()
}

// Find returns the schedule with the given identifier.
func (h *ScheduleHandler) Find(ctx context.Context, rawID string) response.Result {
	id, ok := parseID(rawID)
	if !ok {
		return response.BadRequest(msgInvalidScheduleID)
	}
	s, err := h.schedules.Find(ctx, id)
	if err != nil {
		lookupFailed(ctx, err, "find schedule")
		return response.BadRequest(msgInvalidScheduleID)
	}
	return response.OK(s)
}

// Modify replaces a stored schedule. Both the schedule and the movie it
// names must exist before anything is written.
func (h *ScheduleHandler) Modify(ctx context.Context, s *model.Schedule) response.Result {
	if s == nil || s.ID == 0 || !valid(s) {
		return response.BadRequest(msgInvalidData)
	}
	exists, err := h.schedules.Exists(ctx, s.ID)
	if err != nil || !exists {
		lookupFailed(ctx, err, "schedule exists")
		return response.BadRequest(msgInvalidData)
	}
	if !h.movieExists(ctx, s.MovieID) {
		return response.BadRequest(msgInvalidData)
	}
	if err := h.schedules.Save(ctx, s); err != nil {
		if lostRace(err) {
			lookupFailed(ctx, err, "save schedule")
			return response.BadRequest(msgInvalidData)
		}
		storageFailed(ctx, err, "save schedule")
		return response.Internal(msgScheduleSave)
	}
	h.notify(queue.ActionModified, s.ID, s.MovieID)
	return response.Empty()
}

// Delete removes a schedule.
func (h *ScheduleHandler) Delete(ctx context.Context, rawID string) response.Result {
	id, ok := parseID(rawID)
	if !ok {
		return response.BadRequest(msgInvalidScheduleID)
	}
	exists, err := h.schedules.Exists(ctx, id)
	if err != nil || !exists {
		lookupFailed(ctx, err, "schedule exists")
		return response.BadRequest(msgInvalidScheduleID)
	}
	if err := h.schedules.Kill(ctx, id); err != nil {
		if lostRace(err) {
			lookupFailed(ctx, err, "kill schedule")
			return response.BadRequest(msgInvalidScheduleID)
		}
		storageFailed(ctx, err, "kill schedule")
		return response.Internal(msgScheduleDelete)
	}
	h.notify(queue.ActionDeleted, id, 0)
	return response.Empty()
}

// movieExists is the read half of the read-then-act parent check. SQL stores
// repeat the check under a row lock when saving.
func (h *ScheduleHandler) movieExists(ctx context.Context, movieID uint64) bool {
	if movieID == 0 {
		return false
	}
	ok, err := h.movies.Exists(ctx, movieID)
	if err != nil {
		lookupFailed(ctx, err, "movie exists")
		return false
	}
	return ok
}

func (h *ScheduleHandler) notify(action string, id, movieID uint64) {
	h.events.Publish(queue.CatalogEvent{
		Resource:   queue.ResourceSchedule,
		Action:     action,
		ID:         id,
		MovieID:    movieID,
		OccurredAt: time.Now().UTC(),
	})
}

// HandleList serves GET /movies/:movieId/schedules[/:page].
func (h *ScheduleHandler) HandleList(c echo.Context) error {
	return h.List(c.Request().Context(), c.Param("movieId"), pageParam(c)).Send(c)
}

// HandleCreate serves POST /schedules.
func (h *ScheduleHandler) HandleCreate(c echo.Context) error {
	s, err := decodeJSON[model.Schedule](c)
	if err != nil {
		return response.BadRequest(msgInvalidData).Send(c)
	}
	return h.Create(c.Request().Context(), s).Send(c)
}

// HandleFind serves GET /schedules/:id.
func (h *ScheduleHandler) HandleFind(c echo.Context) error {
	return h.Find(c.Request().Context(), c.Param("id")).Send(c)
}

// HandleModify serves PUT /schedules and PUT /schedules/:id.
func (h *ScheduleHandler) HandleModify(c echo.Context) error {
	s, err := decodeJSON[model.Schedule](c)
	if err != nil || !bindPathID(c, &s.ID) {
		return response.BadRequest(msgInvalidData).Send(c)
	}
	return h.Modify(c.Request().Context(), s).Send(c)
}

// HandleDelete serves DELETE /schedules/:id.
func (h *ScheduleHandler) HandleDelete(c echo.Context) error {
	return h.Delete(c.Request().Context(), c.Param("id")).Send(c)
}
