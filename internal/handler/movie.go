package handler

import (
	"context" // context carries deadlines into the store
	"time"    // time stamps catalog events

	"github.com/labstack/echo/v4" // echo provides the web context

	"github.com/iliyamo/cinema-schedule-api/internal/model"      // model defines Movie
	"github.com/iliyamo/cinema-schedule-api/internal/queue"      // queue carries catalog events
	"github.com/iliyamo/cinema-schedule-api/internal/repository" // repository defines the store contract
	"github.com/iliyamo/cinema-schedule-api/internal/response"   // response builds the envelope
)

// MoviesPerPage is the fixed page size of movie listings.
const MoviesPerPage = 10

// MovieHandler serves the movie resource. It keeps no mutable state.
type MovieHandler struct {
	movies   repository.MovieStore
	events   queue.Sink
	pageSize int
}

// NewMovieHandler constructs a MovieHandler and panics if the store is nil.
// A nil sink discards events.
func NewMovieHandler(movies repository.MovieStore, events queue.Sink) *MovieHandler {
	if movies == nil {
		panic("nil movie store passed to NewMovieHandler")
	}
	if events == nil {
		events = queue.Discard{}
	}
	return &MovieHandler{movies: movies, events: events, pageSize: MoviesPerPage}
}

// List returns one page of movies ordered by release date. An unparseable
// page selects the first page; a page past the end yields no items.
func (h *MovieHandler) List(ctx context.Context, rawPage string) response.Result {
	page := parsePage(rawPage)
	total, err := h.movies.Count(ctx)
	if err != nil {
		storageFailed(ctx, err, "count movies")
		return response.Internal(msgMovieCount)
	}
	items, err := h.movies.List(ctx, offset(page, h.pageSize), h.pageSize)
	if err != nil {
		storageFailed(ctx, err, "list movies")
		return response.Internal(msgMovieList)
	}
	if items == nil {
		items = []model.Movie{}
	}
	return response.OK(response.List[model.Movie]{
		Items: items,
		Total: total,
		Pages: response.Pages(total, h.pageSize),
	})
}

// Create persists a new movie. The body must not carry an identifier.
func (h *MovieHandler) Create(ctx context.Context, m *model.Movie) response.Result {
	if m == nil || m.ID != 0 {
		return response.BadRequest(msgInvalidData)
	}
	if err := h.movies.Save(ctx, m); err != nil {
		storageFailed(ctx, err, "save movie")
		return response.Internal(msgMovieSave)
	}
	h.notify(queue.ActionCreated, m.ID)
	return response.Empty()
}

// Find returns the movie with the given identifier. Parse errors, lookup
// errors and missing movies all read as an invalid identifier.
func (h *MovieHandler) Find(ctx context.Context, rawID string) response.Result {
	id, ok := parseID(rawID)
	if !ok {
		return response.BadRequest(msgInvalidMovieID)
	}
	m, err := h.movies.Find(ctx, id)
	if err != nil {
		lookupFailed(ctx, err, "find movie")
		return response.BadRequest(msgInvalidMovieID)
	}
	return response.OK(m)
}

// Modify replaces a stored movie with the body.
func (h *MovieHandler) Modify(ctx context.Context, m *model.Movie) response.Result {
	if m == nil || m.ID == 0 {
		return response.BadRequest(msgInvalidData)
	}
	exists, err := h.movies.Exists(ctx, m.ID)
	if err != nil || !exists {
		lookupFailed(ctx, err, "movie exists")
		return response.BadRequest(msgInvalidData)
	}
	if err := h.movies.Save(ctx, m); err != nil {
		if lostRace(err) {
			lookupFailed(ctx, err, "save movie")
			return response.BadRequest(msgInvalidData)
		}
		storageFailed(ctx, err, "save movie")
		return response.Internal(msgMovieSave)
	}
	h.notify(queue.ActionModified, m.ID)
	return response.Empty()
}

// Delete removes a movie and, with it, its schedules.
func (h *MovieHandler) Delete(ctx context.Context, rawID string) response.Result {
	id, ok := parseID(rawID)
	if !ok {
		return response.BadRequest(msgInvalidMovieID)
	}
	exists, err := h.movies.Exists(ctx, id)
	if err != nil || !exists {
		lookupFailed(ctx, err, "movie exists")
		return response.BadRequest(msgInvalidMovieID)
	}
	if err := h.movies.Kill(ctx, id); err != nil {
		if lostRace(err) {
			lookupFailed(ctx, err, "kill movie")
			return response.BadRequest(msgInvalidMovieID)
		}
		storageFailed(ctx, err, "kill movie")
		return response.Internal(msgMovieDelete)
	}
	h.notify(queue.ActionDeleted, id)
	return response.Empty()
}

func (h *MovieHandler) notify(action string, id uint64) {
	h.events.Publish(queue.CatalogEvent{
		Resource:   queue.ResourceMovie,
		Action:     action,
		ID:         id,
		OccurredAt: time.Now().UTC(),
	})
}

// HandleList serves GET /movies and GET /movies/page/:page.
func (h *MovieHandler) HandleList(c echo.Context) error {
	return h.List(c.Request().Context(), pageParam(c)).Send(c)
}

// HandleCreate serves POST /movies.
func (h *MovieHandler) HandleCreate(c echo.Context) error {
	m, err := decodeJSON[model.Movie](c)
	if err != nil {
		return response.BadRequest(msgInvalidData).Send(c)
	}
	return h.Create(c.Request().Context(), m).Send(c)
}

// HandleFind serves GET /movies/:id.
func (h *MovieHandler) HandleFind(c echo.Context) error {
	return h.Find(c.Request().Context(), c.Param("id")).Send(c)
}

// HandleModify serves PUT /movies and PUT /movies/:id.
func (h *MovieHandler) HandleModify(c echo.Context) error {
	m, err := decodeJSON[model.Movie](c)
	if err != nil || !bindPathID(c, &m.ID) {
		return response.BadRequest(msgInvalidData).Send(c)
	}
	return h.Modify(c.Request().Context(), m).Send(c)
}

// HandleDelete serves DELETE /movies/:id.
func (h *MovieHandler) HandleDelete(c echo.Context) error {
	return h.Delete(c.Request().Context(), c.Param("id")).Send(c)
}
