package handler // handler defines http handlers

import (
	"context"  // context carries the request-scoped logger
	"errors"   // errors reports empty bodies
	"strconv"  // strconv converts path params to integers
	"strings"  // strings trims raw input

	"github.com/go-playground/validator/v10" // validator enforces model tags
	"github.com/labstack/echo/v4"            // echo defines request context types
	"github.com/rs/zerolog"                  // zerolog logs hidden storage failures

	"github.com/iliyamo/cinema-schedule-api/internal/repository" // repository defines not-found sentinels
)

// Fixed client-facing messages. Storage errors are logged, never echoed.
const (
	msgInvalidData       = "invalid request data"
	msgInvalidMovieID    = "invalid movie identifier"
	msgInvalidScheduleID = "invalid schedule identifier"
	msgMovieCount        = "could not obtain movie count"
	msgMovieList         = "could not obtain movie list"
	msgMovieSave         = "could not save movie"
	msgMovieDelete       = "could not delete movie"
	msgScheduleCount     = "could not obtain schedule count"
	msgScheduleList      = "could not obtain schedule list"
	msgScheduleSave      = "could not save schedule"
	msgScheduleDelete    = "could not delete schedule"
)

// validate is safe for concurrent use; it only caches struct metadata.
var validate = validator.New()

var errEmptyBody = errors.New("empty request body")

// parsePage reads a 1-based page number. Anything that is not a positive
// 32-bit integer selects the first page.
func parsePage(raw string) int {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || n < 1 {
		return 1
	}
	return int(n)
}

// parseID reads a positive record identifier.
func parseID(raw string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// offset converts a page number into a row offset.
func offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// pageParam returns the page from the path, falling back to ?page=.
func pageParam(c echo.Context) string {
	if raw := c.Param("page"); raw != "" {
		return raw
	}
	return c.QueryParam("page")
}

// decodeJSON parses the request body into a fresh *T. A JSON null or an
// empty body is an error, same as malformed JSON.
func decodeJSON[T any](c echo.Context) (*T, error) {
	var rec *T
	if err := c.Echo().JSONSerializer.Deserialize(c, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errEmptyBody
	}
	return rec, nil
}

// bindPathID reconciles an optional :id path parameter with the identifier
// carried in the body. A zero body id takes the path id; two different
// non-zero ids are rejected.
func bindPathID(c echo.Context, dst *uint64) bool {
	raw := c.Param("id")
	if raw == "" {
		return true
	}
	id, ok := parseID(raw)
	if !ok {
		return false
	}
	if *dst == 0 {
		*dst = id
		return true
	}
	return *dst == id
}

// valid applies the model's validate tags.
func valid(rec any) bool {
	return validate.Struct(rec) == nil
}

// storageFailed logs the cause of a 500 with the request logger.
func storageFailed(ctx context.Context, err error, op string) {
	zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("storage failure")
}

// lookupFailed logs why an identifier was rejected. Missing records are
// expected and stay at debug level.
func lookupFailed(ctx context.Context, err error, op string) {
	zerolog.Ctx(ctx).Debug().Err(err).Str("op", op).Msg("lookup rejected")
}

// lostRace reports a write that found its record (or parent movie) gone
// after the handler's existence check passed.
func lostRace(err error) bool {
	return errors.Is(err, repository.ErrMovieNotFound) || errors.Is(err, repository.ErrScheduleNotFound)
}
