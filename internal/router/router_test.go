package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-schedule-api/internal/handler"
	"github.com/iliyamo/cinema-schedule-api/internal/middleware"
	"github.com/iliyamo/cinema-schedule-api/internal/repository/memory"
)

type envelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type page struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
	Pages int               `json:"pages"`
}

func newApp() *echo.Echo {
	store := memory.New()
	e := echo.New()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler
	RegisterRoutes(e,
		handler.NewMovieHandler(store.Movies(), nil),
		handler.NewScheduleHandler(store.Schedules(), store.Movies(), nil),
	)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) envelope {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "%s %s: %s", method, target, rec.Body.String())
	assert.Equal(t, rec.Code, env.Code)
	return env
}

func listOf(t *testing.T, env envelope) page {
	t.Helper()
	require.Equal(t, http.StatusOK, env.Code, env.Error)
	var p page
	require.NoError(t, json.Unmarshal(env.Result, &p))
	return p
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newApp().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCatalogFlow(t *testing.T) {
	e := newApp()

	for i := 0; i < 23; i++ {
		env := do(t, e, http.MethodPost, "/movies", `{"title":"Film","releaseDate":"2001-01-01"}`)
		require.Equal(t, http.StatusOK, env.Code, env.Error)
	}

	p := listOf(t, do(t, e, http.MethodGet, "/movies", ""))
	assert.Len(t, p.Items, 10)
	assert.Equal(t, 23, p.Total)
	assert.Equal(t, 3, p.Pages)

	assert.Len(t, listOf(t, do(t, e, http.MethodGet, "/movies/page/3", "")).Items, 3)
	assert.Len(t, listOf(t, do(t, e, http.MethodGet, "/movies?page=3", "")).Items, 3)
	assert.Empty(t, listOf(t, do(t, e, http.MethodGet, "/movies/page/4", "")).Items)
	assert.Equal(t, listOf(t, do(t, e, http.MethodGet, "/movies/page/1", "")), listOf(t, do(t, e, http.MethodGet, "/movies/page/xyz", "")))

	env := do(t, e, http.MethodGet, "/movies/5", "")
	require.Equal(t, http.StatusOK, env.Code)
	assert.Contains(t, string(env.Result), `"id":5`)

	env = do(t, e, http.MethodPost, "/movies", `{"id":7,"title":"Dup"}`)
	assert.Equal(t, http.StatusBadRequest, env.Code)
	assert.Equal(t, "invalid request data", env.Error)

	env = do(t, e, http.MethodPost, "/schedules", `{"movieId":999,"startsAt":"2024-01-01T20:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, env.Code)
	assert.Empty(t, listOf(t, do(t, e, http.MethodGet, "/movies/999/schedules", "")).Items)

	env = do(t, e, http.MethodPost, "/schedules", `{"movieId":5,"startsAt":"2024-01-01T20:00:00Z","auditorium":1,"priceCents":900}`)
	require.Equal(t, http.StatusOK, env.Code, env.Error)
	p = listOf(t, do(t, e, http.MethodGet, "/movies/5/schedules", ""))
	assert.Equal(t, 1, p.Total)
	assert.Equal(t, 1, listOf(t, do(t, e, http.MethodGet, "/movies/5/schedules/1", "")).Pages)

	env = do(t, e, http.MethodPut, "/schedules/1", `{"movieId":5,"startsAt":"2024-01-01T22:00:00Z"}`)
	require.Equal(t, http.StatusOK, env.Code, env.Error)
	env = do(t, e, http.MethodGet, "/schedules/1", "")
	assert.Contains(t, string(env.Result), `"startsAt":"2024-01-01T22:00:00Z"`)

	env = do(t, e, http.MethodPut, "/movies", `{"id":5,"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, env.Code, env.Error)

	assert.Equal(t, http.StatusOK, do(t, e, http.MethodDelete, "/movies/5", "").Code)
	env = do(t, e, http.MethodDelete, "/movies/5", "")
	assert.Equal(t, http.StatusBadRequest, env.Code)
	assert.Equal(t, "invalid movie identifier", env.Error)

	env = do(t, e, http.MethodGet, "/schedules/1", "")
	assert.Equal(t, "invalid schedule identifier", env.Error)

	env = do(t, e, http.MethodGet, "/movies/abc/schedules", "")
	assert.Equal(t, "invalid movie identifier", env.Error)

	env = do(t, e, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, env.Code)
}
