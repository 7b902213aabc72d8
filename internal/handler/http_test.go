package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-schedule-api/internal/model"
	"github.com/iliyamo/cinema-schedule-api/internal/repository/memory"
)

type envelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// call runs fn against a request with the given path parameters.
func call(t *testing.T, fn echo.HandlerFunc, method, body string, params map[string]string) (int, envelope) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	require.NoError(t, fn(c))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.Code)
	return rec.Code, env
}

func TestHandleMovieBodies(t *testing.T) {
	store := memory.New()
	h := NewMovieHandler(store.Movies(), nil)

	for name, body := range map[string]string{
		"empty":     "",
		"null":      "null",
		"malformed": `{"title":`,
		"wrong":     `{"title": 5}`,
	} {
		t.Run(name, func(t *testing.T) {
			code, env := call(t, h.HandleCreate, http.MethodPost, body, nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, msgInvalidData, env.Error)
		})
	}

	code, env := call(t, h.HandleCreate, http.MethodPost, `{"title":"Solaris","releaseDate":"1972-03-20","ageLimit":12}`, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Empty(t, env.Result)

	code, env = call(t, h.HandleFind, http.MethodGet, "", map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, code)
	var m model.Movie
	require.NoError(t, json.Unmarshal(env.Result, &m))
	assert.Equal(t, "Solaris", m.Title)
	assert.Equal(t, "1972-03-20", m.ReleaseDate.String())
}

func TestHandleMovieModifyPathID(t *testing.T) {
	store := memory.New()
	h := NewMovieHandler(store.Movies(), nil)
	require.NoError(t, store.Movies().Save(context.Background(), &model.Movie{Title: "Before"}))

	code, env := call(t, h.HandleModify, http.MethodPut, `{"id":2,"title":"After"}`, map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, msgInvalidData, env.Error)

	code, _ = call(t, h.HandleModify, http.MethodPut, `{"title":"After"}`, map[string]string{"id": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, h.HandleModify, http.MethodPut, `{"title":"After"}`, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = call(t, h.HandleModify, http.MethodPut, `{"id":1,"title":"Again"}`, nil)
	require.Equal(t, http.StatusOK, code)

	got, err := store.Movies().Find(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Again", got.Title)
}

func TestHandleMovieListPageParam(t *testing.T) {
	store := memory.New()
	seedMovies(t, store, 12)
	h := NewMovieHandler(store.Movies(), nil)

	_, env := call(t, h.HandleList, http.MethodGet, "", map[string]string{"page": "2"})
	var l struct {
		Items []model.Movie `json:"items"`
		Total int           `json:"total"`
		Pages int           `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &l))
	assert.Len(t, l.Items, 2)
	assert.Equal(t, 12, l.Total)
	assert.Equal(t, 2, l.Pages)
}

func TestHandleScheduleEndpoints(t *testing.T) {
	store := memory.New()
	seedMovies(t, store, 1)
	h := NewScheduleHandler(store.Schedules(), store.Movies(), nil)

	code, env := call(t, h.HandleCreate, http.MethodPost, `{"movieId":999,"startsAt":"2024-03-01T18:00:00Z"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, msgInvalidData, env.Error)

	code, _ = call(t, h.HandleCreate, http.MethodPost, "null", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, h.HandleCreate, http.MethodPost, `{"movieId":1,"startsAt":"2024-03-01T18:00:00Z","auditorium":2,"priceCents":1100}`, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = call(t, h.HandleList, http.MethodGet, "", map[string]string{"movieId": "abc"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, msgInvalidMovieID, env.Error)

	code, env = call(t, h.HandleList, http.MethodGet, "", map[string]string{"movieId": "1"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Result), `"total":1`)

	code, env = call(t, h.HandleModify, http.MethodPut, `{"movieId":1,"startsAt":"2024-03-01T20:00:00Z"}`, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = call(t, h.HandleFind, http.MethodGet, "", map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, code)
	var s model.Schedule
	require.NoError(t, json.Unmarshal(env.Result, &s))
	assert.Equal(t, 20, s.StartsAt.Hour())

	code, _ = call(t, h.HandleDelete, http.MethodDelete, "", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusOK, code)
	code, env = call(t, h.HandleDelete, http.MethodDelete, "", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, msgInvalidScheduleID, env.Error)
}

func TestParsePage(t *testing.T) {
	cases := map[string]int{
		"":           1,
		"1":          1,
		" 4 ":        4,
		"0":          1,
		"-1":         1,
		"2147483647": 2147483647,
		"2147483648": 1,
		"abc":        1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, parsePage(raw), "page %q", raw)
	}
}
