package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	m := Movie{ID: 1, Title: "Alien", ReleaseDate: NewDate(1979, time.May, 25)}
	bs, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Alien","description":"","duration":0,"ageLimit":0,"releaseDate":"1979-05-25"}`, string(bs))

	var back Movie
	require.NoError(t, json.Unmarshal(bs, &back))
	assert.Equal(t, m, back)

	var empty Movie
	bs, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"releaseDate":null`)

	require.NoError(t, json.Unmarshal([]byte(`{"releaseDate":null}`), &empty))
	assert.True(t, empty.ReleaseDate.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"releaseDate":"25/05/1979"}`), &empty))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2001, 2, 3, 15, 4, 5, 0, time.FixedZone("x", 3600))))
	assert.Equal(t, "2001-02-03", d.String())

	require.NoError(t, d.Scan([]byte("2010-11-12")))
	assert.Equal(t, NewDate(2010, time.November, 12), d)

	require.NoError(t, d.Scan("2010-11-13 00:00:00"))
	assert.Equal(t, NewDate(2010, time.November, 13), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDateValue(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2020, time.January, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC), v)

	assert.True(t, NewDate(2020, 1, 1).Before(NewDate(2020, 1, 2)))
}
