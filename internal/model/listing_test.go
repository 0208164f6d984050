package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocentral/internal/spatial"
)

func TestParseOptionalFloat(t *testing.T) {
	tests := []struct {
		in   string
		want OptionalFloat
	}{
		{"25.2", Some(25.2)},
		{" -55.75 ", Some(-55.75)},
		{"0", Some(0)},
		{"", None()},
		{"   ", None()},
		{"n/a", None()},
		{"12,5", None()},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOptionalFloat(tt.in))
		})
	}
}

func TestOptionalFloat_Or(t *testing.T) {
	assert.Equal(t, 3.5, Some(3.5).Or(0))
	assert.Equal(t, 0.0, None().Or(0))
}

func TestOptionalFloat_JSON(t *testing.T) {
	var v struct {
		A OptionalFloat `json:"a"`
		B OptionalFloat `json:"b"`
		C OptionalFloat `json:"c"`
		D OptionalFloat `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1.5, "b": null, "c": "2.25"}`), &v))
	assert.Equal(t, Some(1.5), v.A)
	assert.Equal(t, None(), v.B)
	assert.Equal(t, Some(2.25), v.C)
	assert.Equal(t, None(), v.D)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1.5, "b": null, "c": 2.25, "d": null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}

func TestOptionalFloat_CSV(t *testing.T) {
	var o OptionalFloat
	require.NoError(t, o.UnmarshalCSV([]byte("55.1")))
	assert.Equal(t, Some(55.1), o)
	require.NoError(t, o.UnmarshalCSV([]byte("")))
	assert.Equal(t, None(), o)

	b, err := Some(1.25).MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "1.25", string(b))
	b, err = None().MarshalCSV()
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestListing_Coordinates(t *testing.T) {
	l := Listing{Latitude: Some(25.2), Longitude: Some(55.3)}
	c, ok := l.Coordinates()
	require.True(t, ok)
	assert.Equal(t, spatial.Coordinate{Lat: 25.2, Lon: 55.3}, c)

	_, ok = Listing{Latitude: Some(25.2)}.Coordinates()
	assert.False(t, ok)
	_, ok = Listing{Longitude: Some(55.3)}.Coordinates()
	assert.False(t, ok)

	// Zero is a real coordinate, not a missing one.
	_, ok = Listing{Latitude: Some(0), Longitude: Some(0)}.Coordinates()
	assert.True(t, ok)
}

func TestCountLocated(t *testing.T) {
	listings := []Listing{
		{Latitude: Some(25.2), Longitude: Some(55.3)},
		{Latitude: Some(25.2)},
		{},
		{Latitude: Some(0), Longitude: Some(0)},
	}
	assert.Equal(t, 2, CountLocated(listings))
	assert.Equal(t, 0, CountLocated(nil))
}
