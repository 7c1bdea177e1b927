package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeUnmarshalAcceptsFormLayouts(t *testing.T) {
	cases := map[string]time.Time{
		`"2024-03-05"`:                time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		`"2024-03-05 10:30"`:          time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		`"2024-03-05T10:30:00Z"`:      time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		`"2024-03-05T10:30:15+02:00"`: time.Date(2024, 3, 5, 8, 30, 15, 0, time.UTC),
	}
	for raw, want := range cases {
		var dt DateTime
		require.NoError(t, json.Unmarshal([]byte(raw), &dt), raw)
		assert.True(t, want.Equal(dt.Time()), "%s parsed as %v", raw, dt.Time())
	}
}

func TestDateTimeEmptyValues(t *testing.T) {
	var dt DateTime
	require.NoError(t, json.Unmarshal([]byte(`""`), &dt))
	assert.True(t, dt.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`null`), &dt))
	assert.True(t, dt.IsZero())

	out, err := json.Marshal(DateTime{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestDateTimeRejectsGarbage(t *testing.T) {
	var dt DateTime
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &dt))
}
