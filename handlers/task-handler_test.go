package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogTimeRequestDecodesHoursToAdd(t *testing.T) {
	var req logTimeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"hoursToAdd": 2.5}`), &req))

	assert.Equal(t, 2.5, req.HoursToAdd)
	assert.Nil(t, req.Session)
}

func TestLogTimeRequestDecodesSession(t *testing.T) {
	payload := `{
		"hoursToAdd": 1.5,
		"session": {
			"start": "2025-03-12T09:00:00Z",
			"end": "2025-03-12T10:30:00Z",
			"description": "code review"
		}
	}`

	var req logTimeRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	assert.Equal(t, 1.5, req.HoursToAdd)
	require.NotNil(t, req.Session)
	assert.Equal(t, "2025-03-12T09:00:00Z", req.Session.Start)
	assert.Equal(t, "code review", req.Session.Description)
}
