package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalDistinguishesAbsentNullValue(t *testing.T) {
	var req UpdateOperationRequest
	payload := `{"destination":"crusher","mining_front":null}`
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	// Absent.
	assert.False(t, req.ActivityID.Set)
	assert.Nil(t, req.ActivityID.Value)

	// Explicit null.
	assert.True(t, req.MiningFront.Set)
	assert.Nil(t, req.MiningFront.Value)

	// Value.
	assert.True(t, req.Destination.Set)
	require.NotNil(t, req.Destination.Value)
	assert.Equal(t, "crusher", *req.Destination.Value)
}

func TestOptionalNumeric(t *testing.T) {
	var req UpdateOperationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"distance":3.5}`), &req))
	require.True(t, req.Distance.Set)
	require.NotNil(t, req.Distance.Value)
	assert.Equal(t, 3.5, *req.Distance.Value)
}

func TestOperationDurationClamped(t *testing.T) {
	op := Operation{StartTime: mustParse(t, "2025-03-10T10:00:00Z")}
	end := mustParse(t, "2025-03-10T09:00:00Z")
	op.EndTime = &end
	assert.Zero(t, op.Duration(end))

	open := Operation{StartTime: mustParse(t, "2025-03-10T10:00:00Z")}
	now := mustParse(t, "2025-03-10T10:30:00Z")
	assert.Equal(t, "30m0s", open.Duration(now).String())
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}
