package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionRecord_WithProgress(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(40 * time.Second)

	rec := NewSessionRecord("42", BookTypeEPUB, start, end, "cfi-A", "cfi-B", Progress(10.0), Progress(25.5))

	assert.Equal(t, "42", rec.BookID)
	assert.Equal(t, BookTypeEPUB, rec.BookType)
	assert.Equal(t, int64(40), rec.DurationSeconds)
	assert.Equal(t, "40s", rec.DurationFormatted)
	require.NotNil(t, rec.ProgressDelta)
	assert.InDelta(t, 15.5, *rec.ProgressDelta, 0.0001)
	assert.Equal(t, "cfi-A", rec.StartLocation)
	assert.Equal(t, "cfi-B", rec.EndLocation)
}

func TestNewSessionRecord_DeltaAbsentWithoutBothEndpoints(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := NewSessionRecord("7", BookTypePDF, start, start.Add(time.Minute), "1", "4", nil, Progress(40))

	assert.Nil(t, rec.StartProgress)
	require.NotNil(t, rec.EndProgress)
	assert.Nil(t, rec.ProgressDelta, "delta must be absent, not zero")
}

func TestNewSessionRecord_EndBeforeStartClampsToStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := NewSessionRecord("7", BookTypeCBX, start, start.Add(-time.Hour), "", "", nil, nil)

	assert.Equal(t, rec.StartTime, rec.EndTime)
	assert.Equal(t, int64(0), rec.DurationSeconds)
}

func TestNormalizeProgress(t *testing.T) {
	assert.Nil(t, NormalizeProgress(nil))
	assert.Nil(t, NormalizeProgress(Progress(math.NaN())))
	assert.Equal(t, 100.0, *NormalizeProgress(Progress(140)))
	assert.Equal(t, 0.0, *NormalizeProgress(Progress(-3)))
	assert.Equal(t, 33.3, *NormalizeProgress(Progress(33.333)))
	assert.Equal(t, 66.7, *NormalizeProgress(Progress(66.66)))
}

func TestSessionRecord_JSONOmitsAbsentFields(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := NewSessionRecord("9", BookTypePDF, start, start.Add(90*time.Second), "", "", nil, nil)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "2026-03-01T09:00:00Z", raw["startTime"])
	assert.Equal(t, "1m 30s", raw["durationFormatted"])
	assert.NotContains(t, raw, "startProgress")
	assert.NotContains(t, raw, "progressDelta")
	assert.NotContains(t, raw, "endLocation")
}
