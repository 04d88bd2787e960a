package calculations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelleria/sessionwatch/models"
)

var base = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func makeSession(start time.Time, active bool, tokens map[string]models.TokenStat) models.Session {
	end := start.Add(models.WindowLength)
	return models.Session{
		StartTime:   start,
		EndTime:     end,
		Prompts:     1,
		Replies:     1,
		ModelStats:  tokens,
		SubSessions: 1,
		IsActive:    active,
	}
}

func TestSessionCost(t *testing.T) {
	session := makeSession(base, false, map[string]models.TokenStat{
		models.ModelSonnet: {InputTokens: 1_000_000, OutputTokens: 1_000_000},
	})

	// $3 input + $15 output per million tokens.
	assert.InDelta(t, 18.0, SessionCost(session), 1e-9)
}

func TestSessionCost_UnknownModelFallsBack(t *testing.T) {
	known := makeSession(base, false, map[string]models.TokenStat{
		models.ModelSonnet: {InputTokens: 500_000},
	})
	unknown := makeSession(base, false, map[string]models.TokenStat{
		"some-future-model": {InputTokens: 500_000},
	})

	assert.Equal(t, SessionCost(known), SessionCost(unknown))
}

func TestSessionCost_Deterministic(t *testing.T) {
	session := makeSession(base, false, map[string]models.TokenStat{
		models.ModelOpus:   {InputTokens: 123_456, OutputTokens: 7_890},
		models.ModelSonnet: {InputTokens: 987_654, CacheReadTokens: 55_555},
		models.ModelHaiku:  {OutputTokens: 42_000, CacheCreationTokens: 13_131},
	})

	first := SessionCost(session)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, SessionCost(session), "cost must be bit-identical across passes")
	}
}

func TestBuildSnapshot_Disabled(t *testing.T) {
	tracking := models.DefaultTrackingConfig()
	tracking.Enabled = false

	list := []models.Session{makeSession(base, true, nil)}
	snapshot := BuildSnapshot(list, tracking, base, base)

	assert.Equal(t, models.LiveSnapshot{Enabled: false}, snapshot)
}

func TestBuildSnapshot_Empty(t *testing.T) {
	snapshot := BuildSnapshot(nil, models.DefaultTrackingConfig(), base, base)

	assert.True(t, snapshot.Enabled)
	assert.False(t, snapshot.IsActive)
	assert.Equal(t, 0, snapshot.MonthlySessions)
	assert.Nil(t, snapshot.Current)
	assert.Nil(t, snapshot.Previous)
}

func TestBuildSnapshot_ActiveWithPrevious(t *testing.T) {
	closed := makeSession(base, false, map[string]models.TokenStat{
		models.ModelSonnet: {InputTokens: 100},
	})
	active := makeSession(base.Add(6*time.Hour), true, map[string]models.TokenStat{
		models.ModelSonnet: {InputTokens: 200},
	})

	now := base.Add(7 * time.Hour)
	snapshot := BuildSnapshot([]models.Session{closed, active}, models.DefaultTrackingConfig(), now, now)

	assert.True(t, snapshot.IsActive)
	assert.Equal(t, 2, snapshot.MonthlySessions)
	require.NotNil(t, snapshot.Current)
	require.NotNil(t, snapshot.Previous)
	assert.True(t, snapshot.Current.StartTime.Equal(active.StartTime))
	assert.True(t, snapshot.Previous.StartTime.Equal(closed.StartTime))
	assert.Equal(t, 4*time.Hour, snapshot.TimeRemaining)
}

func TestBuildSnapshot_NoActiveSession(t *testing.T) {
	closed := makeSession(base, false, nil)

	now := base.Add(10 * time.Hour)
	snapshot := BuildSnapshot([]models.Session{closed}, models.DefaultTrackingConfig(), now, now)

	assert.False(t, snapshot.IsActive)
	assert.Zero(t, snapshot.TimeRemaining)
	assert.Nil(t, snapshot.Current)
	require.NotNil(t, snapshot.Previous)
	assert.True(t, snapshot.Previous.StartTime.Equal(closed.StartTime))
}

func TestTimeRemaining_FloorsAtZero(t *testing.T) {
	session := makeSession(base, true, nil)

	assert.Equal(t, time.Duration(0),
		TimeRemaining(session, models.WindowLength, base.Add(6*time.Hour)))
	assert.Equal(t, models.WindowLength,
		TimeRemaining(session, models.WindowLength, base))
}
