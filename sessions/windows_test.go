package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelleria/sessionwatch/models"
)

// base is safely inside the billing period for billing day 1.
var base = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func makeTotals(prompts int, input, output int) *models.UsageTotals {
	totals := models.NewUsageTotals()
	totals.Prompts = prompts
	totals.Replies = 1
	totals.AddTokens(models.ModelSonnet, models.TokenStat{
		InputTokens:  input,
		OutputTokens: output,
	})
	return totals
}

func makeEvent(ts time.Time, id string, totals *models.UsageTotals) models.Event {
	return models.Event{
		Timestamp:    ts,
		SubSessionID: id,
		Model:        models.ModelSonnet,
		Totals:       totals,
	}
}

func TestPeriodStart(t *testing.T) {
	tests := []struct {
		name       string
		billingDay int
		now        time.Time
		want       time.Time
	}{
		{
			name:       "same month when billing day has passed",
			billingDay: 5,
			now:        time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			want:       time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "previous month when billing day is ahead",
			billingDay: 20,
			now:        time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			want:       time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "billing day today",
			billingDay: 10,
			now:        time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			want:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "january rolls back into december",
			billingDay: 28,
			now:        time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			want:       time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeriodStart(tt.billingDay, tt.now)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestBuild_SingleWindow(t *testing.T) {
	// Scenario: one subsession, events at t=0 and t=3h inside one 5h window.
	totals := makeTotals(3, 140, 70)
	events := []models.Event{
		makeEvent(base, "s1", totals),
		makeEvent(base.Add(3*time.Hour), "s1", totals),
	}

	now := base.Add(4 * time.Hour)
	list := Build(events, 1, models.WindowLength, now)

	require.Len(t, list, 1)
	session := list[0]
	assert.True(t, session.StartTime.Equal(base))
	assert.True(t, session.EndTime.Equal(now), "active window clamps to now")
	assert.True(t, session.IsActive)
	assert.Equal(t, 3, session.Prompts)
	assert.Equal(t, 1, session.SubSessions)
	assert.Equal(t, 140, session.ModelStats[models.ModelSonnet].InputTokens)
	assert.Equal(t, 70, session.ModelStats[models.ModelSonnet].OutputTokens)
}

func TestBuild_SingleWindowClosed(t *testing.T) {
	totals := makeTotals(3, 140, 70)
	events := []models.Event{
		makeEvent(base, "s1", totals),
		makeEvent(base.Add(3*time.Hour), "s1", totals),
	}

	now := base.Add(6 * time.Hour)
	list := Build(events, 1, models.WindowLength, now)

	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)
	assert.True(t, list[0].EndTime.Equal(base.Add(models.WindowLength)))
}

func TestBuild_SplitsAcrossWindows(t *testing.T) {
	// Scenario: two conversations, the second starting an hour after the
	// first window elapsed.
	first := makeTotals(2, 100, 50)
	second := makeTotals(1, 40, 20)
	events := []models.Event{
		makeEvent(base, "s1", first),
		makeEvent(base.Add(6*time.Hour), "s2", second),
	}

	now := base.Add(12 * time.Hour)
	list := Build(events, 1, models.WindowLength, now)

	require.Len(t, list, 2)

	assert.True(t, list[0].StartTime.Equal(base))
	assert.True(t, list[0].EndTime.Equal(base.Add(5*time.Hour)))
	assert.Equal(t, 2, list[0].Prompts)
	assert.Equal(t, 100, list[0].ModelStats[models.ModelSonnet].InputTokens)
	assert.False(t, list[0].IsActive)

	assert.True(t, list[1].StartTime.Equal(base.Add(6*time.Hour)))
	assert.True(t, list[1].EndTime.Equal(base.Add(11*time.Hour)))
	assert.Equal(t, 1, list[1].Prompts)
	assert.Equal(t, 40, list[1].ModelStats[models.ModelSonnet].InputTokens)
	assert.False(t, list[1].IsActive)
}

func TestBuild_ExactBoundary(t *testing.T) {
	// The interval is half-open: one unit before start+length stays in the
	// window, exactly start+length opens the next one.
	tests := []struct {
		name        string
		offset      time.Duration
		wantWindows int
	}{
		{"one nanosecond before the boundary", models.WindowLength - time.Nanosecond, 1},
		{"exactly at the boundary", models.WindowLength, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []models.Event{
				makeEvent(base, "s1", makeTotals(1, 10, 5)),
				makeEvent(base.Add(tt.offset), "s2", makeTotals(1, 20, 10)),
			}

			list := Build(events, 1, models.WindowLength, base.Add(24*time.Hour))
			assert.Len(t, list, tt.wantWindows)
		})
	}
}

func TestBuild_BillingPeriodFilter(t *testing.T) {
	// An event before the billing period start never affects an aggregate
	// or a window boundary.
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	periodStart := PeriodStart(5, now)

	stale := makeTotals(9, 999, 999)
	fresh := makeTotals(1, 10, 5)
	events := []models.Event{
		makeEvent(periodStart.Add(-time.Hour), "old", stale),
		makeEvent(periodStart.Add(time.Hour), "new", fresh),
	}

	list := Build(events, 5, models.WindowLength, now)

	require.Len(t, list, 1)
	assert.True(t, list[0].StartTime.Equal(periodStart.Add(time.Hour)),
		"pre-period event must not open a window")
	assert.Equal(t, 1, list[0].Prompts)
	assert.Equal(t, 1, list[0].SubSessions)
}

func TestBuild_DeduplicatesSubSession(t *testing.T) {
	// Many events referencing one running total count it exactly once.
	totals := makeTotals(5, 500, 250)
	var events []models.Event
	for i := 0; i < 10; i++ {
		events = append(events, makeEvent(base.Add(time.Duration(i)*time.Minute), "s1", totals))
	}

	list := Build(events, 1, models.WindowLength, base.Add(6*time.Hour))

	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Prompts)
	assert.Equal(t, 500, list[0].ModelStats[models.ModelSonnet].InputTokens)
	assert.Equal(t, 1, list[0].SubSessions)
}

func TestBuild_StraddlingSubSessionCountsOnce(t *testing.T) {
	// A subsession whose events straddle a boundary is counted entirely in
	// the window of its first-seen event; the later window still opens but
	// folds nothing for it.
	totals := makeTotals(3, 140, 70)
	events := []models.Event{
		makeEvent(base, "s1", totals),
		makeEvent(base.Add(6*time.Hour), "s1", totals),
	}

	list := Build(events, 1, models.WindowLength, base.Add(12*time.Hour))

	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].Prompts)
	assert.Equal(t, 1, list[0].SubSessions)
	assert.Equal(t, 0, list[1].Prompts)
	assert.Equal(t, 0, list[1].SubSessions)

	total := 0
	for _, s := range list {
		total += s.ModelStats[models.ModelSonnet].InputTokens
	}
	assert.Equal(t, 140, total, "tokens must not double-count across windows")
}

func TestBuild_Invariants(t *testing.T) {
	// Ascending, non-overlapping, span <= windowLength, at most one active
	// and it is the last.
	var events []models.Event
	ids := []string{"a", "b", "c", "d", "e"}
	for i, id := range ids {
		totals := makeTotals(i+1, (i+1)*10, (i+1)*5)
		ts := base.Add(time.Duration(i*7) * time.Hour)
		events = append(events, makeEvent(ts, id, totals))
		events = append(events, makeEvent(ts.Add(30*time.Minute), id, totals))
	}

	now := base.Add(30 * time.Hour)
	list := Build(events, 1, models.WindowLength, now)

	activeCount := 0
	for i, session := range list {
		require.NoError(t, session.Validate())
		assert.LessOrEqual(t, session.EndTime.Sub(session.StartTime), models.WindowLength)
		if i > 0 {
			prev := list[i-1]
			assert.True(t, prev.StartTime.Before(session.StartTime), "sessions must ascend")
			assert.False(t, session.StartTime.Before(prev.EndTime), "sessions must not overlap")
		}
		if session.IsActive {
			activeCount++
			assert.Equal(t, len(list)-1, i, "only the last session may be active")
		}
	}
	assert.LessOrEqual(t, activeCount, 1)
}

func TestBuild_Idempotent(t *testing.T) {
	totals1 := makeTotals(2, 100, 50)
	totals2 := makeTotals(4, 200, 100)
	events := []models.Event{
		makeEvent(base, "s1", totals1),
		makeEvent(base.Add(2*time.Hour), "s2", totals2),
		makeEvent(base.Add(8*time.Hour), "s2", totals2),
	}

	now := base.Add(9 * time.Hour)
	first := Build(events, 1, models.WindowLength, now)
	second := Build(events, 1, models.WindowLength, now)

	assert.Equal(t, first, second, "identical inputs must rebuild identical session lists")
}

func TestBuild_NoEvents(t *testing.T) {
	list := Build(nil, 1, models.WindowLength, base)
	assert.Empty(t, list)
}

func TestBuild_AllEventsPrePeriod(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	events := []models.Event{
		makeEvent(now.AddDate(0, -2, 0), "s1", makeTotals(1, 10, 5)),
	}

	list := Build(events, 1, models.WindowLength, now)
	assert.Empty(t, list)
}
