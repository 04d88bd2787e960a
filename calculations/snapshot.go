package calculations

import (
	"sort"
	"time"

	"github.com/atelleria/sessionwatch/models"
)

// SessionCost estimates the cost of a session from the static pricing table.
// Models are visited in sorted order so the float sum is reproducible across
// passes. The estimate is informational only, never authoritative.
func SessionCost(session models.Session) float64 {
	names := make([]string, 0, len(session.ModelStats))
	for model := range session.ModelStats {
		names = append(names, model)
	}
	sort.Strings(names)

	cost := 0.0
	for _, model := range names {
		cost += models.GetPricing(model).CostFor(session.ModelStats[model])
	}
	return cost
}

// NewSessionView pairs a session with its cost estimate.
func NewSessionView(session models.Session) *models.SessionView {
	return &models.SessionView{
		Session: session,
		CostUSD: SessionCost(session),
	}
}

// DisabledSnapshot is the minimal snapshot published while tracking is off.
// Callers must not run the scan pipeline to produce it.
func DisabledSnapshot() models.LiveSnapshot {
	return models.LiveSnapshot{Enabled: false}
}

// BuildSnapshot derives the live view from a freshly built session list.
// Current is the active session (always the chronologically last one, if
// any); Previous is the most recent closed session. The monthly session
// count is the length of the in-period list, not summed duration.
func BuildSnapshot(list []models.Session, tracking models.TrackingConfig, now, lastScan time.Time) models.LiveSnapshot {
	if !tracking.Enabled {
		return DisabledSnapshot()
	}

	snapshot := models.LiveSnapshot{
		Enabled:         true,
		MonthlySessions: len(list),
		LastScan:        lastScan,
	}

	if len(list) == 0 {
		return snapshot
	}

	last := list[len(list)-1]
	if last.IsActive {
		snapshot.IsActive = true
		snapshot.TimeRemaining = TimeRemaining(last, tracking.WindowLength, now)
		snapshot.Current = NewSessionView(last)
		if len(list) > 1 {
			snapshot.Previous = NewSessionView(list[len(list)-2])
		}
	} else {
		snapshot.Previous = NewSessionView(last)
	}

	return snapshot
}

// TimeRemaining computes how long an active session window has left, floored
// at zero.
func TimeRemaining(session models.Session, windowLength time.Duration, now time.Time) time.Duration {
	remaining := session.StartTime.Add(windowLength).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
