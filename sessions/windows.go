package sessions

import (
	"time"

	"github.com/atelleria/sessionwatch/models"
)

// PeriodStart returns the start of the current billing period: the most
// recent occurrence of billingDay at midnight, local to now. If the naive
// same-month date lies in the future the period started last month.
// billingDay must already be validated to 1..28, so the date always exists.
func PeriodStart(billingDay int, now time.Time) time.Time {
	start := time.Date(now.Year(), now.Month(), billingDay, 0, 0, 0, 0, now.Location())
	if start.After(now) {
		start = start.AddDate(0, -1, 0)
	}
	return start
}

// Build derives the ordered session list from a timestamp-ascending event
// stream. It is a pure function: identical (events, billingDay, windowLength,
// now) yield identical output, because the whole list is discarded and
// rebuilt on every pass.
//
// Windows are fixed-length from the first in-period event, not gap-based.
// The interval is half-open: an event at exactly windowStart+windowLength
// opens the next window.
func Build(events []models.Event, billingDay int, windowLength time.Duration, now time.Time) []models.Session {
	periodStart := PeriodStart(billingDay, now)

	var result []models.Session
	var current *models.Session

	// The counted set spans the whole pass: a subsession's running total is
	// folded exactly once, into the window containing its first-seen event.
	// Events of the same subsession landing in a later window are skipped,
	// so overlapping logs and repeated ids never double-count.
	counted := make(map[string]bool)

	for _, event := range events {
		if event.Timestamp.Before(periodStart) {
			continue // Pre-period events never affect aggregates or boundaries
		}

		if current == nil || event.Timestamp.Sub(current.StartTime) >= windowLength {
			if current != nil {
				result = append(result, *current)
			}
			current = &models.Session{
				StartTime:  event.Timestamp,
				EndTime:    event.Timestamp.Add(windowLength),
				ModelStats: make(map[string]models.TokenStat),
			}
		}

		if !counted[event.SubSessionID] {
			current.FoldTotals(event.Totals)
			counted[event.SubSessionID] = true
		}
	}

	if current != nil {
		if now.Sub(current.StartTime) < windowLength {
			current.IsActive = true
			if now.Before(current.EndTime) {
				current.EndTime = now
			}
		}
		result = append(result, *current)
	}

	return result
}
