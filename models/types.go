package models

import (
	"time"
)

// TokenStat holds token counters for a single model.
type TokenStat struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// Add folds another stat into this one.
func (t *TokenStat) Add(other TokenStat) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.CacheCreationTokens += other.CacheCreationTokens
	t.CacheReadTokens += other.CacheReadTokens
}

// Total returns the sum of all token counters.
func (t TokenStat) Total() int {
	return t.InputTokens + t.OutputTokens + t.CacheCreationTokens + t.CacheReadTokens
}

// UsageTotals is the running total for one subsession (one underlying
// conversation). Every Event parsed from that conversation carries a pointer
// to the same UsageTotals, so a window that folds the totals once has counted
// the whole conversation exactly once no matter how many Events reference it.
type UsageTotals struct {
	Prompts     int                  `json:"prompts"`
	Replies     int                  `json:"replies"`
	ModelTokens map[string]TokenStat `json:"model_tokens"`
}

// NewUsageTotals creates an empty running total.
func NewUsageTotals() *UsageTotals {
	return &UsageTotals{ModelTokens: make(map[string]TokenStat)}
}

// AddTokens accumulates token counters for a model.
func (u *UsageTotals) AddTokens(model string, stat TokenStat) {
	if u.ModelTokens == nil {
		u.ModelTokens = make(map[string]TokenStat)
	}
	cur := u.ModelTokens[model]
	cur.Add(stat)
	u.ModelTokens[model] = cur
}

// Event is a single timestamped usage record parsed from a log line.
// Immutable once emitted by the scanner.
type Event struct {
	Timestamp    time.Time    `json:"timestamp"`
	SubSessionID string       `json:"sub_session_id"`
	Model        string       `json:"model"`
	Totals       *UsageTotals `json:"-"`
}

// Session is a derived usage window: at most WindowLength long, rebuilt
// wholesale on every computation pass. It has no persistent identity beyond
// its start time.
type Session struct {
	StartTime   time.Time            `json:"start_time"`
	EndTime     time.Time            `json:"end_time"`
	Prompts     int                  `json:"prompts"`
	Replies     int                  `json:"replies"`
	ModelStats  map[string]TokenStat `json:"model_stats"`
	SubSessions int                  `json:"sub_sessions"`
	IsActive    bool                 `json:"is_active"`
}

// FoldTotals counts a subsession's running totals into the session aggregate.
// Callers must ensure each subsession is folded at most once per session.
func (s *Session) FoldTotals(totals *UsageTotals) {
	if totals == nil {
		return
	}
	if s.ModelStats == nil {
		s.ModelStats = make(map[string]TokenStat)
	}
	s.Prompts += totals.Prompts
	s.Replies += totals.Replies
	for model, stat := range totals.ModelTokens {
		cur := s.ModelStats[model]
		cur.Add(stat)
		s.ModelStats[model] = cur
	}
	s.SubSessions++
}

// TotalTokens returns the sum of all token counters across models.
func (s Session) TotalTokens() int {
	total := 0
	for _, stat := range s.ModelStats {
		total += stat.Total()
	}
	return total
}

// TrackingConfig controls whether and how usage sessions are derived.
type TrackingConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	BillingDay   int           `json:"billing_day" mapstructure:"billing_day"`
	WindowLength time.Duration `json:"window_length" mapstructure:"window_length"`
}

// DefaultTrackingConfig returns the standard tracking configuration.
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		Enabled:      true,
		BillingDay:   DefaultBillingDay,
		WindowLength: WindowLength,
	}
}

// SessionView is a Session enriched with its informational cost estimate.
type SessionView struct {
	Session
	CostUSD float64 `json:"cost_usd"`
}

// LiveSnapshot is the single published summary of current tracking state.
// Replaced as a whole value on every pass; readers never see a partial one.
type LiveSnapshot struct {
	Enabled         bool          `json:"enabled"`
	IsActive        bool          `json:"is_active"`
	TimeRemaining   time.Duration `json:"time_remaining"`
	MonthlySessions int           `json:"monthly_sessions"`
	Current         *SessionView  `json:"current,omitempty"`
	Previous        *SessionView  `json:"previous,omitempty"`
	LastScan        time.Time     `json:"last_scan"`
}

// CountdownState is the cheap pull-side projection of the live countdown.
type CountdownState struct {
	IsActive      bool          `json:"is_active"`
	TimeRemaining time.Duration `json:"time_remaining"`
}
