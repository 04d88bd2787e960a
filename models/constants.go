package models

import "time"

// Session window constants
const (
	// WindowLength is the fixed length of a derived usage session.
	WindowLength = 5 * time.Hour

	// CountdownInterval is the tick rate of the live countdown.
	CountdownInterval = 1 * time.Second
)

// Billing period constants
const (
	MinBillingDay     = 1
	MaxBillingDay     = 28
	DefaultBillingDay = 1
)

// Model identifiers
const (
	ModelOpus   = "claude-3-opus-20240229"
	ModelSonnet = "claude-3-5-sonnet-20241022"
	ModelHaiku  = "claude-3-5-haiku-20241022"
)

// Record type discriminators found in log lines
const (
	RecordTypeUser      = "user"
	RecordTypeAssistant = "assistant"
)

// File patterns
const (
	LogFileExtension = ".jsonl"
	ConfigFileName   = ".sessionwatch.yaml"
)

// Time formats
const (
	DisplayTimeFormat = "2006-01-02 15:04:05"
)
