package models

import (
	"fmt"
)

// ValidationError represents a validation error with field and message
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Validate validates a TrackingConfig. Out-of-range values are rejected here,
// at the configuration boundary, before they can reach the windowing engine.
func (c TrackingConfig) Validate() error {
	if c.BillingDay < MinBillingDay || c.BillingDay > MaxBillingDay {
		return ValidationError{
			Field:   "BillingDay",
			Message: fmt.Sprintf("billing day must be between %d and %d", MinBillingDay, MaxBillingDay),
		}
	}

	if c.WindowLength <= 0 {
		return ValidationError{Field: "WindowLength", Message: "window length must be positive"}
	}

	return nil
}

// Validate validates a derived Session.
func (s *Session) Validate() error {
	if s.StartTime.IsZero() {
		return ValidationError{Field: "StartTime", Message: "start time cannot be zero"}
	}

	if s.EndTime.Before(s.StartTime) {
		return ValidationError{Field: "EndTime", Message: "end time cannot be before start time"}
	}

	if s.EndTime.Sub(s.StartTime) > WindowLength {
		return ValidationError{Field: "EndTime", Message: "session span exceeds the window length"}
	}

	if s.SubSessions < 0 {
		return ValidationError{Field: "SubSessions", Message: "subsession count cannot be negative"}
	}

	return nil
}
