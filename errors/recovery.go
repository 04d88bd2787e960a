package errors

import (
	"github.com/atelleria/sessionwatch/logging"
)

// SafeCall runs fn and converts a panic into a logged error. Used around
// subscriber callbacks so one misbehaving observer cannot take down the
// publishing loop.
func SafeCall(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogErrorf("recovered panic in %s: %v", op, r)
		}
	}()
	fn()
}
