// Package assert implements this module's programmer-precondition policy:
// a violated invariant is not a recoverable error, it is a bug in the
// caller - the same role p4est's P4EST_ASSERT macro plays, an abort
// carrying a diagnostic. Go has no process-abort primitive that fits a
// library, so this package's analogue is a panic carrying the same
// diagnostic text; callers that must survive a broken precondition should
// recover() at a boundary they control, not here.
package assert

import "fmt"

// Invariant panics with msg if cond is false.
func Invariant(cond bool, msg string) {
	if !cond {
		panic("forest: invariant violated: " + msg)
	}
}

// Invariantf panics with a formatted message if cond is false.
func Invariantf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic("forest: invariant violated: " + fmt.Sprintf(format, args...))
	}
}
