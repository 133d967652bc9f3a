package redact

import (
	"regexp"

	"github.com/sentinelops/aws-log-sentinel/internal/scrub"
)

// Pattern is a single redaction rule: a precompiled matcher plus a
// replacement template. Patterns are immutable after construction and the
// compiled regexp is reused across every Redact call.
type Pattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}

// Profile bundles the redaction rules for one compliance or
// data-sensitivity domain. Implementations are stateless: Patterns and
// Detectors must return the same sequences, in the same order, on every
// call.
//
// New regional or industry rules are added by implementing this interface
// in a new file under profiles/, without touching the engine.
type Profile interface {
	// Name is the globally unique key used for load/unload/listing.
	Name() string
	// Description documents what the profile covers. Not used at runtime.
	Description() string
	// Patterns returns the redaction rules in application order. Order
	// matters: later patterns see the output of earlier ones, so
	// overlapping patterns must be ordered most-specific-first.
	Patterns() []Pattern
	// Detectors returns supplemental generic-scrubber hooks registered
	// when the profile is loaded. Most profiles return nil.
	Detectors() []scrub.Detector
}
