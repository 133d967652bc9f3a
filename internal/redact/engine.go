// Package redact sanitizes sensitive data (PII, credentials, secrets) out of
// log text before it is returned to an external consumer such as an AI
// agent. Detection is layered: a generic free-text scrubber runs first,
// then the precompiled patterns of every loaded compliance profile, in load
// order.
//
// Regex-based detection is best-effort defense-in-depth, not a security
// boundary: under-redaction is possible and surfaces only in logs.
package redact

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/logger"
	"github.com/sentinelops/aws-log-sentinel/internal/scrub"
)

// Engine holds the loaded compliance profiles and the shared generic
// scrubber.
//
// Redact and RedactBatch are safe for concurrent use provided no
// LoadProfile/UnloadProfile call is in flight; profile mutation is an
// initialization-time operation and carries no internal locking.
type Engine struct {
	profiles []Profile
	byName   map[string]int
	hooks    map[string][]string // profile name -> supplemental detector names
	scrubber *scrub.Scrubber
	logger   *logger.Logger
}

// New creates an engine with no profiles loaded. Profiles are injected
// explicitly by the caller; there is no shared default instance.
func New(scrubber *scrub.Scrubber, log *logger.Logger) *Engine {
	return &Engine{
		byName:   make(map[string]int),
		hooks:    make(map[string][]string),
		scrubber: scrubber,
		logger:   log,
	}
}

// LoadProfile adds a profile to the engine. A profile with a name already
// present replaces the existing one, keeping its position in the
// application order. Supplemental detectors are registered into the shared
// scrubber and tracked so UnloadProfile can deregister them.
//
// Not safe to call concurrently with Redact.
func (e *Engine) LoadProfile(p Profile) {
	name := p.Name()

	if i, ok := e.byName[name]; ok {
		e.deregisterHooks(name)
		e.profiles[i] = p
	} else {
		e.byName[name] = len(e.profiles)
		e.profiles = append(e.profiles, p)
	}

	for _, d := range p.Detectors() {
		e.scrubber.AddDetector(d)
		e.hooks[name] = append(e.hooks[name], d.Name())
	}

	e.logger.Info("Loaded compliance profile",
		zap.String("profile", name),
		zap.Int("patterns", len(p.Patterns())),
		zap.Int("detectors", len(e.hooks[name])),
	)
}

// UnloadProfile removes the named profile and deregisters any supplemental
// detectors it contributed, reporting whether a removal occurred.
//
// Not safe to call concurrently with Redact.
func (e *Engine) UnloadProfile(name string) bool {
	i, ok := e.byName[name]
	if !ok {
		return false
	}

	e.deregisterHooks(name)
	e.profiles = append(e.profiles[:i], e.profiles[i+1:]...)
	delete(e.byName, name)
	for n, j := range e.byName {
		if j > i {
			e.byName[n] = j - 1
		}
	}

	e.logger.Info("Unloaded compliance profile", zap.String("profile", name))
	return true
}

// deregisterHooks removes the supplemental detectors recorded for a profile
func (e *Engine) deregisterHooks(name string) {
	for _, hook := range e.hooks[name] {
		e.scrubber.RemoveDetector(hook)
	}
	delete(e.hooks, name)
}

// ListProfiles returns the loaded profile names in application order
func (e *Engine) ListProfiles() []string {
	names := make([]string, 0, len(e.profiles))
	for _, p := range e.profiles {
		names = append(names, p.Name())
	}
	return names
}

// Redact sanitizes text, returning the sanitized text and whether any
// change occurred. Empty input is returned unchanged without running any
// detector. Detector and pattern failures are logged and skipped, never
// surfaced to the caller: sanitization always produces some output rather
// than blocking the log pipeline.
func (e *Engine) Redact(text string) (string, bool) {
	if text == "" {
		return text, false
	}

	original := text

	// Layer 1: generic free-text scrubber. On failure, continue with the
	// unmodified text so pattern redaction still runs.
	text = e.applyScrubber(text)

	// Layer 2: profile patterns, in load order then list order.
	for _, p := range e.profiles {
		for _, pattern := range p.Patterns() {
			text = e.applyPattern(pattern, text)
		}
	}

	return text, text != original
}

// RedactBatch sanitizes each text in input order, preserving length and
// order. The returned flag is true if any element changed.
func (e *Engine) RedactBatch(texts []string) ([]string, bool) {
	results := make([]string, 0, len(texts))
	anyRedacted := false

	for _, text := range texts {
		redacted, changed := e.Redact(text)
		results = append(results, redacted)
		if changed {
			anyRedacted = true
		}
	}

	return results, anyRedacted
}

// applyScrubber runs the generic scrubber, falling back to the input text
// if the scrubber itself fails.
func (e *Engine) applyScrubber(text string) (out string) {
	out = text
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Generic scrubber failed, continuing with pattern redaction",
				zap.Any("panic", r),
			)
			out = text
		}
	}()
	out = e.scrubber.Clean(text)
	return out
}

// applyPattern runs a single pattern substitution, skipping the pattern on
// failure so the remaining patterns and profiles still run.
func (e *Engine) applyPattern(p Pattern, text string) (out string) {
	out = text
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Pattern substitution failed, skipping",
				zap.String("pattern", p.Name),
				zap.Error(fmt.Errorf("%v", r)),
			)
			out = text
		}
	}()
	out = p.Pattern.ReplaceAllString(text, p.Replacement)
	return out
}
