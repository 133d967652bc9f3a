package redact

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/sentinelops/aws-log-sentinel/internal/logger"
	"github.com/sentinelops/aws-log-sentinel/internal/scrub"
)

// staticProfile is a minimal Profile for engine tests
type staticProfile struct {
	name      string
	patterns  []Pattern
	detectors []scrub.Detector
}

func (p *staticProfile) Name() string               { return p.name }
func (p *staticProfile) Description() string        { return "test profile" }
func (p *staticProfile) Patterns() []Pattern        { return p.patterns }
func (p *staticProfile) Detectors() []scrub.Detector { return p.detectors }

func tokenProfile(name, match, replacement string) *staticProfile {
	return &staticProfile{
		name: name,
		patterns: []Pattern{{
			Name:        name + "_rule",
			Pattern:     regexp.MustCompile(match),
			Replacement: replacement,
		}},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	scrubber, err := scrub.New([]string{"all"}, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create scrubber: %v", err)
	}
	return New(scrubber, logger.Nop())
}

// TestProfileLifecycle tests load, unload, and listing semantics
func TestProfileLifecycle(t *testing.T) {
	t.Run("ListReflectsLoadOrder", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(tokenProfile("alpha", `\ba\b`, "{{A}}"))
		e.LoadProfile(tokenProfile("beta", `\bb\b`, "{{B}}"))
		e.LoadProfile(tokenProfile("gamma", `\bc\b`, "{{C}}"))

		got := e.ListProfiles()
		want := []string{"alpha", "beta", "gamma"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ListProfiles() = %v, want %v", got, want)
		}
	})

	t.Run("ReloadKeepsPosition", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(tokenProfile("alpha", `\ba\b`, "{{A}}"))
		e.LoadProfile(tokenProfile("beta", `\bb\b`, "{{B}}"))
		e.LoadProfile(tokenProfile("alpha", `\bx\b`, "{{X}}"))

		got := e.ListProfiles()
		want := []string{"alpha", "beta"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ListProfiles() after reload = %v, want %v", got, want)
		}

		// The replacement's patterns are active, the original's are not.
		out, changed := e.Redact("x marks the spot")
		if !changed || out != "{{X}} marks the spot" {
			t.Errorf("Reloaded profile not active: %q", out)
		}
		if out, changed := e.Redact("a stays"); changed {
			t.Errorf("Replaced profile still active: %q", out)
		}
	})

	t.Run("UnloadRemoves", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(tokenProfile("alpha", `\ba\b`, "{{A}}"))
		e.LoadProfile(tokenProfile("beta", `\bb\b`, "{{B}}"))

		if !e.UnloadProfile("alpha") {
			t.Error("Expected unload of loaded profile to report true")
		}
		got := e.ListProfiles()
		if !reflect.DeepEqual(got, []string{"beta"}) {
			t.Errorf("ListProfiles() after unload = %v", got)
		}
		if _, changed := e.Redact("a stays"); changed {
			t.Error("Unloaded profile still redacting")
		}
	})

	t.Run("UnloadUnknownReportsFalse", func(t *testing.T) {
		e := newTestEngine(t)
		if e.UnloadProfile("nonexistent") {
			t.Error("Expected unload of unknown profile to report false")
		}
	})

	t.Run("UnloadKeepsIndexConsistent", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(tokenProfile("alpha", `\ba\b`, "{{A}}"))
		e.LoadProfile(tokenProfile("beta", `\bb\b`, "{{B}}"))
		e.LoadProfile(tokenProfile("gamma", `\bc\b`, "{{C}}"))

		e.UnloadProfile("alpha")
		if !e.UnloadProfile("gamma") {
			t.Error("Failed to unload profile after index shift")
		}
		got := e.ListProfiles()
		if !reflect.DeepEqual(got, []string{"beta"}) {
			t.Errorf("ListProfiles() = %v", got)
		}
	})
}

// TestSupplementalDetectors tests that profile-contributed detectors follow
// the profile's lifecycle
func TestSupplementalDetectors(t *testing.T) {
	newHookProfile := func() *staticProfile {
		return &staticProfile{
			name: "hooked",
			detectors: []scrub.Detector{
				scrub.NewRegexDetector("employee_id", `\bEMP-\d{5}\b`, "{{EMPLOYEE_ID}}"),
			},
		}
	}

	t.Run("RegisteredOnLoad", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(newHookProfile())

		out, changed := e.Redact("badge EMP-12345 scanned")
		if !changed || out != "badge {{EMPLOYEE_ID}} scanned" {
			t.Errorf("Supplemental detector not active: %q", out)
		}
	})

	t.Run("DeregisteredOnUnload", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(newHookProfile())
		e.UnloadProfile("hooked")

		out, changed := e.Redact("badge EMP-12345 scanned")
		if changed {
			t.Errorf("Supplemental detector survived unload: %q", out)
		}
	})
}

// TestRedact tests single-text sanitization semantics
func TestRedact(t *testing.T) {
	t.Run("EmptyInputUnchanged", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(tokenProfile("alpha", `.*`, "{{ALL}}"))

		out, changed := e.Redact("")
		if out != "" || changed {
			t.Errorf("Redact(\"\") = (%q, %v), want (\"\", false)", out, changed)
		}
	})

	t.Run("CleanTextReportsNoChange", func(t *testing.T) {
		e := newTestEngine(t)
		e.LoadProfile(tokenProfile("alpha", `\bsecret\b`, "{{SECRET}}"))

		input := "deployment finished in 42s"
		out, changed := e.Redact(input)
		if out != input || changed {
			t.Errorf("Redact(%q) = (%q, %v), want unchanged", input, out, changed)
		}
	})

	t.Run("ScrubberRunsBeforeProfiles", func(t *testing.T) {
		e := newTestEngine(t)
		out, changed := e.Redact("mail admin@example.com")
		if !changed || out != "mail {{EMAIL}}" {
			t.Errorf("Generic scrubber did not run: %q", out)
		}
	})

	t.Run("ProfilesApplyInLoadOrder", func(t *testing.T) {
		e := newTestEngine(t)
		// The second profile rewrites the first profile's token, proving it
		// sees the first profile's output.
		e.LoadProfile(tokenProfile("first", `\bsecret\b`, "TOKEN"))
		e.LoadProfile(tokenProfile("second", `\bTOKEN\b`, "{{FINAL}}"))

		out, changed := e.Redact("the secret value")
		if !changed || out != "the {{FINAL}} value" {
			t.Errorf("Profiles out of order: %q", out)
		}
	})

	t.Run("NoProfilesStillScrubs", func(t *testing.T) {
		e := newTestEngine(t)
		out, changed := e.Redact("peer 10.0.0.1 down")
		if !changed || out != "peer {{IP_ADDRESS}} down" {
			t.Errorf("Engine without profiles skipped scrubber: %q", out)
		}
	})
}

// TestPatternFailureIsolation tests that one failing substitution is
// skipped while the remaining patterns and profiles still run
func TestPatternFailureIsolation(t *testing.T) {
	e := newTestEngine(t)

	// The nil matcher panics inside ReplaceAllString; the patterns behind
	// it and the second profile must still apply.
	e.LoadProfile(&staticProfile{
		name: "broken",
		patterns: []Pattern{
			{Name: "nil_matcher", Pattern: nil, Replacement: "{{NEVER}}"},
			{Name: "works", Pattern: regexp.MustCompile(`\bsecret\b`), Replacement: "{{SECRET}}"},
		},
	})
	e.LoadProfile(tokenProfile("second", `\btoken\b`, "{{TOKEN}}"))

	out, changed := e.Redact("a secret and a token")
	if !changed || out != "a {{SECRET}} and a {{TOKEN}}" {
		t.Errorf("Redact() = %q, want %q", out, "a {{SECRET}} and a {{TOKEN}}")
	}
	if strings.Contains(out, "{{NEVER}}") {
		t.Errorf("Failing pattern produced output: %q", out)
	}
}

// TestRedactBatch tests order and length preservation
func TestRedactBatch(t *testing.T) {
	e := newTestEngine(t)
	e.LoadProfile(tokenProfile("alpha", `\bsecret\b`, "{{SECRET}}"))

	t.Run("PreservesOrderAndLength", func(t *testing.T) {
		in := []string{"a secret here", "nothing", "", "another secret"}
		out, changed := e.RedactBatch(in)

		if len(out) != len(in) {
			t.Fatalf("Batch length %d, want %d", len(out), len(in))
		}
		want := []string{"a {{SECRET}} here", "nothing", "", "another {{SECRET}}"}
		if !reflect.DeepEqual(out, want) {
			t.Errorf("RedactBatch() = %v, want %v", out, want)
		}
		if !changed {
			t.Error("Expected changed flag when any element is redacted")
		}
	})

	t.Run("CleanBatchReportsNoChange", func(t *testing.T) {
		out, changed := e.RedactBatch([]string{"ok", "also ok"})
		if changed {
			t.Errorf("Clean batch reported change: %v", out)
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		out, changed := e.RedactBatch(nil)
		if len(out) != 0 || changed {
			t.Errorf("RedactBatch(nil) = (%v, %v)", out, changed)
		}
	})
}

// TestRedactIdempotence tests that sanitized output passes through a second
// pass unchanged
func TestRedactIdempotence(t *testing.T) {
	e := newTestEngine(t)
	e.LoadProfile(tokenProfile("alpha", `\bsecret\b`, "{{SECRET}}"))

	inputs := []string{
		"a secret with admin@example.com from 10.1.2.3",
		"nothing sensitive",
	}

	for _, input := range inputs {
		first, _ := e.Redact(input)
		second, changed := e.Redact(first)
		if changed || second != first {
			t.Errorf("Second pass changed output: %q -> %q", first, second)
		}
	}
}
