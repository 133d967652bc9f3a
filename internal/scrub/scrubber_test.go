package scrub

import (
	"errors"
	"strings"
	"testing"

	"github.com/sentinelops/aws-log-sentinel/internal/logger"
)

// failingDetector always errors, for resilience tests
type failingDetector struct{}

func (d *failingDetector) Name() string { return "failing" }
func (d *failingDetector) Scrub(text string) (string, error) {
	return "", errors.New("detector backend unavailable")
}

// panickingDetector panics, for isolation tests
type panickingDetector struct{}

func (d *panickingDetector) Name() string { return "panicking" }
func (d *panickingDetector) Scrub(text string) (string, error) {
	panic("boom")
}

// TestScrubberConstruction tests detector selection by name
func TestScrubberConstruction(t *testing.T) {
	log := logger.Nop()

	t.Run("AllEnablesEveryBuiltin", func(t *testing.T) {
		s, err := New([]string{"all"}, log)
		if err != nil {
			t.Fatalf("Failed to create scrubber: %v", err)
		}
		names := s.Detectors()
		if len(names) != 4 {
			t.Errorf("Expected 4 built-in detectors, got %d: %v", len(names), names)
		}
	})

	t.Run("SelectByName", func(t *testing.T) {
		s, err := New([]string{"email", "ipv4"}, log)
		if err != nil {
			t.Fatalf("Failed to create scrubber: %v", err)
		}
		names := s.Detectors()
		if len(names) != 2 || names[0] != "email" || names[1] != "ipv4" {
			t.Errorf("Unexpected detector set: %v", names)
		}
	})

	t.Run("UnknownNameErrors", func(t *testing.T) {
		_, err := New([]string{"email", "no_such_detector"}, log)
		if err == nil {
			t.Fatal("Expected error for unknown detector name")
		}
	})
}

// TestBuiltinDetectors tests the free-text PII detectors
func TestBuiltinDetectors(t *testing.T) {
	s, err := New([]string{"all"}, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create scrubber: %v", err)
	}

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"Email", "contact admin@example.com now", "contact {{EMAIL}} now"},
		{"PhoneDashes", "call 555-867-5309 today", "call {{PHONE}} today"},
		{"PhoneParens", "fax (212) 555-0187", "fax {{PHONE}}"},
		{"PhoneCountryCode", "dial +1 415-555-2671", "dial {{PHONE}}"},
		{"URL", "see https://internal.example.com/runbook?id=42 for details", "see {{URL}} for details"},
		{"IPv4", "peer 192.168.1.100 timed out", "peer {{IP_ADDRESS}} timed out"},
		{"CleanTextUnchanged", "deployment finished in 42s", "deployment finished in 42s"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Clean(tc.input)
			if got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}

	t.Run("PhoneIgnoresCardDigitRuns", func(t *testing.T) {
		// A 16-digit card number must be left for the pattern layer.
		input := "card 4111 1111 1111 1111 declined"
		got := s.Clean(input)
		if strings.Contains(got, "{{PHONE}}") {
			t.Errorf("Phone detector consumed card digits: %q", got)
		}
	})

	t.Run("PhoneIgnoresSSN", func(t *testing.T) {
		input := "ssn 123-45-6789 on file"
		got := s.Clean(input)
		if strings.Contains(got, "{{PHONE}}") {
			t.Errorf("Phone detector consumed SSN: %q", got)
		}
	})
}

// TestDetectorRegistration tests add/remove semantics
func TestDetectorRegistration(t *testing.T) {
	log := logger.Nop()

	t.Run("AddAppends", func(t *testing.T) {
		s, _ := New([]string{"email"}, log)
		s.AddDetector(NewRegexDetector("order_id", `\bORD-\d{6}\b`, "{{ORDER_ID}}"))

		names := s.Detectors()
		if len(names) != 2 || names[1] != "order_id" {
			t.Errorf("Unexpected detector order: %v", names)
		}
		got := s.Clean("see ORD-123456")
		if got != "see {{ORDER_ID}}" {
			t.Errorf("Added detector did not run: %q", got)
		}
	})

	t.Run("AddSameNameReplacesInPlace", func(t *testing.T) {
		s, _ := New([]string{"email", "ipv4"}, log)
		s.AddDetector(NewRegexDetector("email", `\bnobody@nowhere\b`, "{{EMAIL}}"))

		names := s.Detectors()
		if len(names) != 2 || names[0] != "email" {
			t.Errorf("Replacement changed order or count: %v", names)
		}
		// The replacement pattern no longer matches real addresses.
		got := s.Clean("mail admin@example.com")
		if got != "mail admin@example.com" {
			t.Errorf("Old detector still active: %q", got)
		}
	})

	t.Run("RemoveReportsPresence", func(t *testing.T) {
		s, _ := New([]string{"email", "phone", "ipv4"}, log)
		if !s.RemoveDetector("phone") {
			t.Error("Expected removal of present detector to report true")
		}
		if s.RemoveDetector("phone") {
			t.Error("Expected second removal to report false")
		}

		names := s.Detectors()
		if len(names) != 2 || names[0] != "email" || names[1] != "ipv4" {
			t.Errorf("Unexpected detector set after removal: %v", names)
		}
	})

	t.Run("RemoveKeepsIndexConsistent", func(t *testing.T) {
		s, _ := New([]string{"email", "phone", "url", "ipv4"}, log)
		s.RemoveDetector("email")

		// Detectors behind the removed slot must still be addressable.
		if !s.RemoveDetector("ipv4") {
			t.Error("Failed to remove detector after index shift")
		}
		names := s.Detectors()
		if len(names) != 2 || names[0] != "phone" || names[1] != "url" {
			t.Errorf("Unexpected detector set: %v", names)
		}
	})
}

// TestDetectorFailureIsolation tests that one bad detector cannot abort a
// scrub pass
func TestDetectorFailureIsolation(t *testing.T) {
	log := logger.Nop()

	t.Run("ErroringDetectorSkipped", func(t *testing.T) {
		s, _ := New([]string{"email"}, log)
		s.AddDetector(&failingDetector{})
		s.AddDetector(NewRegexDetector("ticket", `\bTKT-\d+\b`, "{{TICKET}}"))

		got := s.Clean("admin@example.com opened TKT-99")
		if got != "{{EMAIL}} opened {{TICKET}}" {
			t.Errorf("Remaining detectors did not run: %q", got)
		}
	})

	t.Run("PanickingDetectorSkipped", func(t *testing.T) {
		s, _ := New([]string{"email"}, log)
		s.AddDetector(&panickingDetector{})

		got := s.Clean("mail admin@example.com")
		if got != "mail {{EMAIL}}" {
			t.Errorf("Panic aborted the scrub pass: %q", got)
		}
	})
}
