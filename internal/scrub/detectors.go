package scrub

import "regexp"

// Detector recognizes one category of free-text PII and replaces each
// occurrence with a bracketed tag. Implementations must be safe for
// concurrent use once constructed.
type Detector interface {
	Name() string
	Scrub(text string) (string, error)
}

// RegexDetector is a Detector backed by a precompiled regular expression.
type RegexDetector struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewRegexDetector compiles pattern and returns a detector replacing every
// match with replacement. An invalid pattern panics: detector definitions
// are programmer-supplied and must fail at construction time.
func NewRegexDetector(name, pattern, replacement string) *RegexDetector {
	return &RegexDetector{
		name:        name,
		pattern:     regexp.MustCompile(pattern),
		replacement: replacement,
	}
}

// Name returns the detector identifier
func (d *RegexDetector) Name() string { return d.name }

// Scrub replaces every match with the detector's tag
func (d *RegexDetector) Scrub(text string) (string, error) {
	return d.pattern.ReplaceAllString(text, d.replacement), nil
}

// builtinDetectors returns the standard free-text PII detectors in
// application order. Phone requires a [2-9] exchange lead so digit runs
// inside card numbers and SSNs are left for the profile patterns.
func builtinDetectors() []Detector {
	return []Detector{
		NewRegexDetector(
			"email",
			`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
			"{{EMAIL}}",
		),
		NewRegexDetector(
			"phone",
			`\b(?:\+?1[-.\s])?\(?[2-9]\d{2}\)?[-.\s]\d{3}[-.\s]\d{4}\b`,
			"{{PHONE}}",
		),
		NewRegexDetector(
			"url",
			`\bhttps?://[^\s<>"']+`,
			"{{URL}}",
		),
		NewRegexDetector(
			"ipv4",
			`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`,
			"{{IP_ADDRESS}}",
		),
	}
}
