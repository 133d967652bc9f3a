// Package profiles contains the built-in compliance profiles. Each profile
// is a static bundle of precompiled redaction patterns for one compliance
// domain; regional or industry-specific profiles (EU IBANs, Indian PAN,
// HIPAA identifiers) are added here as new Profile implementations.
package profiles

import (
	"regexp"

	"github.com/sentinelops/aws-log-sentinel/internal/redact"
	"github.com/sentinelops/aws-log-sentinel/internal/scrub"
)

// SSN digit classes. Go's RE2 engine has no negative lookahead, so the
// reserved ranges (area 000/666/9xx, group 00, serial 0000) are excluded
// with explicit alternations instead.
const (
	ssnArea   = `(?:0(?:0[1-9]|[1-9]\d)|[1-57-8]\d{2}|6(?:[0-57-9]\d|6[0-57-9]))`
	ssnGroup  = `(?:0[1-9]|[1-9]\d)`
	ssnSerial = `(?:000[1-9]|00[1-9]\d|0[1-9]\d{2}|[1-9]\d{3})`
)

// USGlobal is the default compliance profile, covering US and globally
// common sensitive data: payment cards (PCI-DSS), US SSNs, cloud and
// vendor credentials, JWTs, key=value secrets, and private key blocks.
type USGlobal struct {
	patterns []redact.Pattern
}

// NewUSGlobal constructs the default profile. Pattern compilation failures
// panic at construction time; they are programmer errors, never runtime
// conditions.
func NewUSGlobal() *USGlobal {
	return &USGlobal{patterns: []redact.Pattern{
		{
			Name: "credit_card",
			Pattern: regexp.MustCompile(`\b(?:` +
				`4[0-9]{12}(?:[0-9]{3})?|` + // Visa
				`5[1-5][0-9]{14}|` + // Mastercard
				`3[47][0-9]{13}|` + // Amex
				`6(?:011|5[0-9]{2})[0-9]{12}|` + // Discover
				`(?:2131|1800|35\d{3})\d{11}` + // JCB
				`)\b`),
			Replacement: "{{CREDIT_CARD}}",
			Description: "Credit card number (PCI-DSS)",
		},
		{
			Name:        "credit_card_formatted",
			Pattern:     regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
			Replacement: "{{CREDIT_CARD}}",
			Description: "Formatted credit card (with spaces/dashes)",
		},
		{
			Name:        "ssn",
			Pattern:     regexp.MustCompile(`\b` + ssnArea + `-` + ssnGroup + `-` + ssnSerial + `\b`),
			Replacement: "{{SSN}}",
			Description: "US Social Security Number",
		},
		{
			Name:        "ssn_no_dash",
			Pattern:     regexp.MustCompile(`\b` + ssnArea + ssnGroup + ssnSerial + `\b`),
			Replacement: "{{SSN}}",
			Description: "US SSN without dashes",
		},
		{
			Name:        "private_key",
			Pattern:     regexp.MustCompile(`-----BEGIN\s+(?:(?:RSA|EC|OPENSSH)\s+)?PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:(?:RSA|EC|OPENSSH)\s+)?PRIVATE\s+KEY-----`),
			Replacement: "{{PRIVATE_KEY_REDACTED}}",
			Description: "Private key block",
		},
		{
			Name:        "aws_access_key",
			Pattern:     regexp.MustCompile(`\b(?:AKIA|ABIA|ACCA|ASIA)[A-Z0-9]{16}\b`),
			Replacement: "{{AWS_ACCESS_KEY}}",
			Description: "AWS Access Key ID",
		},
		{
			Name:        "bearer_token",
			Pattern:     regexp.MustCompile(`Bearer\s+eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
			Replacement: "Bearer {{JWT_TOKEN}}",
			Description: "JWT Bearer token",
		},
		{
			Name:        "jwt_token",
			Pattern:     regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\b`),
			Replacement: "{{JWT_TOKEN}}",
			Description: "JWT token",
		},
		{
			Name:        "aws_secret_key",
			Pattern:     regexp.MustCompile(`\b[A-Za-z0-9/+=]{40}\b`),
			Replacement: "{{AWS_SECRET_KEY}}",
			Description: "Potential AWS Secret Access Key",
		},
		{
			Name:        "github_token",
			Pattern:     regexp.MustCompile(`\bgh[opsur]_[A-Za-z0-9]{36}\b`),
			Replacement: "{{GITHUB_TOKEN}}",
			Description: "GitHub personal access token",
		},
		{
			Name:        "slack_token",
			Pattern:     regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]+\b`),
			Replacement: "{{SLACK_TOKEN}}",
			Description: "Slack API token",
		},
		{
			Name:        "api_key_value",
			Pattern:     regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret|secret[_-]?key|access[_-]?token|auth[_-]?token)\s*[=:]\s*["']?([A-Za-z0-9_\-+=/.]{16,})["']?`),
			Replacement: "${1}={{REDACTED_KEY}}",
			Description: "API key in key=value format",
		},
		{
			Name:        "password",
			Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*["']?([^\s"']{4,})["']?`),
			Replacement: "${1}={{REDACTED_PASSWORD}}",
			Description: "Password in logs",
		},
	}}
}

// Name returns the profile key
func (p *USGlobal) Name() string { return "us_global" }

// Description documents the profile's coverage
func (p *USGlobal) Description() string {
	return "US and global compliance patterns (PCI-DSS, credentials, common PII)"
}

// Patterns returns the redaction rules in application order. Narrow,
// issuer-prefixed patterns come before generic digit-run patterns so an
// already-substituted span is never re-mangled.
func (p *USGlobal) Patterns() []redact.Pattern { return p.patterns }

// Detectors returns no supplemental hooks; the profile relies on the
// scrubber's built-in detectors.
func (p *USGlobal) Detectors() []scrub.Detector { return nil }

// ByName returns a freshly constructed built-in profile by its key,
// reporting whether the key is known. The hosting process uses this to load
// profiles named in configuration.
func ByName(name string) (redact.Profile, bool) {
	switch name {
	case "us_global":
		return NewUSGlobal(), true
	default:
		return nil, false
	}
}

// Names lists the built-in profile keys
func Names() []string {
	return []string{"us_global"}
}
