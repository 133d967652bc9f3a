// Package scrub implements the generic PII scrubber applied before profile
// pattern substitution. It recognizes common free-text PII (emails, phone
// numbers, URLs, IP addresses) without per-project configuration and can be
// extended with detectors supplied by compliance profiles.
package scrub

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/logger"
)

// Scrubber applies an ordered set of detectors to text. Detectors are
// registered during setup; Clean is safe for concurrent use against a
// stable detector set.
type Scrubber struct {
	detectors []Detector
	index     map[string]int
	logger    *logger.Logger
}

// New creates a scrubber with the built-in detectors selected by name.
// "all" enables every built-in detector. An unknown name is an error so
// configuration typos surface at startup.
func New(names []string, log *logger.Logger) (*Scrubber, error) {
	s := &Scrubber{
		index:  make(map[string]int),
		logger: log,
	}

	builtins := builtinDetectors()

	for _, name := range names {
		if name == "all" {
			for _, d := range builtins {
				s.AddDetector(d)
			}
			continue
		}

		found := false
		for _, d := range builtins {
			if d.Name() == name {
				s.AddDetector(d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown detector: %s", name)
		}
	}

	log.Info("Generic scrubber initialized",
		zap.Int("detectors", len(s.detectors)),
	)

	return s, nil
}

// Clean runs every registered detector over text in registration order.
// A detector failure is logged and skipped; the remaining detectors still
// run against the last good intermediate text.
func (s *Scrubber) Clean(text string) string {
	for _, d := range s.detectors {
		cleaned, err := s.applyDetector(d, text)
		if err != nil {
			s.logger.Warn("Detector failed, skipping",
				zap.String("detector", d.Name()),
				zap.Error(err),
			)
			continue
		}
		text = cleaned
	}
	return text
}

// applyDetector isolates a single detector call, converting panics into
// errors so one misbehaving hook cannot abort the scrub pass.
func (s *Scrubber) applyDetector(d Detector, text string) (cleaned string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panicked: %v", r)
		}
	}()
	return d.Scrub(text)
}

// AddDetector registers a detector at the end of the chain. A detector with
// the same name replaces the existing one in place.
func (s *Scrubber) AddDetector(d Detector) {
	if i, ok := s.index[d.Name()]; ok {
		s.detectors[i] = d
		return
	}
	s.index[d.Name()] = len(s.detectors)
	s.detectors = append(s.detectors, d)
}

// RemoveDetector deregisters the named detector, reporting whether it was
// present.
func (s *Scrubber) RemoveDetector(name string) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}

	s.detectors = append(s.detectors[:i], s.detectors[i+1:]...)
	delete(s.index, name)
	for n, j := range s.index {
		if j > i {
			s.index[n] = j - 1
		}
	}
	return true
}

// Detectors returns the registered detector names in application order
func (s *Scrubber) Detectors() []string {
	names := make([]string, 0, len(s.detectors))
	for _, d := range s.detectors {
		names = append(names, d.Name())
	}
	return names
}
