// Command scrub sanitizes log text offline, line by line. It reads from
// stdin or the named files and writes sanitized lines to stdout, so it can
// sit in a shell pipeline in front of anything that must not see raw logs:
//
//	aws logs tail /app/prod --follow | scrub
//	scrub -profiles us_global dump.log > dump.clean.log
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sentinelops/aws-log-sentinel/internal/logger"
	"github.com/sentinelops/aws-log-sentinel/internal/redact"
	"github.com/sentinelops/aws-log-sentinel/internal/redact/profiles"
	"github.com/sentinelops/aws-log-sentinel/internal/scrub"
)

var version = "0.1.0"

func main() {
	var (
		profileList  = flag.String("profiles", "us_global", "Comma-separated compliance profiles to load")
		detectorList = flag.String("detectors", "all", "Comma-separated generic detectors to enable")
		quiet        = flag.Bool("quiet", false, "Suppress the summary written to stderr")
		showVersion  = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("scrub %s\n", version)
		os.Exit(0)
	}

	engine, err := buildEngine(splitList(*profileList), splitList(*detectorList))
	if err != nil {
		fmt.Fprintf(os.Stderr, "scrub: %v\n", err)
		os.Exit(1)
	}

	var total, redacted int

	process := func(r io.Reader, name string) error {
		lines, changed, err := sanitize(r, os.Stdout, engine)
		total += lines
		redacted += changed
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	if flag.NArg() == 0 {
		if err := process(os.Stdin, "stdin"); err != nil {
			fmt.Fprintf(os.Stderr, "scrub: %v\n", err)
			os.Exit(1)
		}
	} else {
		for _, path := range flag.Args() {
			f, err := os.Open(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "scrub: %v\n", err)
				os.Exit(1)
			}
			err = process(f, path)
			f.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "scrub: %v\n", err)
				os.Exit(1)
			}
		}
	}

	if !*quiet {
		fmt.Fprintf(os.Stderr, "scrub: %d lines, %d redacted\n", total, redacted)
	}
}

// buildEngine constructs a redaction engine for offline use. Logging goes
// nowhere: stdout belongs to the sanitized output.
func buildEngine(profileNames, detectorNames []string) (*redact.Engine, error) {
	log := logger.Nop()

	scrubber, err := scrub.New(detectorNames, log)
	if err != nil {
		return nil, err
	}

	engine := redact.New(scrubber, log)

	for _, name := range profileNames {
		profile, ok := profiles.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown compliance profile: %s (built-in: %v)", name, profiles.Names())
		}
		engine.LoadProfile(profile)
	}

	return engine, nil
}

// sanitize copies r to w line by line through the engine, returning the
// number of lines seen and the number changed.
func sanitize(r io.Reader, w io.Writer, engine *redact.Engine) (lines, changed int, err error) {
	scanner := bufio.NewScanner(r)
	// Log lines can be long; the default 64 KiB token limit is too small.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := bufio.NewWriter(w)
	defer out.Flush()

	for scanner.Scan() {
		lines++
		clean, wasRedacted := engine.Redact(scanner.Text())
		if wasRedacted {
			changed++
		}
		if _, err := fmt.Fprintln(out, clean); err != nil {
			return lines, changed, err
		}
	}

	return lines, changed, scanner.Err()
}

// splitList splits a comma-separated flag value, dropping empty entries
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
