package interp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// probeScript is the one-liner each candidate must run successfully before it
// is trusted with a conversion job. It confirms the reportlab dependency is
// importable and prints the interpreter's own resolved path.
const probeScript = "import reportlab, sys; print(sys.executable)"

// DefaultCandidates is the preference order tried when the config does not
// override it. "py" covers the Windows launcher.
var DefaultCandidates = []string{"python3", "python", "py"}

// ReportFunc receives one human-readable line per probe that found an
// interpreter but judged it unusable. Candidates missing from PATH are
// skipped without a report.
type ReportFunc func(line string)

// executor abstracts process probing so locator tests run without spawning
// real interpreters.
type executor interface {
	LookPath(file string) (string, error)
	Probe(ctx context.Context, name string, args ...string) (stdout, stderr string, exitCode int, err error)
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Probe(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errOut strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	code := 0
	if err != nil {
		code = -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
	}
	return out.String(), errOut.String(), code, err
}

// Locator finds the first interpreter candidate capable of running the
// embedded conversion script.
type Locator struct {
	exec executor
}

func NewLocator() *Locator {
	return &Locator{exec: osExecutor{}}
}

// Find probes candidates in order and returns the resolved path of the first
// one whose dependency check exits 0. The resolved path is the probe's
// trimmed stdout, or the candidate name itself when the probe printed
// nothing. ok is false when every candidate was exhausted; exactly one
// interpreter is selected per call.
func (l *Locator) Find(ctx context.Context, candidates []string, report ReportFunc) (string, bool) {
	for _, cand := range candidates {
		cand = strings.TrimSpace(cand)
		if cand == "" {
			continue
		}
		if _, err := l.exec.LookPath(cand); err != nil {
			// Not installed at all; trying the next candidate is the
			// expected path, not an error worth surfacing.
			continue
		}
		stdout, stderr, code, err := l.exec.Probe(ctx, cand, "-c", probeScript)
		if err != nil || code != 0 {
			if report != nil {
				report(probeFailureLine(cand, code, stderr))
			}
			continue
		}
		if path := strings.TrimSpace(stdout); path != "" {
			return path, true
		}
		return cand, true
	}
	return "", false
}

func probeFailureLine(candidate string, code int, stderr string) string {
	msg := fmt.Sprintf("%s found but not usable (exit %d)", candidate, code)
	if s := strings.TrimSpace(stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	return msg
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
