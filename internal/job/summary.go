package job

import "regexp"

// The conversion script logs progress through Python's logging module, which
// writes to stderr. These patterns pull the counters the result dialog shows
// out of that stream.
var (
	generatedRe = regexp.MustCompile(`Generated (\d+) PDF file`)
	skippedRe   = regexp.MustCompile(`Skipped valid but empty/fragment JSON`)
	parseErrRe  = regexp.MustCompile(`JSON Parse Error`)
)

// Summary accumulates per-line observations from a single run. Not safe for
// concurrent use; feed it from one goroutine or behind the caller's own
// serialization.
type Summary struct {
	StdoutLines int
	StderrLines int
	PDFs        int
	Skipped     int
	ParseErrors int
}

func (s *Summary) ObserveStdout(line string) {
	s.StdoutLines++
	s.observe(line)
}

func (s *Summary) ObserveStderr(line string) {
	s.StderrLines++
	s.observe(line)
}

func (s *Summary) observe(line string) {
	if m := generatedRe.FindStringSubmatch(line); m != nil {
		s.PDFs = atoiLoose(m[1])
		return
	}
	if skippedRe.MatchString(line) {
		s.Skipped++
		return
	}
	if parseErrRe.MatchString(line) {
		s.ParseErrors++
	}
}

func atoiLoose(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
