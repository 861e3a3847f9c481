package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cwpdf/internal/interp"
	"cwpdf/internal/job"
	"cwpdf/internal/state"
	"cwpdf/internal/telemetry"
	"cwpdf/internal/ui"
)

type fakeView struct {
	mu          sync.Mutex
	phases      []ui.Phase
	logs        []string
	results     []ui.ResultState
	setupErrs   []string
	flashes     []string
	screens     []ui.Screen
	setups      []ui.SetupState
	clearCalls  int
	resultReady chan struct{}
}

func newFakeView() *fakeView {
	return &fakeView{resultReady: make(chan struct{}, 8)}
}

func (f *fakeView) Run() error              { return nil }
func (f *fakeView) Stop()                   {}
func (f *fakeView) SetController(ui.Controller) {}

func (f *fakeView) SetScreen(s ui.Screen) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screens = append(f.screens, s)
}

func (f *fakeView) SetSetup(s ui.SetupState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setups = append(f.setups, s)
}

func (f *fakeView) SetPhase(p ui.Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phases = append(f.phases, p)
}

func (f *fakeView) AppendLog(stream ui.Stream, line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, line)
}

func (f *fakeView) ClearLog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
}

func (f *fakeView) SetResult(r ui.ResultState) {
	f.mu.Lock()
	f.results = append(f.results, r)
	f.mu.Unlock()
	if r.Visible {
		select {
		case f.resultReady <- struct{}{}:
		default:
		}
	}
}

func (f *fakeView) SetSetupError(msg, details string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupErrs = append(f.setupErrs, msg)
}

func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, msg)
}

func (f *fakeView) lastResult(t *testing.T) ui.ResultState {
	t.Helper()
	select {
	case <-f.resultReady:
	case <-time.After(2 * time.Second):
		t.Fatalf("no result dialog within deadline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[len(f.results)-1]
}

type fakeLocator struct {
	path    string
	ok      bool
	reports []string
}

func (f *fakeLocator) Find(ctx context.Context, candidates []string, report interp.ReportFunc) (string, bool) {
	for _, line := range f.reports {
		report(line)
	}
	return f.path, f.ok
}

type fakeRunner struct {
	stdout  []string
	stderr  []string
	result  job.Result
	gate    chan struct{}
	mu      sync.Mutex
	specs   []job.Spec
}

func (f *fakeRunner) Run(ctx context.Context, spec job.Spec, onStdout, onStderr job.Sink) job.Result {
	f.mu.Lock()
	f.specs = append(f.specs, spec)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	for _, l := range f.stdout {
		onStdout(l)
	}
	for _, l := range f.stderr {
		onStderr(l)
	}
	return f.result
}

type fakeStore struct {
	mu   sync.Mutex
	runs []state.Run
}

func (f *fakeStore) RecordRun(ctx context.Context, run state.Run) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return int64(len(f.runs)), nil
}

func (f *fakeStore) RecentRuns(ctx context.Context, limit int) ([]state.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]state.Run(nil), f.runs...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Totals(ctx context.Context) (state.Totals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := state.Totals{Runs: len(f.runs)}
	for _, r := range f.runs {
		if r.Started && r.ExitCode == 0 {
			t.Succeeded++
		}
		t.PDFs += r.PDFs
	}
	return t, nil
}

func (f *fakeStore) Close() error { return nil }

func newTestApp(t *testing.T, view *fakeView, loc Locator, run Runner, store Store) *App {
	t.Helper()
	logger, err := telemetry.NewJSONLogger("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return &App{
		cfg:       DefaultConfig(),
		logger:    logger,
		store:     store,
		locator:   loc,
		runner:    run,
		view:      view,
		sessionID: "test-session",
		script:    func() (string, error) { return filepath.Join(t.TempDir(), "convert.py"), nil },
	}
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(`{"id": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOnRunRejectsEmptyInput(t *testing.T) {
	view := newFakeView()
	a := newTestApp(t, view, &fakeLocator{}, &fakeRunner{}, &fakeStore{})

	a.OnRun("", t.TempDir())

	if len(view.setupErrs) != 1 {
		t.Fatalf("expected a setup error, got %v", view.setupErrs)
	}
	if len(view.screens) != 0 {
		t.Fatalf("validation failure must not switch screens")
	}
	a.mu.Lock()
	busy := a.busy
	a.mu.Unlock()
	if busy {
		t.Fatalf("busy flag must be released after a validation failure")
	}
}

func TestOnRunRejectsMissingInputFile(t *testing.T) {
	view := newFakeView()
	a := newTestApp(t, view, &fakeLocator{}, &fakeRunner{}, &fakeStore{})

	a.OnRun("/nonexistent/export.json", t.TempDir())

	if len(view.setupErrs) != 1 || view.setupErrs[0] != "Input file not found" {
		t.Fatalf("unexpected setup errors: %v", view.setupErrs)
	}
}

func TestConvertHappyPath(t *testing.T) {
	view := newFakeView()
	store := &fakeStore{}
	runner := &fakeRunner{
		stdout: []string{"Wrote ticket_1.pdf"},
		stderr: []string{
			"INFO - Skipped valid but empty/fragment JSON object.",
			"INFO - DONE. Processed 10 lines. Generated 4 PDF files.",
		},
		result: job.Result{Started: true, ExitCode: 0},
	}
	a := newTestApp(t, view, &fakeLocator{path: "/usr/bin/python3", ok: true}, runner, store)

	input := writeInput(t)
	out := filepath.Join(t.TempDir(), "pdfs")
	a.OnRun(input, out)

	res := view.lastResult(t)
	if res.Outcome != ui.OutcomeSuccess {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if res.PDFs != 4 || res.Skipped != 1 {
		t.Fatalf("summary = %+v", res)
	}

	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output folder must be created before launch: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.runs) != 1 {
		t.Fatalf("expected one recorded run")
	}
	rec := store.runs[0]
	if !rec.Started || rec.ExitCode != 0 || rec.PDFs != 4 || rec.Interpreter != "/usr/bin/python3" {
		t.Fatalf("recorded run = %+v", rec)
	}

	runner.mu.Lock()
	spec := runner.specs[0]
	runner.mu.Unlock()
	if spec.Input != input || spec.OutputDir != out {
		t.Fatalf("job spec = %+v", spec)
	}
	if spec.WorkDir != filepath.Dir(input) {
		t.Fatalf("job must run in the input file's directory, got %q", spec.WorkDir)
	}

	view.mu.Lock()
	phases := append([]ui.Phase(nil), view.phases...)
	view.mu.Unlock()
	want := []ui.Phase{ui.PhaseProbing, ui.PhaseLaunched, ui.PhaseStreaming, ui.PhaseCompleted}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v", phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase[%d] = %v, want %v", i, phases[i], want[i])
		}
	}
}

func TestConvertNonZeroExit(t *testing.T) {
	view := newFakeView()
	runner := &fakeRunner{
		stderr: []string{"boom"},
		result: job.Result{Started: true, ExitCode: 2},
	}
	a := newTestApp(t, view, &fakeLocator{path: "python3", ok: true}, runner, &fakeStore{})

	a.OnRun(writeInput(t), filepath.Join(t.TempDir(), "out"))

	res := view.lastResult(t)
	if res.Outcome != ui.OutcomeNonZeroExit || res.ExitCode != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestConvertNoInterpreter(t *testing.T) {
	view := newFakeView()
	store := &fakeStore{}
	loc := &fakeLocator{ok: false, reports: []string{"python3: probe failed (exit 1): No module named reportlab"}}
	a := newTestApp(t, view, loc, &fakeRunner{}, store)

	a.OnRun(writeInput(t), filepath.Join(t.TempDir(), "out"))

	res := view.lastResult(t)
	if res.Outcome != ui.OutcomeNoInterpreter {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if !strings.Contains(res.Message, "reportlab") {
		t.Fatalf("message should mention the missing dependency: %q", res.Message)
	}

	view.mu.Lock()
	logged := strings.Join(view.logs, "\n")
	view.mu.Unlock()
	if !strings.Contains(logged, "probe failed") {
		t.Fatalf("probe reports must reach the log pane: %q", logged)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.runs) != 1 || store.runs[0].Started || store.runs[0].ExitCode != -1 {
		t.Fatalf("recorded run = %+v", store.runs)
	}
}

func TestConvertLaunchFailure(t *testing.T) {
	view := newFakeView()
	runner := &fakeRunner{result: job.Result{Started: false, ExitCode: -1}}
	a := newTestApp(t, view, &fakeLocator{path: "python3", ok: true}, runner, &fakeStore{})

	a.OnRun(writeInput(t), filepath.Join(t.TempDir(), "out"))

	res := view.lastResult(t)
	if res.Outcome != ui.OutcomeLaunchFailure {
		t.Fatalf("outcome = %v", res.Outcome)
	}
}

func TestSecondRunWhileBusyIsRejected(t *testing.T) {
	view := newFakeView()
	gate := make(chan struct{})
	runner := &fakeRunner{gate: gate, result: job.Result{Started: true, ExitCode: 0}}
	a := newTestApp(t, view, &fakeLocator{path: "python3", ok: true}, runner, &fakeStore{})

	input := writeInput(t)
	out := filepath.Join(t.TempDir(), "out")
	a.OnRun(input, out)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		runner.mu.Lock()
		started := len(runner.specs) > 0
		runner.mu.Unlock()
		if started {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	a.OnRun(input, out)
	view.mu.Lock()
	flashes := len(view.flashes)
	view.mu.Unlock()
	if flashes != 1 {
		t.Fatalf("expected the second run to be rejected with a flash, got %d", flashes)
	}

	close(gate)
	view.lastResult(t)
}

func TestScriptStagingFailure(t *testing.T) {
	view := newFakeView()
	a := newTestApp(t, view, &fakeLocator{path: "python3", ok: true}, &fakeRunner{}, &fakeStore{})
	a.script = func() (string, error) { return "", os.ErrPermission }

	a.OnRun(writeInput(t), filepath.Join(t.TempDir(), "out"))

	res := view.lastResult(t)
	if res.Outcome != ui.OutcomeLaunchFailure {
		t.Fatalf("outcome = %v", res.Outcome)
	}
}

func TestDescribeRun(t *testing.T) {
	ts := time.Date(2026, 8, 27, 14, 30, 0, 0, time.Local)
	cases := []struct {
		run  state.Run
		want string
	}{
		{state.Run{StartTS: ts, Started: true, ExitCode: 0, PDFs: 7}, "2026-08-27 14:30 ok, 7 PDFs"},
		{state.Run{StartTS: ts, Started: true, ExitCode: 3}, "2026-08-27 14:30 exit 3"},
		{state.Run{StartTS: ts, Started: false, ExitCode: -1}, "2026-08-27 14:30 did not start"},
	}
	for _, c := range cases {
		if got := describeRun(c.run); got != c.want {
			t.Fatalf("describeRun(%+v) = %q, want %q", c.run, got, c.want)
		}
	}
}
