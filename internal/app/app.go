package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cwpdf/internal/assets"
	"cwpdf/internal/interp"
	"cwpdf/internal/job"
	"cwpdf/internal/state"
	"cwpdf/internal/telemetry"
	"cwpdf/internal/ui"

	"github.com/google/uuid"
)

// App wires the locator, the job runner and the store behind the view's
// Controller interface. One conversion runs at a time; each OnRun spawns a
// worker goroutine and every UI mutation goes through the view, which
// marshals onto its own loop.
type App struct {
	cfg Config

	logger  *telemetry.JSONLogger
	store   Store
	locator Locator
	runner  Runner
	view    ui.View

	sessionID string

	// script resolves the on-disk path of the embedded conversion script.
	script func() (string, error)

	mu   sync.Mutex
	busy bool
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.Debug,
		StyleVariant: cfg.UI.StyleVariant,
		Notice:       assets.Notice(),
	})

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		locator:   interp.NewLocator(),
		runner:    job.NewRunner(),
		view:      view,
		sessionID: uuid.NewString(),
		script:    assets.Materialize,
	}
	view.SetController(a)
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "candidates": a.cfg.Interpreters})
	a.refreshSetup(ctx)
	a.view.SetScreen(ui.ScreenSetup)
	return a.view.Run()
}

func (a *App) Close() {
	_ = a.store.Close()
	_ = a.logger.Close()
}

func (a *App) OnQuit() {
	a.logger.Info("app.quit", nil)
	a.view.Stop()
}

func (a *App) OnBackToSetup() {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.view.SetResult(ui.ResultState{})
	a.view.SetPhase(ui.PhaseIdle)
	a.refreshSetup(context.Background())
	a.view.SetScreen(ui.ScreenSetup)
}

func (a *App) OnRun(inputPath, outputDir string) {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		a.view.FlashStatus("A conversion is already running")
		return
	}
	a.busy = true
	a.mu.Unlock()

	if msg, details := validateRunInputs(inputPath, outputDir); msg != "" {
		a.setIdle()
		a.view.SetSetupError(msg, details)
		return
	}

	a.view.ClearLog()
	a.view.SetResult(ui.ResultState{})
	a.view.SetScreen(ui.ScreenRunning)
	a.view.SetPhase(ui.PhaseProbing)

	go a.convert(inputPath, outputDir)
}

func (a *App) setIdle() {
	a.mu.Lock()
	a.busy = false
	a.mu.Unlock()
}

// validateRunInputs checks only what can be known before launching: the
// input must name an existing file and the output must be non-empty. The
// output directory is created later, so it may not exist yet.
func validateRunInputs(inputPath, outputDir string) (msg, details string) {
	if inputPath == "" {
		return "Choose an input export file", "The input field is empty."
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return "Input file not found", err.Error()
	}
	if info.IsDir() {
		return "Input must be a file", inputPath + " is a directory."
	}
	if outputDir == "" {
		return "Choose an output folder", "The output field is empty."
	}
	return "", ""
}

func (a *App) convert(inputPath, outputDir string) {
	ctx := context.Background()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("run.panic", map[string]any{"panic": fmt.Sprint(rec)})
			a.view.SetPhase(ui.PhaseFailedToLaunch)
			a.view.SetResult(ui.ResultState{
				Visible: true,
				Outcome: ui.OutcomeFault,
				Message: "The conversion hit an internal error. Details are in the log file.",
				Elapsed: time.Since(start),
			})
		}
		a.setIdle()
	}()

	record := state.Run{
		SessionID: a.sessionID,
		InputPath: inputPath,
		OutputDir: outputDir,
		ExitCode:  -1,
		StartTS:   start,
	}

	scriptPath, err := a.script()
	if err != nil {
		a.logger.Error("assets.materialize_failed", map[string]any{"error": err.Error()})
		a.view.AppendLog(ui.StreamShell, "could not stage conversion script: "+err.Error())
		a.finishRun(ctx, record, start, ui.ResultState{
			Visible: true,
			Outcome: ui.OutcomeLaunchFailure,
			Message: "Could not stage the embedded conversion script.",
		}, ui.PhaseFailedToLaunch)
		return
	}

	interpreter, ok := a.locator.Find(ctx, a.cfg.Interpreters, func(line string) {
		a.logger.Warn("interp.probe", map[string]any{"line": line})
		a.view.AppendLog(ui.StreamShell, line)
	})
	if !ok {
		a.logger.Error("interp.none", map[string]any{"candidates": a.cfg.Interpreters})
		a.finishRun(ctx, record, start, ui.ResultState{
			Visible: true,
			Outcome: ui.OutcomeNoInterpreter,
			Message: "No candidate interpreter has the reportlab package installed.\nInstall it with: pip install reportlab",
		}, ui.PhaseNoInterpreter)
		return
	}
	record.Interpreter = interpreter
	a.logger.Info("interp.found", map[string]any{"interpreter": interpreter})
	a.view.AppendLog(ui.StreamShell, "using interpreter "+interpreter)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		a.logger.Error("run.outdir_failed", map[string]any{"dir": outputDir, "error": err.Error()})
		a.view.AppendLog(ui.StreamShell, "could not create output folder: "+err.Error())
		a.finishRun(ctx, record, start, ui.ResultState{
			Visible: true,
			Outcome: ui.OutcomeLaunchFailure,
			Message: "Could not create the output folder.",
		}, ui.PhaseFailedToLaunch)
		return
	}

	a.view.SetPhase(ui.PhaseLaunched)

	// The two sinks run on separate reader goroutines; Summary is not
	// concurrency-safe, so observations are serialized here.
	var summary job.Summary
	var sumMu sync.Mutex
	var streaming sync.Once
	markStreaming := func() {
		streaming.Do(func() { a.view.SetPhase(ui.PhaseStreaming) })
	}

	res := a.runner.Run(ctx, job.Spec{
		Interpreter: interpreter,
		Script:      scriptPath,
		WorkDir:     filepath.Dir(inputPath),
		Input:       inputPath,
		OutputDir:   outputDir,
	}, func(line string) {
		markStreaming()
		sumMu.Lock()
		summary.ObserveStdout(line)
		sumMu.Unlock()
		a.view.AppendLog(ui.StreamStdout, line)
	}, func(line string) {
		markStreaming()
		sumMu.Lock()
		summary.ObserveStderr(line)
		sumMu.Unlock()
		a.view.AppendLog(ui.StreamStderr, line)
	})

	record.Started = res.Started
	record.ExitCode = res.ExitCode
	record.PDFs = summary.PDFs

	if !res.Started {
		a.logger.Error("run.launch_failed", map[string]any{"interpreter": interpreter})
		a.finishRun(ctx, record, start, ui.ResultState{
			Visible: true,
			Outcome: ui.OutcomeLaunchFailure,
			Message: "The interpreter could not be started. See the log pane.",
		}, ui.PhaseFailedToLaunch)
		return
	}

	outcome := ui.OutcomeSuccess
	if res.ExitCode != 0 {
		outcome = ui.OutcomeNonZeroExit
	}
	a.logger.Info("run.finished", map[string]any{
		"exit_code": res.ExitCode,
		"pdfs":      summary.PDFs,
		"skipped":   summary.Skipped,
		"elapsed":   time.Since(start).String(),
	})
	a.finishRun(ctx, record, start, ui.ResultState{
		Visible:     true,
		Outcome:     outcome,
		ExitCode:    res.ExitCode,
		PDFs:        summary.PDFs,
		Skipped:     summary.Skipped,
		ParseErrors: summary.ParseErrors,
	}, ui.PhaseCompleted)
}

func (a *App) finishRun(ctx context.Context, record state.Run, start time.Time, result ui.ResultState, phase ui.Phase) {
	record.Duration = time.Since(start)
	result.Elapsed = record.Duration
	if _, err := a.store.RecordRun(ctx, record); err != nil {
		a.logger.Error("state.record_failed", map[string]any{"error": err.Error()})
	}
	a.view.SetPhase(phase)
	a.view.SetResult(result)
}

func (a *App) refreshSetup(ctx context.Context) {
	setup := ui.SetupState{
		InputPath:  a.cfg.Input,
		OutputDir:  a.cfg.OutputDir,
		Candidates: a.cfg.Interpreters,
	}
	if runs, err := a.store.RecentRuns(ctx, 1); err == nil && len(runs) > 0 {
		setup.LastRun = describeRun(runs[0])
	}
	if totals, err := a.store.Totals(ctx); err == nil && totals.Runs > 0 {
		setup.Totals = fmt.Sprintf("%d runs, %d succeeded, %d PDFs", totals.Runs, totals.Succeeded, totals.PDFs)
	}
	a.view.SetSetup(setup)
}

func describeRun(run state.Run) string {
	when := run.StartTS.Local().Format("2006-01-02 15:04")
	switch {
	case !run.Started:
		return when + " did not start"
	case run.ExitCode == 0:
		return fmt.Sprintf("%s ok, %d PDFs", when, run.PDFs)
	default:
		return fmt.Sprintf("%s exit %d", when, run.ExitCode)
	}
}
