package ui

import "time"

// Controller receives user intents from the view. Implementations run the
// actual work on their own goroutines; the view never blocks on them.
type Controller interface {
	OnRun(inputPath, outputDir string)
	OnBackToSetup()
	OnQuit()
}

// View is the terminal front end. All Set* methods are safe to call from any
// goroutine; mutations are marshaled onto the UI loop.
type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(Screen)
	SetSetup(SetupState)
	SetPhase(Phase)
	AppendLog(stream Stream, line string)
	ClearLog()
	SetResult(ResultState)
	SetSetupError(msg, details string)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenSetup Screen = iota
	ScreenRunning
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

// Stream tags a log line with its origin.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
	StreamShell
)

// Phase mirrors the lifecycle of a single conversion run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseProbing
	PhaseLaunched
	PhaseStreaming
	PhaseCompleted
	PhaseFailedToLaunch
	PhaseNoInterpreter
)

func (p Phase) Label() string {
	switch p {
	case PhaseProbing:
		return "Probing interpreters"
	case PhaseLaunched:
		return "Launching conversion"
	case PhaseStreaming:
		return "Converting"
	case PhaseCompleted:
		return "Finished"
	case PhaseFailedToLaunch:
		return "Failed to launch"
	case PhaseNoInterpreter:
		return "No interpreter found"
	default:
		return "Ready"
	}
}

// Terminal reports whether the run has reached a final state.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseFailedToLaunch, PhaseNoInterpreter:
		return true
	}
	return false
}

// SetupState feeds the setup screen: form presets plus history context.
type SetupState struct {
	InputPath  string
	OutputDir  string
	Candidates []string
	LastRun    string
	Totals     string
}

// Outcome classifies how a run ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNonZeroExit
	OutcomeLaunchFailure
	OutcomeNoInterpreter
	OutcomeFault
)

type ResultState struct {
	Visible     bool
	Outcome     Outcome
	ExitCode    int
	PDFs        int
	Skipped     int
	ParseErrors int
	Elapsed     time.Duration
	Message     string
}
