// Package job launches one conversion process at a time and relays its
// output line-by-line to caller-supplied sinks.
package job

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Spec describes a single conversion job. Input and OutputDir are optional
// on the argument vector; the script can also read them from the CW_*
// environment variables set on the child.
type Spec struct {
	Interpreter string
	Script      string
	WorkDir     string
	Input       string
	OutputDir   string
}

// Sink receives one line of process output, without the trailing newline.
// Sinks are invoked from reader goroutines as soon as a line is available;
// callers that touch UI state must marshal onto their own loop.
type Sink func(line string)

// Result reports how a run ended. When Started is false the process never
// ran and ExitCode holds the -1 sentinel.
type Result struct {
	Started  bool
	ExitCode int
}

// Runner executes conversion jobs. It is stateless; every call is an
// independent invocation.
type Runner struct{}

func NewRunner() *Runner { return &Runner{} }

// Run launches the interpreter with the script and paths as arguments,
// streams stdout and stderr to the sinks, and blocks until the process
// exits. Every line of each stream is delivered exactly once, in emission
// order, before Run returns. A launched job is never cancelled or timed
// out; conversions are short-lived batch work.
func (Runner) Run(ctx context.Context, spec Spec, onStdout, onStderr Sink) Result {
	if onStdout == nil {
		onStdout = func(string) {}
	}
	if onStderr == nil {
		onStderr = func(string) {}
	}

	args := []string{spec.Script}
	if spec.Input != "" {
		args = append(args, spec.Input)
	}
	if spec.OutputDir != "" {
		args = append(args, spec.OutputDir)
	}

	cmd := exec.CommandContext(ctx, spec.Interpreter, args...)
	cmd.Dir = spec.WorkDir
	cmd.Env = append(os.Environ(),
		"CW_WORKDIR="+spec.WorkDir,
		"CW_INPUT="+spec.Input,
		"CW_OUTPUT_DIR="+spec.OutputDir,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		onStderr(fmt.Sprintf("could not open stdout pipe: %v", err))
		return Result{Started: false, ExitCode: -1}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		onStderr(fmt.Sprintf("could not open stderr pipe: %v", err))
		return Result{Started: false, ExitCode: -1}
	}

	if err := cmd.Start(); err != nil {
		onStderr(fmt.Sprintf("could not start %s: %v", spec.Interpreter, err))
		return Result{Started: false, ExitCode: -1}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go pumpLines(stdout, onStdout, &wg)
	go pumpLines(stderr, onStderr, &wg)

	// Drain both streams fully before Wait closes the pipes.
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return Result{Started: true, ExitCode: ee.ExitCode()}
		}
		onStderr(fmt.Sprintf("conversion process failed: %v", err))
		return Result{Started: false, ExitCode: -1}
	}
	return Result{Started: true, ExitCode: 0}
}

// pumpLines relays r to the sink one line at a time. ReadString grows its
// buffer as needed, so a line of any length is delivered whole rather than
// aborting the pump mid-stream; abandoning the pipe would leave the child
// blocked on a full pipe and Wait hanging.
func pumpLines(r io.Reader, sink Sink, wg *sync.WaitGroup) {
	defer wg.Done()
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			sink(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			return
		}
	}
}
