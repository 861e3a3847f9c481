package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests drive /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "job.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunStreamsLinesInOrder(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nfor i in 1 2 3 4 5; do echo \"out $i\"; done\necho \"oops\" >&2\n")

	var stdout, stderr []string
	res := NewRunner().Run(context.Background(), Spec{
		Interpreter: "/bin/sh",
		Script:      script,
		WorkDir:     filepath.Dir(script),
	}, func(l string) { stdout = append(stdout, l) }, func(l string) { stderr = append(stderr, l) })

	if !res.Started || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := []string{"out 1", "out 2", "out 3", "out 4", "out 5"}
	if len(stdout) != len(want) {
		t.Fatalf("expected %d stdout lines, got %d: %#v", len(want), len(stdout), stdout)
	}
	for i, w := range want {
		if stdout[i] != w {
			t.Fatalf("stdout[%d] = %q, want %q", i, stdout[i], w)
		}
	}
	if len(stderr) != 1 || stderr[0] != "oops" {
		t.Fatalf("unexpected stderr: %#v", stderr)
	}
}

func TestRunReportsNonZeroExit(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nexit 3\n")

	res := NewRunner().Run(context.Background(), Spec{
		Interpreter: "/bin/sh",
		Script:      script,
		WorkDir:     filepath.Dir(script),
	}, nil, nil)

	if !res.Started {
		t.Fatalf("process ran, Started must be true")
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
}

func TestRunMissingInterpreter(t *testing.T) {
	var stderr []string
	res := NewRunner().Run(context.Background(), Spec{
		Interpreter: "/nonexistent/interpreter",
		Script:      "whatever.py",
	}, func(string) { t.Fatal("stdout sink must stay silent") }, func(l string) { stderr = append(stderr, l) })

	if res.Started {
		t.Fatalf("expected Started=false")
	}
	if res.ExitCode != -1 {
		t.Fatalf("expected -1 sentinel, got %d", res.ExitCode)
	}
	if len(stderr) == 0 || !strings.Contains(stderr[0], "/nonexistent/interpreter") {
		t.Fatalf("error sink should name the attempted executable: %#v", stderr)
	}
}

func TestRunPassesArgsAndEnv(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho \"argv:$1:$2\"\necho \"env:$CW_INPUT:$CW_OUTPUT_DIR:$CW_WORKDIR\"\n")
	work := filepath.Dir(script)

	var stdout []string
	res := NewRunner().Run(context.Background(), Spec{
		Interpreter: "/bin/sh",
		Script:      script,
		WorkDir:     work,
		Input:       "/data/export.json",
		OutputDir:   "/data/out",
	}, func(l string) { stdout = append(stdout, l) }, nil)

	if !res.Started || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(stdout) != 2 {
		t.Fatalf("expected 2 lines, got %#v", stdout)
	}
	if stdout[0] != "argv:/data/export.json:/data/out" {
		t.Fatalf("argument vector wrong: %q", stdout[0])
	}
	if stdout[1] != fmt.Sprintf("env:/data/export.json:/data/out:%s", work) {
		t.Fatalf("environment wrong: %q", stdout[1])
	}
}

func TestRunOmitsEmptyPathArgs(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho \"argc:$#\"\n")

	var stdout []string
	NewRunner().Run(context.Background(), Spec{
		Interpreter: "/bin/sh",
		Script:      script,
		WorkDir:     filepath.Dir(script),
	}, func(l string) { stdout = append(stdout, l) }, nil)

	if len(stdout) != 1 || stdout[0] != "argc:0" {
		t.Fatalf("empty paths must not appear on the argv: %#v", stdout)
	}
}

func TestRunDeliversOverLongLines(t *testing.T) {
	// 2 MiB on a single line, then a short trailing line. The run must
	// still reach a terminal state and deliver both lines intact.
	script := writeScript(t, "#!/bin/sh\nhead -c 2097152 /dev/zero | tr '\\0' 'x'\necho\necho \"tail-line\"\n")

	var stdout []string
	done := make(chan Result, 1)
	go func() {
		done <- NewRunner().Run(context.Background(), Spec{
			Interpreter: "/bin/sh",
			Script:      script,
			WorkDir:     filepath.Dir(script),
		}, func(l string) { stdout = append(stdout, l) }, nil)
	}()

	var res Result
	select {
	case res = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return for a line larger than the read buffer")
	}

	if !res.Started || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(stdout) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(stdout))
	}
	if len(stdout) == 2 {
		if len(stdout[0]) != 2097152 || strings.Trim(stdout[0], "x") != "" {
			t.Fatalf("long line corrupted: len=%d", len(stdout[0]))
		}
		if stdout[1] != "tail-line" {
			t.Fatalf("trailing line = %q", stdout[1])
		}
	}
}

func TestRunDeliversAllLinesBeforeReturning(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\ni=0\nwhile [ $i -lt 200 ]; do echo \"line $i\"; i=$((i+1)); done\n")

	count := 0
	res := NewRunner().Run(context.Background(), Spec{
		Interpreter: "/bin/sh",
		Script:      script,
		WorkDir:     filepath.Dir(script),
	}, func(string) { count++ }, nil)

	if !res.Started || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if count != 200 {
		t.Fatalf("expected 200 lines delivered exactly once, got %d", count)
	}
}
