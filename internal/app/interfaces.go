package app

import (
	"context"

	"cwpdf/internal/interp"
	"cwpdf/internal/job"
	"cwpdf/internal/state"
)

type Locator interface {
	Find(ctx context.Context, candidates []string, report interp.ReportFunc) (string, bool)
}

type Runner interface {
	Run(ctx context.Context, spec job.Spec, onStdout, onStderr job.Sink) job.Result
}

type Store interface {
	RecordRun(ctx context.Context, run state.Run) (int64, error)
	RecentRuns(ctx context.Context, limit int) ([]state.Run, error)
	Totals(ctx context.Context) (state.Totals, error)
	Close() error
}
