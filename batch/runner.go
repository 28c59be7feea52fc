package batch

import (
	"context"
	"fmt"

	brckit "github.com/emptyOVO/brckit-go"
	"github.com/emptyOVO/brckit-go/agg"
)

// Runner abstracts how an aggregation job is executed.
type Runner interface {
	Run(ctx context.Context, input string, cfg brckit.Config) (agg.Result, error)
}

// InProcessRunner runs the job in this process, one goroutine per partition.
type InProcessRunner struct{}

func (InProcessRunner) Run(ctx context.Context, input string, cfg brckit.Config) (agg.Result, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return brckit.RunFile(ctx, input, cfg)
}

var defaultRunner Runner = InProcessRunner{}

// SetDefaultRunner overrides the process-wide runtime strategy.
func SetDefaultRunner(r Runner) {
	if r == nil {
		return
	}
	defaultRunner = r
}

// DefaultRunner returns the current process-wide runtime strategy.
func DefaultRunner() Runner {
	return defaultRunner
}
