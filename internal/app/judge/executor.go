package judge

import (
	"context"
	"strings"
	"time"

	"algoarena/internal/domain/model"
	"algoarena/internal/platform/sandbox"
)

// SandboxClient is the slice of the sandbox client the executor needs.
type SandboxClient interface {
	Execute(ctx context.Context, req sandbox.Request) (*sandbox.Response, error)
}

// RunSpec describes one test-case run.
type RunSpec struct {
	Code           string
	Language       string
	Stdin          string
	ExpectedOutput string
	TimeLimitSec   int
	MemoryLimitMb  int
	GenerateOutput bool
}

// Executor drives exactly one test case through the sandbox at a time. It
// never returns an error: every failure mode is captured as a verdict on the
// returned TestCaseResult.
type Executor struct {
	client SandboxClient
	pacing time.Duration
}

// NewExecutor wires a sandbox client with a fixed inter-call delay. The delay
// is a cooperative concession to the sandbox's own rate limit and applies
// before every call regardless of load.
func NewExecutor(client SandboxClient, pacing time.Duration) *Executor {
	return &Executor{client: client, pacing: pacing}
}

// RunTestCase executes one test case and classifies the outcome. Compile
// timeout is five times the run time limit; the sandbox enforces both.
func (e *Executor) RunTestCase(ctx context.Context, spec RunSpec) model.TestCaseResult {
	result := model.TestCaseResult{
		Input:    spec.Stdin,
		Expected: spec.ExpectedOutput,
	}

	if err := e.pace(ctx); err != nil {
		cls := ClassifyTransportError(err)
		result.Status = cls.Status
		result.Error = &cls.Error
		return result
	}

	timeLimitMs := spec.TimeLimitSec * 1000
	resp, err := e.client.Execute(ctx, sandbox.Request{
		Language:         spec.Language,
		Version:          "*",
		Files:            []sandbox.File{{Content: spec.Code}},
		Stdin:            spec.Stdin,
		CompileTimeoutMs: 5 * timeLimitMs,
		RunTimeoutMs:     timeLimitMs,
		MemoryLimitKb:    spec.MemoryLimitMb * 1024,
	})
	if err != nil {
		cls := ClassifyTransportError(err)
		result.Status = cls.Status
		result.Error = &cls.Error
		return result
	}

	cls := Classify(resp.Run, spec.ExpectedOutput, spec.GenerateOutput)
	result.Status = cls.Status
	result.Actual = resp.Run.Stdout
	if cls.Error != "" {
		errMsg := cls.Error
		result.Error = &errMsg
	}
	runtimeMs := int(resp.Run.TimeSec * 1000)
	if runtimeMs < 1 {
		runtimeMs = 1
	}
	result.RuntimeMs = &runtimeMs
	if resp.Run.MemoryKb > 0 {
		memKb := resp.Run.MemoryKb
		result.MemoryKb = &memKb
	}
	return result
}

// RunSQL executes a SQL problem as a single script: schema DDL, seed data and
// the user's query concatenated into one sandbox call. The single stdout is
// the only test case, compared against the expected pipe-table text.
func (e *Executor) RunSQL(ctx context.Context, schema, seedData, query, expectedOutput string, timeLimitSec, memoryLimitMb int) model.TestCaseResult {
	var script strings.Builder
	if schema != "" {
		script.WriteString(schema)
		script.WriteString("\n")
	}
	if seedData != "" {
		script.WriteString(seedData)
		script.WriteString("\n")
	}
	script.WriteString(query)

	return e.RunTestCase(ctx, RunSpec{
		Code:           script.String(),
		Language:       "sqlite3",
		ExpectedOutput: expectedOutput,
		TimeLimitSec:   timeLimitSec,
		MemoryLimitMb:  memoryLimitMb,
	})
}

// pace waits the fixed inter-call delay, yielding early on cancellation.
func (e *Executor) pace(ctx context.Context) error {
	if e.pacing <= 0 {
		return nil
	}
	timer := time.NewTimer(e.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
