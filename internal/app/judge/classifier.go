package judge

import (
	"errors"
	"fmt"
	"strings"

	"algoarena/internal/domain/model"
	"algoarena/internal/platform/sandbox"
)

// Classification is the outcome of mapping one raw sandbox run to a verdict.
type Classification struct {
	Status model.Verdict
	Error  string // human-readable detail, empty for Accepted
}

// ClassifyTransportError maps a failed sandbox call (no usable run result) to
// a verdict. An error response from the sandbox is ApiError; no response at
// all (timeout, connection refused, DNS) is ServiceUnreachable.
func ClassifyTransportError(err error) Classification {
	var statusErr *sandbox.StatusError
	if errors.As(err, &statusErr) {
		return Classification{
			Status: model.VerdictApiError,
			Error:  statusErr.Error(),
		}
	}
	return Classification{
		Status: model.VerdictServiceUnreachable,
		Error:  "code execution service unreachable: " + err.Error(),
	}
}

// Classify maps a completed sandbox run plus the expected output to a verdict.
// Rules are checked in order: runtime failure, kill signal, then output
// comparison. When generateOutput is set the run seeds expected outputs rather
// than judging a user, so any clean exit is Accepted and comparison is skipped.
func Classify(run sandbox.RunResult, expectedOutput string, generateOutput bool) Classification {
	if run.Code != 0 && run.Signal == nil {
		errMsg := strings.TrimSpace(run.Stderr)
		if errMsg == "" {
			errMsg = fmt.Sprintf("exited with code %d", run.Code)
		}
		return Classification{Status: model.VerdictRuntimeError, Error: errMsg}
	}

	if run.Signal != nil {
		return classifySignal(run)
	}

	if generateOutput {
		return Classification{Status: model.VerdictAccepted}
	}

	if OutputsMatch(run.Stdout, expectedOutput) {
		return Classification{Status: model.VerdictAccepted}
	}
	return Classification{
		Status: model.VerdictWrongAnswer,
		Error:  "output does not match expected output",
	}
}

// classifySignal inspects the run's text for resource-limit markers. Sandboxes
// kill over-limit processes with a signal and note the reason in the streams.
func classifySignal(run sandbox.RunResult) Classification {
	text := strings.ToLower(run.Stdout + "\n" + run.Stderr)
	switch {
	case strings.Contains(text, "time limit") || strings.Contains(text, "timed out") || strings.Contains(text, "timeout"):
		return Classification{Status: model.VerdictTimeLimitExceeded, Error: "time limit exceeded"}
	case strings.Contains(text, "memory limit") || strings.Contains(text, "out of memory") || strings.Contains(text, "oom"):
		return Classification{Status: model.VerdictMemoryLimitExceeded, Error: "memory limit exceeded"}
	default:
		errMsg := strings.TrimSpace(run.Stderr)
		if errMsg == "" {
			errMsg = "killed by signal " + *run.Signal
		}
		return Classification{Status: model.VerdictRuntimeError, Error: errMsg}
	}
}

// OutputsMatch compares actual to expected output in two tiers: exact
// trimmed comparison first, then a whitespace-insensitive pass where all
// whitespace runs collapse to single spaces. Strict correctness stays primary;
// the second pass only forgives cosmetic formatting differences.
func OutputsMatch(actual, expected string) bool {
	a := strings.TrimSpace(actual)
	e := strings.TrimSpace(expected)
	if a == e {
		return true
	}
	return collapseWhitespace(a) == collapseWhitespace(e)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
