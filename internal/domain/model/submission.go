package model

import "time"

// Verdict is the closed set of outcomes a judged test case or submission can
// settle into. The string values are part of the public API contract.
type Verdict string

const (
	VerdictAccepted            Verdict = "Accepted"
	VerdictWrongAnswer         Verdict = "WrongAnswer"
	VerdictRuntimeError        Verdict = "RuntimeError"
	VerdictTimeLimitExceeded   Verdict = "TimeLimitExceeded"
	VerdictMemoryLimitExceeded Verdict = "MemoryLimitExceeded"
	VerdictApiError            Verdict = "ApiError"           // sandbox answered with an error response
	VerdictServiceUnreachable  Verdict = "ServiceUnreachable" // sandbox gave no response at all
)

// IsTransportFailure reports whether the verdict indicates the judging
// infrastructure failed rather than the submitted code.
func (v Verdict) IsTransportFailure() bool {
	return v == VerdictApiError || v == VerdictServiceUnreachable
}

type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ProblemID       string           `json:"problem_id"`
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	Status          Verdict          `json:"status"`
	RuntimeMs       int              `json:"runtime_ms"`
	Score           *int             `json:"score,omitempty"` // SystemDesign submissions only
	TestCaseResults []TestCaseResult `json:"test_case_results,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// TestCaseResult is owned exclusively by the submission that produced it.
type TestCaseResult struct {
	Input     string  `json:"input"`
	Expected  string  `json:"expected"`
	Actual    string  `json:"actual"`
	Status    Verdict `json:"status"`
	Error     *string `json:"error,omitempty"`
	RuntimeMs *int    `json:"runtime_ms,omitempty"`
	MemoryKb  *int    `json:"memory_kb,omitempty"`
}
