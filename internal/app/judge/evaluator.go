package judge

import (
	"context"
	"fmt"
	"log"

	"algoarena/internal/domain/model"
)

// CaseRunner is what the evaluator needs from the executor.
type CaseRunner interface {
	RunTestCase(ctx context.Context, spec RunSpec) model.TestCaseResult
	RunSQL(ctx context.Context, schema, seedData, query, expectedOutput string, timeLimitSec, memoryLimitMb int) model.TestCaseResult
}

// DesignEvaluator scores a system-design answer. Implementations are external
// and optional; failures degrade to a neutral result and never gate a verdict.
type DesignEvaluator interface {
	EvaluateDesign(ctx context.Context, problem *model.Problem, answer string) (score int, feedback string, err error)
}

// EvalResult is the folded outcome of judging one submission.
type EvalResult struct {
	OverallStatus      model.Verdict
	MaxRuntimeMs       int
	TestCaseResults    []model.TestCaseResult
	FirstFailingResult *model.TestCaseResult
	Score              *int    // SystemDesign only
	Feedback           *string // SystemDesign / Reading message
}

const readingAcceptedMessage = "Marked as read."

// Evaluator runs every test case of a submission sequentially and folds the
// per-case results into one overall verdict.
type Evaluator struct {
	runner    CaseRunner
	designEva DesignEvaluator
}

func NewEvaluator(runner CaseRunner, designEva DesignEvaluator) *Evaluator {
	return &Evaluator{runner: runner, designEva: designEva}
}

// Evaluate judges one submission against its problem.
//
// Test cases run strictly in test-set order: the overall status is the status
// of the first non-Accepted case in input order, and MaxRuntimeMs is the
// maximum valid runtime across all cases. A failure while running case i is
// isolated into that case's result and evaluation continues with case i+1.
func (e *Evaluator) Evaluate(ctx context.Context, problem *model.Problem, code, language string) EvalResult {
	switch problem.Type {
	case model.TypeReading:
		msg := readingAcceptedMessage
		return EvalResult{OverallStatus: model.VerdictAccepted, Feedback: &msg}
	case model.TypeSystemDesign:
		return e.evaluateSystemDesign(ctx, problem, code)
	case model.TypeSQL:
		return e.evaluateSQL(ctx, problem, code)
	default:
		return e.evaluateCoding(ctx, problem, code, language)
	}
}

func (e *Evaluator) evaluateCoding(ctx context.Context, problem *model.Problem, code, language string) EvalResult {
	result := EvalResult{OverallStatus: model.VerdictAccepted}

	for _, tc := range problem.TestSets {
		caseResult := e.runCaseIsolated(ctx, RunSpec{
			Code:           code,
			Language:       language,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			TimeLimitSec:   problem.TimeLimitSec,
			MemoryLimitMb:  problem.MemoryLimitMb,
		})
		result.TestCaseResults = append(result.TestCaseResults, caseResult)

		if caseResult.RuntimeMs != nil && *caseResult.RuntimeMs > result.MaxRuntimeMs {
			result.MaxRuntimeMs = *caseResult.RuntimeMs
		}
		if caseResult.Status != model.VerdictAccepted && result.OverallStatus == model.VerdictAccepted {
			result.OverallStatus = caseResult.Status
			failing := caseResult
			result.FirstFailingResult = &failing
		}
	}
	return result
}

func (e *Evaluator) evaluateSQL(ctx context.Context, problem *model.Problem, query string) EvalResult {
	var schema, seedData string
	if problem.InitialSchema != nil {
		schema = *problem.InitialSchema
	}
	if problem.InitialData != nil {
		seedData = *problem.InitialData
	}
	var expected string
	if len(problem.TestSets) > 0 {
		expected = problem.TestSets[0].ExpectedOutput
	}

	caseResult := e.runSQLIsolated(ctx, schema, seedData, query, expected, problem.TimeLimitSec, problem.MemoryLimitMb)

	result := EvalResult{
		OverallStatus:   caseResult.Status,
		TestCaseResults: []model.TestCaseResult{caseResult},
	}
	if caseResult.RuntimeMs != nil {
		result.MaxRuntimeMs = *caseResult.RuntimeMs
	}
	if caseResult.Status != model.VerdictAccepted {
		failing := caseResult
		result.FirstFailingResult = &failing
	}
	return result
}

// evaluateSystemDesign is a pass-through branch: the external evaluator scores
// the answer, the submission is always reported Accepted, and evaluator
// failures degrade to a neutral result rather than affecting the verdict.
func (e *Evaluator) evaluateSystemDesign(ctx context.Context, problem *model.Problem, answer string) EvalResult {
	result := EvalResult{OverallStatus: model.VerdictAccepted}

	if e.designEva == nil {
		feedback := "N/A"
		result.Feedback = &feedback
		return result
	}

	score, feedback, err := e.designEva.EvaluateDesign(ctx, problem, answer)
	if err != nil {
		log.Printf("WARN: design evaluation failed for problem %s: %v", problem.ID, err)
		feedback = "N/A"
		result.Feedback = &feedback
		return result
	}
	result.Score = &score
	result.Feedback = &feedback
	return result
}

// runCaseIsolated guards one test-case run so a panic inside the executor
// becomes an error-status result instead of aborting the whole evaluation.
func (e *Evaluator) runCaseIsolated(ctx context.Context, spec RunSpec) (result model.TestCaseResult) {
	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("test case execution failed: %v", r)
			log.Printf("ERROR: %s", errMsg)
			result = model.TestCaseResult{
				Input:    spec.Stdin,
				Expected: spec.ExpectedOutput,
				Status:   model.VerdictRuntimeError,
				Error:    &errMsg,
			}
		}
	}()
	return e.runner.RunTestCase(ctx, spec)
}

func (e *Evaluator) runSQLIsolated(ctx context.Context, schema, seedData, query, expected string, timeLimitSec, memoryLimitMb int) (result model.TestCaseResult) {
	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("sql execution failed: %v", r)
			log.Printf("ERROR: %s", errMsg)
			result = model.TestCaseResult{
				Input:    query,
				Expected: expected,
				Status:   model.VerdictRuntimeError,
				Error:    &errMsg,
			}
		}
	}()
	return e.runner.RunSQL(ctx, schema, seedData, query, expected, timeLimitSec, memoryLimitMb)
}
