package judge_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"algoarena/internal/app/judge"
	"algoarena/internal/domain/model"
	"algoarena/internal/platform/sandbox"
)

// scriptedRunner returns canned per-case results in call order.
type scriptedRunner struct {
	results []model.TestCaseResult
	idx     int
	panicAt int // 1-based call index that panics, 0 for never
}

func (r *scriptedRunner) RunTestCase(ctx context.Context, spec judge.RunSpec) model.TestCaseResult {
	r.idx++
	if r.idx == r.panicAt {
		panic("scripted test case failure")
	}
	res := r.results[r.idx-1]
	res.Input = spec.Stdin
	res.Expected = spec.ExpectedOutput
	return res
}

func (r *scriptedRunner) RunSQL(ctx context.Context, schema, seedData, query, expectedOutput string, timeLimitSec, memoryLimitMb int) model.TestCaseResult {
	r.idx++
	res := r.results[r.idx-1]
	res.Input = query
	res.Expected = expectedOutput
	return res
}

func intPtr(i int) *int { return &i }

func codingProblem(cases ...model.TestSet) *model.Problem {
	return &model.Problem{
		ID:            "p1",
		Type:          model.TypeCoding,
		Difficulty:    model.DifficultyEasy,
		TimeLimitSec:  2,
		MemoryLimitMb: 256,
		TestSets:      cases,
	}
}

func TestEvaluateAllAccepted(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{results: []model.TestCaseResult{
		{Status: model.VerdictAccepted, RuntimeMs: intPtr(10)},
		{Status: model.VerdictAccepted, RuntimeMs: intPtr(30)},
		{Status: model.VerdictAccepted, RuntimeMs: intPtr(20)},
	}}
	eva := judge.NewEvaluator(runner, nil)

	problem := codingProblem(
		model.TestSet{Input: "1", ExpectedOutput: "1"},
		model.TestSet{Input: "2", ExpectedOutput: "2"},
		model.TestSet{Input: "3", ExpectedOutput: "3"},
	)
	result := eva.Evaluate(context.Background(), problem, "code", "go")

	if result.OverallStatus != model.VerdictAccepted {
		t.Fatalf("expected Accepted, got %s", result.OverallStatus)
	}
	if result.FirstFailingResult != nil {
		t.Fatalf("no failing result expected on full accept")
	}
	if result.MaxRuntimeMs != 30 {
		t.Fatalf("expected max runtime 30, got %d", result.MaxRuntimeMs)
	}
	if len(result.TestCaseResults) != 3 {
		t.Fatalf("expected 3 case results, got %d", len(result.TestCaseResults))
	}
}

func TestEvaluateOverallStatusIsFirstFailureInInputOrder(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{results: []model.TestCaseResult{
		{Status: model.VerdictAccepted, RuntimeMs: intPtr(5)},
		{Status: model.VerdictWrongAnswer, RuntimeMs: intPtr(7)},
		{Status: model.VerdictTimeLimitExceeded, RuntimeMs: intPtr(2000)},
	}}
	eva := judge.NewEvaluator(runner, nil)

	problem := codingProblem(
		model.TestSet{Input: "a", ExpectedOutput: "a"},
		model.TestSet{Input: "b", ExpectedOutput: "b"},
		model.TestSet{Input: "c", ExpectedOutput: "c"},
	)
	result := eva.Evaluate(context.Background(), problem, "code", "go")

	if result.OverallStatus != model.VerdictWrongAnswer {
		t.Fatalf("overall status must be the first failure in input order, got %s", result.OverallStatus)
	}
	if result.FirstFailingResult == nil || result.FirstFailingResult.Input != "b" {
		t.Fatalf("first failing result should be case b, got %+v", result.FirstFailingResult)
	}
	// Later cases still run and still feed the runtime aggregate.
	if result.MaxRuntimeMs != 2000 {
		t.Fatalf("runtime aggregate must cover all cases, got %d", result.MaxRuntimeMs)
	}
	if len(result.TestCaseResults) != 3 {
		t.Fatalf("evaluation must not stop at the first failure")
	}
}

func TestEvaluateIsolatesPanickingTestCase(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{
		results: []model.TestCaseResult{
			{Status: model.VerdictAccepted, RuntimeMs: intPtr(5)},
			{}, // consumed by the panic slot
			{Status: model.VerdictAccepted, RuntimeMs: intPtr(6)},
		},
		panicAt: 2,
	}
	eva := judge.NewEvaluator(runner, nil)

	problem := codingProblem(
		model.TestSet{Input: "a", ExpectedOutput: "a"},
		model.TestSet{Input: "b", ExpectedOutput: "b"},
		model.TestSet{Input: "c", ExpectedOutput: "c"},
	)
	result := eva.Evaluate(context.Background(), problem, "code", "go")

	if len(result.TestCaseResults) != 3 {
		t.Fatalf("a bad test case must not abort the run, got %d results", len(result.TestCaseResults))
	}
	if result.TestCaseResults[1].Status != model.VerdictRuntimeError {
		t.Fatalf("panicking case should surface as RuntimeError, got %s", result.TestCaseResults[1].Status)
	}
	if result.OverallStatus != model.VerdictRuntimeError {
		t.Fatalf("overall should reflect the isolated failure, got %s", result.OverallStatus)
	}
}

func TestEvaluateReadingProblemIsAlwaysAccepted(t *testing.T) {
	t.Parallel()

	eva := judge.NewEvaluator(&scriptedRunner{}, nil)
	problem := &model.Problem{ID: "r1", Type: model.TypeReading}

	result := eva.Evaluate(context.Background(), problem, "", "")
	if result.OverallStatus != model.VerdictAccepted {
		t.Fatalf("reading problems are always Accepted, got %s", result.OverallStatus)
	}
	if result.Feedback == nil || *result.Feedback == "" {
		t.Fatalf("reading problems carry a fixed message")
	}
}

type fakeDesignEvaluator struct {
	score    int
	feedback string
	err      error
}

func (f *fakeDesignEvaluator) EvaluateDesign(ctx context.Context, problem *model.Problem, answer string) (int, string, error) {
	return f.score, f.feedback, f.err
}

func TestEvaluateSystemDesignStoresScoreSeparately(t *testing.T) {
	t.Parallel()

	eva := judge.NewEvaluator(&scriptedRunner{}, &fakeDesignEvaluator{score: 85, feedback: "solid partitioning"})
	problem := &model.Problem{ID: "d1", Type: model.TypeSystemDesign}

	result := eva.Evaluate(context.Background(), problem, "my design", "")
	if result.OverallStatus != model.VerdictAccepted {
		t.Fatalf("system design is always reported Accepted, got %s", result.OverallStatus)
	}
	if result.Score == nil || *result.Score != 85 {
		t.Fatalf("expected score 85, got %v", result.Score)
	}
}

func TestEvaluateSystemDesignDegradesOnEvaluatorFailure(t *testing.T) {
	t.Parallel()

	eva := judge.NewEvaluator(&scriptedRunner{}, &fakeDesignEvaluator{err: errors.New("model unavailable")})
	problem := &model.Problem{ID: "d2", Type: model.TypeSystemDesign}

	result := eva.Evaluate(context.Background(), problem, "my design", "")
	if result.OverallStatus != model.VerdictAccepted {
		t.Fatalf("evaluator failure must never gate the verdict, got %s", result.OverallStatus)
	}
	if result.Score != nil {
		t.Fatalf("failed evaluation should not invent a score")
	}
	if result.Feedback == nil || *result.Feedback != "N/A" {
		t.Fatalf("failed evaluation should degrade to N/A, got %v", result.Feedback)
	}
}

func TestEvaluateSQLUsesSingleCase(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{results: []model.TestCaseResult{
		{Status: model.VerdictWrongAnswer, RuntimeMs: intPtr(12)},
	}}
	eva := judge.NewEvaluator(runner, nil)

	schema := "CREATE TABLE t(a INT);"
	data := "INSERT INTO t VALUES (1);"
	problem := &model.Problem{
		ID:            "s1",
		Type:          model.TypeSQL,
		TimeLimitSec:  2,
		MemoryLimitMb: 128,
		InitialSchema: &schema,
		InitialData:   &data,
		TestSets:      []model.TestSet{{ExpectedOutput: "a|1"}},
	}

	result := eva.Evaluate(context.Background(), problem, "SELECT * FROM t;", "sql")
	if len(result.TestCaseResults) != 1 {
		t.Fatalf("sql problems judge exactly one case, got %d", len(result.TestCaseResults))
	}
	if result.OverallStatus != model.VerdictWrongAnswer {
		t.Fatalf("expected WrongAnswer, got %s", result.OverallStatus)
	}
	if result.FirstFailingResult == nil {
		t.Fatalf("failing sql case should be reported")
	}
}

// End-to-end through the real executor and classifier against a stub sandbox.
func TestEvaluateTwoSumEndToEnd(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sandbox.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := sandbox.Response{Run: sandbox.RunResult{Code: 0, Stdout: "[0,1]\n", TimeSec: 0.003, MemoryKb: 1024}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := sandbox.NewClient(srv.URL, 0)
	executor := judge.NewExecutor(client, 0)
	eva := judge.NewEvaluator(executor, nil)

	problem := codingProblem(model.TestSet{Input: "[2,7,11,15]\n9", ExpectedOutput: "[0,1]"})
	problem.Title = "Two Sum"

	result := eva.Evaluate(context.Background(), problem, "print(solve())", "python")
	if result.OverallStatus != model.VerdictAccepted {
		t.Fatalf("expected Accepted, got %s", result.OverallStatus)
	}
	if result.MaxRuntimeMs < 1 {
		t.Fatalf("expected runtime of at least 1ms, got %d", result.MaxRuntimeMs)
	}
	if result.FirstFailingResult != nil {
		t.Fatalf("no failed test case expected")
	}
}
