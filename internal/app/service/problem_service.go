package service

import (
	"context"
	"database/sql"

	"algoarena/internal/app/judge"
	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"
	"algoarena/internal/platform/config"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	runner      judge.CaseRunner
	db          *sql.DB
}

func NewProblemService(problemRepo repository.ProblemRepository, runner judge.CaseRunner, db *sql.DB) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, runner: runner, db: db}
}

type CreateProblemRequest struct {
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Type          model.ProblemType       `json:"type"`
	Difficulty    model.ProblemDifficulty `json:"difficulty"`
	TimeLimitSec  int                     `json:"time_limit_sec"`
	MemoryLimitMb int                     `json:"memory_limit_mb"`
	TestSets      []model.TestSet         `json:"test_sets"`
	ReferenceSol  *string                 `json:"reference_solution,omitempty"`
	ReferenceLang string                  `json:"reference_language,omitempty"`
	InitialSchema *string                 `json:"initial_schema,omitempty"`
	InitialData   *string                 `json:"initial_data,omitempty"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, userID string, req CreateProblemRequest) (*model.Problem, error) {
	if req.Title == "" || req.Description == "" || req.Difficulty == "" {
		return nil, common.Errorf("missing required fields for problem creation: %w", common.ErrBadRequest)
	}
	if req.Type == "" {
		req.Type = model.TypeCoding
	}
	if (req.Type == model.TypeCoding || req.Type == model.TypeSQL) && len(req.TestSets) == 0 {
		return nil, common.Errorf("judged problems need at least one test set: %w", common.ErrBadRequest)
	}
	if req.TimeLimitSec <= 0 {
		req.TimeLimitSec = config.AppConfig.DefaultTimeLimitSec
	}
	if req.MemoryLimitMb <= 0 {
		req.MemoryLimitMb = config.AppConfig.DefaultMemoryLimitMb
	}

	problem := &model.Problem{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Slug:              slug.Make(req.Title),
		Description:       req.Description,
		Type:              req.Type,
		Difficulty:        req.Difficulty,
		TimeLimitSec:      req.TimeLimitSec,
		MemoryLimitMb:     req.MemoryLimitMb,
		ReferenceSolution: req.ReferenceSol,
		InitialSchema:     req.InitialSchema,
		InitialData:       req.InitialData,
		CreatedByID:       &userID,
	}

	testSets := make([]model.TestSet, len(req.TestSets))
	for i, tc := range req.TestSets {
		testSets[i] = model.TestSet{
			ID:             uuid.NewString(),
			ProblemID:      problem.ID,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			IsExample:      tc.IsExample,
			SortOrder:      i,
		}
	}

	if req.Type == model.TypeCoding {
		if err := s.seedExpectedOutputs(ctx, problem, req, testSets); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}
	if err := s.problemRepo.CreateTestSets(ctx, tx, testSets); err != nil {
		return nil, common.Errorf("failed to create test sets: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	problem.TestSets = testSets
	return problem, nil
}

// seedExpectedOutputs fills in missing expected outputs by running the
// reference solution against each unseeded input in generation mode. A
// reference that does not run cleanly rejects the whole problem.
func (s *ProblemService) seedExpectedOutputs(ctx context.Context, problem *model.Problem, req CreateProblemRequest, testSets []model.TestSet) error {
	for i := range testSets {
		if testSets[i].ExpectedOutput != "" {
			continue
		}
		if req.ReferenceSol == nil || req.ReferenceLang == "" {
			return common.Errorf("test set %d has no expected output and no reference solution to generate one: %w", i, common.ErrBadRequest)
		}

		result := s.runner.RunTestCase(ctx, judge.RunSpec{
			Code:           *req.ReferenceSol,
			Language:       req.ReferenceLang,
			Stdin:          testSets[i].Input,
			TimeLimitSec:   problem.TimeLimitSec,
			MemoryLimitMb:  problem.MemoryLimitMb,
			GenerateOutput: true,
		})
		if result.Status != model.VerdictAccepted {
			return common.Errorf("reference solution failed on test set %d with %s: %w", i, result.Status, common.ErrBadRequest)
		}
		testSets[i].ExpectedOutput = result.Actual
	}
	return nil
}

func (s *ProblemService) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Hidden test sets and reference material stay server-side.
	public := make([]model.TestSet, 0, len(problem.TestSets))
	for _, tc := range problem.TestSets {
		if tc.IsExample {
			public = append(public, tc)
		}
	}
	problem.TestSets = public
	problem.ReferenceSolution = nil
	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, limit, offset int) ([]model.Problem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.problemRepo.ListProblems(ctx, limit, offset)
}
