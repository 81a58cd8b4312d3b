package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"algoarena/internal/app/broadcast"
	"algoarena/internal/app/judge"
	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	userRepo       repository.UserRepository
	evaluator      *judge.Evaluator
	scoring        *ScoringService
	coordinator    *broadcast.Coordinator
	db             *sql.DB
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	evaluator *judge.Evaluator,
	scoring *ScoringService,
	coordinator *broadcast.Coordinator,
	db *sql.DB,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		userRepo:       userRepo,
		evaluator:      evaluator,
		scoring:        scoring,
		coordinator:    coordinator,
		db:             db,
	}
}

type CreateSubmissionRequest struct {
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

type CreateSubmissionResponse struct {
	Submission     *model.Submission     `json:"submission"`
	NewStreak      int                   `json:"new_streak"`
	FailedTestCase *model.TestCaseResult `json:"failed_test_case"`
}

// CreateSubmission judges one submission end to end: evaluate against the
// sandbox, persist the write-once record, then (for accepted solutions)
// advance streak and solved count, award contest points and broadcast fresh
// standings. The judged result is authoritative: bookkeeping failures after
// the submission is persisted are logged, never surfaced.
func (s *SubmissionService) CreateSubmission(ctx context.Context, userID string, req CreateSubmissionRequest) (*CreateSubmissionResponse, error) {
	if req.ProblemID == "" || req.Code == "" {
		return nil, common.Errorf("problem_id and code are required: %w", common.ErrBadRequest)
	}

	problem, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	if (problem.Type == model.TypeCoding || problem.Type == model.TypeSQL) && len(problem.TestSets) == 0 {
		return nil, common.Errorf("problem has no test sets: %w", common.ErrInternalServer)
	}

	eval := s.evaluator.Evaluate(ctx, problem, req.Code, req.Language)
	if eval.OverallStatus.IsTransportFailure() {
		// Infrastructure failure, not a wrong answer. Still surfaced as a
		// verdict so clients always get a structured result.
		log.Printf("ERROR: judging infrastructure failed for problem %s: %s", problem.ID, eval.OverallStatus)
	}

	submission := &model.Submission{
		ID:              uuid.NewString(),
		UserID:          userID,
		ProblemID:       problem.ID,
		Code:            req.Code,
		Language:        req.Language,
		Status:          eval.OverallStatus,
		RuntimeMs:       eval.MaxRuntimeMs,
		Score:           eval.Score,
		TestCaseResults: eval.TestCaseResults,
		CreatedAt:       time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := s.submissionRepo.CreateSubmission(ctx, tx, submission); err != nil {
		return nil, common.Errorf("failed to persist submission: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit submission: %w", err)
	}

	newStreak := s.applyAcceptedConsequences(ctx, submission, problem)

	return &CreateSubmissionResponse{
		Submission:     submission,
		NewStreak:      newStreak,
		FailedTestCase: eval.FirstFailingResult,
	}, nil
}

// applyAcceptedConsequences runs the post-acceptance bookkeeping: streak and
// solved count inside one serializable transaction, contest point awards, and
// a fire-and-forget leaderboard broadcast. Always returns the streak to report
// to the submitter.
func (s *SubmissionService) applyAcceptedConsequences(ctx context.Context, submission *model.Submission, problem *model.Problem) int {
	user, err := s.userRepo.FindByID(ctx, submission.UserID)
	if err != nil {
		log.Printf("ERROR: failed to load user %s after submission %s: %v", submission.UserID, submission.ID, err)
		return 0
	}
	if submission.Status != model.VerdictAccepted {
		return user.Streak
	}

	newStreak := s.updateSolveProgress(ctx, submission, user)

	touched, err := s.scoring.AwardForAccepted(ctx, submission, problem.Difficulty)
	if err != nil {
		log.Printf("ERROR: contest scoring failed for submission %s: %v", submission.ID, err)
	}
	if len(touched) > 0 {
		// Response must not block on broadcast delivery.
		go s.coordinator.BroadcastContests(touched)
	}
	return newStreak
}

func (s *SubmissionService) updateSolveProgress(ctx context.Context, submission *model.Submission, user *model.User) int {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Printf("ERROR: failed to begin solve-progress transaction for submission %s: %v", submission.ID, err)
		return user.Streak
	}
	defer tx.Rollback()

	solvedBefore, err := s.submissionRepo.HasAcceptedBefore(ctx, tx, user.ID, submission.ProblemID, submission.ID, submission.CreatedAt)
	if err != nil {
		log.Printf("ERROR: failed to check prior solves for submission %s: %v", submission.ID, err)
		return user.Streak
	}

	solvedCount := user.SolvedCount
	if !solvedBefore {
		solvedCount++
	}

	upd := judge.AdvanceStreak(user.Streak, user.LastSolvedDate, submission.CreatedAt)
	if upd.Changed || !solvedBefore {
		if err := s.userRepo.UpdateSolveProgress(ctx, tx, user.ID, upd.Streak, upd.LastSolvedDate, solvedCount); err != nil {
			log.Printf("ERROR: failed to update solve progress for user %s: %v", user.ID, err)
			return user.Streak
		}
		if err := tx.Commit(); err != nil {
			log.Printf("ERROR: failed to commit solve progress for user %s: %v", user.ID, err)
			return user.Streak
		}
	}
	return upd.Streak
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	return s.submissionRepo.GetSubmissionByID(ctx, id)
}

func (s *SubmissionService) ListMySubmissions(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.submissionRepo.ListByUserAndProblem(ctx, userID, problemID, limit, offset)
}
