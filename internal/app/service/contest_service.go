package service

import (
	"context"
	"database/sql"
	"time"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"

	"github.com/google/uuid"
)

type ContestService struct {
	contestRepo repository.ContestRepository
	problemRepo repository.ProblemRepository
	db          *sql.DB
}

func NewContestService(contestRepo repository.ContestRepository, problemRepo repository.ProblemRepository, db *sql.DB) *ContestService {
	return &ContestService{contestRepo: contestRepo, problemRepo: problemRepo, db: db}
}

type CreateContestRequest struct {
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	IsOfficial bool      `json:"is_official"`
	ProblemIDs []string  `json:"problem_ids"`
}

func (s *ContestService) CreateContest(ctx context.Context, creatorID string, req CreateContestRequest) (*model.Contest, error) {
	if req.Title == "" || len(req.ProblemIDs) == 0 {
		return nil, common.Errorf("contest needs a title and at least one problem: %w", common.ErrBadRequest)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, common.Errorf("contest end time must be after start time: %w", common.ErrBadRequest)
	}
	for _, problemID := range req.ProblemIDs {
		if _, err := s.problemRepo.FindProblemByID(ctx, problemID); err != nil {
			return nil, common.Errorf("contest problem %s: %w", problemID, err)
		}
	}

	contest := &model.Contest{
		ID:         uuid.NewString(),
		Title:      req.Title,
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
		IsOfficial: req.IsOfficial,
		CreatorID:  creatorID,
		ProblemIDs: req.ProblemIDs,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.contestRepo.CreateContest(ctx, tx, contest); err != nil {
		return nil, common.Errorf("failed to create contest: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return contest, nil
}

func (s *ContestService) Register(ctx context.Context, userID, contestID string) (*model.ContestRegistration, error) {
	contest, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if time.Now().UTC().After(contest.EndTime) {
		return nil, common.Errorf("contest has already ended: %w", common.ErrForbidden)
	}

	reg := &model.ContestRegistration{
		ID:           uuid.NewString(),
		ContestID:    contestID,
		UserID:       userID,
		Score:        0,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.contestRepo.Register(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *ContestService) GetContest(ctx context.Context, id string) (*model.Contest, error) {
	return s.contestRepo.FindContestByID(ctx, id)
}

func (s *ContestService) ListContests(ctx context.Context, limit, offset int) ([]model.Contest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.contestRepo.ListContests(ctx, limit, offset)
}

// GetLeaderboard returns current standings for a contest.
func (s *ContestService) GetLeaderboard(ctx context.Context, contestID string) ([]model.LeaderboardEntry, error) {
	if _, err := s.contestRepo.FindContestByID(ctx, contestID); err != nil {
		return nil, err
	}
	regs, err := s.contestRepo.GetRegistrations(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return model.RankRegistrations(regs), nil
}
