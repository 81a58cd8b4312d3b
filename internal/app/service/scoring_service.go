package service

import (
	"context"
	"database/sql"
	"log"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"
)

// ScoringService decides which contests an accepted submission scores in and
// applies at most one award per (user, problem, contest).
type ScoringService struct {
	contestRepo repository.ContestRepository
	db          *sql.DB
}

func NewScoringService(contestRepo repository.ContestRepository, db *sql.DB) *ScoringService {
	return &ScoringService{contestRepo: contestRepo, db: db}
}

// AwardForAccepted awards contest points for an accepted submission and
// returns the IDs of contests whose score actually changed.
//
// Eligibility is membership of the problem in the contest, submission time
// inside the window, the submitter not being the creator, and an active
// registration, all resolved by one query. Unofficial contests pass
// eligibility but never mutate score: practice never affects standing. The
// award itself is a conditional update guarded against earlier accepted
// submissions in the window, so concurrent accepted submits cannot double
// count.
func (s *ScoringService) AwardForAccepted(ctx context.Context, sub *model.Submission, difficulty model.ProblemDifficulty) ([]string, error) {
	contests, err := s.contestRepo.FindEligibleContests(ctx, sub.ProblemID, sub.UserID, sub.CreatedAt)
	if err != nil {
		return nil, common.Errorf("failed to resolve eligible contests: %w", err)
	}

	points := difficulty.Points()
	var touched []string
	for i := range contests {
		contest := &contests[i]
		if !contest.IsOfficial {
			log.Printf("INFO: submission %s eligible in unofficial contest %s, score unchanged", sub.ID, contest.ID)
			continue
		}

		awarded, err := s.awardOne(ctx, contest, sub, points)
		if err != nil {
			// One contest failing must not block awards in the others.
			log.Printf("ERROR: failed to award points in contest %s for submission %s: %v", contest.ID, sub.ID, err)
			continue
		}
		if awarded {
			touched = append(touched, contest.ID)
		}
	}
	return touched, nil
}

func (s *ScoringService) awardOne(ctx context.Context, contest *model.Contest, sub *model.Submission, points int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, common.Errorf("failed to begin award transaction: %w", err)
	}
	defer tx.Rollback()

	awarded, err := s.contestRepo.AwardPointsOnce(ctx, tx, contest, sub.UserID, sub.ProblemID, sub.ID, points)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, common.Errorf("failed to commit award transaction: %w", err)
	}
	if awarded {
		log.Printf("INFO: awarded %d points to user %s in contest %s (submission %s)", points, sub.UserID, contest.ID, sub.ID)
	}
	return awarded, nil
}
