package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ContestRepository interface {
	CreateContest(ctx context.Context, tx *sql.Tx, contest *model.Contest) error
	FindContestByID(ctx context.Context, id string) (*model.Contest, error)
	ListContests(ctx context.Context, limit, offset int) ([]model.Contest, error)
	Register(ctx context.Context, reg *model.ContestRegistration) error
	// FindEligibleContests returns the contests whose problem set contains the
	// problem, whose window contains the instant, where the user is registered
	// and is not the contest creator.
	FindEligibleContests(ctx context.Context, problemID, userID string, at time.Time) ([]model.Contest, error)
	// AwardPointsOnce atomically increments the registration score, guarded by
	// a NOT EXISTS check on earlier accepted submissions inside the contest
	// window. Returns true when a row was actually updated, so points land at
	// most once per (user, problem, contest) even under concurrent submits.
	AwardPointsOnce(ctx context.Context, tx *sql.Tx, contest *model.Contest, userID, problemID, submissionID string, points int) (bool, error)
	GetRegistrations(ctx context.Context, contestID string) ([]model.ContestRegistration, error)
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) CreateContest(ctx context.Context, tx *sql.Tx, contest *model.Contest) error {
	query := `INSERT INTO contests (id, title, start_time, end_time, is_official, creator_id)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query, contest.ID, contest.Title, contest.StartTime,
		contest.EndTime, contest.IsOfficial, contest.CreatorID); err != nil {
		return fmt.Errorf("pgContestRepository.CreateContest: %w", err)
	}

	problemQuery := `INSERT INTO contest_problems (contest_id, problem_id) VALUES ($1, $2)`
	for _, problemID := range contest.ProblemIDs {
		if _, err := tx.ExecContext(ctx, problemQuery, contest.ID, problemID); err != nil {
			return fmt.Errorf("pgContestRepository.CreateContest problems: %w", err)
		}
	}
	return nil
}

func (r *pgContestRepository) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	contest := &model.Contest{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, start_time, end_time, is_official, creator_id, created_at
		 FROM contests WHERE id = $1`, id).Scan(
		&contest.ID, &contest.Title, &contest.StartTime, &contest.EndTime,
		&contest.IsOfficial, &contest.CreatorID, &contest.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.FindContestByID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT problem_id FROM contest_problems WHERE contest_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.FindContestByID problems: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var problemID string
		if err := rows.Scan(&problemID); err != nil {
			return nil, fmt.Errorf("pgContestRepository.FindContestByID scan: %w", err)
		}
		contest.ProblemIDs = append(contest.ProblemIDs, problemID)
	}
	return contest, rows.Err()
}

func (r *pgContestRepository) ListContests(ctx context.Context, limit, offset int) ([]model.Contest, error) {
	query := `SELECT id, title, start_time, end_time, is_official, creator_id, created_at
	          FROM contests ORDER BY start_time DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListContests: %w", err)
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		var c model.Contest
		if err := rows.Scan(&c.ID, &c.Title, &c.StartTime, &c.EndTime, &c.IsOfficial, &c.CreatorID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ListContests scan: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

func (r *pgContestRepository) Register(ctx context.Context, reg *model.ContestRegistration) error {
	query := `INSERT INTO contest_registrations (id, contest_id, user_id, score, registered_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, reg.ID, reg.ContestID, reg.UserID, reg.Score, reg.RegisteredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("already registered for contest: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgContestRepository.Register: %w", err)
	}
	return nil
}

func (r *pgContestRepository) FindEligibleContests(ctx context.Context, problemID, userID string, at time.Time) ([]model.Contest, error) {
	query := `SELECT c.id, c.title, c.start_time, c.end_time, c.is_official, c.creator_id, c.created_at
	          FROM contests c
	          JOIN contest_problems cp ON cp.contest_id = c.id
	          JOIN contest_registrations cr ON cr.contest_id = c.id AND cr.user_id = $2
	          WHERE cp.problem_id = $1
	            AND c.start_time <= $3 AND c.end_time >= $3
	            AND c.creator_id <> $2`
	rows, err := r.db.QueryContext(ctx, query, problemID, userID, at)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.FindEligibleContests: %w", err)
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		var c model.Contest
		if err := rows.Scan(&c.ID, &c.Title, &c.StartTime, &c.EndTime, &c.IsOfficial, &c.CreatorID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgContestRepository.FindEligibleContests scan: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

func (r *pgContestRepository) AwardPointsOnce(ctx context.Context, tx *sql.Tx, contest *model.Contest, userID, problemID, submissionID string, points int) (bool, error) {
	query := `UPDATE contest_registrations cr
	          SET score = cr.score + $1
	          WHERE cr.contest_id = $2 AND cr.user_id = $3
	            AND NOT EXISTS (
	              SELECT 1 FROM submissions s
	              WHERE s.user_id = $3
	                AND s.problem_id = $4
	                AND s.status = $5
	                AND s.id <> $6
	                AND s.created_at >= $7 AND s.created_at <= $8
	                AND s.created_at <= (SELECT created_at FROM submissions WHERE id = $6)
	            )`
	res, err := tx.ExecContext(ctx, query, points, contest.ID, userID, problemID,
		model.VerdictAccepted, submissionID, contest.StartTime, contest.EndTime)
	if err != nil {
		return false, fmt.Errorf("pgContestRepository.AwardPointsOnce: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgContestRepository.AwardPointsOnce rows: %w", err)
	}
	return affected > 0, nil
}

func (r *pgContestRepository) GetRegistrations(ctx context.Context, contestID string) ([]model.ContestRegistration, error) {
	query := `SELECT cr.id, cr.contest_id, cr.user_id, cr.score, cr.registered_at, u.username, u.image
	          FROM contest_registrations cr
	          JOIN users u ON u.id = cr.user_id
	          WHERE cr.contest_id = $1`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.GetRegistrations: %w", err)
	}
	defer rows.Close()

	var regs []model.ContestRegistration
	for rows.Next() {
		var reg model.ContestRegistration
		if err := rows.Scan(&reg.ID, &reg.ContestID, &reg.UserID, &reg.Score,
			&reg.RegisteredAt, &reg.Username, &reg.UserImage); err != nil {
			return nil, fmt.Errorf("pgContestRepository.GetRegistrations scan: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
