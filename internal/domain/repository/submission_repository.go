package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"

	"github.com/google/uuid"
)

type SubmissionRepository interface {
	// CreateSubmission persists the submission and its per-case results in one
	// shot. Submissions are write-once: there is no update path.
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	ListByUserAndProblem(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, error)
	// HasAcceptedBefore reports whether the user already had an accepted
	// submission for the problem created before the given submission.
	HasAcceptedBefore(ctx context.Context, tx *sql.Tx, userID, problemID, excludeSubmissionID string, before time.Time) (bool, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, code, language, status, runtime_ms, score, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.ProblemID, sub.Code, sub.Language,
		sub.Status, sub.RuntimeMs, sub.Score, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}

	resultQuery := `INSERT INTO submission_test_results
	                (id, submission_id, input, expected, actual, status, error, runtime_ms, memory_kb, sort_order)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for i, res := range sub.TestCaseResults {
		if _, err := tx.ExecContext(ctx, resultQuery,
			uuid.NewString(), sub.ID, res.Input, res.Expected, res.Actual,
			res.Status, res.Error, res.RuntimeMs, res.MemoryKb, i,
		); err != nil {
			return fmt.Errorf("pgSubmissionRepository.CreateSubmission results: %w", err)
		}
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	sub := &model.Submission{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, problem_id, code, language, status, runtime_ms, score, created_at
		 FROM submissions WHERE id = $1`, id).Scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Code, &sub.Language,
		&sub.Status, &sub.RuntimeMs, &sub.Score, &sub.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT input, expected, actual, status, error, runtime_ms, memory_kb
		 FROM submission_test_results WHERE submission_id = $1 ORDER BY sort_order ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res model.TestCaseResult
		if err := rows.Scan(&res.Input, &res.Expected, &res.Actual, &res.Status,
			&res.Error, &res.RuntimeMs, &res.MemoryKb); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID scan: %w", err)
		}
		sub.TestCaseResults = append(sub.TestCaseResults, res)
	}
	return sub, rows.Err()
}

func (r *pgSubmissionRepository) ListByUserAndProblem(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, error) {
	query := `SELECT id, user_id, problem_id, language, status, runtime_ms, score, created_at
	          FROM submissions WHERE user_id = $1 AND problem_id = $2
	          ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, userID, problemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUserAndProblem: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Language,
			&sub.Status, &sub.RuntimeMs, &sub.Score, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByUserAndProblem scan: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *pgSubmissionRepository) HasAcceptedBefore(ctx context.Context, tx *sql.Tx, userID, problemID, excludeSubmissionID string, before time.Time) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM submissions
	            WHERE user_id = $1 AND problem_id = $2 AND status = $3
	              AND id <> $4 AND created_at < $5
	          )`
	var exists bool
	err := tx.QueryRowContext(ctx, query, userID, problemID, model.VerdictAccepted, excludeSubmissionID, before).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.HasAcceptedBefore: %w", err)
	}
	return exists, nil
}
