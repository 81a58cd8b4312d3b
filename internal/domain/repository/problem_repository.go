package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"algoarena/internal/common"
	"algoarena/internal/domain/model"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	CreateTestSets(ctx context.Context, tx *sql.Tx, testSets []model.TestSet) error
	// FindProblemByID loads the problem together with its ordered test sets.
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	ListProblems(ctx context.Context, limit, offset int) ([]model.Problem, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error {
	query := `INSERT INTO problems
	          (id, title, slug, description, type, difficulty, time_limit_sec, memory_limit_mb,
	           reference_solution, initial_schema, initial_data, created_by_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := tx.ExecContext(ctx, query,
		problem.ID, problem.Title, problem.Slug, problem.Description, problem.Type,
		problem.Difficulty, problem.TimeLimitSec, problem.MemoryLimitMb,
		problem.ReferenceSolution, problem.InitialSchema, problem.InitialData, problem.CreatedByID,
	)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) CreateTestSets(ctx context.Context, tx *sql.Tx, testSets []model.TestSet) error {
	query := `INSERT INTO test_sets (id, problem_id, input, expected_output, is_example, sort_order)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	for _, tc := range testSets {
		if _, err := tx.ExecContext(ctx, query, tc.ID, tc.ProblemID, tc.Input, tc.ExpectedOutput, tc.IsExample, tc.SortOrder); err != nil {
			return fmt.Errorf("pgProblemRepository.CreateTestSets: %w", err)
		}
	}
	return nil
}

const problemColumns = `id, title, slug, description, type, difficulty, time_limit_sec, memory_limit_mb,
	reference_solution, initial_schema, initial_data, created_by_id, created_at, updated_at`

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	problem := &model.Problem{}
	err := r.db.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems WHERE id = $1`, id).Scan(
		&problem.ID, &problem.Title, &problem.Slug, &problem.Description, &problem.Type,
		&problem.Difficulty, &problem.TimeLimitSec, &problem.MemoryLimitMb,
		&problem.ReferenceSolution, &problem.InitialSchema, &problem.InitialData,
		&problem.CreatedByID, &problem.CreatedAt, &problem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}

	testSets, err := r.getTestSets(ctx, id)
	if err != nil {
		return nil, err
	}
	problem.TestSets = testSets
	return problem, nil
}

func (r *pgProblemRepository) getTestSets(ctx context.Context, problemID string) ([]model.TestSet, error) {
	query := `SELECT id, problem_id, input, expected_output, is_example, sort_order
	          FROM test_sets WHERE problem_id = $1 ORDER BY sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.getTestSets: %w", err)
	}
	defer rows.Close()

	var testSets []model.TestSet
	for rows.Next() {
		var tc model.TestSet
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.IsExample, &tc.SortOrder); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.getTestSets scan: %w", err)
		}
		testSets = append(testSets, tc)
	}
	return testSets, rows.Err()
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, limit, offset int) ([]model.Problem, error) {
	query := `SELECT id, title, slug, description, type, difficulty, time_limit_sec, memory_limit_mb, created_at, updated_at
	          FROM problems ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems: %w", err)
	}
	defer rows.Close()

	var problems []model.Problem
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Type, &p.Difficulty,
			&p.TimeLimitSec, &p.MemoryLimitMb, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}
