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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// UpdateSolveProgress persists streak and solved-count changes inside the
	// caller's transaction so the read-check-write stays atomic.
	UpdateSolveProgress(ctx context.Context, tx *sql.Tx, userID string, streak int, lastSolvedDate time.Time, solvedCount int) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.HashedPassword, user.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, hashed_password, role, image, solved_count, streak, last_solved_date, created_at, updated_at`

func (r *pgUserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.Role,
		&user.Image, &user.SolvedCount, &user.Streak, &user.LastSolvedDate,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := r.scanUser(row)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, err
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := r.scanUser(row)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgUserRepository.FindByUsername: %w", err)
	}
	return user, err
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := r.scanUser(row)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, err
}

func (r *pgUserRepository) UpdateSolveProgress(ctx context.Context, tx *sql.Tx, userID string, streak int, lastSolvedDate time.Time, solvedCount int) error {
	query := `UPDATE users SET streak = $1, last_solved_date = $2, solved_count = $3, updated_at = NOW()
	          WHERE id = $4`
	_, err := tx.ExecContext(ctx, query, streak, lastSolvedDate, solvedCount, userID)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateSolveProgress: %w", err)
	}
	return nil
}
