package service_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"algoarena/internal/app/service"
	"algoarena/internal/domain/model"
)

// txStubDriver backs services that only need working BeginTx/Commit/Rollback;
// all statement execution goes through fake repositories instead.
type txStubDriver struct{}

func (txStubDriver) Open(name string) (driver.Conn, error) { return &txStubConn{}, nil }

type txStubConn struct{}

func (*txStubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("statements are not supported")
}
func (*txStubConn) Close() error                 { return nil }
func (*txStubConn) Begin() (driver.Tx, error)    { return txStub{}, nil }
func (*txStubConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return txStub{}, nil
}

type txStub struct{}

func (txStub) Commit() error   { return nil }
func (txStub) Rollback() error { return nil }

func init() {
	sql.Register("txstub", txStubDriver{})
}

func newTxStubDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("txstub", "")
	if err != nil {
		t.Fatalf("open stub db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type awardCall struct {
	contestID, userID, problemID, submissionID string
	points                                     int
}

type scriptedContestRepo struct {
	eligible    []model.Contest
	eligibleErr error
	awarded     map[string]bool  // contestID -> rows affected
	awardErr    map[string]error // contestID -> forced failure
	awardCalls  []awardCall
}

func (f *scriptedContestRepo) FindEligibleContests(ctx context.Context, problemID, userID string, at time.Time) ([]model.Contest, error) {
	return f.eligible, f.eligibleErr
}

func (f *scriptedContestRepo) AwardPointsOnce(ctx context.Context, tx *sql.Tx, contest *model.Contest, userID, problemID, submissionID string, points int) (bool, error) {
	f.awardCalls = append(f.awardCalls, awardCall{contest.ID, userID, problemID, submissionID, points})
	if err := f.awardErr[contest.ID]; err != nil {
		return false, err
	}
	return f.awarded[contest.ID], nil
}

func (f *scriptedContestRepo) CreateContest(ctx context.Context, tx *sql.Tx, contest *model.Contest) error {
	return errors.New("not implemented")
}

func (f *scriptedContestRepo) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	return nil, errors.New("not implemented")
}

func (f *scriptedContestRepo) ListContests(ctx context.Context, limit, offset int) ([]model.Contest, error) {
	return nil, errors.New("not implemented")
}

func (f *scriptedContestRepo) Register(ctx context.Context, reg *model.ContestRegistration) error {
	return errors.New("not implemented")
}

func (f *scriptedContestRepo) GetRegistrations(ctx context.Context, contestID string) ([]model.ContestRegistration, error) {
	return nil, errors.New("not implemented")
}

func acceptedSubmission() *model.Submission {
	return &model.Submission{
		ID:        "sub-1",
		UserID:    "u1",
		ProblemID: "p1",
		Status:    model.VerdictAccepted,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAwardForAcceptedSkipsUnofficialContests(t *testing.T) {
	repo := &scriptedContestRepo{
		eligible: []model.Contest{{ID: "casual", IsOfficial: false}},
	}
	svc := service.NewScoringService(repo, newTxStubDB(t))

	touched, err := svc.AwardForAccepted(context.Background(), acceptedSubmission(), model.DifficultyEasy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(touched) != 0 {
		t.Fatalf("unofficial contest must not change score, touched %v", touched)
	}
	if len(repo.awardCalls) != 0 {
		t.Fatalf("expected no award attempts, got %d", len(repo.awardCalls))
	}
}

func TestAwardForAcceptedAwardsFlatDifficultyPoints(t *testing.T) {
	repo := &scriptedContestRepo{
		eligible: []model.Contest{{ID: "weekly", IsOfficial: true}},
		awarded:  map[string]bool{"weekly": true},
	}
	svc := service.NewScoringService(repo, newTxStubDB(t))

	touched, err := svc.AwardForAccepted(context.Background(), acceptedSubmission(), model.DifficultyMedium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(touched) != 1 || touched[0] != "weekly" {
		t.Fatalf("expected weekly touched, got %v", touched)
	}
	if len(repo.awardCalls) != 1 {
		t.Fatalf("expected one award attempt, got %d", len(repo.awardCalls))
	}
	call := repo.awardCalls[0]
	if call.points != 20 {
		t.Fatalf("Medium must award 20 points, got %d", call.points)
	}
	if call.userID != "u1" || call.problemID != "p1" || call.submissionID != "sub-1" {
		t.Fatalf("unexpected award identifiers: %+v", call)
	}
}

func TestAwardForAcceptedIsIdempotentPerContest(t *testing.T) {
	// A submission whose (user, problem, contest) already scored: the guarded
	// update reports no rows affected, so the contest is not touched.
	repo := &scriptedContestRepo{
		eligible: []model.Contest{{ID: "weekly", IsOfficial: true}},
		awarded:  map[string]bool{"weekly": false},
	}
	svc := service.NewScoringService(repo, newTxStubDB(t))

	touched, err := svc.AwardForAccepted(context.Background(), acceptedSubmission(), model.DifficultyHard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(touched) != 0 {
		t.Fatalf("already-scored contest must not be touched, got %v", touched)
	}
}

func TestAwardForAcceptedIsolatesPerContestFailures(t *testing.T) {
	repo := &scriptedContestRepo{
		eligible: []model.Contest{
			{ID: "broken", IsOfficial: true},
			{ID: "healthy", IsOfficial: true},
		},
		awarded:  map[string]bool{"healthy": true},
		awardErr: map[string]error{"broken": errors.New("award unavailable")},
	}
	svc := service.NewScoringService(repo, newTxStubDB(t))

	touched, err := svc.AwardForAccepted(context.Background(), acceptedSubmission(), model.DifficultyEasy)
	if err != nil {
		t.Fatalf("one failing contest must not fail the whole pass: %v", err)
	}
	if len(touched) != 1 || touched[0] != "healthy" {
		t.Fatalf("expected only the healthy contest touched, got %v", touched)
	}
}

func TestAwardForAcceptedPropagatesEligibilityErrors(t *testing.T) {
	repo := &scriptedContestRepo{eligibleErr: errors.New("query failed")}
	svc := service.NewScoringService(repo, newTxStubDB(t))

	if _, err := svc.AwardForAccepted(context.Background(), acceptedSubmission(), model.DifficultyEasy); err == nil {
		t.Fatalf("expected an error when eligibility cannot be resolved")
	}
}
