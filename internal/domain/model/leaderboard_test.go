package model_test

import (
	"testing"
	"time"

	"algoarena/internal/domain/model"
)

func reg(userID string, score int, registeredAt time.Time) model.ContestRegistration {
	return model.ContestRegistration{
		ContestID:    "c1",
		UserID:       userID,
		Username:     userID,
		Score:        score,
		RegisteredAt: registeredAt,
	}
}

func TestRankRegistrationsCarriesTiesWithGaps(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := model.RankRegistrations([]model.ContestRegistration{
		reg("u3", 30, base.Add(2*time.Hour)),
		reg("u1", 50, base),
		reg("u2", 50, base.Add(time.Hour)),
	})

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	gotRanks := []int{entries[0].Rank, entries[1].Rank, entries[2].Rank}
	wantRanks := []int{1, 1, 3}
	for i := range wantRanks {
		if gotRanks[i] != wantRanks[i] {
			t.Fatalf("scores [50,50,30] must rank [1,1,3], got %v", gotRanks)
		}
	}
	// Earlier registration wins the ordering inside a tie.
	if entries[0].User.ID != "u1" || entries[1].User.ID != "u2" {
		t.Fatalf("tied rows should order by registration time, got %s then %s", entries[0].User.ID, entries[1].User.ID)
	}
}

func TestRankRegistrationsDistinctScores(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := model.RankRegistrations([]model.ContestRegistration{
		reg("a", 10, base),
		reg("b", 30, base),
		reg("c", 20, base),
	})

	if entries[0].User.ID != "b" || entries[0].Rank != 1 {
		t.Fatalf("highest score first, got %+v", entries[0])
	}
	if entries[1].User.ID != "c" || entries[1].Rank != 2 {
		t.Fatalf("expected c at rank 2, got %+v", entries[1])
	}
	if entries[2].User.ID != "a" || entries[2].Rank != 3 {
		t.Fatalf("expected a at rank 3, got %+v", entries[2])
	}
}

func TestRankRegistrationsEmpty(t *testing.T) {
	t.Parallel()

	entries := model.RankRegistrations(nil)
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %d entries", len(entries))
	}
}

func TestRankRegistrationsDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	regs := []model.ContestRegistration{
		reg("a", 10, base),
		reg("b", 30, base),
	}
	model.RankRegistrations(regs)
	if regs[0].UserID != "a" {
		t.Fatalf("input slice must stay untouched")
	}
}
