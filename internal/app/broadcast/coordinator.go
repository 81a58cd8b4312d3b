package broadcast

import (
	"context"
	"log"
	"time"

	"algoarena/internal/domain/model"
	"algoarena/internal/domain/repository"
)

// Coordinator recomputes and publishes standings after score mutations. It is
// fire-and-forget from the judge's point of view: delivery failures are logged
// and never reach the submitter's response.
type Coordinator struct {
	contestRepo repository.ContestRepository
	publisher   Publisher
}

func NewCoordinator(contestRepo repository.ContestRepository, publisher Publisher) *Coordinator {
	return &Coordinator{contestRepo: contestRepo, publisher: publisher}
}

// BroadcastContests recomputes the leaderboard for every touched contest and
// publishes one event per contest. Run it in its own goroutine with a fresh
// context so it outlives the originating HTTP request.
func (c *Coordinator) BroadcastContests(contestIDs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, contestID := range contestIDs {
		regs, err := c.contestRepo.GetRegistrations(ctx, contestID)
		if err != nil {
			log.Printf("ERROR: broadcast: failed to load registrations for contest %s: %v", contestID, err)
			continue
		}
		event := LeaderboardEvent{
			Type:        EventLeaderboardUpdate,
			ContestID:   contestID,
			Leaderboard: model.RankRegistrations(regs),
		}
		if err := c.publisher.PublishLeaderboard(ctx, event); err != nil {
			log.Printf("ERROR: broadcast: failed to publish leaderboard for contest %s: %v", contestID, err)
		}
	}
}
