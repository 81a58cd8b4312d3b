package model

import "time"

type Contest struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	IsOfficial bool      `json:"is_official"`
	CreatorID  string    `json:"creator_id"`
	ProblemIDs []string  `json:"problem_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsActiveAt reports whether t falls inside the contest window (inclusive).
func (c *Contest) IsActiveAt(t time.Time) bool {
	return !t.Before(c.StartTime) && !t.After(c.EndTime)
}

// ContestRegistration ties a user to a contest. Score is monotonically
// non-decreasing and mutated only by the scoring engine.
type ContestRegistration struct {
	ID           string    `json:"id"`
	ContestID    string    `json:"contest_id"`
	UserID       string    `json:"user_id"`
	Score        int       `json:"score"`
	RegisteredAt time.Time `json:"registered_at"`

	// Joined user columns, populated for leaderboard reads.
	Username  string  `json:"username,omitempty"`
	UserImage *string `json:"user_image,omitempty"`
}
