package model

import "sort"

type LeaderboardUser struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image,omitempty"`
}

type LeaderboardEntry struct {
	Rank  int             `json:"rank"`
	User  LeaderboardUser `json:"user"`
	Score int             `json:"score"`
}

// RankRegistrations produces contest standings from raw registration rows.
// Rows are ordered by score descending, registration time ascending for ties.
// Ranking is competition style with carried ties: a row gets rank index+1 only
// when its score differs from the previous row, otherwise it inherits the
// previous rank. Ranks are not compacted, so scores [50,50,30] rank [1,1,3].
func RankRegistrations(regs []ContestRegistration) []LeaderboardEntry {
	sorted := make([]ContestRegistration, len(regs))
	copy(sorted, regs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].RegisteredAt.Before(sorted[j].RegisteredAt)
	})

	entries := make([]LeaderboardEntry, 0, len(sorted))
	for i, reg := range sorted {
		rank := i + 1
		if i > 0 && reg.Score == sorted[i-1].Score {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			Rank:  rank,
			User:  LeaderboardUser{ID: reg.UserID, Name: reg.Username, Image: reg.UserImage},
			Score: reg.Score,
		})
	}
	return entries
}
