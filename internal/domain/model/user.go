package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	Role           string     `json:"role"`
	Image          *string    `json:"image,omitempty"`
	SolvedCount    int        `json:"solved_count"`
	Streak         int        `json:"streak"`
	LastSolvedDate *time.Time `json:"last_solved_date,omitempty"` // UTC day granularity
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
