package model

import "time"

type ProblemDifficulty string
type ProblemType string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"

	TypeCoding       ProblemType = "CODING"
	TypeSQL          ProblemType = "SQL"
	TypeSystemDesign ProblemType = "SYSTEM_DESIGN"
	TypeReading      ProblemType = "READING"
)

// Points returns the flat contest reward for the difficulty.
func (d ProblemDifficulty) Points() int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 0
	}
}

// Problem is immutable for the duration of any single evaluation.
type Problem struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Slug              string            `json:"slug"`
	Description       string            `json:"description"`
	Type              ProblemType       `json:"type"`
	Difficulty        ProblemDifficulty `json:"difficulty"`
	TimeLimitSec      int               `json:"time_limit_sec"`
	MemoryLimitMb     int               `json:"memory_limit_mb"`
	TestSets          []TestSet         `json:"test_sets,omitempty"`
	ReferenceSolution *string           `json:"reference_solution,omitempty"`
	InitialSchema     *string           `json:"initial_schema,omitempty"` // SQL problems
	InitialData       *string           `json:"initial_data,omitempty"`   // SQL problems
	CreatedByID       *string           `json:"created_by_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TestSet is one judged input/output pair, ordered by SortOrder.
type TestSet struct {
	ID             string `json:"id"`
	ProblemID      string `json:"problem_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsExample      bool   `json:"is_example"`
	SortOrder      int    `json:"sort_order"`
}
