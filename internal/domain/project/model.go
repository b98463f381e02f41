package project

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a project listing.
type Status string

const (
	StatusPending    Status = "pending"
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPaused     Status = "paused"
)

// Difficulty is the skill level a project asks for.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ApplicationType says whether developers apply alone, as a team, or either.
type ApplicationType string

const (
	ApplicationIndividual ApplicationType = "individual"
	ApplicationTeam       ApplicationType = "team"
	ApplicationBoth       ApplicationType = "both"
)

// Project is a volunteer opportunity posted by an organization.
type Project struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Requirements    string          `json:"requirements,omitempty"`
	TechnologyStack []string        `json:"technology_stack"`
	DifficultyLevel Difficulty      `json:"difficulty_level"`
	ApplicationType ApplicationType `json:"application_type"`
	Status          Status          `json:"status"`
	IsRemote        bool            `json:"is_remote"`
	Location        *string         `json:"location,omitempty"`
	Deadline        *time.Time      `json:"deadline,omitempty"`
	MaxTeamSize     int             `json:"max_team_size"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Read-side fields joined in by the store.
	OrganizationName string `json:"organization_name,omitempty"`
	TeamSize         int    `json:"team_size"`
}

// IsActive reports whether the project is accepting or doing work.
func (p Project) IsActive() bool {
	return p.Status == StatusOpen || p.Status == StatusInProgress
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusOpen, StatusInProgress, StatusCompleted, StatusPaused:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
}

// ParseDifficulty validates a difficulty string.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
}

// ParseApplicationType validates an application type string.
func ParseApplicationType(s string) (ApplicationType, error) {
	switch a := ApplicationType(strings.ToLower(strings.TrimSpace(s))); a {
	case ApplicationIndividual, ApplicationTeam, ApplicationBoth:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown application type %q", ErrInvalidInput, s)
}
