package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Profile is the root career record for one user. Nullable fields are
// pointers because absence is a valid, common state distinct from "".
type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  *string   `json:"full_name"`
	Location  *string   `json:"location"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkExperience is one position owned by a profile. When IsCurrent is set
// a stored EndDate is retained but never rendered.
type WorkExperience struct {
	ID           string   `json:"id"`
	ProfileID    string   `json:"profile_id"`
	Company      string   `json:"company"`
	Title        string   `json:"title"`
	StartDate    string   `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	IsCurrent    bool     `json:"is_current"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements"`
	Position     int      `json:"position"`
}

type Education struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profile_id"`
	Institution string  `json:"institution"`
	Degree      string  `json:"degree"`
	Field       *string `json:"field"`
}

type Skill struct {
	ID          string  `json:"id"`
	ProfileID   string  `json:"profile_id"`
	Name        string  `json:"name"`
	Proficiency *string `json:"proficiency"`
}

// Application records one evaluated job posting and the documents drafted
// for it.
type Application struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Company        string    `json:"company"`
	JobTitle       string    `json:"job_title"`
	JobDescription string    `json:"job_description"`
	MatchedSkills  []string  `json:"matched_skills"`
	MissingSkills  []string  `json:"missing_skills"`
	CoverLetter    string    `json:"cover_letter"`
	Document       *string   `json:"document"`
	CreatedAt      time.Time `json:"created_at"`
}
