package database

import "time"

// User is a registered platform account.
type User struct {
	ID               int64     `json:"user_id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	Age              *int      `json:"age,omitempty" db:"age"`
	EducationLevelID *int64    `json:"education_level_id,omitempty" db:"education_level_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Competency is a named trait used as a classifier feature. Reference data,
// never mutated by the prediction path.
type Competency struct {
	ID   int64  `json:"competency_id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Scenario is a situational question tagged to exactly one competency.
type Scenario struct {
	ID           int64            `json:"scenario_id" db:"id"`
	Title        string           `json:"title" db:"title"`
	Description  string           `json:"description" db:"description"`
	CompetencyID int64            `json:"competency_id" db:"competency_id"`
	Competency   string           `json:"competency,omitempty"`
	Options      []ScenarioOption `json:"options,omitempty"`
}

// ScenarioOption is one answer choice with a point value on the competency
// scale. Letter is a transient display attribute derived from the option's
// position in the id-ordered list at the moment the scenario is served; it is
// never stored as an independent identity.
type ScenarioOption struct {
	ID         int64   `json:"option_id" db:"id"`
	ScenarioID int64   `json:"scenario_id" db:"scenario_id"`
	OptionText string  `json:"option_text" db:"option_text"`
	Score      float64 `json:"-" db:"score"`
	Letter     string  `json:"letter"`
}

// UserResponse records a user's chosen option. At most one response per user
// per scenario; resubmitting replaces the prior answer.
type UserResponse struct {
	ID           int64     `json:"response_id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	OptionID     int64     `json:"scenario_option_id" db:"scenario_option_id"`
	ResponseTime time.Time `json:"response_time" db:"response_time"`
}

// AssessmentResult is the persisted snapshot of a prediction report.
type AssessmentResult struct {
	UserID                 int64     `json:"user_id" db:"user_id"`
	RecommendedOccupation  string    `json:"recommended_occupation" db:"recommended_occupation"`
	Compatibility          int       `json:"compatibility" db:"compatibility"`
	CompetencyScoresJSON   string    `json:"-" db:"competency_scores"`
	StrongCompetenciesJSON string    `json:"-" db:"strong_competencies"`
	WeakCompetenciesJSON   string    `json:"-" db:"weak_competencies"`
	CompatibilityJSON      string    `json:"-" db:"compatibility_scores"`
	TotalResponses         int       `json:"total_responses" db:"total_responses"`
	IsFinal                bool      `json:"is_final" db:"is_final"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// Occupation is a predictable career class.
type Occupation struct {
	ID    int64  `json:"occupation_id" db:"id"`
	Title string `json:"title" db:"title"`
}

// MentorProfile links a user offering mentorship to an occupation.
type MentorProfile struct {
	ID              int64  `json:"mentor_id" db:"id"`
	UserID          int64  `json:"user_id" db:"user_id"`
	OccupationID    int64  `json:"occupation_id" db:"occupation_id"`
	Occupation      string `json:"occupation,omitempty"`
	Name            string `json:"name,omitempty"`
	Bio             string `json:"bio" db:"bio"`
	YearsExperience int    `json:"years_experience" db:"years_experience"`
}

// Mentorship request lifecycle states.
const (
	MentorshipPending  = "pending"
	MentorshipAccepted = "accepted"
	MentorshipRejected = "rejected"
)

// MentorshipRequest is a mentee's request toward a mentor profile.
type MentorshipRequest struct {
	ID        int64     `json:"request_id" db:"id"`
	MenteeID  int64     `json:"mentee_id" db:"mentee_id"`
	MentorID  int64     `json:"mentor_id" db:"mentor_id"`
	Status    string    `json:"status" db:"status"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Course is recommendable learning content, optionally tied to an occupation.
type Course struct {
	ID           int64  `json:"course_id" db:"id"`
	Title        string `json:"title" db:"title"`
	Description  string `json:"description" db:"description"`
	URL          string `json:"url" db:"url"`
	OccupationID *int64 `json:"occupation_id,omitempty" db:"occupation_id"`
	Keywords     string `json:"keywords" db:"keywords"`
}

// OptionLetter derives the display letter for an option from its 0-indexed
// position in the id-ordered option list: A, B, C, ...
func OptionLetter(index int) string {
	return string(rune('A' + index))
}
