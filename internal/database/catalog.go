package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ListCourses returns all courses.
func (r *Repository) ListCourses() ([]Course, error) {
	return r.queryCourses(`
		SELECT id, title, description, url, occupation_id, keywords
		FROM courses ORDER BY id
	`)
}

// CoursesForOccupation returns courses targeting the given occupation title.
func (r *Repository) CoursesForOccupation(occupation string) ([]Course, error) {
	return r.queryCourses(`
		SELECT c.id, c.title, c.description, c.url, c.occupation_id, c.keywords
		FROM courses c
		JOIN occupations o ON o.id = c.occupation_id
		WHERE o.title = ?
		ORDER BY c.id
	`, occupation)
}

// CoursesByKeywords returns courses whose title or keyword list contains any
// of the given terms (case-insensitive).
func (r *Repository) CoursesByKeywords(terms []string) ([]Course, error) {
	courses, err := r.ListCourses()
	if err != nil {
		return nil, err
	}

	var matched []Course
	for _, course := range courses {
		haystack := strings.ToLower(course.Title + " " + course.Keywords)
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			if strings.Contains(haystack, term) {
				matched = append(matched, course)
				break
			}
		}
	}
	return matched, nil
}

func (r *Repository) queryCourses(query string, args ...any) ([]Course, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.URL, &c.OccupationID, &c.Keywords); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return courses, nil
}

// MentorsForOccupation returns mentor profiles attached to an occupation
// title, with the mentor's display name joined in.
func (r *Repository) MentorsForOccupation(occupation string) ([]MentorProfile, error) {
	rows, err := r.db.Query(`
		SELECT m.id, m.user_id, m.occupation_id, o.title, u.name, m.bio, m.years_experience
		FROM mentor_profiles m
		JOIN occupations o ON o.id = m.occupation_id
		JOIN users u ON u.id = m.user_id
		WHERE o.title = ?
		ORDER BY m.years_experience DESC, m.id
	`, occupation)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentors: %w", err)
	}
	defer rows.Close()

	var mentors []MentorProfile
	for rows.Next() {
		var m MentorProfile
		if err := rows.Scan(&m.ID, &m.UserID, &m.OccupationID, &m.Occupation, &m.Name, &m.Bio, &m.YearsExperience); err != nil {
			return nil, fmt.Errorf("failed to scan mentor: %w", err)
		}
		mentors = append(mentors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mentors: %w", err)
	}
	return mentors, nil
}

// GetMentorProfile returns one mentor profile or ErrNotFound.
func (r *Repository) GetMentorProfile(id int64) (*MentorProfile, error) {
	var m MentorProfile
	err := r.db.QueryRow(`
		SELECT m.id, m.user_id, m.occupation_id, o.title, u.name, m.bio, m.years_experience
		FROM mentor_profiles m
		JOIN occupations o ON o.id = m.occupation_id
		JOIN users u ON u.id = m.user_id
		WHERE m.id = ?
	`, id).Scan(&m.ID, &m.UserID, &m.OccupationID, &m.Occupation, &m.Name, &m.Bio, &m.YearsExperience)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query mentor profile: %w", err)
	}
	return &m, nil
}

// ErrDuplicateRequest is returned when a mentee already has a pending
// request toward the same mentor.
var ErrDuplicateRequest = errors.New("pending mentorship request already exists")

// CreateMentorshipRequest records a new pending request.
func (r *Repository) CreateMentorshipRequest(menteeID, mentorID int64, message string) (*MentorshipRequest, error) {
	var existing int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM mentorship_requests
		WHERE mentee_id = ? AND mentor_id = ? AND status = ?
	`, menteeID, mentorID, MentorshipPending).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateRequest
	}

	req := &MentorshipRequest{
		MenteeID:  menteeID,
		MentorID:  mentorID,
		Status:    MentorshipPending,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	res, err := r.db.Exec(`
		INSERT INTO mentorship_requests (mentee_id, mentor_id, status, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, req.MenteeID, req.MentorID, req.Status, req.Message, req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create mentorship request: %w", err)
	}
	req.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new request id: %w", err)
	}
	return req, nil
}

// ListMentorshipRequests returns requests where the user is the mentee or
// owns the mentor profile.
func (r *Repository) ListMentorshipRequests(userID int64) ([]MentorshipRequest, error) {
	rows, err := r.db.Query(`
		SELECT mr.id, mr.mentee_id, mr.mentor_id, mr.status, mr.message, mr.created_at
		FROM mentorship_requests mr
		LEFT JOIN mentor_profiles m ON m.id = mr.mentor_id
		WHERE mr.mentee_id = ? OR m.user_id = ?
		ORDER BY mr.created_at DESC, mr.id DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentorship requests: %w", err)
	}
	defer rows.Close()

	var requests []MentorshipRequest
	for rows.Next() {
		var req MentorshipRequest
		if err := rows.Scan(&req.ID, &req.MenteeID, &req.MentorID, &req.Status, &req.Message, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mentorship request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mentorship requests: %w", err)
	}
	return requests, nil
}

// UpdateMentorshipRequestStatus transitions a pending request. Only the user
// owning the mentor profile may accept or reject it.
func (r *Repository) UpdateMentorshipRequestStatus(requestID, mentorUserID int64, status string) (*MentorshipRequest, error) {
	if status != MentorshipAccepted && status != MentorshipRejected {
		return nil, fmt.Errorf("invalid mentorship status %q", status)
	}

	res, err := r.db.Exec(`
		UPDATE mentorship_requests
		SET status = ?
		WHERE id = ?
		  AND status = ?
		  AND mentor_id IN (SELECT id FROM mentor_profiles WHERE user_id = ?)
	`, status, requestID, MentorshipPending, mentorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to update mentorship request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update mentorship request: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	var req MentorshipRequest
	err = r.db.QueryRow(`
		SELECT id, mentee_id, mentor_id, status, message, created_at
		FROM mentorship_requests WHERE id = ?
	`, requestID).Scan(&req.ID, &req.MenteeID, &req.MentorID, &req.Status, &req.Message, &req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reload mentorship request: %w", err)
	}
	return &req, nil
}
