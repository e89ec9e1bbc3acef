package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campuslink-ng/campus-api/internal/models"
)

// CourseRepository reads courses and teaching assignments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns the course with the given id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, title, session_id, semester, units, created_at, updated_at
		FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ActiveAssignmentExists checks whether the lecturer holds an ACTIVE teaching
// assignment for the course in the given session and semester.
func (r *CourseRepository) ActiveAssignmentExists(ctx context.Context, lecturerID, courseID, sessionID string, semester models.Semester) (bool, error) {
	const query = `SELECT 1 FROM teaching_assignments
		WHERE lecturer_id = $1 AND course_id = $2 AND session_id = $3 AND semester = $4 AND status = $5 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, lecturerID, courseID, sessionID, semester, models.AssignmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teaching assignment: %w", err)
	}
	return true, nil
}
