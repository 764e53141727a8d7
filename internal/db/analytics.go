package db

import (
	"context"
	"database/sql"
)

type AssignmentStats struct {
	TotalSubmitted int
	TotalGraded    int
	AverageGrade   float64
}

// GetAssignmentStats aggregates in SQL so the summary stays one round
// trip regardless of roster size. AverageGrade is the mean graded
// percentage against each submission's own max-points snapshot; zero when
// nothing is graded.
func GetAssignmentStats(ctx context.Context, database *sql.DB, assignmentID int64) (AssignmentStats, error) {
	var st AssignmentStats
	err := database.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE status IN ('submitted', 'returned')),
			count(*) FILTER (WHERE grade IS NOT NULL),
			COALESCE(avg(grade::float8 / max_points * 100) FILTER (WHERE grade IS NOT NULL AND max_points > 0), 0)
		FROM submissions
		WHERE assignment_id = $1
	`, assignmentID).Scan(&st.TotalSubmitted, &st.TotalGraded, &st.AverageGrade)
	if err != nil && err != sql.ErrNoRows {
		return AssignmentStats{}, err
	}
	return st, nil
}
