package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/essaygrade/backend/internal/domain/grading"
	"github.com/essaygrade/backend/internal/domain/question"
	"github.com/essaygrade/backend/internal/domain/submission"
)

// ============================================================================
// Questions
// ============================================================================

func (s *SQLStore) SaveQuestion(ctx context.Context, q *question.Question) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO questions (id, assignment_id, number, text, reference_answer, max_points, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		q.ID, q.AssignmentID, q.Number, q.Text, q.ReferenceAnswer, q.MaxPoints, q.CreatedAt.UnixMilli())
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (*question.Question, error) {
	var q question.Question
	var created int64
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, assignment_id, number, text, reference_answer, max_points, created_at
		FROM questions WHERE id = ?`), id).
		Scan(&q.ID, &q.AssignmentID, &q.Number, &q.Text, &q.ReferenceAnswer, &q.MaxPoints, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	q.CreatedAt = time.UnixMilli(created).UTC()
	return &q, nil
}

// ============================================================================
// Submissions
// ============================================================================

func (s *SQLStore) SaveSubmission(ctx context.Context, sub *submission.Submission) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO submissions (id, assignment_id, question_id, student_id, answer, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		sub.ID, sub.AssignmentID, sub.QuestionID, sub.StudentID, sub.Answer, sub.SubmittedAt.UnixMilli())
	return err
}

const answerColumns = `
	s.id, s.assignment_id, s.question_id, s.student_id, s.answer, s.submitted_at,
	q.id, q.assignment_id, q.number, q.text, q.reference_answer, q.max_points, q.created_at,
	g.submission_id, g.ai_score, g.technical_score, g.logical_score, g.ai_feedback, g.method,
	g.lecturer_score, g.lecturer_feedback, g.graded_at
FROM submissions s
JOIN questions q ON q.id = s.question_id
LEFT JOIN gradings g ON g.submission_id = s.id`

// GetAnswer loads a submission with its question and grading.
func (s *SQLStore) GetAnswer(ctx context.Context, submissionID string) (*Answer, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+answerColumns+` WHERE s.id = ?`), submissionID)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListAnswers returns a student's submissions for an assignment ordered by
// question number.
func (s *SQLStore) ListAnswers(ctx context.Context, assignmentID, studentID string) ([]*Answer, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+answerColumns+`
		WHERE s.assignment_id = ? AND s.student_id = ?
		ORDER BY q.number, s.submitted_at`), assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnswer(r scanner) (*Answer, error) {
	var (
		a                      Answer
		submitted, created     int64
		gSubmission            sql.NullString
		aiScore, tech, logical sql.NullFloat64
		lecturerScore          sql.NullFloat64
		aiFeedback, method     sql.NullString
		lecturerFeedback       sql.NullString
		gradedAt               sql.NullInt64
	)
	err := r.Scan(
		&a.Submission.ID, &a.Submission.AssignmentID, &a.Submission.QuestionID, &a.Submission.StudentID,
		&a.Submission.Answer, &submitted,
		&a.Question.ID, &a.Question.AssignmentID, &a.Question.Number, &a.Question.Text,
		&a.Question.ReferenceAnswer, &a.Question.MaxPoints, &created,
		&gSubmission, &aiScore, &tech, &logical, &aiFeedback, &method,
		&lecturerScore, &lecturerFeedback, &gradedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Submission.SubmittedAt = time.UnixMilli(submitted).UTC()
	a.Question.CreatedAt = time.UnixMilli(created).UTC()

	if gSubmission.Valid {
		a.Grading = &grading.Grading{
			SubmissionID:     gSubmission.String,
			AIScore:          nullFloat(aiScore),
			TechnicalScore:   nullFloat(tech),
			LogicalScore:     nullFloat(logical),
			AIFeedback:       aiFeedback.String,
			Method:           method.String,
			LecturerScore:    nullFloat(lecturerScore),
			LecturerFeedback: lecturerFeedback.String,
			GradedAt:         time.UnixMilli(gradedAt.Int64).UTC(),
		}
	}
	return &a, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// ============================================================================
// Gradings
// ============================================================================

// SaveAIGrade upserts the AI columns of a submission's grading, leaving any
// lecturer grade untouched.
func (s *SQLStore) SaveAIGrade(ctx context.Context, submissionID string, g grading.AIGrade, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO gradings (submission_id, ai_score, technical_score, logical_score, ai_feedback, method, graded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (submission_id) DO UPDATE SET
			ai_score = excluded.ai_score,
			technical_score = excluded.technical_score,
			logical_score = excluded.logical_score,
			ai_feedback = excluded.ai_feedback,
			method = excluded.method,
			graded_at = excluded.graded_at`),
		submissionID, g.Score, g.TechnicalScore, g.LogicalScore, g.Feedback, g.Method, at.UnixMilli())
	return err
}

// SaveLecturerGrade upserts the lecturer columns, leaving any AI grade
// untouched.
func (s *SQLStore) SaveLecturerGrade(ctx context.Context, submissionID string, score float64, feedback string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO gradings (submission_id, lecturer_score, lecturer_feedback, graded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (submission_id) DO UPDATE SET
			lecturer_score = excluded.lecturer_score,
			lecturer_feedback = excluded.lecturer_feedback,
			graded_at = excluded.graded_at`),
		submissionID, score, feedback, at.UnixMilli())
	return err
}

// StudentStats counts a student's submissions and averages their AI scores.
func (s *SQLStore) StudentStats(ctx context.Context, studentID string) (grading.StudentStats, error) {
	st := grading.StudentStats{StudentID: studentID}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT
			COUNT(s.id),
			COUNT(CASE WHEN g.ai_score IS NOT NULL OR g.lecturer_score IS NOT NULL THEN 1 END),
			AVG(g.ai_score)
		FROM submissions s
		LEFT JOIN gradings g ON g.submission_id = s.id
		WHERE s.student_id = ?`), studentID).
		Scan(&st.Submitted, &st.Graded, &avg)
	if err != nil {
		return st, err
	}
	st.Pending = st.Submitted - st.Graded
	st.AverageAIScore = nullFloat(avg)
	return st, nil
}
