package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/essaygrade/backend/internal/domain/grading"
	"github.com/essaygrade/backend/internal/domain/question"
	"github.com/essaygrade/backend/internal/domain/submission"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *SQLStore, assignment, student string, numbers ...int) []*submission.Submission {
	t.Helper()
	ctx := context.Background()
	var subs []*submission.Submission
	for _, n := range numbers {
		q, err := question.New(assignment, n, "Question text", "Reference answer", 10)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SaveQuestion(ctx, q); err != nil {
			t.Fatalf("save question: %v", err)
		}
		sub, err := submission.New(assignment, q.ID, student, "An answer long enough to grade.")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SaveSubmission(ctx, sub); err != nil {
			t.Fatalf("save submission: %v", err)
		}
		subs = append(subs, sub)
	}
	return subs
}

func TestRebind(t *testing.T) {
	got := rebind("SELECT a FROM t WHERE x = ? AND y IN (?, ?)")
	want := "SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
	if rebind("SELECT 1") != "SELECT 1" {
		t.Error("query without placeholders should be unchanged")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("mysql"), ""); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestQuestionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q, _ := question.New("asg-1", 1, "What is TCP?", "A transport protocol.", 25)
	if err := s.SaveQuestion(ctx, q); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != q.Text || got.MaxPoints != 25 || got.Number != 1 || got.ReferenceAnswer != q.ReferenceAnswer {
		t.Errorf("got %+v, want %+v", got, q)
	}
	if !got.CreatedAt.Equal(q.CreatedAt.Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, q.CreatedAt)
	}

	if _, err := s.GetQuestion(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAnswerWithoutGrading(t *testing.T) {
	s := newTestStore(t)
	subs := seed(t, s, "asg-1", "stu-1", 1)

	a, err := s.GetAnswer(context.Background(), subs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Submission.ID != subs[0].ID || a.Question.ID != subs[0].QuestionID {
		t.Errorf("unexpected answer: %+v", a)
	}
	if a.Grading != nil {
		t.Errorf("expected no grading, got %+v", a.Grading)
	}

	if _, err := s.GetAnswer(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGradingUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subs := seed(t, s, "asg-1", "stu-1", 1)
	id := subs[0].ID
	now := time.Now()

	tech := 80.0
	if err := s.SaveAIGrade(ctx, id, grading.AIGrade{Score: 7, TechnicalScore: &tech, Feedback: "first", Method: "technical-only"}, now); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveLecturerGrade(ctx, id, 9, "nice", now); err != nil {
		t.Fatal(err)
	}
	logical := 60.0
	if err := s.SaveAIGrade(ctx, id, grading.AIGrade{Score: 6, TechnicalScore: &tech, LogicalScore: &logical, Feedback: "second", Method: "hybrid"}, now); err != nil {
		t.Fatal(err)
	}

	a, err := s.GetAnswer(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	g := a.Grading
	if g == nil {
		t.Fatal("expected grading")
	}
	if *g.AIScore != 6 || g.AIFeedback != "second" || g.Method != "hybrid" {
		t.Errorf("AI columns not updated: %+v", g)
	}
	if g.LogicalScore == nil || *g.LogicalScore != 60 || *g.TechnicalScore != 80 {
		t.Errorf("signal columns wrong: tech=%v logical=%v", g.TechnicalScore, g.LogicalScore)
	}
	if g.LecturerScore == nil || *g.LecturerScore != 9 || g.LecturerFeedback != "nice" {
		t.Errorf("lecturer grade lost: %+v", g)
	}
}

func TestLecturerGradeWithoutAI(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	subs := seed(t, s, "asg-1", "stu-1", 1)

	if err := s.SaveLecturerGrade(ctx, subs[0].ID, 4.5, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	a, err := s.GetAnswer(ctx, subs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Grading.AIScore != nil {
		t.Errorf("AIScore = %v, want nil", *a.Grading.AIScore)
	}
	if *a.Grading.LecturerScore != 4.5 {
		t.Errorf("LecturerScore = %v", *a.Grading.LecturerScore)
	}
}

func TestListAnswersOrderedByQuestionNumber(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "asg-1", "stu-1", 3, 1, 2)
	seed(t, s, "asg-1", "stu-2", 1)
	seed(t, s, "asg-2", "stu-1", 1)

	answers, err := s.ListAnswers(context.Background(), "asg-1", "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 3 {
		t.Fatalf("got %d answers, want 3", len(answers))
	}
	for i, a := range answers {
		if a.Question.Number != i+1 {
			t.Errorf("answers[%d] is question %d", i, a.Question.Number)
		}
		if a.Submission.StudentID != "stu-1" || a.Submission.AssignmentID != "asg-1" {
			t.Errorf("foreign answer leaked: %+v", a.Submission)
		}
	}

	none, err := s.ListAnswers(context.Background(), "asg-9", "stu-1")
	if err != nil || len(none) != 0 {
		t.Errorf("expected empty list, got %v, %v", none, err)
	}
}

func TestStudentStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.StudentStats(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Submitted != 0 || empty.AverageAIScore != nil {
		t.Errorf("unexpected stats for unknown student: %+v", empty)
	}

	subs := seed(t, s, "asg-1", "stu-1", 1, 2, 3, 4)
	now := time.Now()
	s.SaveAIGrade(ctx, subs[0].ID, grading.AIGrade{Score: 6, Method: "hybrid"}, now)
	s.SaveAIGrade(ctx, subs[1].ID, grading.AIGrade{Score: 8, Method: "hybrid"}, now)
	s.SaveLecturerGrade(ctx, subs[2].ID, 5, "", now)

	st, err := s.StudentStats(ctx, "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Submitted != 4 || st.Graded != 3 || st.Pending != 1 {
		t.Errorf("counts = %+v", st)
	}
	if st.AverageAIScore == nil || *st.AverageAIScore != 7 {
		t.Errorf("AverageAIScore = %v, want 7", st.AverageAIScore)
	}
}
