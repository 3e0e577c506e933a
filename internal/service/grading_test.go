package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/essaygrade/backend/internal/grader"
	"github.com/essaygrade/backend/internal/service"
	"github.com/essaygrade/backend/internal/store"
)

// fakeGrader scores every answer by its length, or returns a fixed result.
type fakeGrader struct {
	mu     sync.Mutex
	calls  int
	result *grader.Result
}

func (f *fakeGrader) Grade(ctx context.Context, req grader.Request) grader.Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.result != nil {
		return *f.result
	}
	if len(req.StudentAnswer) < 5 {
		return grader.Result{Method: grader.MethodError, ErrorKind: grader.ErrorInput, Feedback: "too short", MaxPoints: req.MaxPoints}
	}
	logical := 50.0
	return grader.Result{
		FinalScore:   req.MaxPoints / 2,
		MaxPoints:    req.MaxPoints,
		Normalized:   50,
		LogicalScore: &logical,
		Feedback:     "fine",
		Method:       grader.MethodLLMOnly,
	}
}

type fixture struct {
	store   *store.SQLStore
	records *service.RecordService
	grading *service.GradingService
	grader  *fakeGrader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	g := &fakeGrader{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		store:   s,
		records: service.NewRecordService(s),
		grading: service.NewGradingService(s, g, logger, 3),
		grader:  g,
	}
}

// submit creates a question numbered n in assignment asg and a submission to it.
func (f *fixture) submit(t *testing.T, asg string, n int, student, answer string) string {
	t.Helper()
	ctx := context.Background()
	q, err := f.records.CreateQuestion(ctx, service.CreateQuestionInput{
		AssignmentID: asg, Number: n, Text: "Explain something.", ReferenceAnswer: "Reference.", MaxPoints: 20,
	})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := f.records.CreateSubmission(ctx, service.CreateSubmissionInput{
		QuestionID: q.ID, StudentID: student, Answer: answer,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sub.AssignmentID != asg {
		t.Fatalf("AssignmentID = %q, want %q", sub.AssignmentID, asg)
	}
	return sub.ID
}

func TestPreviewDoesNotSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t, "asg", 1, "stu", "A reasonable answer.")

	got, err := f.grading.Preview(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Result.FinalScore != 10 || got.Saved {
		t.Errorf("preview = %+v", got)
	}
	a, _ := f.records.GetAnswer(ctx, id)
	if a.Grading != nil {
		t.Error("preview must not persist a grade")
	}
}

func TestGradeSaves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t, "asg", 1, "stu", "A reasonable answer.")

	got, err := f.grading.Grade(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Saved {
		t.Fatalf("expected saved, got %+v", got)
	}
	a, _ := f.records.GetAnswer(ctx, id)
	if a.Grading == nil || *a.Grading.AIScore != 10 || a.Grading.Method != "llm-only" {
		t.Errorf("grading = %+v", a.Grading)
	}
	if a.Grading.LogicalScore == nil || *a.Grading.LogicalScore != 50 {
		t.Error("logical score not persisted")
	}
}

func TestGradeSkipsBackendFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t, "asg", 1, "stu", "A reasonable answer.")

	if _, err := f.grading.Grade(ctx, id); err != nil {
		t.Fatal(err)
	}
	f.grader.result = &grader.Result{Method: grader.MethodError, ErrorKind: grader.ErrorRemoteCall, Feedback: "AI down"}
	got, err := f.grading.Grade(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Saved || got.SaveError == "" {
		t.Errorf("backend failure should not be saved: %+v", got)
	}
	a, _ := f.records.GetAnswer(ctx, id)
	if *a.Grading.AIScore != 10 {
		t.Errorf("earlier grade overwritten: %v", *a.Grading.AIScore)
	}
}

func TestGradeSavesRejectedInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t, "asg", 1, "stu", "itk")

	got, err := f.grading.Grade(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Saved || got.Result.Method != grader.MethodError {
		t.Errorf("got %+v", got)
	}
}

func TestGradeNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.grading.Grade(context.Background(), "missing"); !service.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if f.grader.calls != 0 {
		t.Error("grader should not be called")
	}
}

func TestGradeAssignmentOrderedAndSaved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, n := range []int{4, 2, 1, 3, 5} {
		f.submit(t, "asg", n, "stu", "Some answer text.")
	}
	f.submit(t, "asg", 6, "other", "Not this student.")

	got, err := f.grading.GradeAssignment(ctx, "asg", "stu")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d results, want 5", len(got))
	}
	for i, g := range got {
		if g.QuestionNumber != i+1 {
			t.Errorf("results[%d] is question %d", i, g.QuestionNumber)
		}
		if !g.Saved {
			t.Errorf("question %d not saved: %s", g.QuestionNumber, g.SaveError)
		}
	}

	st, err := f.grading.StudentStats(ctx, "stu")
	if err != nil {
		t.Fatal(err)
	}
	if st.Graded != 5 || st.Pending != 0 || *st.AverageAIScore != 10 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPreviewAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "asg", 1, "stu", "Some answer text.")

	got, err := f.grading.PreviewAssignment(ctx, "asg", "stu")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Saved {
		t.Errorf("got %+v", got)
	}

	if _, err := f.grading.PreviewAssignment(ctx, "asg", "nobody"); !service.IsNotFound(err) {
		t.Errorf("expected not found for empty assignment, got %v", err)
	}
}

func TestRecordLecturerGrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t, "asg", 1, "stu", "Some answer text.")

	if _, err := f.grading.RecordLecturerGrade(ctx, id, 25, "too generous"); !errors.Is(err, service.ErrInvalid) {
		t.Errorf("expected ErrInvalid for score above max, got %v", err)
	}

	g, err := f.grading.RecordLecturerGrade(ctx, id, 18, "good")
	if err != nil {
		t.Fatal(err)
	}
	if *g.LecturerScore != 18 {
		t.Errorf("LecturerScore = %v", *g.LecturerScore)
	}

	st, _ := f.grading.StudentStats(ctx, "stu")
	if st.Graded != 1 || st.AverageAIScore != nil {
		t.Errorf("stats = %+v", st)
	}

	if _, err := f.grading.RecordLecturerGrade(ctx, "missing", 1, ""); !service.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreateRecordsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.records.CreateQuestion(ctx, service.CreateQuestionInput{AssignmentID: "asg", Number: 1}); !errors.Is(err, service.ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty text, got %v", err)
	}
	if _, err := f.records.CreateSubmission(ctx, service.CreateSubmissionInput{QuestionID: "q", Answer: "x"}); !errors.Is(err, service.ErrInvalid) {
		t.Errorf("expected ErrInvalid for missing student, got %v", err)
	}
	if _, err := f.records.CreateSubmission(ctx, service.CreateSubmissionInput{QuestionID: "missing", StudentID: "s", Answer: "x"}); !service.IsNotFound(err) {
		t.Errorf("expected not found for unknown question, got %v", err)
	}
	if _, err := f.grading.StudentStats(ctx, ""); !errors.Is(err, service.ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty student, got %v", err)
	}
}
