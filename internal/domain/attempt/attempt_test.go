package attempt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

func TestNewAttempt(t *testing.T) {
	a, err := attempt.New("s1", "quiz-1", curriculum.QuizTypePractice, "unit-1", nil, 85, []attempt.QuestionResult{
		{QuestionID: "q1", Correct: true, TimeSec: 12},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Error("expected a generated id")
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
	if a.ScorePct != 85 {
		t.Errorf("score = %v, want 85", a.ScorePct)
	}
}

func TestNewAttemptValidation(t *testing.T) {
	cases := []struct {
		name      string
		studentID string
		quizID    string
		quizType  curriculum.QuizType
		unitID    string
	}{
		{"missing student", "", "quiz-1", curriculum.QuizTypePractice, "unit-1"},
		{"missing quiz", "s1", "", curriculum.QuizTypePractice, "unit-1"},
		{"missing quiz type", "s1", "quiz-1", "", "unit-1"},
		{"missing unit", "s1", "quiz-1", curriculum.QuizTypePractice, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := attempt.New(tc.studentID, tc.quizID, tc.quizType, tc.unitID, nil, 50, nil)
			if !errors.Is(err, attempt.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}

	_, err := attempt.New("s1", "quiz-1", curriculum.QuizTypePractice, "unit-1", nil, 50, []attempt.QuestionResult{
		{QuestionID: ""},
	})
	if !errors.Is(err, attempt.ErrInvalid) {
		t.Errorf("expected ErrInvalid for a result without a question id, got %v", err)
	}
}

func TestNewAttemptClamping(t *testing.T) {
	a, err := attempt.New("s1", "quiz-1", curriculum.QuizTypePractice, "unit-1", nil, 140, []attempt.QuestionResult{
		{QuestionID: "q1", TimeSec: -5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ScorePct != 100 {
		t.Errorf("score = %v, want clamped to 100", a.ScorePct)
	}
	if a.Results[0].TimeSec != 0 {
		t.Errorf("time = %v, want clamped to 0", a.Results[0].TimeSec)
	}

	a, err = attempt.New("s1", "quiz-1", curriculum.QuizTypePractice, "unit-1", nil, -10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ScorePct != 0 {
		t.Errorf("score = %v, want clamped to 0", a.ScorePct)
	}
}

func TestSortByCreation(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	attempts := []attempt.Attempt{
		{ID: "c", CreatedAt: base.Add(time.Minute)},
		{ID: "b", CreatedAt: base, Seq: 2},
		{ID: "a", CreatedAt: base, Seq: 1},
	}

	attempt.SortByCreation(attempts)

	for i, want := range []string{"a", "b", "c"} {
		if attempts[i].ID != want {
			t.Errorf("attempts[%d] = %s, want %s", i, attempts[i].ID, want)
		}
	}
}
