package adaptive_test

import (
	"math"
	"testing"
	"time"

	"github.com/learnloop/backend/internal/adaptive"
	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

func makeAttempt(t *testing.T, studentID string, results []attempt.QuestionResult) attempt.Attempt {
	t.Helper()
	a, err := attempt.New(studentID, "quiz-1", curriculum.QuizTypePractice, "unit-1", nil, 80, results)
	if err != nil {
		t.Fatalf("attempt.New: %v", err)
	}
	return *a
}

func TestLevelForBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.0, "easy"},
		{0.3499, "easy"},
		{0.35, "medium"},
		{0.6499, "medium"},
		{0.65, "hard"},
		{1.0, "hard"},
	}
	for _, tc := range cases {
		if got := adaptive.LevelFor(tc.score); got != tc.want {
			t.Errorf("LevelFor(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestEstimateDifficultyUnattemptedUsesPrior(t *testing.T) {
	questions := map[string]curriculum.Question{
		"q-easy": {ID: "q-easy", UnitID: "unit-1", Difficulty: curriculum.DifficultyEasy},
		"q-hard": {ID: "q-hard", UnitID: "unit-1", Difficulty: curriculum.DifficultyHard},
	}

	estimates := adaptive.EstimateDifficulty(nil, questions)

	easy := estimates["q-easy"]
	if easy.Difficulty != 0.25 {
		t.Errorf("unattempted easy question difficulty = %v, want 0.25", easy.Difficulty)
	}
	if easy.PCorrect != 0.75 {
		t.Errorf("unattempted easy question p_correct = %v, want 0.75", easy.PCorrect)
	}
	if easy.Attempts != 0 {
		t.Errorf("unattempted question n_attempts = %d, want 0", easy.Attempts)
	}
	if easy.AvgTimeSec != nil {
		t.Error("unattempted question should have no average time")
	}
	if easy.Level != "easy" {
		t.Errorf("unattempted easy question level = %q, want easy", easy.Level)
	}

	hard := estimates["q-hard"]
	if hard.Difficulty != 0.75 {
		t.Errorf("unattempted hard question difficulty = %v, want 0.75", hard.Difficulty)
	}
	if hard.Level != "hard" {
		t.Errorf("unattempted hard question level = %q, want hard", hard.Level)
	}
}

func TestEstimateDifficultyUnknownQuestion(t *testing.T) {
	// Three correct out of four on a question absent from the lookup:
	// Laplace gives (3+1)/(4+2) = 0.667 correct, and without time data the
	// difficulty blends toward the 0.5 default prior.
	var results []attempt.QuestionResult
	for i := 0; i < 4; i++ {
		results = append(results, attempt.QuestionResult{
			QuestionID: "q-mystery",
			Correct:    i < 3,
		})
	}
	history := []attempt.Attempt{makeAttempt(t, "s1", results)}

	estimates := adaptive.EstimateDifficulty(history, map[string]curriculum.Question{})

	est, ok := estimates["q-mystery"]
	if !ok {
		t.Fatal("expected an estimate for an attempted unknown question")
	}
	if est.PCorrect != 0.667 {
		t.Errorf("p_correct = %v, want 0.667", est.PCorrect)
	}
	if est.Difficulty != 0.383 {
		t.Errorf("difficulty = %v, want 0.383", est.Difficulty)
	}
	if est.Level != "medium" {
		t.Errorf("level = %q, want medium", est.Level)
	}
	if est.Attempts != 4 {
		t.Errorf("n_attempts = %d, want 4", est.Attempts)
	}
}

func TestEstimateDifficultySlowResponsesRaiseDifficulty(t *testing.T) {
	questions := map[string]curriculum.Question{
		"q1": {ID: "q1", UnitID: "unit-1", Difficulty: curriculum.DifficultyMedium, EstimatedTimeSec: 30},
	}

	fast := []attempt.Attempt{makeAttempt(t, "s1", []attempt.QuestionResult{
		{QuestionID: "q1", Correct: true, TimeSec: 30},
	})}
	slow := []attempt.Attempt{makeAttempt(t, "s1", []attempt.QuestionResult{
		{QuestionID: "q1", Correct: true, TimeSec: 90},
	})}

	fastEst := adaptive.EstimateDifficulty(fast, questions)["q1"]
	slowEst := adaptive.EstimateDifficulty(slow, questions)["q1"]

	if slowEst.Difficulty <= fastEst.Difficulty {
		t.Errorf("slow answers should look harder: fast=%v slow=%v", fastEst.Difficulty, slowEst.Difficulty)
	}
	if fastEst.AvgTimeSec == nil || *fastEst.AvgTimeSec != 30 {
		t.Errorf("avg_time_sec = %v, want 30", fastEst.AvgTimeSec)
	}
}

func TestEstimateDifficultyBounds(t *testing.T) {
	questions := map[string]curriculum.Question{
		"q1": {ID: "q1", UnitID: "unit-1", Difficulty: curriculum.DifficultyHard, EstimatedTimeSec: 15},
	}

	// All wrong and very slow: must stay within [0, 1].
	var results []attempt.QuestionResult
	for i := 0; i < 10; i++ {
		results = append(results, attempt.QuestionResult{QuestionID: "q1", Correct: false, TimeSec: 600})
	}
	history := []attempt.Attempt{makeAttempt(t, "s1", results)}

	for qid, est := range adaptive.EstimateDifficulty(history, questions) {
		if est.Difficulty < 0 || est.Difficulty > 1 {
			t.Errorf("%s: difficulty %v out of [0,1]", qid, est.Difficulty)
		}
		if est.PCorrect < 0 || est.PCorrect > 1 {
			t.Errorf("%s: p_correct %v out of [0,1]", qid, est.PCorrect)
		}
	}
}

func TestEstimateDifficultySkipsBlankQuestionIDs(t *testing.T) {
	history := []attempt.Attempt{makeAttempt(t, "s1", []attempt.QuestionResult{})}
	history[0].Results = []attempt.QuestionResult{{QuestionID: "", Correct: true}}
	history[0].CreatedAt = time.Now().UTC()

	estimates := adaptive.EstimateDifficulty(history, map[string]curriculum.Question{})
	if len(estimates) != 0 {
		t.Errorf("expected no estimates for blank question ids, got %d", len(estimates))
	}
}

func TestEstimateDifficultyDeterministic(t *testing.T) {
	questions := map[string]curriculum.Question{
		"q1": {ID: "q1", UnitID: "unit-1", Difficulty: curriculum.DifficultyMedium, EstimatedTimeSec: 45},
	}
	history := []attempt.Attempt{makeAttempt(t, "s1", []attempt.QuestionResult{
		{QuestionID: "q1", Correct: true, TimeSec: 40},
		{QuestionID: "q1", Correct: false, TimeSec: 80},
	})}

	first := adaptive.EstimateDifficulty(history, questions)["q1"]
	second := adaptive.EstimateDifficulty(history, questions)["q1"]
	if math.Abs(first.Difficulty-second.Difficulty) > 1e-12 || first.Attempts != second.Attempts {
		t.Errorf("estimate not deterministic: %+v vs %+v", first, second)
	}
}
