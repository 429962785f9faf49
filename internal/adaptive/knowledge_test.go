package adaptive_test

import (
	"math"
	"testing"
	"time"

	"github.com/learnloop/backend/internal/adaptive"
	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

var tracedQuestions = map[string]curriculum.Question{
	"q1": {ID: "q1", UnitID: "unit-1", SkillIDs: []string{"algebra_factoring"}},
	"q2": {ID: "q2", UnitID: "unit-1", SkillIDs: []string{"algebra_factoring"}},
}

func timedAttempt(t *testing.T, at time.Time, results []attempt.QuestionResult) attempt.Attempt {
	t.Helper()
	a := makeAttempt(t, "s1", results)
	a.CreatedAt = at
	return a
}

func TestUpdateSkillStateSingleObservations(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	correct := []attempt.Attempt{timedAttempt(t, base, []attempt.QuestionResult{
		{QuestionID: "q1", Correct: true},
	})}
	state := adaptive.UpdateSkillState(correct, tracedQuestions, nil)
	got := state["algebra_factoring"]
	if got.PMastery != 0.475 {
		t.Errorf("after one correct: p_mastery = %v, want 0.475", got.PMastery)
	}
	if got.Observations != 1 || got.RecentCorrect != 1 {
		t.Errorf("after one correct: observations=%d streak=%d, want 1 and 1", got.Observations, got.RecentCorrect)
	}

	incorrect := []attempt.Attempt{timedAttempt(t, base, []attempt.QuestionResult{
		{QuestionID: "q1", Correct: false},
	})}
	state = adaptive.UpdateSkillState(incorrect, tracedQuestions, nil)
	got = state["algebra_factoring"]
	if got.PMastery != 0.27 {
		t.Errorf("after one incorrect: p_mastery = %v, want 0.27", got.PMastery)
	}
	if got.RecentCorrect != 0 {
		t.Errorf("after one incorrect: streak = %d, want 0", got.RecentCorrect)
	}
}

func TestUpdateSkillStateOrderSensitive(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	correctFirst := []attempt.Attempt{
		timedAttempt(t, base, []attempt.QuestionResult{{QuestionID: "q1", Correct: true}}),
		timedAttempt(t, base.Add(time.Minute), []attempt.QuestionResult{{QuestionID: "q2", Correct: false}}),
	}
	incorrectFirst := []attempt.Attempt{
		timedAttempt(t, base, []attempt.QuestionResult{{QuestionID: "q1", Correct: false}}),
		timedAttempt(t, base.Add(time.Minute), []attempt.QuestionResult{{QuestionID: "q2", Correct: true}}),
	}

	a := adaptive.UpdateSkillState(correctFirst, tracedQuestions, nil)["algebra_factoring"]
	b := adaptive.UpdateSkillState(incorrectFirst, tracedQuestions, nil)["algebra_factoring"]

	if a.PMastery != 0.4275 {
		t.Errorf("correct-then-incorrect: p_mastery = %v, want 0.4275", a.PMastery)
	}
	if b.PMastery != 0.4525 {
		t.Errorf("incorrect-then-correct: p_mastery = %v, want 0.4525", b.PMastery)
	}
	if math.Abs(a.PMastery-b.PMastery) < 1e-9 {
		t.Error("the fold must be order-sensitive")
	}
}

func TestUpdateSkillStateSortsByCreationTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Attempts handed over newest-first must still fold oldest-first.
	shuffled := []attempt.Attempt{
		timedAttempt(t, base.Add(time.Minute), []attempt.QuestionResult{{QuestionID: "q2", Correct: false}}),
		timedAttempt(t, base, []attempt.QuestionResult{{QuestionID: "q1", Correct: true}}),
	}

	got := adaptive.UpdateSkillState(shuffled, tracedQuestions, nil)["algebra_factoring"]
	if got.PMastery != 0.4275 {
		t.Errorf("p_mastery = %v, want 0.4275 (correct folded before incorrect)", got.PMastery)
	}
}

func TestUpdateSkillStateStreakCapAndReset(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var results []attempt.QuestionResult
	for i := 0; i < 7; i++ {
		results = append(results, attempt.QuestionResult{QuestionID: "q1", Correct: true})
	}
	history := []attempt.Attempt{timedAttempt(t, base, results)}

	got := adaptive.UpdateSkillState(history, tracedQuestions, nil)["algebra_factoring"]
	if got.RecentCorrect != 5 {
		t.Errorf("streak = %d, want cap of 5", got.RecentCorrect)
	}
	if got.Observations != 7 {
		t.Errorf("observations = %d, want 7", got.Observations)
	}
	if got.PMastery > 0.995 {
		t.Errorf("p_mastery = %v exceeds ceiling", got.PMastery)
	}

	history = append(history, timedAttempt(t, base.Add(time.Minute), []attempt.QuestionResult{
		{QuestionID: "q2", Correct: false},
	}))
	got = adaptive.UpdateSkillState(history, tracedQuestions, nil)["algebra_factoring"]
	if got.RecentCorrect != 0 {
		t.Errorf("streak after a miss = %d, want 0", got.RecentCorrect)
	}
}

func TestUpdateSkillStateDoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := map[string]student.SkillState{
		"algebra_factoring": {PMastery: 0.6, Observations: 4, RecentCorrect: 2},
		"untouched_skill":   {PMastery: 0.9, Observations: 10, RecentCorrect: 5},
	}

	history := []attempt.Attempt{timedAttempt(t, base, []attempt.QuestionResult{
		{QuestionID: "q1", Correct: true},
	})}
	next := adaptive.UpdateSkillState(history, tracedQuestions, current)

	if current["algebra_factoring"].PMastery != 0.6 {
		t.Error("input map was mutated")
	}
	if next["untouched_skill"].PMastery != 0.9 {
		t.Error("skills without new evidence must survive unchanged")
	}
	if next["algebra_factoring"].PMastery != 0.7 {
		t.Errorf("p_mastery = %v, want 0.7", next["algebra_factoring"].PMastery)
	}
	if next["algebra_factoring"].Observations != 5 {
		t.Errorf("observations = %d, want 5", next["algebra_factoring"].Observations)
	}
}

func TestUpdateSkillStateSkillResolutionFallbacks(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	questions := map[string]curriculum.Question{
		"q-tagged":   {ID: "q-tagged", UnitID: "unit-1", SkillIDs: []string{"explicit_skill"}},
		"q-unitonly": {ID: "q-unitonly", UnitID: "unit-9"},
	}

	history := []attempt.Attempt{timedAttempt(t, base, []attempt.QuestionResult{
		{QuestionID: "q-tagged", Correct: true},
		{QuestionID: "q-unitonly", Correct: true},
		{QuestionID: "q-unknown", Correct: true},
	})}

	// An attempt carrying a section resolves untagged questions to the
	// "{unit}:{section}" composite skill.
	section := "sec-2"
	sectioned, err := attempt.New("s1", "quiz-2", curriculum.QuizTypePractice, "unit-1", &section, 100,
		[]attempt.QuestionResult{{QuestionID: "q-untagged", Correct: true}})
	if err != nil {
		t.Fatalf("attempt.New: %v", err)
	}
	sectioned.CreatedAt = base.Add(time.Minute)
	history = append(history, *sectioned)

	state := adaptive.UpdateSkillState(history, questions, nil)

	for _, skill := range []string{"explicit_skill", "unit-9", "unit-1", "unit-1:sec-2"} {
		if _, ok := state[skill]; !ok {
			t.Errorf("expected skill %q in state, got %v", skill, keys(state))
		}
	}
}

func keys(m map[string]student.SkillState) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
