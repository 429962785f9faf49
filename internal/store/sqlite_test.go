package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
	"github.com/learnloop/backend/internal/store"
)

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func str(s string) *string { return &s }

func TestProfileRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing profile, got %v", err)
	}

	p := student.NewProfile("s1", "Ada Lovelace")
	p.Email = str("ada@example.edu")
	p.GradeLevel = "10"
	p.PreferredDifficulty = curriculum.DifficultyHard
	p.SkillMastery = map[string]student.SkillState{
		"algebra_factoring": {PMastery: 0.4275, Observations: 7, RecentCorrect: 2},
	}
	p.MasteryBySkill = map[string]student.SkillCounter{
		"algebra_factoring": {SkillID: "algebra_factoring", Correct: 3, Total: 7},
	}
	p.LastUnitID = str("unit-1")
	p.LastActivity = str("practice")

	if err := s.PutProfile(ctx, p); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}

	got, err := s.GetProfile(ctx, "s1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Name != "Ada Lovelace" || got.GradeLevel != "10" {
		t.Errorf("got name=%q grade=%q", got.Name, got.GradeLevel)
	}
	if got.PreferredDifficulty != curriculum.DifficultyHard {
		t.Errorf("preferred_difficulty = %q, want hard", got.PreferredDifficulty)
	}
	state := got.SkillMastery["algebra_factoring"]
	if state.PMastery != 0.4275 || state.Observations != 7 || state.RecentCorrect != 2 {
		t.Errorf("skill state = %+v, want exact round-trip", state)
	}
	counter := got.MasteryBySkill["algebra_factoring"]
	if counter.Correct != 3 || counter.Total != 7 {
		t.Errorf("legacy counter = %+v", counter)
	}
	if got.LastUnitID == nil || *got.LastUnitID != "unit-1" {
		t.Errorf("last_unit_id = %v", got.LastUnitID)
	}

	// Upsert replaces the whole row.
	p.Name = "Ada L."
	p.SkillMastery["geometry_angles"] = student.SkillState{PMastery: 0.3, Observations: 1}
	if err := s.PutProfile(ctx, p); err != nil {
		t.Fatalf("PutProfile (upsert): %v", err)
	}
	got, err = s.GetProfile(ctx, "s1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Name != "Ada L." || len(got.SkillMastery) != 2 {
		t.Errorf("upsert did not replace: name=%q skills=%d", got.Name, len(got.SkillMastery))
	}
}

func TestListProfilesSortedByName(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, p := range []*student.Profile{
		student.NewProfile("s3", "Charlie"),
		student.NewProfile("s1", "Ada"),
		student.NewProfile("s2", "Bo"),
	} {
		if err := s.PutProfile(ctx, p); err != nil {
			t.Fatalf("PutProfile: %v", err)
		}
	}

	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("got %d profiles, want 3", len(profiles))
	}
	for i, want := range []string{"Ada", "Bo", "Charlie"} {
		if profiles[i].Name != want {
			t.Errorf("profiles[%d] = %q, want %q", i, profiles[i].Name, want)
		}
	}
}

func TestAppendAttemptAssignsSequence(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 3; i++ {
		a, err := attempt.New("s1", "quiz-1", curriculum.QuizTypePractice, "unit-1", str("sec-1"), 80, []attempt.QuestionResult{
			{QuestionID: "q1", Correct: true, ChosenAnswer: "A", TimeSec: 12.5},
			{QuestionID: "q2", Correct: false, ChosenAnswer: "C", TimeSec: 30, UsedHint: true},
		})
		if err != nil {
			t.Fatalf("attempt.New: %v", err)
		}
		if err := s.AppendAttempt(ctx, a); err != nil {
			t.Fatalf("AppendAttempt: %v", err)
		}
		seqs = append(seqs, a.Seq)
	}

	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Errorf("sequence numbers not increasing: %v", seqs)
		}
	}

	attempts, err := s.GetAttempts(ctx, "s1")
	if err != nil {
		t.Fatalf("GetAttempts: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("got %d attempts, want 3", len(attempts))
	}
	for i := 1; i < len(attempts); i++ {
		if attempts[i].Seq <= attempts[i-1].Seq {
			t.Error("attempts not returned in append order")
		}
	}

	// Results come back in submission order with all fields intact.
	got := attempts[0]
	if len(got.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(got.Results))
	}
	if got.Results[0].QuestionID != "q1" || got.Results[1].QuestionID != "q2" {
		t.Errorf("result order = %s, %s", got.Results[0].QuestionID, got.Results[1].QuestionID)
	}
	if !got.Results[1].UsedHint || got.Results[1].TimeSec != 30 {
		t.Errorf("result fields lost: %+v", got.Results[1])
	}
	if got.SectionID == nil || *got.SectionID != "sec-1" {
		t.Errorf("section_id = %v", got.SectionID)
	}
}

func TestGetAttemptsFiltersByStudent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, studentID := range []string{"s1", "s2", "s1"} {
		a, err := attempt.New(studentID, "quiz-1", curriculum.QuizTypePractice, "unit-1", nil, 50, nil)
		if err != nil {
			t.Fatalf("attempt.New: %v", err)
		}
		if err := s.AppendAttempt(ctx, a); err != nil {
			t.Fatalf("AppendAttempt: %v", err)
		}
	}

	mine, err := s.GetAttempts(ctx, "s1")
	if err != nil {
		t.Fatalf("GetAttempts(s1): %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d attempts for s1, want 2", len(mine))
	}

	all, err := s.GetAttempts(ctx, "")
	if err != nil {
		t.Fatalf("GetAttempts(all): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d attempts total, want 3", len(all))
	}
}

func TestContentRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	set := &curriculum.ContentSet{
		Units: []curriculum.Unit{
			{
				ID:               "unit-1",
				Title:            "Algebra Basics",
				Description:      "Linear equations and factoring",
				DiagnosticQuizID: str("diag-1"),
				Sections: []curriculum.Section{
					{ID: "sec-1", Title: "Factoring", PracticeQuizID: str("prac-1")},
				},
			},
			{ID: "unit-2", Title: "Geometry"},
		},
		Quizzes: map[string]curriculum.Quiz{
			"diag-1": {ID: "diag-1", Title: "Placement", UnitID: "unit-1", Type: curriculum.QuizTypeDiagnostic, QuestionIDs: []string{"q1"}, PassingScorePct: 60},
		},
		Questions: map[string]curriculum.Question{
			"q1": {
				ID: "q1", UnitID: "unit-1", SectionID: "sec-1",
				Text: "Factor x^2-4", Type: curriculum.QuestionTypeMCQ,
				Options: []string{"(x-2)(x+2)", "(x-4)(x+1)"}, CorrectAnswer: "(x-2)(x+2)",
				SkillIDs: []string{"algebra_factoring"}, Difficulty: curriculum.DifficultyMedium,
				EstimatedTimeSec: 45,
			},
		},
	}

	if err := s.ImportContent(ctx, set); err != nil {
		t.Fatalf("ImportContent: %v", err)
	}

	got, err := s.GetContent(ctx)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if len(got.Units) != 2 || got.Units[0].ID != "unit-1" || got.Units[1].ID != "unit-2" {
		t.Fatalf("unit order not preserved: %+v", got.Units)
	}
	if got.Units[0].DiagnosticQuizID == nil || *got.Units[0].DiagnosticQuizID != "diag-1" {
		t.Errorf("diagnostic_quiz_id = %v", got.Units[0].DiagnosticQuizID)
	}
	if len(got.Units[0].Sections) != 1 || got.Units[0].Sections[0].PracticeQuizID == nil {
		t.Errorf("sections lost: %+v", got.Units[0].Sections)
	}

	q := got.Question("q1")
	if q == nil {
		t.Fatal("question q1 missing")
	}
	if q.Type != curriculum.QuestionTypeMCQ || q.Difficulty != curriculum.DifficultyMedium || q.EstimatedTimeSec != 45 {
		t.Errorf("question fields lost: %+v", q)
	}
	if len(q.Options) != 2 || len(q.SkillIDs) != 1 {
		t.Errorf("question payloads lost: %+v", q)
	}

	quiz := got.Quiz("diag-1")
	if quiz == nil || quiz.PassingScorePct != 60 || quiz.Type != curriculum.QuizTypeDiagnostic {
		t.Errorf("quiz lost: %+v", quiz)
	}

	// Re-import replaces the previous content set.
	if err := s.ImportContent(ctx, &curriculum.ContentSet{Units: []curriculum.Unit{{ID: "unit-3", Title: "Stats"}}}); err != nil {
		t.Fatalf("ImportContent (replace): %v", err)
	}
	got, err = s.GetContent(ctx)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if len(got.Units) != 1 || got.Units[0].ID != "unit-3" || len(got.Questions) != 0 {
		t.Errorf("re-import did not replace: %+v", got.Units)
	}
}

func TestUserSaveAndLookup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.GetUserByEmail(ctx, "nobody@example.edu"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	u := &student.User{
		ID:        "u1",
		Email:     "Ada@Example.edu",
		Password:  "password123",
		Role:      student.RoleStudent,
		StudentID: str("s1"),
	}
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	// Lookup is case-insensitive on the email.
	got, err := s.GetUserByEmail(ctx, "  ada@example.EDU ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.Password != "password123" || got.Role != student.RoleStudent {
		t.Errorf("user fields lost: %+v", got)
	}
	if got.StudentID == nil || *got.StudentID != "s1" {
		t.Errorf("student_id = %v", got.StudentID)
	}
}
