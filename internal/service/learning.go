package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/learnloop/backend/internal/adaptive"
	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
	"github.com/learnloop/backend/internal/store"
)

// LearningService runs the attempt pipeline and the next-activity planning.
// It loads explicit inputs from the store, calls the pure adaptive functions,
// and persists the resulting profile state.
type LearningService struct {
	store  store.Store
	logger *slog.Logger
	picker adaptive.Picker
}

// NewLearningService creates a LearningService. A nil picker falls back to
// uniform random question draws.
func NewLearningService(s store.Store, logger *slog.Logger, picker adaptive.Picker) *LearningService {
	if picker == nil {
		picker = adaptive.RandomPicker{}
	}
	return &LearningService{store: s, logger: logger, picker: picker}
}

// SubmitResult is the response payload for a recorded attempt.
type SubmitResult struct {
	Attempt      *attempt.Attempt              `json:"attempt"`
	Feedback     string                        `json:"personalized_feedback"`
	SkillMastery map[string]student.SkillState `json:"skill_mastery"`
}

// SubmitAttempt appends the attempt, folds it into the student's skill state,
// and composes feedback for the new attempt.
func (ls *LearningService) SubmitAttempt(ctx context.Context, a *attempt.Attempt) (*SubmitResult, error) {
	if err := ls.store.AppendAttempt(ctx, a); err != nil {
		return nil, fmt.Errorf("append attempt: %w", err)
	}

	profile, err := ls.GetOrCreateProfile(ctx, a.StudentID)
	if err != nil {
		return nil, err
	}

	content, err := ls.store.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	// Only the new attempt is folded in; the profile already carries the
	// result of every earlier one.
	profile.SkillMastery = adaptive.UpdateSkillState([]attempt.Attempt{*a}, content.Questions, profile.SkillMastery)
	profile.DeriveLegacyCounters()
	profile.RecordActivity(a)

	if err := ls.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	allAttempts, err := ls.store.GetAttempts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load attempt log: %w", err)
	}
	estimates := adaptive.EstimateDifficulty(allAttempts, content.Questions)
	feedback := adaptive.ComposeFeedback(profile, a, content.Questions, estimates)

	ls.logger.Info("attempt recorded",
		"student_id", a.StudentID,
		"quiz_id", a.QuizID,
		"quiz_type", a.QuizType,
		"score_pct", a.ScorePct,
	)

	return &SubmitResult{
		Attempt:      a,
		Feedback:     feedback,
		SkillMastery: profile.SkillMastery,
	}, nil
}

// GetOrCreateProfile returns the student's profile, creating a default one on
// first access.
func (ls *LearningService) GetOrCreateProfile(ctx context.Context, studentID string) (*student.Profile, error) {
	profile, err := ls.store.GetProfile(ctx, studentID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	profile = student.NewProfile(studentID, "Student "+studentID)
	if err := ls.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	ls.logger.Info("profile created", "student_id", studentID)
	return profile, nil
}

// UpdateProfile saves the profile after a partial-field merge done by the
// caller.
func (ls *LearningService) UpdateProfile(ctx context.Context, p *student.Profile) error {
	return ls.store.PutProfile(ctx, p)
}

// NextActivity plans the student's next activity. When the model-driven
// recommender has nothing to say it falls back to curriculum-order
// sequencing, so the response is never empty while content exists.
func (ls *LearningService) NextActivity(ctx context.Context, studentID string) (*adaptive.NextActivity, error) {
	profile, err := ls.GetOrCreateProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	content, err := ls.store.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if len(content.Units) == 0 {
		return nil, store.ErrNotFound
	}

	attempts, err := ls.store.GetAttempts(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	allAttempts, err := ls.store.GetAttempts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load attempt log: %w", err)
	}
	estimates := adaptive.EstimateDifficulty(allAttempts, content.Questions)

	if next := adaptive.RecommendNextActivity(profile, attempts, content, estimates); next != nil {
		return next, nil
	}

	next := adaptive.FallbackNextActivity(attempts, content.Units)
	next.Reason = "using fallback sequencing"
	return &next, nil
}

// NextQuestion picks the next practice question for a student within a unit
// (and optionally a section).
func (ls *LearningService) NextQuestion(ctx context.Context, studentID, unitID, sectionID string) (*curriculum.Question, error) {
	profile, err := ls.GetOrCreateProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	content, err := ls.store.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	q := adaptive.PickNextQuestion(profile, content.Questions, unitID, sectionID, ls.picker)
	if q == nil {
		return nil, store.ErrNotFound
	}
	return q, nil
}

// CreateStudent provisions a new roster entry with a sequential student-N id
// and a placeholder email when none is given.
func (ls *LearningService) CreateStudent(ctx context.Context, name, email string) (*student.Profile, error) {
	profiles, err := ls.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	// Next free slot in the student-N sequence.
	n := 1
	taken := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		taken[p.StudentID] = true
	}
	for taken[fmt.Sprintf("student-%d", n)] {
		n++
	}
	studentID := fmt.Sprintf("student-%d", n)

	if name == "" {
		name = "Student " + studentID
	}
	profile := student.NewProfile(studentID, name)
	if email == "" {
		email = studentID + "@example.edu"
	}
	profile.Email = &email

	if err := ls.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	ls.logger.Info("student created", "student_id", studentID, "name", name)
	return profile, nil
}

// DiagnosticQuestionResult is one question's outcome in a diagnostic review.
type DiagnosticQuestionResult struct {
	Question     *curriculum.Question `json:"question"`
	Correct      bool                 `json:"correct"`
	ChosenAnswer string               `json:"chosen_answer"`
	TimeSec      float64              `json:"time_sec"`
	Difficulty   *adaptive.Estimate   `json:"difficulty,omitempty"`
}

// DiagnosticResult is the review payload for a student's latest diagnostic in
// a unit.
type DiagnosticResult struct {
	Attempt   *attempt.Attempt           `json:"attempt"`
	UnitID    string                     `json:"unit_id"`
	Questions []DiagnosticQuestionResult `json:"questions"`
	Feedback  string                     `json:"personalized_feedback"`
}

// DiagnosticResults returns the student's most recent diagnostic attempt for
// the unit, expanded with question detail and current difficulty estimates.
func (ls *LearningService) DiagnosticResults(ctx context.Context, studentID, unitID string) (*DiagnosticResult, error) {
	attempts, err := ls.store.GetAttempts(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	var latest *attempt.Attempt
	for i := range attempts {
		a := &attempts[i]
		if a.QuizType == curriculum.QuizTypeDiagnostic && a.UnitID == unitID {
			latest = a
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}

	content, err := ls.store.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	allAttempts, err := ls.store.GetAttempts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load attempt log: %w", err)
	}
	estimates := adaptive.EstimateDifficulty(allAttempts, content.Questions)

	questions := make([]DiagnosticQuestionResult, 0, len(latest.Results))
	for _, r := range latest.Results {
		entry := DiagnosticQuestionResult{
			Question:     content.Question(r.QuestionID),
			Correct:      r.Correct,
			ChosenAnswer: r.ChosenAnswer,
			TimeSec:      r.TimeSec,
		}
		if est, ok := estimates[r.QuestionID]; ok {
			entry.Difficulty = &est
		}
		questions = append(questions, entry)
	}

	profile, err := ls.GetOrCreateProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	feedback := adaptive.ComposeFeedback(profile, latest, content.Questions, estimates)

	return &DiagnosticResult{
		Attempt:   latest,
		UnitID:    unitID,
		Questions: questions,
		Feedback:  feedback,
	}, nil
}
