package attempt

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/backend/internal/domain/curriculum"
)

// ErrInvalid marks a contract violation on attempt construction. Callers at
// the HTTP boundary map it to a rejected input.
var ErrInvalid = errors.New("invalid attempt")

// QuestionResult is the outcome of one question within an attempt.
type QuestionResult struct {
	QuestionID   string  `json:"question_id"`
	Correct      bool    `json:"correct"`
	ChosenAnswer string  `json:"chosen_answer"`
	TimeSec      float64 `json:"time_sec"`
	UsedHint     bool    `json:"used_hint"`
}

// Attempt is one completed quiz session. Attempts are append-only and never
// mutated after creation. Seq is assigned by the attempt log on append and
// breaks ties between attempts sharing a creation timestamp.
type Attempt struct {
	ID        string              `json:"id"`
	StudentID string              `json:"student_id"`
	QuizID    string              `json:"quiz_id"`
	QuizType  curriculum.QuizType `json:"quiz_type"`
	UnitID    string              `json:"unit_id"`
	SectionID *string             `json:"section_id"`
	ScorePct  float64             `json:"score_pct"`
	CreatedAt time.Time           `json:"created_at"`
	Seq       int64               `json:"seq,omitempty"`
	Results   []QuestionResult    `json:"results"`
}

// New validates and builds an attempt. Negative response times are clamped to
// zero before they ever reach aggregation; scores are clamped into [0, 100].
func New(studentID, quizID string, quizType curriculum.QuizType, unitID string, sectionID *string, scorePct float64, results []QuestionResult) (*Attempt, error) {
	switch {
	case studentID == "":
		return nil, fmt.Errorf("%w: student_id is required", ErrInvalid)
	case quizID == "":
		return nil, fmt.Errorf("%w: quiz_id is required", ErrInvalid)
	case quizType == "":
		return nil, fmt.Errorf("%w: quiz_type is required", ErrInvalid)
	case unitID == "":
		return nil, fmt.Errorf("%w: unit_id is required", ErrInvalid)
	}

	if scorePct < 0 {
		scorePct = 0
	}
	if scorePct > 100 {
		scorePct = 100
	}

	cleaned := make([]QuestionResult, len(results))
	for i, r := range results {
		if r.QuestionID == "" {
			return nil, fmt.Errorf("%w: result %d has no question_id", ErrInvalid, i)
		}
		if r.TimeSec < 0 {
			r.TimeSec = 0
		}
		cleaned[i] = r
	}

	return &Attempt{
		ID:        uuid.NewString(),
		StudentID: studentID,
		QuizID:    quizID,
		QuizType:  quizType,
		UnitID:    unitID,
		SectionID: sectionID,
		ScorePct:  scorePct,
		CreatedAt: time.Now().UTC(),
		Results:   cleaned,
	}, nil
}

// SortByCreation orders attempts ascending by creation time, then by the
// log-assigned sequence number. The sort is stable, so attempts that tie on
// both keys keep their input order.
func SortByCreation(attempts []Attempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		if !attempts[i].CreatedAt.Equal(attempts[j].CreatedAt) {
			return attempts[i].CreatedAt.Before(attempts[j].CreatedAt)
		}
		return attempts[i].Seq < attempts[j].Seq
	})
}
