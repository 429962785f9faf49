package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/learnloop/backend/internal/adaptive"
	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
	"github.com/learnloop/backend/internal/store"
	"github.com/learnloop/backend/internal/worker"
)

// ReportsService aggregates class-wide views for the teacher dashboard.
type ReportsService struct {
	store   store.Store
	logger  *slog.Logger
	workers int
}

func NewReportsService(s store.Store, logger *slog.Logger, workers int) *ReportsService {
	if workers < 1 {
		workers = 4
	}
	return &ReportsService{store: s, logger: logger, workers: workers}
}

// UnitMastery is one student's standing in one unit.
type UnitMastery struct {
	UnitID     string  `json:"unit_id"`
	Title      string  `json:"title"`
	MasteryPct float64 `json:"mastery_pct"`
	Attempts   int     `json:"n_attempts"`
}

// StudentSummary is one row of the class overview.
type StudentSummary struct {
	StudentID         string  `json:"student_id"`
	Name              string  `json:"name"`
	OverallMasteryPct float64 `json:"overall_mastery_pct"`
	QuestionsAnswered int     `json:"questions_answered"`
	Attempts          int     `json:"n_attempts"`
	HintUsageRate     float64 `json:"hint_usage_rate"`
	LastActivityAt    *string `json:"last_activity_at"`
}

// HardestQuestion is one entry of the hardest-questions board.
type HardestQuestion struct {
	QuestionID string  `json:"question_id"`
	Text       string  `json:"text"`
	UnitID     string  `json:"unit_id"`
	Difficulty float64 `json:"difficulty"`
	PCorrect   float64 `json:"p_correct"`
	Attempts   int     `json:"n_attempts"`
}

// SkillAverage is the class-wide mean mastery for one skill.
type SkillAverage struct {
	SkillID    string  `json:"skill_id"`
	AvgMastery float64 `json:"avg_mastery"`
	Students   int     `json:"n_students"`
}

// Overview is the teacher dashboard payload.
type Overview struct {
	Students         []StudentSummary  `json:"students"`
	HardestQuestions []HardestQuestion `json:"hardest_questions"`
	WeakestSkills    []SkillAverage    `json:"weakest_skills"`
}

// StudentDetail is the drill-down view for one student.
type StudentDetail struct {
	Profile  *student.Profile  `json:"profile"`
	Summary  StudentSummary    `json:"summary"`
	Units    []UnitMastery     `json:"units"`
	Attempts []attempt.Attempt `json:"attempts"`
}

const (
	hardestQuestionCount = 5
	weakestSkillCount    = 6
)

// Overview builds the class dashboard. Per-student summaries are independent,
// so they fan out over the worker pool.
func (rs *ReportsService) Overview(ctx context.Context) (*Overview, error) {
	profiles, err := rs.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	content, err := rs.store.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	allAttempts, err := rs.store.GetAttempts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load attempt log: %w", err)
	}

	byStudent := make(map[string][]attempt.Attempt)
	for _, a := range allAttempts {
		byStudent[a.StudentID] = append(byStudent[a.StudentID], a)
	}

	summaries := make([]StudentSummary, len(profiles))
	if len(profiles) > 0 {
		pool := worker.NewPool[StudentSummary](rs.workers, len(profiles))
		for i, p := range profiles {
			p := p
			pool.Submit(fmt.Sprint(i), func() StudentSummary {
				return summarizeStudent(p, byStudent[p.StudentID])
			})
		}
		order := make(map[string]int, len(profiles))
		for i, p := range profiles {
			order[p.StudentID] = i
		}
		for range profiles {
			res := <-pool.Results()
			summaries[order[res.Output.StudentID]] = res.Output
		}
		pool.Close()
	}

	estimates := adaptive.EstimateDifficulty(allAttempts, content.Questions)

	return &Overview{
		Students:         summaries,
		HardestQuestions: hardestQuestions(estimates, content.Questions),
		WeakestSkills:    weakestSkills(profiles),
	}, nil
}

// StudentDetail assembles a single student's drill-down view.
func (rs *ReportsService) StudentDetail(ctx context.Context, studentID string) (*StudentDetail, error) {
	profile, err := rs.store.GetProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	attempts, err := rs.store.GetAttempts(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	content, err := rs.store.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	return &StudentDetail{
		Profile:  profile,
		Summary:  summarizeStudent(profile, attempts),
		Units:    unitMastery(attempts, content.Units),
		Attempts: attempts,
	}, nil
}

// summarizeStudent computes one overview row. Overall mastery averages the
// student's mini-quiz and unit-test scores, the graded checkpoints.
func summarizeStudent(p *student.Profile, attempts []attempt.Attempt) StudentSummary {
	summary := StudentSummary{
		StudentID: p.StudentID,
		Name:      p.Name,
		Attempts:  len(attempts),
	}

	var masteryScores []float64
	hintAttempts := 0
	var lastAt time.Time
	for _, a := range attempts {
		if a.QuizType == curriculum.QuizTypeMiniQuiz || a.QuizType == curriculum.QuizTypeUnitTest {
			masteryScores = append(masteryScores, a.ScorePct)
		}
		summary.QuestionsAnswered += len(a.Results)
		for _, r := range a.Results {
			if r.UsedHint {
				hintAttempts++
				break
			}
		}
		if a.CreatedAt.After(lastAt) {
			lastAt = a.CreatedAt
		}
	}

	if len(masteryScores) > 0 {
		sum := 0.0
		for _, s := range masteryScores {
			sum += s
		}
		summary.OverallMasteryPct = math.Round(sum / float64(len(masteryScores)))
	}
	if len(attempts) > 0 {
		summary.HintUsageRate = math.Round(float64(hintAttempts)/float64(len(attempts))*100) / 100
	}
	if !lastAt.IsZero() {
		formatted := lastAt.UTC().Format(time.RFC3339)
		summary.LastActivityAt = &formatted
	}
	return summary
}

// unitMastery breaks scores down by unit, using the same graded-checkpoint
// average as the overall figure.
func unitMastery(attempts []attempt.Attempt, units []curriculum.Unit) []UnitMastery {
	type acc struct {
		sum   float64
		count int
		total int
	}
	byUnit := map[string]*acc{}
	for _, a := range attempts {
		entry := byUnit[a.UnitID]
		if entry == nil {
			entry = &acc{}
			byUnit[a.UnitID] = entry
		}
		entry.total++
		if a.QuizType == curriculum.QuizTypeMiniQuiz || a.QuizType == curriculum.QuizTypeUnitTest {
			entry.sum += a.ScorePct
			entry.count++
		}
	}

	out := make([]UnitMastery, 0, len(units))
	for _, u := range units {
		entry := byUnit[u.ID]
		if entry == nil {
			continue
		}
		m := UnitMastery{UnitID: u.ID, Title: u.Title, Attempts: entry.total}
		if entry.count > 0 {
			m.MasteryPct = math.Round(entry.sum / float64(entry.count))
		}
		out = append(out, m)
	}
	return out
}

// hardestQuestions ranks attempted questions by estimated difficulty, then by
// how often they were seen.
func hardestQuestions(estimates map[string]adaptive.Estimate, questions map[string]curriculum.Question) []HardestQuestion {
	var board []HardestQuestion
	for qid, est := range estimates {
		if est.Attempts == 0 {
			continue
		}
		entry := HardestQuestion{
			QuestionID: qid,
			Difficulty: est.Difficulty,
			PCorrect:   est.PCorrect,
			Attempts:   est.Attempts,
		}
		if q, ok := questions[qid]; ok {
			entry.Text = q.Text
			entry.UnitID = q.UnitID
		}
		board = append(board, entry)
	}

	sort.Slice(board, func(i, j int) bool {
		if board[i].Difficulty != board[j].Difficulty {
			return board[i].Difficulty > board[j].Difficulty
		}
		if board[i].Attempts != board[j].Attempts {
			return board[i].Attempts > board[j].Attempts
		}
		return board[i].QuestionID < board[j].QuestionID
	})

	if len(board) > hardestQuestionCount {
		board = board[:hardestQuestionCount]
	}
	return board
}

// weakestSkills averages p_mastery per skill across saved profiles and keeps
// the lowest few.
func weakestSkills(profiles []*student.Profile) []SkillAverage {
	type acc struct {
		sum   float64
		count int
	}
	bySkill := map[string]*acc{}
	for _, p := range profiles {
		for skillID, state := range p.SkillMastery {
			entry := bySkill[skillID]
			if entry == nil {
				entry = &acc{}
				bySkill[skillID] = entry
			}
			entry.sum += state.PMastery
			entry.count++
		}
	}

	out := make([]SkillAverage, 0, len(bySkill))
	for skillID, entry := range bySkill {
		out = append(out, SkillAverage{
			SkillID:    skillID,
			AvgMastery: math.Round(entry.sum/float64(entry.count)*10000) / 10000,
			Students:   entry.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMastery != out[j].AvgMastery {
			return out[i].AvgMastery < out[j].AvgMastery
		}
		return out[i].SkillID < out[j].SkillID
	})

	if len(out) > weakestSkillCount {
		out = out[:weakestSkillCount]
	}
	return out
}
