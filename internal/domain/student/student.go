package student

import (
	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

// SkillCounter is the legacy correct/total mastery view, retained for the
// percentage display and the question selector. The probabilistic SkillState
// map is the primary model; these counters are derived from it after every
// attempt.
type SkillCounter struct {
	SkillID string `json:"skill_id"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
}

// Pct returns the percent-correct view, 0 when nothing was observed.
func (c SkillCounter) Pct() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total) * 100.0
}

// SkillState is the per-skill mastery estimate.
//
// PMastery stays inside [0.01, 0.995]: it moves toward 0.995 on correct
// observations and decays geometrically toward 0.01 on incorrect ones, never
// pinned to 0 or 1. RecentCorrect is a streak counter capped at 5 and reset
// to 0 by any incorrect observation.
type SkillState struct {
	PMastery      float64 `json:"p_mastery"`
	Observations  int     `json:"n_observations"`
	RecentCorrect int     `json:"recent_correct"`
}

// Profile is the sole mutable owner of a student's mastery state. It is
// created lazily on first access and replaced whole-object on save.
type Profile struct {
	StudentID           string                  `json:"student_id"`
	Name                string                  `json:"name"`
	Email               *string                 `json:"email"`
	GradeLevel          string                  `json:"grade_level"`
	PreferredDifficulty curriculum.Difficulty   `json:"preferred_difficulty"`
	MasteryBySkill      map[string]SkillCounter `json:"mastery_by_skill"`
	SkillMastery        map[string]SkillState   `json:"skill_mastery"`
	LastUnitID          *string                 `json:"last_unit_id"`
	LastSectionID       *string                 `json:"last_section_id"`
	LastActivity        *string                 `json:"last_activity"`
	AvatarURL           *string                 `json:"avatar_url"`
	AvatarName          *string                 `json:"avatar_name"`
}

// NewProfile builds a profile with defaults and empty skill maps.
func NewProfile(studentID, name string) *Profile {
	return &Profile{
		StudentID:           studentID,
		Name:                name,
		GradeLevel:          "9",
		PreferredDifficulty: curriculum.DifficultyMedium,
		MasteryBySkill:      map[string]SkillCounter{},
		SkillMastery:        map[string]SkillState{},
	}
}

// RecordActivity moves the last-activity pointers to the given attempt.
func (p *Profile) RecordActivity(a *attempt.Attempt) {
	if a.UnitID != "" {
		unitID := a.UnitID
		p.LastUnitID = &unitID
	}
	if a.SectionID != nil {
		sectionID := *a.SectionID
		p.LastSectionID = &sectionID
	}
	activity := string(a.QuizType)
	p.LastActivity = &activity
}

// DeriveLegacyCounters rebuilds the correct/total counters from the current
// probabilistic state: total is the observation count and correct the nearest
// integer to p_mastery * total.
func (p *Profile) DeriveLegacyCounters() {
	counters := make(map[string]SkillCounter, len(p.SkillMastery))
	for skillID, state := range p.SkillMastery {
		total := state.Observations
		correct := int(state.PMastery*float64(total) + 0.5)
		counters[skillID] = SkillCounter{
			SkillID: skillID,
			Correct: correct,
			Total:   total,
		}
	}
	p.MasteryBySkill = counters
}
