package adaptive

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

// NextActivity is a single recommended next step for a student.
type NextActivity struct {
	UnitID           string              `json:"unit_id"`
	SectionID        *string             `json:"section_id"`
	Activity         curriculum.QuizType `json:"activity"`
	Reason           string              `json:"reason,omitempty"`
	QuizID           *string             `json:"quiz_id,omitempty"`
	SkillID          *string             `json:"skill_id,omitempty"`
	DifficultyTarget *float64            `json:"difficulty_target,omitempty"`
}

// candidateQuiz is one quiz that could serve a given skill, tagged with its
// observed average difficulty.
type candidateQuiz struct {
	unitID        string
	sectionID     *string
	quizID        string
	activity      curriculum.QuizType
	avgDifficulty float64
}

// RecommendNextActivity picks the single best next activity by combining the
// student's skill mastery estimates with the current difficulty landscape.
// It returns nil when no recommendation can be made; callers decide the
// fallback.
//
// Decision order: no curriculum means no recommendation; a student with no
// diagnostic attempts anywhere is sent to placement first; a student with no
// skill evidence is sent to the next unit missing a diagnostic; otherwise the
// weakest skill is targeted with a difficulty-matched quiz.
func RecommendNextActivity(profile *student.Profile, attempts []attempt.Attempt, content *curriculum.ContentSet, estimates map[string]Estimate) *NextActivity {
	units := content.Units
	if len(units) == 0 {
		return nil
	}

	diagnosticUnits := map[string]bool{}
	for i := range attempts {
		if attempts[i].QuizType == curriculum.QuizTypeDiagnostic && attempts[i].UnitID != "" {
			diagnosticUnits[attempts[i].UnitID] = true
		}
	}

	if len(diagnosticUnits) == 0 {
		firstUnit := &units[0]
		for i := range units {
			if units[i].DiagnosticQuizID != nil {
				firstUnit = &units[i]
				break
			}
		}
		if firstUnit.DiagnosticQuizID != nil {
			return &NextActivity{
				UnitID:   firstUnit.ID,
				Activity: curriculum.QuizTypeDiagnostic,
				QuizID:   firstUnit.DiagnosticQuizID,
				Reason:   fmt.Sprintf("need placement data for %s", firstUnit.Title),
			}
		}
	}

	if len(profile.SkillMastery) == 0 {
		// No skill evidence yet: push a diagnostic for a unit that lacks one.
		for i := range units {
			if !diagnosticUnits[units[i].ID] {
				return &NextActivity{
					UnitID:   units[i].ID,
					Activity: curriculum.QuizTypeDiagnostic,
					QuizID:   units[i].DiagnosticQuizID,
					Reason:   fmt.Sprintf("collecting baseline data for %s", units[i].Title),
				}
			}
		}
		return nil
	}

	// Rank skills by mastery, slightly inflating under-observed ones so a
	// couple of noisy misses do not dominate the ordering. Skill ids are
	// visited in ascending order so exact ties resolve deterministically.
	type rankedSkill struct {
		skillID  string
		adjusted float64
	}
	ranked := make([]rankedSkill, 0, len(profile.SkillMastery))
	for _, skillID := range sortedKeys(profile.SkillMastery) {
		s := profile.SkillMastery[skillID]
		penalty := 0.05
		if s.Observations >= 3 {
			penalty = 0
		}
		ranked = append(ranked, rankedSkill{skillID: skillID, adjusted: s.PMastery - penalty})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].adjusted < ranked[j].adjusted })

	focus := ranked[0]

	candidates := buildSkillIndex(content, estimates)[focus.skillID]
	if len(candidates) == 0 {
		return nil
	}

	target := targetDifficulty(focus.adjusted)

	best := candidates[0]
	bestScore := math.Inf(1)
	for _, c := range candidates {
		score := math.Abs(c.avgDifficulty - target)
		// Hold unit tests back until mastery is solid.
		if focus.adjusted < 0.65 && c.activity == curriculum.QuizTypeUnitTest {
			score += 0.25
		}
		if score < bestScore {
			best = c
			bestScore = score
		}
	}

	reason := fmt.Sprintf("targeting weakest skill: %s (%d%% mastery)",
		strings.ReplaceAll(focus.skillID, "_", " "),
		int(math.Round(focus.adjusted*100)))

	skillID := focus.skillID
	quizID := best.quizID
	return &NextActivity{
		UnitID:           best.unitID,
		SectionID:        best.sectionID,
		Activity:         best.activity,
		QuizID:           &quizID,
		SkillID:          &skillID,
		DifficultyTarget: &target,
		Reason:           reason,
	}
}

// targetDifficulty picks the difficulty band to aim at for a given mastery.
func targetDifficulty(pMastery float64) float64 {
	if pMastery < 0.35 {
		return 0.4
	}
	if pMastery < 0.65 {
		return 0.55
	}
	return 0.7
}

// buildSkillIndex registers every quiz in the curriculum (diagnostic, unit
// test, then each section's practice and mini quizzes) against the skills its
// questions cover, tagged with the mean estimated difficulty of those
// questions (0.5 when none have an estimate).
func buildSkillIndex(content *curriculum.ContentSet, estimates map[string]Estimate) map[string][]candidateQuiz {
	index := map[string][]candidateQuiz{}

	register := func(unit *curriculum.Unit, quizID *string, sectionID *string, activity curriculum.QuizType) {
		if quizID == nil || *quizID == "" {
			return
		}
		quiz := content.Quiz(*quizID)
		if quiz == nil {
			return
		}

		skills := map[string]bool{}
		var skillOrder []string
		addSkill := func(id string) {
			if !skills[id] {
				skills[id] = true
				skillOrder = append(skillOrder, id)
			}
		}

		var totalDifficulty float64
		var scored int
		for _, qid := range quiz.QuestionIDs {
			if q := content.Question(qid); q != nil {
				if len(q.SkillIDs) > 0 {
					for _, s := range q.SkillIDs {
						addSkill(s)
					}
				} else {
					addSkill(q.UnitID)
				}
			}
			if est, ok := estimates[qid]; ok {
				totalDifficulty += est.Difficulty
				scored++
			}
		}

		avgDifficulty := 0.5
		if scored > 0 {
			avgDifficulty = totalDifficulty / float64(scored)
		}

		for _, skillID := range skillOrder {
			index[skillID] = append(index[skillID], candidateQuiz{
				unitID:        unit.ID,
				sectionID:     sectionID,
				quizID:        *quizID,
				activity:      activity,
				avgDifficulty: avgDifficulty,
			})
		}
	}

	for i := range content.Units {
		unit := &content.Units[i]
		register(unit, unit.DiagnosticQuizID, nil, curriculum.QuizTypeDiagnostic)
		register(unit, unit.ComprehensiveQuizID, nil, curriculum.QuizTypeUnitTest)
		for j := range unit.Sections {
			section := &unit.Sections[j]
			sectionID := section.ID
			register(unit, section.PracticeQuizID, &sectionID, curriculum.QuizTypePractice)
			register(unit, section.MiniQuizID, &sectionID, curriculum.QuizTypeMiniQuiz)
		}
	}

	return index
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
