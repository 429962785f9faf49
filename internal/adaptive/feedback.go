package adaptive

import (
	"fmt"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

// ComposeFeedback turns a just-recorded attempt plus the student's updated
// mastery into a short personalized blurb. Deterministic given its inputs.
//
// Skill resolution here is intentionally simpler than the tracker's: explicit
// skill ids, else the question's (or attempt's) unit, else "general". The
// unit:section composite never appears in feedback copy.
func ComposeFeedback(profile *student.Profile, a *attempt.Attempt, questions map[string]curriculum.Question, estimates map[string]Estimate) string {
	if a == nil || len(a.Results) == 0 {
		return "Thanks for submitting your work. Keep going — every attempt helps us personalize your path."
	}

	type tally struct {
		count   int
		correct int
	}
	counts := map[string]*tally{}
	var order []string
	for _, r := range a.Results {
		q, known := questions[r.QuestionID]

		var skillIDs []string
		switch {
		case known && len(q.SkillIDs) > 0:
			skillIDs = q.SkillIDs
		case known:
			skillIDs = []string{q.UnitID}
		case a.UnitID != "":
			skillIDs = []string{a.UnitID}
		default:
			skillIDs = []string{"general"}
		}

		for _, skillID := range skillIDs {
			entry, ok := counts[skillID]
			if !ok {
				entry = &tally{}
				counts[skillID] = entry
				order = append(order, skillID)
			}
			entry.count++
			if r.Correct {
				entry.correct++
			}
		}
	}
	if len(order) == 0 {
		return "Attempt recorded. We'll analyze it to tune your next recommendation."
	}

	focusSkillID := order[0]
	for _, skillID := range order {
		if counts[skillID].count > counts[focusSkillID].count {
			focusSkillID = skillID
		}
	}
	focusSkill := prettySkillName(focusSkillID)

	mastery := student.SkillState{PMastery: DefaultPrior}
	if entry, ok := profile.SkillMastery[focusSkillID]; ok {
		mastery = entry
	}

	var totalDifficulty float64
	var scored int
	for _, r := range a.Results {
		if est, ok := estimates[r.QuestionID]; ok {
			totalDifficulty += est.Difficulty
			scored++
		}
	}
	avgDifficulty := 0.5
	if scored > 0 {
		avgDifficulty = totalDifficulty / float64(scored)
	}
	bucket := "medium"
	if avgDifficulty < 0.35 {
		bucket = "easier"
	} else if avgDifficulty > 0.65 {
		bucket = "challenging"
	}

	score := a.ScorePct

	switch {
	case mastery.PMastery >= 0.75 && score >= 80:
		next := "more challenging"
		if bucket == "challenging" {
			next = "broader"
		}
		return fmt.Sprintf("Nice work, you're showing strong mastery in %s. Let's try a slightly %s set next.", focusSkill, next)
	case mastery.PMastery < 0.4 && score >= 60:
		return fmt.Sprintf("Great progress building %s. We'll stay with %s items until it feels automatic.", focusSkill, bucket)
	case mastery.PMastery < 0.4:
		return fmt.Sprintf("You're still building confidence with %s. We'll keep the next set targeted and review any tricky steps together.", focusSkill)
	case mastery.RecentCorrect >= 3:
		return fmt.Sprintf("Three-in-a-row on %s! We'll nudge the difficulty upward to keep you challenged.", focusSkill)
	case score < 50:
		return fmt.Sprintf("Let's revisit a few fundamentals in %s. We'll give you more guided practice at the current level.", focusSkill)
	}

	return fmt.Sprintf("Solid effort on %s. A bit more practice with %s problems will lock it in.", focusSkill, bucket)
}
