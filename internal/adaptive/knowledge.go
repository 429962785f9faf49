package adaptive

import (
	"math"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

const (
	// DefaultPrior is the mastery estimate for a skill with no evidence yet.
	DefaultPrior = 0.3

	learnRate  = 0.25
	forgetRate = 0.1
	maxMastery = 0.995
	minMastery = 0.01
	streakCap  = 5
)

// UpdateSkillState folds new attempts into a student's per-skill mastery map
// using a low-parameter Bayesian-inspired update rule. The input map is not
// mutated; every pre-existing skill survives into the returned map and new
// skills start from the default prior.
//
// Attempts are processed ascending by creation time (sequence number, then
// input order, as tie-breaks) and results in their listed order. The fold is
// order-sensitive: replaying the same attempts in a different order yields a
// different mastery estimate. That is a property of the model, not a bug.
func UpdateSkillState(attempts []attempt.Attempt, questions map[string]curriculum.Question, current map[string]student.SkillState) map[string]student.SkillState {
	state := make(map[string]student.SkillState, len(current))
	for skillID, s := range current {
		state[skillID] = s
	}

	ordered := make([]attempt.Attempt, len(attempts))
	copy(ordered, attempts)
	attempt.SortByCreation(ordered)

	for i := range ordered {
		a := &ordered[i]
		for _, r := range a.Results {
			var q *curriculum.Question
			if found, ok := questions[r.QuestionID]; ok {
				q = &found
			}
			for _, skillID := range ResolveSkills(q, a) {
				entry, ok := state[skillID]
				if !ok {
					entry = student.SkillState{PMastery: DefaultPrior}
				}

				if r.Correct {
					entry.PMastery = math.Min(maxMastery, entry.PMastery+learnRate*(1-entry.PMastery))
					if entry.RecentCorrect < streakCap {
						entry.RecentCorrect++
					}
				} else {
					entry.PMastery = math.Max(minMastery, entry.PMastery*(1-forgetRate))
					entry.RecentCorrect = 0
				}

				entry.PMastery = roundTo(entry.PMastery, 4)
				entry.Observations++
				state[skillID] = entry
			}
		}
	}

	return state
}
