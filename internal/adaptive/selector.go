package adaptive

import (
	"math/rand"
	"sort"

	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

// Picker selects one index out of n. The production picker is random; tests
// substitute a deterministic one.
type Picker interface {
	Pick(n int) int
}

// RandomPicker draws uniformly from the shortlist. Question selection is
// intentionally nondeterministic so students do not see the same question
// order every session.
type RandomPicker struct{}

func (RandomPicker) Pick(n int) int { return rand.Intn(n) }

// shortlistSize caps how many of the weakest-mastery questions stay in the
// draw.
const shortlistSize = 10

// PickNextQuestion chooses one question for the student from the content
// pool, optionally filtered by unit and section. Candidates are scored by the
// mean legacy mastery percent of their skills (50 when untagged), with a 10
// point bonus toward the student's preferred difficulty, then the weakest
// min(10, pool) candidates form a shortlist and the picker draws one.
// Returns nil when the filtered pool is empty.
//
// The pool is walked in ascending question-id order so the shortlist cutoff
// is stable across runs; only the final draw is random.
func PickNextQuestion(profile *student.Profile, questions map[string]curriculum.Question, unitID, sectionID string, picker Picker) *curriculum.Question {
	if picker == nil {
		picker = RandomPicker{}
	}

	type scoredQuestion struct {
		score    float64
		question curriculum.Question
	}

	var pool []scoredQuestion
	for _, qid := range sortedKeys(questions) {
		q := questions[qid]
		if unitID != "" && q.UnitID != unitID {
			continue
		}
		if sectionID != "" && q.SectionID != sectionID {
			continue
		}

		score := masteryScore(profile, q)
		if q.Difficulty == profile.PreferredDifficulty {
			score -= 10
		}
		pool = append(pool, scoredQuestion{score: score, question: q})
	}

	if len(pool) == 0 {
		return nil
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score < pool[j].score })

	n := len(pool)
	if n > shortlistSize {
		n = shortlistSize
	}
	chosen := pool[picker.Pick(n)].question
	return &chosen
}

// masteryScore is the mean legacy mastery percent across a question's skills.
// Untagged questions sit at 50 so they are neither hot nor cold.
func masteryScore(profile *student.Profile, q curriculum.Question) float64 {
	if len(q.SkillIDs) == 0 {
		return 50.0
	}
	var sum float64
	for _, skillID := range q.SkillIDs {
		sum += profile.MasteryBySkill[skillID].Pct()
	}
	return sum / float64(len(q.SkillIDs))
}
