// Package adaptive holds the learning core: difficulty estimation, per-skill
// knowledge tracing, activity recommendation, question selection, and
// feedback composition. Everything here is a pure function over explicit
// inputs; callers own all persistence.
package adaptive

import (
	"math"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

// Laplace smoothing constant for the proportion-correct estimate.
const smoothing = 1.0

// Authored difficulty labels map to a base prior; unknown questions sit in
// the middle.
var basePrior = map[curriculum.Difficulty]float64{
	curriculum.DifficultyEasy:   0.25,
	curriculum.DifficultyMedium: 0.5,
	curriculum.DifficultyHard:   0.75,
}

// Estimate is the derived difficulty record for one question.
type Estimate struct {
	Difficulty float64  `json:"difficulty"`
	PCorrect   float64  `json:"p_correct"`
	Attempts   int      `json:"n_attempts"`
	Level      string   `json:"level"`
	AvgTimeSec *float64 `json:"avg_time_sec,omitempty"`
}

// LevelFor buckets a difficulty score into the easy/medium/hard label.
// The thresholds are half-open: 0.35 is already "medium", 0.65 already "hard".
func LevelFor(score float64) string {
	if score < 0.35 {
		return "easy"
	}
	if score < 0.65 {
		return "medium"
	}
	return "hard"
}

type questionTally struct {
	correct float64
	total   float64
	time    float64
}

// EstimateDifficulty derives a normalized [0,1] difficulty for every question
// seen in the attempt history, plus every question in the lookup (defaulted
// to its authored prior). It blends a Laplace-smoothed proportion-correct
// with the authored prior, and adjusts for response time when both an
// observed average and an authored estimate exist.
//
// The function is stateless: it recomputes from the history it is given, so
// callers that need it more than once per request should reuse the result.
func EstimateDifficulty(history []attempt.Attempt, questions map[string]curriculum.Question) map[string]Estimate {
	tallies := map[string]*questionTally{}
	for _, a := range history {
		for _, r := range a.Results {
			if r.QuestionID == "" {
				continue
			}
			entry, ok := tallies[r.QuestionID]
			if !ok {
				entry = &questionTally{}
				tallies[r.QuestionID] = entry
			}
			entry.total++
			if r.Correct {
				entry.correct++
			}
			entry.time += math.Max(0, r.TimeSec)
		}
	}

	for qid := range questions {
		if _, ok := tallies[qid]; !ok {
			tallies[qid] = &questionTally{}
		}
	}

	estimates := make(map[string]Estimate, len(tallies))
	for qid, entry := range tallies {
		q, known := questions[qid]

		base := 0.5
		if known {
			if b, ok := basePrior[q.Difficulty]; ok {
				base = b
			}
		}

		var difficulty, pCorrect float64
		if entry.total == 0 {
			difficulty = base
			pCorrect = clamp01(1 - base)
		} else {
			pCorrect = (entry.correct + smoothing) / (entry.total + 2*smoothing)
			difficulty = 1 - pCorrect
		}

		if entry.total > 0 && known {
			avgTime := entry.time / entry.total
			expected := math.Max(15, float64(orDefault(q.EstimatedTimeSec, 60)))
			ratio := math.Min(avgTime/expected, 3)
			difficulty = clamp01(difficulty*0.8 + (ratio-1)*0.25 + base*0.2)
		} else {
			difficulty = clamp01(difficulty*0.7 + base*0.3)
		}

		est := Estimate{
			Difficulty: roundTo(difficulty, 3),
			PCorrect:   roundTo(pCorrect, 3),
			Attempts:   int(entry.total),
			Level:      LevelFor(difficulty),
		}
		if entry.total > 0 {
			avg := roundTo(entry.time/entry.total, 1)
			est.AvgTimeSec = &avg
		}
		estimates[qid] = est
	}

	return estimates
}

func orDefault(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func roundTo(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}
