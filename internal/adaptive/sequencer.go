package adaptive

import (
	"math"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

// masteryQuizTypes are the quiz kinds that count toward the score-based
// mastery view used by the sequencer and the teacher reports.
var masteryQuizTypes = map[curriculum.QuizType]bool{
	curriculum.QuizTypeMiniQuiz: true,
	curriculum.QuizTypeUnitTest: true,
}

// FallbackNextActivity is the heuristic sequencer used when the
// mastery-based recommender has nothing to say: route to a diagnostic if none
// was taken, otherwise drill into the weakest unit's weakest section, gating
// the unit test behind an 85 percent unit average.
func FallbackNextActivity(attempts []attempt.Attempt, units []curriculum.Unit) NextActivity {
	if len(units) == 0 {
		return NextActivity{Activity: curriculum.QuizTypeDiagnostic}
	}

	diagnosticUnits := map[string]bool{}
	for i := range attempts {
		if attempts[i].QuizType == curriculum.QuizTypeDiagnostic && attempts[i].UnitID != "" {
			diagnosticUnits[attempts[i].UnitID] = true
		}
	}

	if len(diagnosticUnits) == 0 {
		target := &units[0]
		for i := range units {
			if units[i].DiagnosticQuizID != nil {
				target = &units[i]
				break
			}
		}
		return NextActivity{UnitID: target.ID, Activity: curriculum.QuizTypeDiagnostic}
	}

	unitScores := map[string][]float64{}
	sectionScores := map[string]map[string][]float64{}
	for i := range attempts {
		a := &attempts[i]
		if a.QuizType == curriculum.QuizTypeDiagnostic || a.UnitID == "" {
			continue
		}
		if !masteryQuizTypes[a.QuizType] {
			continue
		}
		unitScores[a.UnitID] = append(unitScores[a.UnitID], a.ScorePct)
		if a.SectionID != nil {
			if sectionScores[a.UnitID] == nil {
				sectionScores[a.UnitID] = map[string][]float64{}
			}
			sectionScores[a.UnitID][*a.SectionID] = append(sectionScores[a.UnitID][*a.SectionID], a.ScorePct)
		}
	}

	targetUnit := &units[0]
	for i := range units {
		if averageScore(unitScores[units[i].ID]) < averageScore(unitScores[targetUnit.ID]) {
			targetUnit = &units[i]
		}
	}

	if !diagnosticUnits[targetUnit.ID] {
		return NextActivity{UnitID: targetUnit.ID, Activity: curriculum.QuizTypeDiagnostic}
	}

	var bestSection *curriculum.Section
	bestMastery := math.Inf(1)
	for i := range targetUnit.Sections {
		section := &targetUnit.Sections[i]
		if section.ID == "" {
			continue
		}
		mastery := averageScore(sectionScores[targetUnit.ID][section.ID])
		if mastery < bestMastery {
			bestSection = section
			bestMastery = mastery
		}
	}

	unitMastery := averageScore(unitScores[targetUnit.ID])

	if bestSection != nil {
		sectionID := bestSection.ID
		if bestMastery < 75 && bestSection.MiniQuizID != nil {
			return NextActivity{UnitID: targetUnit.ID, SectionID: &sectionID, Activity: curriculum.QuizTypeMiniQuiz}
		}
	}

	if unitMastery >= 85 && targetUnit.ComprehensiveQuizID != nil {
		return NextActivity{UnitID: targetUnit.ID, Activity: curriculum.QuizTypeUnitTest}
	}

	if bestSection != nil {
		sectionID := bestSection.ID
		if bestSection.PracticeQuizID != nil {
			return NextActivity{UnitID: targetUnit.ID, SectionID: &sectionID, Activity: curriculum.QuizTypePractice}
		}
		if bestSection.MiniQuizID != nil {
			return NextActivity{UnitID: targetUnit.ID, SectionID: &sectionID, Activity: curriculum.QuizTypeMiniQuiz}
		}
	}

	activity := curriculum.QuizTypePractice
	if targetUnit.DiagnosticQuizID != nil {
		activity = curriculum.QuizTypeDiagnostic
	}
	return NextActivity{UnitID: targetUnit.ID, Activity: activity}
}

// averageScore rounds to the nearest whole percent; empty input is 0.
func averageScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return math.Round(sum / float64(len(scores)))
}
