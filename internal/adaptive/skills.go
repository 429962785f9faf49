package adaptive

import (
	"strings"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

// ResolveSkills maps a question result onto the skill ids it exercises. The
// fallback chain is total, in order: the question's explicit skill ids; the
// attempt's "{unit}:{section}" composite key; the question's unit; the
// attempt's unit; the literal "general". The result is never empty.
func ResolveSkills(q *curriculum.Question, a *attempt.Attempt) []string {
	if q != nil && len(q.SkillIDs) > 0 {
		return q.SkillIDs
	}
	if a.SectionID != nil && *a.SectionID != "" {
		return []string{a.UnitID + ":" + *a.SectionID}
	}
	if q != nil {
		return []string{q.UnitID}
	}
	if a.UnitID != "" {
		return []string{a.UnitID}
	}
	return []string{"general"}
}

// prettySkillName turns a skill id like "algebra_factoring" into a
// display name like "Algebra Factoring".
func prettySkillName(skillID string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(skillID)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
