package curriculum

// Difficulty is the authored difficulty label on a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType distinguishes multiple-choice from true/false questions.
type QuestionType string

const (
	QuestionTypeMCQ     QuestionType = "mcq"
	QuestionTypeBoolean QuestionType = "boolean"
)

// QuizType is the four activity kinds, increasing in stakes and scope.
type QuizType string

const (
	QuizTypeDiagnostic QuizType = "diagnostic"
	QuizTypePractice   QuizType = "practice"
	QuizTypeMiniQuiz   QuizType = "mini_quiz"
	QuizTypeUnitTest   QuizType = "unit_test"
)

// Question is an authored item. Content is immutable once imported.
type Question struct {
	ID               string       `json:"id"`
	UnitID           string       `json:"unit_id"`
	SectionID        string       `json:"section_id"`
	Text             string       `json:"text"`
	Type             QuestionType `json:"type"`
	Options          []string     `json:"options"`
	CorrectAnswer    string       `json:"correct_answer"`
	SkillIDs         []string     `json:"skill_ids,omitempty"`
	Difficulty       Difficulty   `json:"difficulty"`
	EstimatedTimeSec int          `json:"estimated_time_sec"`
}

// Quiz is an ordered collection of questions with a passing threshold.
type Quiz struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	UnitID          string   `json:"unit_id"`
	SectionID       *string  `json:"section_id"`
	Type            QuizType `json:"type"`
	QuestionIDs     []string `json:"question_ids"`
	PassingScorePct int      `json:"passing_score_pct"`
}

// Section groups a unit's lessons and points at its practice material.
type Section struct {
	ID             string  `json:"id"`
	Title          string  `json:"title,omitempty"`
	PracticeQuizID *string `json:"practice_quiz_id,omitempty"`
	MiniQuizID     *string `json:"mini_quiz_id,omitempty"`
}

// Unit is a top-level curriculum block with ordered sections.
type Unit struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Sections            []Section `json:"sections"`
	DiagnosticQuizID    *string   `json:"diagnostic_quiz_id,omitempty"`
	ComprehensiveQuizID *string   `json:"comprehensive_quiz_id,omitempty"`
}

// ContentSet is the read-only content view the adaptive core works against.
// It is immutable for the duration of a request.
type ContentSet struct {
	Questions map[string]Question `json:"questions"`
	Quizzes   map[string]Quiz     `json:"quizzes"`
	Units     []Unit              `json:"units"`
}

// Quiz returns the quiz with the given id, or nil.
func (c *ContentSet) Quiz(id string) *Quiz {
	if q, ok := c.Quizzes[id]; ok {
		return &q
	}
	return nil
}

// Question returns the question with the given id, or nil.
func (c *ContentSet) Question(id string) *Question {
	if q, ok := c.Questions[id]; ok {
		return &q
	}
	return nil
}

// Unit returns the unit with the given id, or nil.
func (c *ContentSet) Unit(id string) *Unit {
	for i := range c.Units {
		if c.Units[i].ID == id {
			return &c.Units[i]
		}
	}
	return nil
}
