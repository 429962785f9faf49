package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
	"github.com/learnloop/backend/internal/id"
)

const schema = `
CREATE TABLE IF NOT EXISTS units (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    sections TEXT NOT NULL DEFAULT '[]',
    diagnostic_quiz_id TEXT,
    comprehensive_quiz_id TEXT,
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quizzes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    section_id TEXT,
    quiz_type TEXT NOT NULL,
    question_ids TEXT NOT NULL DEFAULT '[]',
    passing_score_pct INTEGER NOT NULL DEFAULT 60
);

CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    unit_id TEXT NOT NULL,
    section_id TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL,
    question_type TEXT NOT NULL,
    options TEXT NOT NULL DEFAULT '[]',
    correct_answer TEXT NOT NULL,
    skill_ids TEXT NOT NULL DEFAULT '[]',
    difficulty TEXT NOT NULL DEFAULT 'easy',
    estimated_time_sec INTEGER NOT NULL DEFAULT 60
);

CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT,
    grade_level TEXT NOT NULL DEFAULT '9',
    preferred_difficulty TEXT NOT NULL DEFAULT 'medium',
    mastery_by_skill TEXT NOT NULL DEFAULT '{}',
    skill_mastery TEXT NOT NULL DEFAULT '{}',
    last_unit_id TEXT,
    last_section_id TEXT,
    last_activity TEXT,
    avatar_url TEXT,
    avatar_name TEXT
);

CREATE TABLE IF NOT EXISTS attempts (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    student_id TEXT NOT NULL,
    quiz_id TEXT NOT NULL,
    quiz_type TEXT NOT NULL,
    unit_id TEXT NOT NULL,
    section_id TEXT,
    score_pct REAL NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempt_results (
    attempt_id TEXT NOT NULL,
    question_id TEXT NOT NULL,
    correct INTEGER NOT NULL,
    chosen_answer TEXT NOT NULL DEFAULT '',
    time_sec REAL NOT NULL DEFAULT 0,
    used_hint INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL,
    FOREIGN KEY (attempt_id) REFERENCES attempts(id)
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'student',
    student_id TEXT
);
`

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Content
// ============================================================================

// ImportContent replaces the authored curriculum. Items missing an id get a
// generated one. Content is treated as immutable afterwards, so this runs in
// one transaction that wipes the previous import.
func (s *SQLiteStore) ImportContent(ctx context.Context, set *curriculum.ContentSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"units", "quizzes", "questions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	for i, unit := range set.Units {
		if unit.ID == "" {
			unit.ID = id.GenerateID()
		}
		sections, err := json.Marshal(unit.Sections)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO units (id, title, description, sections, diagnostic_quiz_id, comprehensive_quiz_id, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			unit.ID, unit.Title, unit.Description, string(sections),
			unit.DiagnosticQuizID, unit.ComprehensiveQuizID, i,
		)
		if err != nil {
			return err
		}
	}

	for _, quiz := range set.Quizzes {
		if quiz.ID == "" {
			quiz.ID = id.GenerateID()
		}
		questionIDs, err := json.Marshal(quiz.QuestionIDs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO quizzes (id, title, unit_id, section_id, quiz_type, question_ids, passing_score_pct)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			quiz.ID, quiz.Title, quiz.UnitID, quiz.SectionID, string(quiz.Type), string(questionIDs), quiz.PassingScorePct,
		)
		if err != nil {
			return err
		}
	}

	for _, q := range set.Questions {
		if q.ID == "" {
			q.ID = id.GenerateID()
		}
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		skillIDs, err := json.Marshal(q.SkillIDs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (id, unit_id, section_id, text, question_type, options, correct_answer, skill_ids, difficulty, estimated_time_sec)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.UnitID, q.SectionID, q.Text, string(q.Type), string(options), q.CorrectAnswer, string(skillIDs), string(q.Difficulty), q.EstimatedTimeSec,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetContent(ctx context.Context) (*curriculum.ContentSet, error) {
	set := &curriculum.ContentSet{
		Questions: map[string]curriculum.Question{},
		Quizzes:   map[string]curriculum.Quiz{},
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, sections, diagnostic_quiz_id, comprehensive_quiz_id FROM units ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var unit curriculum.Unit
		var sections string
		var diagnosticID, comprehensiveID sql.NullString
		if err := rows.Scan(&unit.ID, &unit.Title, &unit.Description, &sections, &diagnosticID, &comprehensiveID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sections), &unit.Sections); err != nil {
			return nil, fmt.Errorf("unit %s: bad sections payload: %w", unit.ID, err)
		}
		unit.DiagnosticQuizID = nullableString(diagnosticID)
		unit.ComprehensiveQuizID = nullableString(comprehensiveID)
		set.Units = append(set.Units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	quizRows, err := s.db.QueryContext(ctx,
		"SELECT id, title, unit_id, section_id, quiz_type, question_ids, passing_score_pct FROM quizzes")
	if err != nil {
		return nil, err
	}
	defer quizRows.Close()
	for quizRows.Next() {
		var quiz curriculum.Quiz
		var sectionID sql.NullString
		var quizType, questionIDs string
		if err := quizRows.Scan(&quiz.ID, &quiz.Title, &quiz.UnitID, &sectionID, &quizType, &questionIDs, &quiz.PassingScorePct); err != nil {
			return nil, err
		}
		quiz.SectionID = nullableString(sectionID)
		quiz.Type = curriculum.QuizType(quizType)
		if err := json.Unmarshal([]byte(questionIDs), &quiz.QuestionIDs); err != nil {
			return nil, fmt.Errorf("quiz %s: bad question_ids payload: %w", quiz.ID, err)
		}
		set.Quizzes[quiz.ID] = quiz
	}
	if err := quizRows.Err(); err != nil {
		return nil, err
	}

	questionRows, err := s.db.QueryContext(ctx,
		"SELECT id, unit_id, section_id, text, question_type, options, correct_answer, skill_ids, difficulty, estimated_time_sec FROM questions")
	if err != nil {
		return nil, err
	}
	defer questionRows.Close()
	for questionRows.Next() {
		var q curriculum.Question
		var questionType, options, skillIDs, difficulty string
		if err := questionRows.Scan(&q.ID, &q.UnitID, &q.SectionID, &q.Text, &questionType, &options, &q.CorrectAnswer, &skillIDs, &difficulty, &q.EstimatedTimeSec); err != nil {
			return nil, err
		}
		q.Type = curriculum.QuestionType(questionType)
		q.Difficulty = curriculum.Difficulty(difficulty)
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("question %s: bad options payload: %w", q.ID, err)
		}
		if err := json.Unmarshal([]byte(skillIDs), &q.SkillIDs); err != nil {
			return nil, fmt.Errorf("question %s: bad skill_ids payload: %w", q.ID, err)
		}
		set.Questions[q.ID] = q
	}
	if err := questionRows.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

// ============================================================================
// Seed file import
// ============================================================================

// seedFile is the on-disk shape of an authored content export: curriculum
// plus optional demo users.
type seedFile struct {
	Units     []curriculum.Unit     `json:"units"`
	Quizzes   []curriculum.Quiz     `json:"quizzes"`
	Questions []curriculum.Question `json:"questions"`
	Users     []student.User        `json:"users,omitempty"`
}

// ImportFile loads a content export from disk: curriculum replaces the
// current import, users are upserted.
func (s *SQLiteStore) ImportFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read content file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse content file: %w", err)
	}

	set := &curriculum.ContentSet{
		Units:     seed.Units,
		Quizzes:   map[string]curriculum.Quiz{},
		Questions: map[string]curriculum.Question{},
	}
	for _, quiz := range seed.Quizzes {
		if quiz.ID == "" {
			quiz.ID = id.GenerateID()
		}
		set.Quizzes[quiz.ID] = quiz
	}
	for _, q := range seed.Questions {
		if q.ID == "" {
			q.ID = id.GenerateID()
		}
		set.Questions[q.ID] = q
	}

	if err := s.ImportContent(ctx, set); err != nil {
		return err
	}

	for i := range seed.Users {
		u := seed.Users[i]
		if u.ID == "" {
			u.ID = id.GenerateID()
		}
		if u.Role == "" {
			u.Role = student.RoleStudent
		}
		if err := s.SaveUser(ctx, &u); err != nil {
			return err
		}
	}

	return nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
