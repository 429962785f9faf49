package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

// ============================================================================
// Student profiles
// ============================================================================

func (s *SQLiteStore) GetProfile(ctx context.Context, studentID string) (*student.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, grade_level, preferred_difficulty, mastery_by_skill, skill_mastery,
		        last_unit_id, last_section_id, last_activity, avatar_url, avatar_name
		 FROM students WHERE id = ?`, studentID)

	profile, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// PutProfile saves the whole profile, replacing any previous row. The profile
// is the sole owner of mastery state, so a full upsert is the only write path.
func (s *SQLiteStore) PutProfile(ctx context.Context, p *student.Profile) error {
	masteryBySkill, err := json.Marshal(p.MasteryBySkill)
	if err != nil {
		return err
	}
	skillMastery, err := json.Marshal(p.SkillMastery)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO students (id, name, email, grade_level, preferred_difficulty, mastery_by_skill, skill_mastery,
		                       last_unit_id, last_section_id, last_activity, avatar_url, avatar_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     email = excluded.email,
		     grade_level = excluded.grade_level,
		     preferred_difficulty = excluded.preferred_difficulty,
		     mastery_by_skill = excluded.mastery_by_skill,
		     skill_mastery = excluded.skill_mastery,
		     last_unit_id = excluded.last_unit_id,
		     last_section_id = excluded.last_section_id,
		     last_activity = excluded.last_activity,
		     avatar_url = excluded.avatar_url,
		     avatar_name = excluded.avatar_name`,
		p.StudentID, p.Name, p.Email, p.GradeLevel, string(p.PreferredDifficulty),
		string(masteryBySkill), string(skillMastery),
		p.LastUnitID, p.LastSectionID, p.LastActivity, p.AvatarURL, p.AvatarName,
	)
	return err
}

// ListProfiles returns all student profiles sorted by name, then id.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*student.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, grade_level, preferred_difficulty, mastery_by_skill, skill_mastery,
		        last_unit_id, last_section_id, last_activity, avatar_url, avatar_name
		 FROM students`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*student.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Name != profiles[j].Name {
			return profiles[i].Name < profiles[j].Name
		}
		return profiles[i].StudentID < profiles[j].StudentID
	})
	return profiles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*student.Profile, error) {
	var p student.Profile
	var difficulty, masteryBySkill, skillMastery string
	err := row.Scan(
		&p.StudentID, &p.Name, &p.Email, &p.GradeLevel, &difficulty, &masteryBySkill, &skillMastery,
		&p.LastUnitID, &p.LastSectionID, &p.LastActivity, &p.AvatarURL, &p.AvatarName,
	)
	if err != nil {
		return nil, err
	}
	p.PreferredDifficulty = curriculum.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(masteryBySkill), &p.MasteryBySkill); err != nil {
		return nil, fmt.Errorf("student %s: bad mastery_by_skill payload: %w", p.StudentID, err)
	}
	if err := json.Unmarshal([]byte(skillMastery), &p.SkillMastery); err != nil {
		return nil, fmt.Errorf("student %s: bad skill_mastery payload: %w", p.StudentID, err)
	}
	if p.MasteryBySkill == nil {
		p.MasteryBySkill = map[string]student.SkillCounter{}
	}
	if p.SkillMastery == nil {
		p.SkillMastery = map[string]student.SkillState{}
	}
	return &p, nil
}

// ============================================================================
// Users
// ============================================================================

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*student.User, error) {
	var u student.User
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password, role, student_id FROM users WHERE email = ?",
		normalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.Password, &role, &u.StudentID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = student.Role(role)
	return &u, nil
}

func (s *SQLiteStore) SaveUser(ctx context.Context, u *student.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password, role, student_id)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
		     password = excluded.password,
		     role = excluded.role,
		     student_id = excluded.student_id`,
		u.ID, normalizeEmail(u.Email), u.Password, string(u.Role), u.StudentID,
	)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
