package store

import (
	"context"
	"time"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

// ============================================================================
// Attempt log
// ============================================================================

// AppendAttempt writes an attempt and its per-question results in one
// transaction and fills in the log-assigned sequence number.
func (s *SQLiteStore) AppendAttempt(ctx context.Context, a *attempt.Attempt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO attempts (id, student_id, quiz_id, quiz_type, unit_id, section_id, score_pct, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.StudentID, a.QuizID, string(a.QuizType), a.UnitID, a.SectionID,
		a.ScorePct, a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, r := range a.Results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attempt_results (attempt_id, question_id, correct, chosen_answer, time_sec, used_hint, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, r.QuestionID, r.Correct, r.ChosenAnswer, r.TimeSec, r.UsedHint, i,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	a.Seq = seq
	return nil
}

// GetAttempts returns attempts ascending by append order. An empty studentID
// returns every student's attempts.
func (s *SQLiteStore) GetAttempts(ctx context.Context, studentID string) ([]attempt.Attempt, error) {
	query := `SELECT seq, id, student_id, quiz_id, quiz_type, unit_id, section_id, score_pct, created_at
	          FROM attempts`
	args := []any{}
	if studentID != "" {
		query += " WHERE student_id = ?"
		args = append(args, studentID)
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []attempt.Attempt
	index := map[string]int{}
	for rows.Next() {
		var a attempt.Attempt
		var quizType string
		var createdAt int64
		if err := rows.Scan(&a.Seq, &a.ID, &a.StudentID, &a.QuizID, &quizType, &a.UnitID, &a.SectionID, &a.ScorePct, &createdAt); err != nil {
			return nil, err
		}
		a.QuizType = curriculum.QuizType(quizType)
		a.CreatedAt = time.Unix(0, createdAt).UTC()
		index[a.ID] = len(attempts)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	resultQuery := `SELECT r.attempt_id, r.question_id, r.correct, r.chosen_answer, r.time_sec, r.used_hint
	                FROM attempt_results r
	                JOIN attempts a ON a.id = r.attempt_id`
	if studentID != "" {
		resultQuery += " WHERE a.student_id = ?"
	}
	resultQuery += " ORDER BY a.seq, r.position"

	resultRows, err := s.db.QueryContext(ctx, resultQuery, args...)
	if err != nil {
		return nil, err
	}
	defer resultRows.Close()

	for resultRows.Next() {
		var attemptID string
		var r attempt.QuestionResult
		if err := resultRows.Scan(&attemptID, &r.QuestionID, &r.Correct, &r.ChosenAnswer, &r.TimeSec, &r.UsedHint); err != nil {
			return nil, err
		}
		if i, ok := index[attemptID]; ok {
			attempts[i].Results = append(attempts[i].Results, r)
		}
	}
	if err := resultRows.Err(); err != nil {
		return nil, err
	}

	return attempts, nil
}
