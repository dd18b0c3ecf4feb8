package exam

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/quizforge/quizforge/internal/sanitize"
)

// Submit runs the whole examination submission inside one transaction:
// create the examination, bulk-insert the sanitized responses, compute and
// persist the score, commit. Any rejection or failure rolls the whole thing
// back; no partial attempt is ever persisted.
func (s *SQLStore) Submit(ctx context.Context, userID, testID int64, attemptDate time.Time, rawChoiceIDs []string) (Examination, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Examination{}, err
	}
	defer tx.Rollback()

	ex := Examination{
		UserID:      userID,
		TestID:      testID,
		AttemptDate: attemptDate,
		CreatedAt:   time.Now(),
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO examinations (user_id, test_id, attempt_date, created_at)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		ex.UserID, ex.TestID, ex.AttemptDate.Unix(), ex.CreatedAt.Unix()).Scan(&ex.ID)
	if err != nil {
		return Examination{}, fmt.Errorf("create examination: %w", err)
	}

	choiceIDs, err := s.insertResponses(ctx, tx, ex.ID, rawChoiceIDs)
	if err != nil {
		return Examination{}, err
	}

	if err := s.insertScore(ctx, tx, ex, choiceIDs); err != nil {
		return Examination{}, err
	}

	if err := tx.Commit(); err != nil {
		return Examination{}, err
	}
	return ex, nil
}

// insertResponses sanitizes the raw choice-ID list and bulk-inserts one
// user_response per surviving ID. Empty, over-limit, duplicated or
// nonexistent IDs reject the whole set with ErrInvalidChoice; no partial
// response set is ever written.
func (s *SQLStore) insertResponses(ctx context.Context, tx *sql.Tx, examinationID int64, raw []string) ([]int64, error) {
	ids, err := sanitize.UniqueChoiceIDs(raw)
	if err != nil {
		s.log.Error("submission rejected", "examination_id", examinationID, "reason", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no choices submitted", ErrInvalidChoice)
	}

	q := fmt.Sprintf(`SELECT COUNT(*) FROM choices WHERE id IN (%s)`, placeholders(1, len(ids)))
	var n int
	if err := tx.QueryRowContext(ctx, q, int64Args(ids)...).Scan(&n); err != nil {
		return nil, err
	}
	if n != len(ids) {
		s.log.Error("submission rejected", "examination_id", examinationID, "reason", "nonexistent choice ids")
		return nil, fmt.Errorf("%w: nonexistent choice ids", ErrInvalidChoice)
	}

	now := time.Now().Unix()
	args := make([]any, 0, len(ids)*3)
	var values []string
	for i, id := range ids {
		base := i * 3
		values = append(values, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
		args = append(args, examinationID, id, now)
	}
	insert := `INSERT INTO user_responses (examination_id, choice_id, created_at) VALUES ` + strings.Join(values, ",")
	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return nil, fmt.Errorf("insert responses: %w", err)
	}
	return ids, nil
}

// insertScore derives the score for the new examination and persists it.
// correct_count counts submitted choices flagged correct among the test's
// questions; passed compares against the test's pass mark percentage.
func (s *SQLStore) insertScore(ctx context.Context, tx *sql.Tx, ex Examination, choiceIDs []int64) error {
	var passMark int
	if err := tx.QueryRowContext(ctx, `SELECT pass_mark FROM tests WHERE id=$1`, ex.TestID).Scan(&passMark); err != nil {
		return fmt.Errorf("load test %d: %w", ex.TestID, err)
	}

	var total int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_sessions WHERE test_id=$1`, ex.TestID).Scan(&total); err != nil {
		return err
	}

	q := fmt.Sprintf(
		`SELECT COUNT(*) FROM choices c
		 JOIN test_sessions ts ON ts.question_id = c.question_id
		 WHERE ts.test_id=$1 AND c.is_correct AND c.id IN (%s)`,
		placeholders(2, len(choiceIDs)))
	args := append([]any{ex.TestID}, int64Args(choiceIDs)...)
	var correct int
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&correct); err != nil {
		return err
	}

	passed := correct*100 >= passMark*total
	_, err := tx.ExecContext(ctx,
		`INSERT INTO scores (examination_id, correct_count, total_count, passed, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		ex.ID, correct, total, passed, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

