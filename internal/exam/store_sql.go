package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SQLStore serves the exam reference data (tests, questions, choices, tags)
// and the persisted examination records over database/sql. It works against
// both the sqlite and postgres drivers.
type SQLStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLStore(db *sql.DB, log *slog.Logger) *SQLStore {
	if log == nil {
		log = slog.Default()
	}
	return &SQLStore{db: db, log: log}
}

func (s *SQLStore) GetTest(ctx context.Context, id int64) (Test, error) {
	var t Test
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, pass_mark FROM tests WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.PassMark)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, ErrNotFound
	}
	if err != nil {
		return Test{}, err
	}
	return t, nil
}

// TagIDsExist reports whether every given tag ID references a stored tag.
func (s *SQLStore) TagIDsExist(ctx context.Context, ids []int64) (bool, error) {
	return s.allExist(ctx, "tags", ids)
}

// TestIDsExist reports whether every given test ID references a stored test.
func (s *SQLStore) TestIDsExist(ctx context.Context, ids []int64) (bool, error) {
	return s.allExist(ctx, "tests", ids)
}

// QuestionIDsExist reports whether every given question ID references a
// stored question.
func (s *SQLStore) QuestionIDsExist(ctx context.Context, ids []int64) (bool, error) {
	return s.allExist(ctx, "questions", ids)
}

// ChoiceIDsExist reports whether every given choice ID references a stored
// choice.
func (s *SQLStore) ChoiceIDsExist(ctx context.Context, ids []int64) (bool, error) {
	return s.allExist(ctx, "choices", ids)
}

func (s *SQLStore) allExist(ctx context.Context, table string, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id IN (%s)`, table, placeholders(1, len(ids)))
	var n int
	if err := s.db.QueryRowContext(ctx, q, int64Args(ids)...).Scan(&n); err != nil {
		return false, err
	}
	return n == len(ids), nil
}

// QuestionIDsByTags returns the IDs of questions carrying ANY of the given
// tags, optionally restricted to questions belonging to ANY of the given
// tests. Evaluated eagerly; no deferred query state.
func (s *SQLStore) QuestionIDsByTags(ctx context.Context, tagIDs, testIDs []int64) ([]int64, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var sb strings.Builder
	sb.WriteString(`SELECT DISTINCT q.id FROM questions q
		JOIN question_tags qt ON qt.question_id = q.id`)
	args := int64Args(tagIDs)
	if len(testIDs) > 0 {
		sb.WriteString(` JOIN test_sessions ts ON ts.question_id = q.id`)
	}
	sb.WriteString(fmt.Sprintf(` WHERE qt.tag_id IN (%s)`, placeholders(1, len(tagIDs))))
	if len(testIDs) > 0 {
		sb.WriteString(fmt.Sprintf(` AND ts.test_id IN (%s)`, placeholders(len(tagIDs)+1, len(testIDs))))
		args = append(args, int64Args(testIDs)...)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// QuestionsForTest loads a test's questions in question_number order, with
// their choices and tags attached.
func (s *SQLStore) QuestionsForTest(ctx context.Context, testID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.question_number, q.body
		 FROM questions q
		 JOIN test_sessions ts ON ts.question_id = q.id
		 WHERE ts.test_id=$1
		 ORDER BY q.question_number`, testID)
	if err != nil {
		return nil, err
	}
	qs, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, qs)
}

// QuestionsByID loads the given questions with choices and tags, ordered by
// question_number.
func (s *SQLStore) QuestionsByID(ctx context.Context, ids []int64) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(
		`SELECT id, question_number, body FROM questions WHERE id IN (%s) ORDER BY question_number`,
		placeholders(1, len(ids)))
	rows, err := s.db.QueryContext(ctx, q, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	qs, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, qs)
}

// ChoicesByID loads the given choices.
func (s *SQLStore) ChoicesByID(ctx context.Context, ids []int64) ([]Choice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(
		`SELECT id, question_id, body, is_correct FROM choices WHERE id IN (%s)`,
		placeholders(1, len(ids)))
	rows, err := s.db.QueryContext(ctx, q, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Choice
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Body, &c.IsCorrect); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetExamination(ctx context.Context, id int64) (Examination, error) {
	var (
		ex               Examination
		attempt, created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, test_id, attempt_date, created_at FROM examinations WHERE id=$1`, id).
		Scan(&ex.ID, &ex.UserID, &ex.TestID, &attempt, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Examination{}, ErrNotFound
	}
	if err != nil {
		return Examination{}, err
	}
	ex.AttemptDate = time.Unix(attempt, 0)
	ex.CreatedAt = time.Unix(created, 0)
	return ex, nil
}

// ExaminationsByUser lists a user's examinations, newest first.
func (s *SQLStore) ExaminationsByUser(ctx context.Context, userID int64) ([]Examination, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, test_id, attempt_date, created_at
		 FROM examinations WHERE user_id=$1 ORDER BY attempt_date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Examination
	for rows.Next() {
		var (
			ex               Examination
			attempt, created int64
		)
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.TestID, &attempt, &created); err != nil {
			return nil, err
		}
		ex.AttemptDate = time.Unix(attempt, 0)
		ex.CreatedAt = time.Unix(created, 0)
		out = append(out, ex)
	}
	return out, rows.Err()
}

// DeleteExamination removes an examination with its responses and score, in
// one transaction.
func (s *SQLStore) DeleteExamination(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM scores WHERE examination_id=$1`,
		`DELETE FROM user_responses WHERE examination_id=$1`,
		`DELETE FROM examinations WHERE id=$1`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetScore returns the score owned by the given examination.
func (s *SQLStore) GetScore(ctx context.Context, examinationID int64) (Score, error) {
	var sc Score
	err := s.db.QueryRowContext(ctx,
		`SELECT id, examination_id, correct_count, total_count, passed
		 FROM scores WHERE examination_id=$1`, examinationID).
		Scan(&sc.ID, &sc.ExaminationID, &sc.CorrectCount, &sc.TotalCount, &sc.Passed)
	if errors.Is(err, sql.ErrNoRows) {
		return Score{}, ErrNotFound
	}
	if err != nil {
		return Score{}, err
	}
	return sc, nil
}

// ResponsesForExamination lists the recorded selections of an examination.
func (s *SQLStore) ResponsesForExamination(ctx context.Context, examinationID int64) ([]UserResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, examination_id, choice_id FROM user_responses WHERE examination_id=$1 ORDER BY id`,
		examinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserResponse
	for rows.Next() {
		var r UserResponse
		if err := rows.Scan(&r.ID, &r.ExaminationID, &r.ChoiceID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.QuestionNumber, &q.Body); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// attach loads choices and tags for the given questions in two queries.
func (s *SQLStore) attach(ctx context.Context, qs []Question) ([]Question, error) {
	if len(qs) == 0 {
		return qs, nil
	}
	ids := make([]int64, len(qs))
	index := make(map[int64]int, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
		index[q.ID] = i
	}

	cq := fmt.Sprintf(
		`SELECT id, question_id, body, is_correct FROM choices WHERE question_id IN (%s) ORDER BY id`,
		placeholders(1, len(ids)))
	rows, err := s.db.QueryContext(ctx, cq, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Body, &c.IsCorrect); err != nil {
			rows.Close()
			return nil, err
		}
		if i, ok := index[c.QuestionID]; ok {
			qs[i].Choices = append(qs[i].Choices, c)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	tq := fmt.Sprintf(
		`SELECT qt.question_id, t.id, t.name FROM question_tags qt
		 JOIN tags t ON t.id = qt.tag_id
		 WHERE qt.question_id IN (%s) ORDER BY t.id`,
		placeholders(1, len(ids)))
	rows, err = s.db.QueryContext(ctx, tq, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			qid int64
			t   Tag
		)
		if err := rows.Scan(&qid, &t.ID, &t.Name); err != nil {
			return nil, err
		}
		if i, ok := index[qid]; ok {
			qs[i].Tags = append(qs[i].Tags, t)
		}
	}
	return qs, rows.Err()
}

// placeholders renders "$start,$start+1,..." for n parameters.
func placeholders(start, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "$%d", start+i)
	}
	return sb.String()
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
