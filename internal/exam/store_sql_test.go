package exam_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/quizforge/quizforge/internal/db"
	"github.com/quizforge/quizforge/internal/exam"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		strings.ReplaceAll(t.Name(), "/", "_"))
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

// seedTest creates a user, one test with three questions (one correct choice
// each) and returns the DB. Choice IDs: question n has choices n*10+1
// (correct) and n*10+2 (wrong).
func seedTest(t *testing.T, dbh *sql.DB, passMark int) {
	t.Helper()
	stmts := []string{
		`INSERT INTO users (id, email, username, password_hash, admin, created_at)
		 VALUES (1, 'u@example.com', 'u', 'x', 0, 0)`,
		fmt.Sprintf(`INSERT INTO tests (id, name, pass_mark) VALUES (7, 'Basics', %d)`, passMark),
	}
	for q := 1; q <= 3; q++ {
		stmts = append(stmts,
			fmt.Sprintf(`INSERT INTO questions (id, question_number, body) VALUES (%d, %d, 'q%d')`, q, q, q),
			fmt.Sprintf(`INSERT INTO test_sessions (test_id, question_id) VALUES (7, %d)`, q),
			fmt.Sprintf(`INSERT INTO choices (id, question_id, body, is_correct) VALUES (%d, %d, 'right', 1)`, q*10+1, q),
			fmt.Sprintf(`INSERT INTO choices (id, question_id, body, is_correct) VALUES (%d, %d, 'wrong', 0)`, q*10+2, q),
		)
	}
	for _, s := range stmts {
		if _, err := dbh.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func countRows(t *testing.T, dbh *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestSubmitPersistsResponsesAndScore(t *testing.T) {
	dbh := newTestDB(t)
	seedTest(t, dbh, 60)
	store := exam.NewSQLStore(dbh, nil)
	ctx := context.Background()

	// invalid tokens are dropped by the sanitizer; 11/21/32 survive
	ex, err := store.Submit(ctx, 1, 7, time.Now(), []string{"11", "invalid", "21", "3abc", "32"})
	if err != nil {
		t.Fatal(err)
	}
	if ex.ID == 0 {
		t.Fatal("examination id not assigned")
	}

	responses, err := store.ResponsesForExamination(ctx, ex.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(responses) != 3 {
		t.Fatalf("responses = %d, want 3", len(responses))
	}

	score, err := store.GetScore(ctx, ex.ID)
	if err != nil {
		t.Fatal(err)
	}
	// 11 and 21 are correct, 32 is not
	if score.CorrectCount != 2 || score.TotalCount != 3 {
		t.Errorf("score = %d/%d, want 2/3", score.CorrectCount, score.TotalCount)
	}
	if !score.Passed {
		// 2*100 >= 60*3
		t.Error("want passed at pass mark 60")
	}
}

func TestSubmitFailsAtPassMark(t *testing.T) {
	dbh := newTestDB(t)
	seedTest(t, dbh, 100)
	store := exam.NewSQLStore(dbh, nil)

	ex, err := store.Submit(context.Background(), 1, 7, time.Now(), []string{"11", "22", "32"})
	if err != nil {
		t.Fatal(err)
	}
	score, err := store.GetScore(context.Background(), ex.ID)
	if err != nil {
		t.Fatal(err)
	}
	if score.CorrectCount != 1 || score.Passed {
		t.Errorf("score = %+v, want 1 correct and not passed", score)
	}
}

func TestSubmitRollsBackOnInvalidChoices(t *testing.T) {
	tooMany := make([]string, 251)
	for i := range tooMany {
		tooMany[i] = fmt.Sprint(i + 1)
	}
	cases := []struct {
		name      string
		choiceIDs []string
	}{
		{"empty list", nil},
		{"only invalid tokens", []string{"abc", "-1", ""}},
		{"duplicate ids", []string{"11", "21", "11"}},
		{"nonexistent id", []string{"11", "9999"}},
		{"over the limit", tooMany},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dbh := newTestDB(t)
			seedTest(t, dbh, 60)
			store := exam.NewSQLStore(dbh, nil)

			_, err := store.Submit(context.Background(), 1, 7, time.Now(), tc.choiceIDs)
			if !errors.Is(err, exam.ErrInvalidChoice) {
				t.Fatalf("want ErrInvalidChoice, got %v", err)
			}
			// nothing may survive the rollback
			for _, table := range []string{"examinations", "user_responses", "scores"} {
				if n := countRows(t, dbh, table); n != 0 {
					t.Errorf("%s rows = %d after rollback, want 0", table, n)
				}
			}
		})
	}
}

func TestSubmitUnknownTest(t *testing.T) {
	dbh := newTestDB(t)
	seedTest(t, dbh, 60)
	store := exam.NewSQLStore(dbh, nil)

	_, err := store.Submit(context.Background(), 1, 999, time.Now(), []string{"11"})
	if err == nil {
		t.Fatal("want error for unknown test")
	}
	if n := countRows(t, dbh, "examinations"); n != 0 {
		t.Errorf("examinations rows = %d after rollback, want 0", n)
	}
}

func TestDeleteExaminationCascades(t *testing.T) {
	dbh := newTestDB(t)
	seedTest(t, dbh, 60)
	store := exam.NewSQLStore(dbh, nil)
	ctx := context.Background()

	ex, err := store.Submit(ctx, 1, 7, time.Now(), []string{"11", "21"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteExamination(ctx, ex.ID); err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"examinations", "user_responses", "scores"} {
		if n := countRows(t, dbh, table); n != 0 {
			t.Errorf("%s rows = %d after delete, want 0", table, n)
		}
	}
	if _, err := store.GetExamination(ctx, ex.ID); !errors.Is(err, exam.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestQuestionsForTestOrdered(t *testing.T) {
	dbh := newTestDB(t)
	seedTest(t, dbh, 60)
	store := exam.NewSQLStore(dbh, nil)

	qs, err := store.QuestionsForTest(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 3 {
		t.Fatalf("questions = %d", len(qs))
	}
	for i, q := range qs {
		if q.QuestionNumber != i+1 {
			t.Errorf("question %d out of order: number %d", i, q.QuestionNumber)
		}
		if len(q.Choices) != 2 {
			t.Errorf("question %d choices = %d, want 2", q.ID, len(q.Choices))
		}
	}
}

func TestExistenceChecks(t *testing.T) {
	dbh := newTestDB(t)
	seedTest(t, dbh, 60)
	store := exam.NewSQLStore(dbh, nil)
	ctx := context.Background()

	if ok, _ := store.ChoiceIDsExist(ctx, []int64{11, 21}); !ok {
		t.Error("existing choices reported missing")
	}
	if ok, _ := store.ChoiceIDsExist(ctx, []int64{11, 9999}); ok {
		t.Error("missing choice reported existing")
	}
	if ok, _ := store.QuestionIDsExist(ctx, []int64{1, 2, 3}); !ok {
		t.Error("existing questions reported missing")
	}
	if ok, _ := store.TestIDsExist(ctx, []int64{7}); !ok {
		t.Error("existing test reported missing")
	}
}
