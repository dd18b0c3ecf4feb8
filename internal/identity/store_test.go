package identity_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/quizforge/quizforge/internal/db"
	"github.com/quizforge/quizforge/internal/identity"
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

func TestIsGuest(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"guest_abc123@example.com", true},
		{"guest_@example.com", true},
		{"alice@example.com", false},
		{"guest_abc@other.org", false},
		{"prefix_guest_abc@example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		u := identity.User{Email: tc.email}
		if got := u.IsGuest(); got != tc.want {
			t.Errorf("IsGuest(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestCreateGuest(t *testing.T) {
	dbh := newTestDB(t)
	users := identity.NewStore(dbh, nil)
	ctx := context.Background()

	g1, err := users.CreateGuest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := users.CreateGuest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !g1.IsGuest() || !g2.IsGuest() {
		t.Error("created guests must match the guest predicate")
	}
	if g1.Email == g2.Email {
		t.Error("guest emails must be unique")
	}
	if g1.Username != identity.GuestUsername {
		t.Errorf("username = %q", g1.Username)
	}
	if g1.Admin {
		t.Error("guests are never admins")
	}
	if g1.GuestLimitReached() {
		t.Error("fresh guest must not carry the quota flag")
	}
}

func TestCreateRefusesGuestAdmin(t *testing.T) {
	dbh := newTestDB(t)
	users := identity.NewStore(dbh, nil)

	_, err := users.Create(context.Background(), identity.NewGuestEmail(), "g", "pw", true)
	if !errors.Is(err, identity.ErrGuestAdmin) {
		t.Fatalf("want ErrGuestAdmin, got %v", err)
	}
}

func TestGuestExaminationLimitReached(t *testing.T) {
	dbh := newTestDB(t)
	users := identity.NewStore(dbh, nil)
	ctx := context.Background()

	guest, err := users.CreateGuest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dbh.Exec(`INSERT INTO tests (id, name, pass_mark) VALUES (1, 't', 0)`); err != nil {
		t.Fatal(err)
	}
	addExams := func(n int) {
		for i := 0; i < n; i++ {
			if _, err := dbh.Exec(
				`INSERT INTO examinations (user_id, test_id, attempt_date, created_at) VALUES ($1, 1, 0, 0)`,
				guest.ID); err != nil {
				t.Fatal(err)
			}
		}
	}

	addExams(identity.GuestExamLimit - 1)
	reached, err := users.GuestExaminationLimitReached(ctx, guest)
	if err != nil {
		t.Fatal(err)
	}
	if reached {
		t.Error("4 attempts must not reach the limit")
	}

	addExams(1)
	reached, err = users.GuestExaminationLimitReached(ctx, guest)
	if err != nil {
		t.Fatal(err)
	}
	if !reached {
		t.Error("5 attempts must reach the limit")
	}
}

func TestMarkGuestLimitReachedIsGuestOnly(t *testing.T) {
	dbh := newTestDB(t)
	users := identity.NewStore(dbh, nil)
	ctx := context.Background()

	reg, err := users.Create(ctx, "reg@quizforge.dev", "reg", "pw", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := users.MarkGuestLimitReached(ctx, reg); err != nil {
		t.Fatal(err)
	}
	got, err := users.ByID(ctx, reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.GuestLimitReached() {
		t.Error("flag must never be set on a registered user")
	}
}

func TestConvertToRegisteredClearsFlag(t *testing.T) {
	dbh := newTestDB(t)
	users := identity.NewStore(dbh, nil)
	ctx := context.Background()

	guest, err := users.CreateGuest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := users.MarkGuestLimitReached(ctx, guest); err != nil {
		t.Fatal(err)
	}

	converted, err := users.ConvertToRegistered(ctx, guest.ID, "alice@quizforge.dev", "alice", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if converted.IsGuest() {
		t.Error("converted account still matches the guest predicate")
	}
	if converted.GuestLimitReached() {
		t.Error("conversion must clear the sticky flag")
	}

	// converting to a reserved-pattern email is refused
	g2, err := users.CreateGuest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := users.ConvertToRegistered(ctx, g2.ID, identity.NewGuestEmail(), "x", "pw"); err == nil {
		t.Error("want error for reserved-pattern email")
	}
}

func TestCleanupOldGuests(t *testing.T) {
	dbh := newTestDB(t)
	users := identity.NewStore(dbh, nil)
	ctx := context.Background()

	old, err := users.CreateGuest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := users.CreateGuest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := users.Create(ctx, "reg@quizforge.dev", "reg", "pw", false)
	if err != nil {
		t.Fatal(err)
	}

	// age the first guest and the registered user past the retention window
	cutoff := time.Now().Add(-identity.GuestRetention - time.Hour).Unix()
	for _, id := range []int64{old.ID, reg.ID} {
		if _, err := dbh.Exec(`UPDATE users SET created_at=$1 WHERE id=$2`, cutoff, id); err != nil {
			t.Fatal(err)
		}
	}
	// give the old guest records that must cascade away
	if _, err := dbh.Exec(`INSERT INTO tests (id, name, pass_mark) VALUES (1, 't', 0)`); err != nil {
		t.Fatal(err)
	}
	if _, err := dbh.Exec(
		`INSERT INTO examinations (user_id, test_id, attempt_date, created_at) VALUES ($1, 1, 0, 0)`,
		old.ID); err != nil {
		t.Fatal(err)
	}

	deleted, err := users.CleanupOldGuests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := users.ByID(ctx, old.ID); !errors.Is(err, identity.ErrNotFound) {
		t.Error("old guest must be gone")
	}
	if _, err := users.ByID(ctx, fresh.ID); err != nil {
		t.Error("fresh guest must survive")
	}
	if _, err := users.ByID(ctx, reg.ID); err != nil {
		t.Error("registered user must survive regardless of age")
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM examinations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("examinations = %d after cleanup, want 0", n)
	}

	// idempotent: nothing further to delete on the second run
	deleted, err = users.CleanupOldGuests(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("second run deleted %d, want 0", deleted)
	}
}
