package identity

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrGuestAdmin = errors.New("guest users cannot be admins")
)

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func NewStore(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

// Create inserts a registered user. The password is bcrypt-hashed here so no
// caller ever holds a hash-or-plaintext ambiguity.
func (s *Store) Create(ctx context.Context, email, username, password string, admin bool) (User, error) {
	u := User{Email: email, Username: username, Admin: admin, CreatedAt: time.Now()}
	if u.IsGuest() && admin {
		return User{}, ErrGuestAdmin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = string(hash)
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, username, password_hash, admin, created_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		u.Email, u.Username, u.PasswordHash, u.Admin, u.CreatedAt.Unix()).Scan(&u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateGuest creates an ephemeral guest identity with a random reserved
// email, a random throwaway password and a fixed placeholder username.
func (s *Store) CreateGuest(ctx context.Context) (User, error) {
	return s.Create(ctx, NewGuestEmail(), GuestUsername, uuid.NewString(), false)
}

func (s *Store) ByID(ctx context.Context, id int64) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, admin, guest_limit_reached_at, created_at
		 FROM users WHERE id=$1`, id))
}

func (s *Store) ByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, admin, guest_limit_reached_at, created_at
		 FROM users WHERE email=$1`, email))
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var (
		u       User
		admin   bool
		limit   sql.NullInt64
		created int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &admin, &limit, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Admin = admin
	if limit.Valid {
		t := time.Unix(limit.Int64, 0)
		u.GuestLimitReachedAt = &t
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}

// ExaminationCount returns how many examinations the user owns.
func (s *Store) ExaminationCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM examinations WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

// GuestExaminationLimitReached applies the quota rule: the sticky flag, or
// the current attempt count at the limit. Always false for non-guests.
func (s *Store) GuestExaminationLimitReached(ctx context.Context, u User) (bool, error) {
	if !u.IsGuest() {
		return false, nil
	}
	if u.GuestLimitReached() {
		return true, nil
	}
	n, err := s.ExaminationCount(ctx, u.ID)
	if err != nil {
		return false, err
	}
	return n >= GuestExamLimit, nil
}

// MarkGuestLimitReached sets the sticky quota flag. Setting it twice is
// harmless; it is only ever cleared by ConvertToRegistered.
func (s *Store) MarkGuestLimitReached(ctx context.Context, u User) error {
	if !u.IsGuest() {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET guest_limit_reached_at=$1 WHERE id=$2`,
		time.Now().Unix(), u.ID)
	return err
}

// ConvertToRegistered turns a guest into a full account: real email,
// username and password, and the sticky quota flag cleared.
func (s *Store) ConvertToRegistered(ctx context.Context, userID int64, email, username, password string) (User, error) {
	check := User{Email: email}
	if check.IsGuest() {
		return User{}, errors.New("email matches the reserved guest pattern")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email=$1, username=$2, password_hash=$3, guest_limit_reached_at=NULL WHERE id=$4`,
		email, username, string(hash), userID)
	if err != nil {
		return User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, ErrNotFound
	}
	return s.ByID(ctx, userID)
}

// Delete removes a user together with their examinations, responses and
// scores, in one transaction.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM scores WHERE examination_id IN (SELECT id FROM examinations WHERE user_id=$1)`,
		`DELETE FROM user_responses WHERE examination_id IN (SELECT id FROM examinations WHERE user_id=$1)`,
		`DELETE FROM examinations WHERE user_id=$1`,
		`DELETE FROM users WHERE id=$1`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// OldGuests lists guest identities created before the cutoff. Candidates
// come from a coarse SQL pattern match and are confirmed with the central
// guest predicate.
func (s *Store) OldGuests(ctx context.Context, cutoff time.Time) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, username, password_hash, admin, guest_limit_reached_at, created_at
		 FROM users WHERE email LIKE 'guest%' AND created_at < $1`, cutoff.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var (
			u       User
			limit   sql.NullInt64
			created int64
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Admin, &limit, &created); err != nil {
			return nil, err
		}
		if limit.Valid {
			t := time.Unix(limit.Int64, 0)
			u.GuestLimitReachedAt = &t
		}
		u.CreatedAt = time.Unix(created, 0)
		if !u.IsGuest() {
			continue
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CleanupOldGuests destroys guests older than the retention window, one at a
// time. A failing delete is logged and skipped; the sweep keeps going. Safe
// to re-run: a second sweep with no new old guests deletes nothing.
func (s *Store) CleanupOldGuests(ctx context.Context) (int, error) {
	guests, err := s.OldGuests(ctx, time.Now().Add(-GuestRetention))
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, g := range guests {
		if err := s.Delete(ctx, g.ID); err != nil {
			s.log.Error("guest cleanup: delete failed", "user_id", g.ID, "err", err)
			continue
		}
		deleted++
	}
	s.log.Info("guest cleanup finished", "deleted", deleted, "candidates", len(guests))
	return deleted, nil
}
