package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	GuestEmailPrefix = "guest_"
	GuestEmailDomain = "@example.com"
	GuestUsername    = "Guest user"

	// GuestExamLimit caps the number of examinations a guest may submit.
	GuestExamLimit = 5
	// GuestRetention is how long a guest identity survives before the
	// scheduled sweep removes it.
	GuestRetention = 7 * 24 * time.Hour
)

type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	Username            string     `json:"username"`
	PasswordHash        string     `json:"-"`
	Admin               bool       `json:"admin"`
	GuestLimitReachedAt *time.Time `json:"guest_limit_reached_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// IsGuest reports whether u is an ephemeral guest identity. Guests are
// detected by their reserved synthetic email pattern; every consumer (quota
// check, policies, cleanup query) goes through this one predicate.
func (u User) IsGuest() bool {
	return strings.HasPrefix(u.Email, GuestEmailPrefix) && strings.HasSuffix(u.Email, GuestEmailDomain)
}

// GuestLimitReached reports whether the sticky quota flag is set. The flag
// never clears on its own; converting the guest to a registered account
// clears it.
func (u User) GuestLimitReached() bool {
	return u.GuestLimitReachedAt != nil
}

// NewGuestEmail generates a unique reserved-pattern email.
func NewGuestEmail() string {
	return GuestEmailPrefix + uuid.NewString() + GuestEmailDomain
}
