package exam

import (
	"context"
	"log/slog"
	"time"

	"github.com/quizforge/quizforge/internal/identity"
)

// Service wraps the submission pipeline with the guest-quota follow-up. The
// quota flag is set strictly after the triggering submission commits, so two
// racing submissions by the same guest may both land before the flag takes
// effect; that small overrun is an accepted eventual-consistency gap, not
// something to close with a global lock.
type Service struct {
	store *SQLStore
	users *identity.Store
	log   *slog.Logger
}

func NewService(store *SQLStore, users *identity.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, users: users, log: log}
}

func (s *Service) Store() *SQLStore { return s.store }

// SubmitResult persists a scored attempt for the user and then, before the
// caller responds, performs the guest-quota bookkeeping.
func (s *Service) SubmitResult(ctx context.Context, user identity.User, testID int64, attemptDate time.Time, rawChoiceIDs []string) (Examination, error) {
	ex, err := s.store.Submit(ctx, user.ID, testID, attemptDate, rawChoiceIDs)
	if err != nil {
		return Examination{}, err
	}

	if user.IsGuest() {
		n, err := s.users.ExaminationCount(ctx, user.ID)
		if err != nil {
			s.log.Error("guest quota check failed", "user_id", user.ID, "err", err)
			return ex, nil
		}
		if n >= identity.GuestExamLimit {
			if err := s.users.MarkGuestLimitReached(ctx, user); err != nil {
				s.log.Error("guest quota flag update failed", "user_id", user.ID, "err", err)
			}
		}
	}
	return ex, nil
}
