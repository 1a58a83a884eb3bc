package identity

import (
	"context"
	"errors"
	"log"
	"net/http"
)

// UserService is the collaborator contract the filter depends on.
type UserService interface {
	Validate(ctx context.Context, userID string) (ValidationStatus, error)
	Register(ctx context.Context, reg Registration) error
}

// Filter is HTTP middleware that reconciles the caller's asserted identity
// with the internal user store before forwarding a request.
//
// The filter never rejects a request on its own account: identity sync is a
// best-effort side channel, not a gate. Every failure between token parsing
// and registration is absorbed and logged, and the request is forwarded
// regardless, carrying the resolved user id when one could be determined.
type Filter struct {
	users  UserService
	logger *log.Logger
}

// NewFilter constructs a Filter.
func NewFilter(users UserService, logger *log.Logger) *Filter {
	if logger == nil {
		logger = log.New(log.Writer(), "[identity] ", log.LstdFlags)
	}
	return &Filter{users: users, logger: logger}
}

// Wrap attaches identity reconciliation to an http.Handler.
func (f *Filter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromRequest(r)
		if err != nil {
			if errors.Is(err, ErrNoToken) {
				recordReconciliation(outcomeNoToken)
			} else {
				f.logger.Printf("token rejected, forwarding without identity rewrite: %v", err)
				recordReconciliation(outcomeMalformed)
			}
			next.ServeHTTP(w, r)
			return
		}

		// An explicit caller-supplied id wins over the token subject.
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			userID = claims.Subject
		}

		f.reconcile(r.Context(), userID, *claims)

		r.Header.Set(HeaderUserID, userID)
		next.ServeHTTP(w, r)
	})
}

// reconcile guarantees a user record exists for the id, best-effort.
func (f *Filter) reconcile(ctx context.Context, userID string, claims Claims) {
	status, err := f.users.Validate(ctx, userID)
	switch status {
	case StatusFound:
		recordReconciliation(outcomeExisting)
		return
	case StatusUnavailable:
		f.logger.Printf("user validation unavailable (user=%s): %v", userID, err)
		recordReconciliation(outcomeUnavailable)
		return
	}

	recordRegistrationAttempt()
	if err := f.users.Register(ctx, NewRegistration(claims)); err != nil {
		f.logger.Printf("user registration failed (user=%s): %v", userID, err)
		recordRegistrationFailure()
		recordReconciliation(outcomeUnavailable)
		return
	}

	f.logger.Printf("registered new user record (user=%s)", userID)
	recordReconciliation(outcomeRegistered)
}
