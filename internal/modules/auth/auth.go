package auth

import "context"

// Service verifies cashier tokens issued by the back office.
type Service interface {
	// Verify checks the token and returns the cashier's user id.
	Verify(ctx context.Context, token string) (string, error)
}
