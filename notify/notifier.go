// Package notify delivers credential emails (one-time codes, reset links).
package notify

import "context"

// Notifier sends a plain-text email.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
