// Package notify delivers reminder messages to the reader.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoCredentials is returned when a notifier is built without its secrets.
var ErrNoCredentials = errors.New("notifier credentials not configured")

// Notifier delivers a single message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, message string) error

func (f Func) Send(ctx context.Context, message string) error {
	return f(ctx, message)
}

// Multi sends every message to each notifier in turn. One failing
// notifier does not stop the others.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithTimeout bounds every Send on n by d.
func WithTimeout(n Notifier, d time.Duration) Notifier {
	return &timeoutNotifier{next: n, timeout: d}
}

type timeoutNotifier struct {
	next    Notifier
	timeout time.Duration
}

func (t *timeoutNotifier) Send(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- t.next.Send(ctx, message) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("notification not delivered within %s: %w", t.timeout, ctx.Err())
	}
}
