// Package notifyfake provides a recording notify.Notifier for tests.
package notifyfake

import (
	"context"
	"sync"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type FakeNotifier struct {
	mu   sync.Mutex
	sent []Message

	// FailWith, when set, is returned by Send without recording the message.
	FailWith error
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (f *FakeNotifier) Send(_ context.Context, to, subject, body string) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of everything delivered so far.
func (f *FakeNotifier) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.sent))
	copy(out, f.sent)
	return out
}

// Last returns the most recent message, or a zero Message when none exist.
func (f *FakeNotifier) Last() Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return Message{}
	}
	return f.sent[len(f.sent)-1]
}
