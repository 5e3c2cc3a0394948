package testutil

import (
	"sync"

	"github.com/c360/comptree/supervisor"
)

// PublishedMessage is one message captured by CapturingPublisher.
type PublishedMessage struct {
	Subject string
	Data    []byte
}

// CapturingPublisher is an in-memory stand-in for a NATS connection. It
// satisfies the supervisor's Publisher contract and records every message
// for later assertions. Safe for concurrent use.
type CapturingPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
	err      error
}

// NewCapturingPublisher creates an empty capturing publisher.
func NewCapturingPublisher() *CapturingPublisher {
	return &CapturingPublisher{}
}

// FailWith makes every subsequent Publish return err. Passing nil restores
// normal capture.
func (p *CapturingPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the message, or returns the installed error.
func (p *CapturingPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	p.messages = append(p.messages, PublishedMessage{Subject: subject, Data: cp})
	return nil
}

// Messages returns a copy of everything captured so far.
func (p *CapturingPublisher) Messages() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedMessage(nil), p.messages...)
}

// Subjects returns the captured subjects in publish order.
func (p *CapturingPublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	subjects := make([]string, len(p.messages))
	for i, m := range p.messages {
		subjects[i] = m.Subject
	}
	return subjects
}

// Clear drops everything captured so far.
func (p *CapturingPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}

var _ supervisor.Publisher = (*CapturingPublisher)(nil)
