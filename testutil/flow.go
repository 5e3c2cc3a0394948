package testutil

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/container"
	"github.com/c360/comptree/spec"
)

// Lang is a two-phase-commit participant holding a language and a greeting
// message. Updates made between Begin and Commit stay pending: Prepare
// exposes the would-be state, Commit applies it, Abort discards it, and
// Resume restores the state captured in a checkpoint.
type Lang struct {
	*component.Base

	mu              sync.Mutex
	language        string
	message         string
	pendingLanguage *string
	pendingMessage  *string
	lastMsg         any
}

// NewLang builds a Lang from its spec. Env keys "language" and "message"
// seed the committed state.
func NewLang(_ context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	base, err := component.NewBase(c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	l := &Lang{
		Base:     base,
		language: s.Env.GetString("language", "en"),
		message:  s.Env.GetString("message", greetings["en"]),
	}
	l.Bind(l)
	return l, nil
}

// Language returns the committed language.
func (l *Lang) Language() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.language
}

// Message returns the committed message.
func (l *Lang) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.message
}

// LastMessage returns the message object seen by the latest Begin.
func (l *Lang) LastMessage() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastMsg
}

// SetLanguage stages a language change for the current transaction.
func (l *Lang) SetLanguage(v string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingLanguage = &v
}

// SetMessage stages a message change for the current transaction.
func (l *Lang) SetMessage(v string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingMessage = &v
}

// Init implements the two-phase contract; Lang needs no warm-up.
func (l *Lang) Init(_ context.Context) error { return nil }

// Resume restores committed state from a checkpoint produced by Prepare.
// The checkpoint arrives as the JSON-decoded value, so string fields are
// read from a generic map.
func (l *Lang) Resume(_ context.Context, cp any) error {
	m, ok := cp.(map[string]any)
	if !ok {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := m["language"].(string); ok {
		l.language = v
	}
	if v, ok := m["message"].(string); ok {
		l.message = v
	}
	l.pendingLanguage = nil
	l.pendingMessage = nil
	return nil
}

// Begin opens a transaction: the message is recorded and stale pending
// updates are dropped.
func (l *Lang) Begin(_ context.Context, msg any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastMsg = msg
	l.pendingLanguage = nil
	l.pendingMessage = nil
	return nil
}

// Prepare returns the state that Commit would install.
func (l *Lang) Prepare(_ context.Context) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]any{
		"language": l.effectiveLanguage(),
		"message":  l.effectiveMessage(),
	}, nil
}

// Commit installs the pending updates.
func (l *Lang) Commit(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.language = l.effectiveLanguage()
	l.message = l.effectiveMessage()
	l.pendingLanguage = nil
	l.pendingMessage = nil
	return nil
}

// Abort discards the pending updates.
func (l *Lang) Abort(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingLanguage = nil
	l.pendingMessage = nil
	return nil
}

func (l *Lang) effectiveLanguage() string {
	if l.pendingLanguage != nil {
		return *l.pendingLanguage
	}
	return l.language
}

func (l *Lang) effectiveMessage() string {
	if l.pendingMessage != nil {
		return *l.pendingMessage
	}
	return l.message
}

var _ container.TwoPhase = (*Lang)(nil)
