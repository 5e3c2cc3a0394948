package testutil

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/comptree/component"
	"github.com/c360/comptree/spec"
)

// greetings maps a language code to its default greeting.
var greetings = map[string]string{
	"en": "Hello",
	"fr": "Bonjour",
	"es": "Hola",
	"de": "Hallo",
}

// Hello is a stateful leaf component: a language, a greeting message, and a
// checkup counter for assertions on supervision activity.
type Hello struct {
	*component.Base

	mu       sync.Mutex
	language string
	message  string
	checkups int
}

// NewHello builds a Hello from its spec. Env keys: "language" (default "en")
// and "message" (defaults to the greeting for the language).
func NewHello(_ context.Context, c *component.Context, s *spec.Spec) (component.Component, error) {
	base, err := component.NewBase(c, s, slog.Default())
	if err != nil {
		return nil, err
	}
	language := s.Env.GetString("language", "en")
	message := s.Env.GetString("message", "")
	if message == "" {
		if g, ok := greetings[language]; ok {
			message = g
		} else {
			message = greetings["en"]
		}
	}
	h := &Hello{Base: base, language: language, message: message}
	h.Bind(h)
	return h, nil
}

// Language returns the current language.
func (h *Hello) Language() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.language
}

// Message returns the current greeting message.
func (h *Hello) Message() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message
}

// SetMessage replaces the greeting message.
func (h *Hello) SetMessage(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.message = msg
}

// Greet composes the greeting for a name.
func (h *Hello) Greet(name string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message + " " + name
}

// CheckupCount returns the number of checkups this instance has seen.
func (h *Hello) CheckupCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkups
}

// Checkup counts the probe and chains to the kernel.
func (h *Hello) Checkup(ctx context.Context, data *component.Data) error {
	if err := h.Base.Checkup(ctx, data); err != nil {
		return err
	}
	h.mu.Lock()
	h.checkups++
	h.mu.Unlock()
	return nil
}

var _ component.Component = (*Hello)(nil)
