package session

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
)

// Manager issues tokens on sign-in and resolves them back to emails.
type Manager struct {
	store  Store
	logger *logging.Logger
}

func NewManager(store Store, logger *logging.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Create validates the email, issues a fresh token and stores the session.
func (m *Manager) Create(ctx context.Context, email string) (Session, error) {
	const op = "session.Create"

	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, errors.Wrap(errors.KindSession, op, "invalid email address", err)
	}

	sess := Session{
		Token: uuid.NewString(),
		Email: email,
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return Session{}, errors.Wrap(errors.KindSession, op, "store session", err)
	}

	m.logger.InfoTag("AUTH", "session created for %s", email)
	return sess, nil
}

// Validate resolves a token to its email. ok is false for unknown or expired
// tokens.
func (m *Manager) Validate(ctx context.Context, token string) (string, bool, error) {
	const op = "session.Validate"

	if token == "" {
		return "", false, nil
	}
	sess, ok, err := m.store.Get(ctx, token)
	if err != nil {
		return "", false, errors.Wrap(errors.KindSession, op, "read session", err)
	}
	if !ok {
		return "", false, nil
	}
	return sess.Email, true, nil
}

// Invalidate removes a token. Removing an unknown token is not an error.
func (m *Manager) Invalidate(ctx context.Context, token string) error {
	const op = "session.Invalidate"

	if token == "" {
		return nil
	}
	if err := m.store.Remove(ctx, token); err != nil {
		return errors.Wrap(errors.KindSession, op, "remove session", err)
	}
	return nil
}

// Stats surfaces driver statistics for the health endpoint.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	return m.store.Stats(ctx)
}

// Close shuts the underlying store down.
func (m *Manager) Close(ctx context.Context) error {
	return m.store.Close(ctx)
}
