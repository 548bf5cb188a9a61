package session

import (
	"context"
	"testing"
	"time"

	"chopchop-server-go/internal/platform/logging"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger, err := logging.New(logging.Config{Level: "error", Dir: t.TempDir(), Filename: "test.log"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	store := NewMemory(Config{TTL: time.Hour})
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	return NewManager(store, logger)
}

func TestManagerCreateValidateInvalidate(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)

	sess, err := mgr.Create(ctx, "Cook@Example.COM")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("empty token issued")
	}
	if sess.Email != "cook@example.com" {
		t.Errorf("email not normalized: %s", sess.Email)
	}

	email, ok, err := mgr.Validate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok || email != "cook@example.com" {
		t.Errorf("Validate = (%s, %v)", email, ok)
	}

	if err := mgr.Invalidate(ctx, sess.Token); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := mgr.Validate(ctx, sess.Token); ok {
		t.Error("invalidated token still valid")
	}
}

func TestManagerRejectsInvalidEmail(t *testing.T) {
	mgr := newTestManager(t)

	if _, err := mgr.Create(context.Background(), "not-an-email"); err == nil {
		t.Fatal("expected error for invalid email")
	}
}

func TestManagerTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)

	a, _ := mgr.Create(ctx, "a@b.com")
	b, _ := mgr.Create(ctx, "a@b.com")
	if a.Token == b.Token {
		t.Fatal("two sign-ins produced the same token")
	}
}

func TestManagerValidateUnknownToken(t *testing.T) {
	mgr := newTestManager(t)

	if _, ok, err := mgr.Validate(context.Background(), "nope"); ok || err != nil {
		t.Fatalf("Validate unknown = ok:%v err:%v", ok, err)
	}
	if _, ok, _ := mgr.Validate(context.Background(), ""); ok {
		t.Fatal("empty token validated")
	}
}
