package bootstrap

import (
	"context"
	"testing"
	"time"

	"chopchop-server-go/internal/domain/session"
	platformconfig "chopchop-server-go/internal/platform/config"
	platformerrors "chopchop-server-go/internal/platform/errors"
	platformlogging "chopchop-server-go/internal/platform/logging"
)

func testLogger(t *testing.T) *platformlogging.Logger {
	t.Helper()
	logger, err := platformlogging.New(platformlogging.Config{Level: "error", Dir: t.TempDir(), Filename: "test.log"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestInitGraphOrderIsSatisfiable(t *testing.T) {
	completed := map[string]struct{}{}
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				t.Errorf("step %s depends on %s before it runs", step.ID, dep)
			}
		}
		if step.Execute == nil {
			t.Errorf("step %s has no execute function", step.ID)
		}
		completed[step.ID] = struct{}{}
	}
}

func TestExecuteInitStepsRejectsUnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "b",
			DependsOn: []string{"a"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Errorf("error kind = %v", err)
	}
}

func TestExecuteInitStepsRunsInOrder(t *testing.T) {
	var order []string
	record := func(id string) stepFn {
		return func(context.Context, *appState) error {
			order = append(order, id)
			return nil
		}
	}

	steps := []initStep{
		{ID: "a", Execute: record("a")},
		{ID: "b", DependsOn: []string{"a"}, Execute: record("b")},
		{ID: "c", DependsOn: []string{"a", "b"}, Execute: record("c")},
	}

	if err := executeInitSteps(context.Background(), steps, &appState{}); err != nil {
		t.Fatalf("executeInitSteps: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Errorf("order = %v", order)
	}
}

func TestSessionStoreConfig(t *testing.T) {
	logger := testLogger(t)

	cfg := &platformconfig.Config{}
	cfg.Server.Session.Store.Type = ""
	got, err := sessionStoreConfig(cfg, logger)
	if err != nil {
		t.Fatalf("sessionStoreConfig: %v", err)
	}
	if got.Driver != session.DriverMemory || got.Memory == nil {
		t.Errorf("empty type = %+v, want memory driver", got)
	}
	if got.Memory.GCInterval != 5*time.Minute {
		t.Errorf("gc interval = %s", got.Memory.GCInterval)
	}

	cfg.Server.Session.Store.Type = "database"
	got, err = sessionStoreConfig(cfg, logger)
	if err != nil {
		t.Fatalf("sessionStoreConfig: %v", err)
	}
	if got.Driver != session.DriverSQLite {
		t.Errorf("database alias driver = %s", got.Driver)
	}

	cfg.Server.Session.Store.Type = "redis"
	if _, err = sessionStoreConfig(cfg, logger); err == nil {
		t.Error("redis without addr accepted")
	}

	cfg.Server.Session.Store.Redis.Addr = "localhost:6379"
	got, err = sessionStoreConfig(cfg, logger)
	if err != nil {
		t.Fatalf("sessionStoreConfig: %v", err)
	}
	if got.Redis == nil || got.Redis.Addr != "localhost:6379" {
		t.Errorf("redis config = %+v", got.Redis)
	}

	cfg.Server.Session.Store.Type = "etcd"
	got, err = sessionStoreConfig(cfg, logger)
	if err != nil {
		t.Fatalf("sessionStoreConfig: %v", err)
	}
	if got.Driver != session.DriverMemory {
		t.Errorf("unknown type driver = %s, want memory fallback", got.Driver)
	}
}
