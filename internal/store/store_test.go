package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rkeerthivasan/estateline/models"
)

func startPostgres(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "estateline",
			"POSTGRES_PASSWORD": "estateline",
			"POSTGRES_DB":       "estateline",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(1).WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skipping: cannot start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://estateline:estateline@%s:%s/estateline?sslmode=disable", host, port.Port())
	return container, dsn
}

func findMigrationsDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for i := 0; i < 6; i++ {
		candidate := filepath.Join(dir, "migrations")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatal("migrations directory not found")
	return ""
}

func TestSaveAndRecentTurns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, dsn := startPostgres(t, ctx)
	defer container.Terminate(ctx)

	migrations := findMigrationsDir(t)
	var merr error
	for attempt := 0; attempt < 6; attempt++ {
		if merr = Migrate("file://"+migrations, dsn, "up", 0); merr == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if merr != nil {
		t.Fatalf("migrations: %v", merr)
	}

	s, err := NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("NewWithDSN: %v", err)
	}
	defer s.Close()

	base := time.Now().UTC().Truncate(time.Microsecond)
	turns := []models.ConversationTurn{
		{CallID: "call-1", UserText: "", ReplyText: "Good day, Omar.", Intent: "unknown", CreatedAt: base},
		{CallID: "call-1", UserText: "yes", ReplyText: "Great!", Intent: "confirm", CreatedAt: base.Add(time.Second)},
		{CallID: "call-2", UserText: "no", ReplyText: "I understand.", Intent: "reject", CreatedAt: base},
	}
	for _, turn := range turns {
		if err := s.SaveTurn(ctx, turn); err != nil {
			t.Fatalf("SaveTurn: %v", err)
		}
	}

	got, err := s.RecentTurns(ctx, "call-1", 10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d turns for call-1, want 2", len(got))
	}
	// newest first
	if got[0].Intent != "confirm" || got[1].Intent != "unknown" {
		t.Errorf("order = %s, %s", got[0].Intent, got[1].Intent)
	}
	if got[0].ID == "" {
		t.Error("turn id not assigned")
	}

	limited, err := s.RecentTurns(ctx, "call-1", 1)
	if err != nil {
		t.Fatalf("RecentTurns limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Intent != "confirm" {
		t.Errorf("limited result = %+v", limited)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	if err := s.SaveTurn(context.Background(), models.ConversationTurn{CallID: "x"}); err != nil {
		t.Errorf("nil SaveTurn: %v", err)
	}
	turns, err := s.RecentTurns(context.Background(), "x", 5)
	if err != nil || turns != nil {
		t.Errorf("nil RecentTurns = %v, %v", turns, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
