package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestStoreIntegration runs against a real Postgres container.
// It requires Docker and is skipped when Docker is not available.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("img2ascii_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	// Initialize Store (runs migrations)
	s, err := New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close(ctx)

	// Schema creation is idempotent
	if err := initSchema(ctx, s.conn); err != nil {
		t.Fatalf("Second initSchema failed: %v", err)
	}

	first := Render{
		JobID:    uuid.NewString(),
		Image:    "cat.png",
		Font:     "gomono",
		Strategy: "frames",
		Mode:     "brightness",
		Workers:  4,
		Columns:  80,
		Rows:     40,
		Elapsed:  1500 * time.Millisecond,
	}
	if err := s.SaveRender(ctx, first); err != nil {
		t.Fatalf("SaveRender failed: %v", err)
	}

	second := first
	second.JobID = uuid.NewString()
	second.Strategy = "symbols"
	second.Substituted = 3
	second.Failures = 1
	time.Sleep(10 * time.Millisecond) // distinct created_at
	if err := s.SaveRender(ctx, second); err != nil {
		t.Fatalf("SaveRender failed: %v", err)
	}

	// Saving a job again overwrites it
	first.Columns = 100
	if err := s.SaveRender(ctx, first); err != nil {
		t.Fatalf("SaveRender (update) failed: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 renders, got %d", n)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 renders, got %d", len(recent))
	}
	if recent[0].JobID != second.JobID {
		t.Errorf("Expected newest render first, got %s", recent[0].JobID)
	}
	if recent[0].Substituted != 3 || recent[0].Failures != 1 || recent[0].Strategy != "symbols" {
		t.Errorf("Unexpected row: %+v", recent[0])
	}
	if recent[1].Columns != 100 {
		t.Errorf("Expected updated columns 100, got %d", recent[1].Columns)
	}
	if recent[1].Elapsed != 1500*time.Millisecond {
		t.Errorf("Expected elapsed 1.5s, got %v", recent[1].Elapsed)
	}

	limited, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent(1) failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 render, got %d", len(limited))
	}
}
