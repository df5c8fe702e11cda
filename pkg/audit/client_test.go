package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestClient spins up a disposable Postgres container, runs the
// package's embedded migrations against it, and returns a ready Client.
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{DSN: connStr})
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}

func TestClient_InsertAndCountSince(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	record := Record{
		ID:              uuid.New(),
		Persona:         "BOSS",
		Contexts:        []string{"REQUEST"},
		Tone:            "POLITE",
		TemplateID:      "T02_REQUEST",
		LockedSpanCount: 2,
		GreenCount:      3,
		YellowCount:     1,
		RedCount:        0,
		RetryCount:      0,
		PromptTokens:    150,
		CompletionTokens: 90,
		LatencyMs:       1200,
	}
	require.NoError(t, client.Insert(ctx, record))

	count, err := client.CountSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestClient_Health(t *testing.T) {
	client := newTestClient(t)
	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxConns, int32(0))
}
