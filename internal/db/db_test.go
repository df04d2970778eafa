//go:build integration

package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client

// TestMain starts one SurrealDB container for all archive tests.
func TestMain(m *testing.M) {
	// ryuk can fail in restricted docker environments
	_ = os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v2.3.7",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForListeningPort("8000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = Open(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, port.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestSaveRun_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeRuns(ctx))

	started := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	run, err := testDB.SaveRun(ctx, RunRecord{
		RunID:        "run-1",
		Status:       "running",
		Organization: "Comune di Codroipo",
		ListingURL:   "https://example.org/servizi",
		StartedAt:    started,
	})
	require.NoError(t, err)
	assert.Equal(t, "running", run.Status)
	assert.Empty(t, run.Stages)
	assert.Nil(t, run.CompletedAt)

	done := started.Add(2 * time.Minute)
	run, err = testDB.SaveRun(ctx, RunRecord{
		RunID:        "run-1",
		Status:       "succeeded",
		Organization: "Comune di Codroipo",
		ListingURL:   "https://example.org/servizi",
		Stages:       []string{"harvest", "render", "validate"},
		Harvested:    8,
		Enriched:     5,
		Documents:    8,
		Validation:   "PASS_WITH_WARNINGS",
		Warnings:     2,
		StartedAt:    started,
		CompletedAt:  &done,
	})
	require.NoError(t, err)
	assert.Equal(t, "succeeded", run.Status)
	assert.Equal(t, []string{"harvest", "render", "validate"}, run.Stages)
	assert.Equal(t, 8, run.Harvested)
	require.NotNil(t, run.CompletedAt)
	assert.True(t, run.CompletedAt.Equal(done))

	got, err := testDB.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "PASS_WITH_WARNINGS", got.Validation)
	assert.Equal(t, 2, got.Warnings)
}

func TestGetRun_NotFound(t *testing.T) {
	_, err := testDB.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListRuns_NewestFirst(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeRuns(ctx))

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := testDB.SaveRun(ctx, RunRecord{
			RunID:     id,
			Status:    "succeeded",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	runs, err := testDB.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID.ID)
	assert.Equal(t, "b", runs[1].ID.ID)
}
