// Package testhelpers provides shared infrastructure for integration
// tests that need a real PostgreSQL instance.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the container image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// TestDB holds a shared test database container and connection pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "chatbot_test",
			"POSTGRES_USER":     "chatbot",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://chatbot:test_password@%s:%s/chatbot_test?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// officeSchema creates the office tables the integration tests work on.
const officeSchema = `
CREATE TABLE IF NOT EXISTS t_projects (
    id         SERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active',
    budget     NUMERIC(12, 2),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS t_employees (
    id       SERIAL PRIMARY KEY,
    name     TEXT NOT NULL,
    role     TEXT,
    staff_code TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS t_vehicles (
    id           SERIAL PRIMARY KEY,
    name         TEXT NOT NULL,
    license_plate TEXT UNIQUE,
    available    BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS t_morningplan (
    id         SERIAL PRIMARY KEY,
    plan_date  DATE NOT NULL,
    project_id INTEGER REFERENCES t_projects(id),
    vehicle_id INTEGER REFERENCES t_vehicles(id)
);

CREATE TABLE IF NOT EXISTS t_morningplan_staff (
    id          SERIAL PRIMARY KEY,
    plan_id     INTEGER NOT NULL REFERENCES t_morningplan(id),
    employee_id INTEGER NOT NULL REFERENCES t_employees(id)
);
`

var (
	officeSchemaOnce sync.Once
	officeSchemaErr  error
)

// SetupOfficeSchema applies the office tables to the shared test
// database. Safe to call from multiple tests.
func SetupOfficeSchema(t *testing.T, db *TestDB) {
	t.Helper()

	officeSchemaOnce.Do(func() {
		_, officeSchemaErr = db.Pool.Exec(context.Background(), officeSchema)
	})
	if officeSchemaErr != nil {
		t.Fatalf("Failed to create office schema: %v", officeSchemaErr)
	}
}
