// Package testutil holds storage test fixtures: a disposable PostgreSQL
// container and the behaviour every store implementation must share.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/ficha/internal/config"
	"github.com/cory-johannsen/ficha/internal/storage/postgres"
	"github.com/cory-johannsen/ficha/migrations"
)

const postgresImage = "postgres:16-alpine"

// Postgres is a throwaway PostgreSQL server with a connected pool.
type Postgres struct {
	Pool   *postgres.Pool
	Config config.DatabaseConfig
}

// DB returns the raw pgx pool for repository constructors.
func (p *Postgres) DB() *pgxpool.Pool { return p.Pool.DB() }

// StartPostgres runs a PostgreSQL container for the duration of t.
//
// Precondition: a container provider must be reachable; otherwise, and under
// -short, the test is skipped.
// Postcondition: The container and pool are released by t.Cleanup.
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("container-backed test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	began := time.Now()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ficha",
				"POSTGRES_PASSWORD": "ficha",
				"POSTGRES_DB":       "ficha_test",
			},
			WaitingFor: wait.ForAll(
				// the entrypoint restarts the server once after initdb
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v", postgresImage, err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	cfg := config.DatabaseConfig{
		User:            "ficha",
		Password:        "ficha",
		Name:            "ficha_test",
		SSLMode:         "disable",
		MaxConns:        8,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
	if cfg.Host, err = ctr.Host(ctx); err != nil {
		t.Fatalf("resolving container host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("resolving container port: %v", err)
	}
	cfg.Port = port.Int()

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting to %s: %v", cfg.Host, err)
	}
	t.Cleanup(pool.Close)

	t.Logf("postgres ready at %s:%d [%s]", cfg.Host, cfg.Port, time.Since(began).Round(time.Millisecond))
	return &Postgres{Pool: pool, Config: cfg}
}

// Migrate applies the embedded PostgreSQL migrations.
func (p *Postgres) Migrate(t *testing.T) {
	t.Helper()
	m, err := migrations.NewPostgres(p.Config.DSN())
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()
	if err := migrations.Up(m); err != nil {
		t.Fatal(err)
	}
}
