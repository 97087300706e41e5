// Package testsupport provides the ephemeral Postgres harness used by
// integration tests across the service packages, extracted from the
// teacher's store package so store itself stays free of test-only
// dependencies.
package testsupport

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type EphemeralPostgres struct {
	ConnectionString string
	container        *postgres.PostgresContainer
}

func NewEphemeralPostgres(ctx context.Context) (*EphemeralPostgres, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15.3-alpine"),
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("could not start postgres container: %w", err)
	}

	connectionString, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("could not get connection string: %w", err)
	}

	return &EphemeralPostgres{
		ConnectionString: connectionString,
		container:        container,
	}, nil
}

func (m *EphemeralPostgres) Terminate(ctx context.Context) error {
	return m.container.Terminate(ctx)
}
