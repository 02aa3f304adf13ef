//go:build integration

// Package containers provides shared test containers for integration tests.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is applied once per container. Kept in sync with the expected-schema
// doc comments on the Postgres stores.
const schema = `
CREATE TABLE registrations (
    id             UUID PRIMARY KEY,
    conference_id  UUID NOT NULL,
    user_id        UUID,
    status         TEXT NOT NULL,
    payment_status TEXT NOT NULL,
    price_cents    BIGINT NOT NULL,
    currency       TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL,
    UNIQUE (conference_id, user_id)
);

CREATE TABLE registration_status_history (
    id              UUID PRIMARY KEY,
    registration_id UUID NOT NULL REFERENCES registrations (id),
    previous_status TEXT NOT NULL,
    new_status      TEXT NOT NULL,
    changed_by_id   UUID,
    reason          TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX registration_status_history_reg_idx
    ON registration_status_history (registration_id, created_at DESC);

CREATE TABLE registration_notes (
    id              UUID PRIMARY KEY,
    registration_id UUID NOT NULL REFERENCES registrations (id),
    author_id       UUID NOT NULL,
    body            TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE registration_attachments (
    id              UUID PRIMARY KEY,
    registration_id UUID NOT NULL REFERENCES registrations (id),
    file_name       TEXT NOT NULL,
    content_type    TEXT NOT NULL DEFAULT '',
    size_bytes      BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE payments (
    id              UUID PRIMARY KEY,
    registration_id UUID NOT NULL REFERENCES registrations (id),
    amount_cents    BIGINT NOT NULL,
    currency        TEXT NOT NULL,
    state           TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX payments_registration_idx ON payments (registration_id);

CREATE TABLE activity_records (
    id          UUID PRIMARY KEY,
    kind        TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon        TEXT NOT NULL DEFAULT '',
    type        TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL,
    metadata    JSONB,
    user_id     UUID,
    actions     JSONB,
    actor_id    UUID,
    action      TEXT NOT NULL DEFAULT '',
    entity      TEXT NOT NULL DEFAULT '',
    entity_id   TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    severity    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX activity_records_kind_created_idx
    ON activity_records (kind, created_at DESC, id DESC);
CREATE INDEX activity_records_user_idx
    ON activity_records (user_id, created_at DESC) WHERE user_id IS NOT NULL;
`

// PostgresContainer wraps a testcontainers Postgres instance with the service
// schema applied.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DB        *sql.DB
	DSN       string
}

// NewPostgresContainer starts a Postgres container and applies the schema.
// The container is terminated via t.Cleanup.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("confreg"),
		tcpostgres.WithUsername("confreg"),
		tcpostgres.WithPassword("confreg"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db, DSN: dsn}
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := p.DB.ExecContext(ctx, query)
	return err
}
