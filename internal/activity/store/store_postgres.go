package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"confreg/internal/activity"
	id "confreg/pkg/domain"
	"confreg/pkg/platform/sentinel"
	txcontext "confreg/pkg/platform/tx"
)

// PostgresStore persists activity records in the activity_records table.
//
// Expected schema:
//
//	CREATE TABLE activity_records (
//	    id          UUID PRIMARY KEY,
//	    kind        TEXT NOT NULL,
//	    title       TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    icon        TEXT NOT NULL DEFAULT '',
//	    type        TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    metadata    JSONB,
//	    user_id     UUID,
//	    actions     JSONB,
//	    actor_id    UUID,
//	    action      TEXT NOT NULL DEFAULT '',
//	    entity      TEXT NOT NULL DEFAULT '',
//	    entity_id   TEXT NOT NULL DEFAULT '',
//	    category    TEXT NOT NULL DEFAULT '',
//	    severity    TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX activity_records_kind_created_idx
//	    ON activity_records (kind, created_at DESC, id DESC);
//	CREATE INDEX activity_records_user_idx
//	    ON activity_records (user_id, created_at DESC) WHERE user_id IS NOT NULL;
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const recordColumns = `id, kind, title, description, icon, type, created_at,
	metadata, user_id, actions, actor_id, action, entity, entity_id, category, severity`

func (s *PostgresStore) Append(ctx context.Context, rec activity.Record) error {
	metadata, err := marshalNullable(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	actions, err := marshalNullable(rec.Actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}

	query := `
		INSERT INTO activity_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		string(rec.Kind),
		rec.Title,
		rec.Description,
		rec.Icon,
		rec.Type,
		rec.CreatedAt,
		metadata,
		nullableUUID(uuid.UUID(rec.UserID)),
		actions,
		nullableUUID(uuid.UUID(rec.ActorID)),
		string(rec.Action),
		rec.Entity,
		rec.EntityID,
		string(rec.Category),
		string(rec.Severity),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert activity record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recID id.ActivityID) (activity.Record, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM activity_records WHERE id = $1`,
		uuid.UUID(recID),
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Record{}, sentinel.ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) ListUserFeed(ctx context.Context, userID id.UserID, limit int) ([]activity.Record, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM activity_records
		WHERE kind = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, string(activity.KindUser), uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list user feed: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresStore) ListSystem(ctx context.Context, limit int) ([]activity.Record, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM activity_records
		WHERE kind = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, string(activity.KindSystem), limit)
	if err != nil {
		return nil, fmt.Errorf("list system activity: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresStore) ListApp(ctx context.Context, filter activity.Filter, cursor *id.ActivityID, limit int) ([]activity.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM activity_records
		WHERE kind = $1
	`
	args := []any{string(activity.KindApp)}

	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}

	if filter.Type != "" {
		add("type =", filter.Type)
	}
	if filter.Entity != "" {
		add("entity =", filter.Entity)
	}
	if !filter.UserID.IsNil() {
		add("actor_id =", uuid.UUID(filter.UserID))
	}
	if filter.Severity != "" {
		add("severity =", string(filter.Severity))
	}
	if filter.Category != "" {
		add("category =", string(filter.Category))
	}
	if filter.StartDate != nil {
		add("created_at >=", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <=", *filter.EndDate)
	}

	// Keyset cursor: rows strictly older than the cursor record in the
	// (created_at DESC, id DESC) total order. The row-value comparison uses
	// the same composite index as the ORDER BY.
	if cursor != nil {
		args = append(args, uuid.UUID(*cursor))
		query += fmt.Sprintf(`
			AND (created_at, id) < (
				SELECT created_at, id FROM activity_records WHERE id = $%d
			)`, len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list app activity: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresStore) CountAppSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_records
		WHERE kind = $1 AND created_at >= $2
	`, string(activity.KindApp), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count app activity: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountAppByCategory(ctx context.Context, since time.Time, top int) ([]activity.CategoryCount, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT category, COUNT(*) AS n
		FROM activity_records
		WHERE kind = $1 AND created_at >= $2
		GROUP BY category
		ORDER BY n DESC, category ASC
		LIMIT $3
	`, string(activity.KindApp), since, top)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

	var out []activity.CategoryCount
	for rows.Next() {
		var cc activity.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountAppBySeverity(ctx context.Context, since time.Time) ([]activity.SeverityCount, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT severity, COUNT(*) AS n
		FROM activity_records
		WHERE kind = $1 AND created_at >= $2
		GROUP BY severity
		ORDER BY n DESC, severity ASC
	`, string(activity.KindApp), since)
	if err != nil {
		return nil, fmt.Errorf("count by severity: %w", err)
	}
	defer rows.Close()

	var out []activity.SeverityCount
	for rows.Next() {
		var sc activity.SeverityCount
		if err := rows.Scan(&sc.Severity, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan severity count: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Row mapping
// -----------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (activity.Record, error) {
	var (
		rec      activity.Record
		recID    uuid.UUID
		kind     string
		metadata []byte
		userID   sql.Null[uuid.UUID]
		actions  []byte
		actorID  sql.Null[uuid.UUID]
		action   string
		category string
		severity string
	)
	err := row.Scan(
		&recID, &kind, &rec.Title, &rec.Description, &rec.Icon, &rec.Type,
		&rec.CreatedAt, &metadata, &userID, &actions, &actorID, &action,
		&rec.Entity, &rec.EntityID, &category, &severity,
	)
	if err != nil {
		return activity.Record{}, err
	}

	rec.ID = id.ActivityID(recID)
	rec.Kind = activity.Kind(kind)
	rec.Action = activity.AuditAction(action)
	rec.Category = activity.Category(category)
	rec.Severity = activity.Severity(severity)
	if userID.Valid {
		rec.UserID = id.UserID(userID.V)
	}
	if actorID.Valid {
		rec.ActorID = id.UserID(actorID.V)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return activity.Record{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &rec.Actions); err != nil {
			return activity.Record{}, fmt.Errorf("unmarshal actions: %w", err)
		}
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]activity.Record, error) {
	var out []activity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			return nil, nil
		}
	case []activity.CallToAction:
		if len(val) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func nullableUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}
