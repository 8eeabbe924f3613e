package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/ports"
)

// PersonsTable is the table read by downstream reporting.
const PersonsTable = "persons"

// PostgresRepository stores anonymized persons in Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.PersonStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPostgres opens a lib/pq pool for dsn. Connections are made lazily, so an
// unreachable server surfaces on the first statement.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}

// EnsureSchema creates the persons table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("postgres repository has no database")
	}
	if _, err := r.db.ExecContext(ctx, createTableSQL()); err != nil {
		return fmt.Errorf("create %s: %w", PersonsTable, err)
	}
	return nil
}

// Clear deletes every row of the persons table.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("postgres repository has no database")
	}
	query, args, err := r.builder.Delete(PersonsTable).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear %s: %w", PersonsTable, err)
	}
	return nil
}

// WriteBatch inserts batch in a single statement and commits it.
func (r *PostgresRepository) WriteBatch(ctx context.Context, batch []domain.AnonymizedRecord) (err error) {
	if r.db == nil {
		return fmt.Errorf("postgres repository has no database")
	}
	if len(batch) == 0 {
		return nil
	}

	query, args, err := r.insertQuery(batch)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d rows: %w", len(batch), err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored rows.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	query, args, err := r.builder.Select("COUNT(*)").From(PersonsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", PersonsTable, err)
	}
	return n, nil
}

func (r *PostgresRepository) insertQuery(batch []domain.AnonymizedRecord) (string, []any, error) {
	insert := r.builder.Insert(PersonsTable).Columns(quotedColumns()...)
	for _, record := range batch {
		insert = insert.Values(record.Values()...)
	}
	return insert.ToSql()
}

func quotedColumns() []string {
	cols := make([]string, len(domain.PersonColumns))
	for i, c := range domain.PersonColumns {
		cols[i] = pq.QuoteIdentifier(c)
	}
	return cols
}

// createTableSQL renders the DDL; camelCase columns stay case sensitive.
func createTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(PersonsTable)
	b.WriteString(" (\n    id SERIAL PRIMARY KEY")
	for _, col := range quotedColumns() {
		b.WriteString(",\n    ")
		b.WriteString(col)
		b.WriteString(" TEXT")
	}
	b.WriteString("\n)")
	return b.String()
}
