// Package dataset implements the data-access collaborator for the backup
// pipeline: exporting application tables into a snapshot document and
// applying a restored snapshot back.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	"github.com/incomeclarity/vault/internal/database"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// userScopeColumn is the foreign-key column linking a record to its user.
const userScopeColumn = "user_id"

// Store exports and applies snapshots over the application tables. Table
// names come from configuration and are the only identifiers interpolated
// into SQL; all values go through bind parameters.
type Store struct {
	db        *sql.DB
	txManager database.TxManager
	driver    string
	tables    []string
	logger    *slog.Logger
}

// NewStore creates a dataset store over the given tables.
func NewStore(db *sql.DB, txManager database.TxManager, driver string, tables []string, logger *slog.Logger) *Store {
	return &Store{
		db:        db,
		txManager: txManager,
		driver:    driver,
		tables:    tables,
		logger:    logger,
	}
}

// Export reads the configured tables into a snapshot. A non-empty scope
// limits the export to one user: the users table is filtered on id, all
// other tables on user_id. Tables without a user_id column are exported in
// full regardless of scope.
func (s *Store) Export(ctx context.Context, scope string) (*backupDomain.Snapshot, error) {
	snap := backupDomain.NewSnapshot(scope)

	for _, table := range s.tables {
		records, err := s.exportTable(ctx, table, scope)
		if err != nil {
			return nil, err
		}
		snap.Tables[table] = records
	}

	s.logger.Debug("dataset exported",
		slog.String("scope", scope),
		slog.Int("tables", len(s.tables)),
		slog.Int("records", snap.RecordCount()),
	)
	return snap, nil
}

func (s *Store) exportTable(ctx context.Context, table, scope string) ([]backupDomain.Record, error) {
	querier := database.GetTx(ctx, s.db)

	query := fmt.Sprintf("SELECT * FROM %s", table)
	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, fmt.Sprintf("failed to export table %s", table))
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Wrap(err, fmt.Sprintf("failed to read columns of table %s", table))
	}

	scopeColumn := scopeColumnFor(table, columns, scope)

	records := []backupDomain.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, apperrors.Wrap(err, fmt.Sprintf("failed to scan row of table %s", table))
		}

		record := make(backupDomain.Record, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		if scopeColumn != "" && fmt.Sprintf("%v", record[scopeColumn]) != scope {
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, fmt.Sprintf("failed to export table %s", table))
	}
	return records, nil
}

// Apply writes a snapshot back into the database inside a single
// transaction. With overwrite the affected tables are cleared first, in
// reverse configuration order so child tables empty before their parents.
func (s *Store) Apply(ctx context.Context, snap *backupDomain.Snapshot, overwrite bool) error {
	return s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if overwrite {
			for i := len(s.tables) - 1; i >= 0; i-- {
				table := s.tables[i]
				if _, ok := snap.Tables[table]; !ok {
					continue
				}
				querier := database.GetTx(txCtx, s.db)
				if _, err := querier.ExecContext(txCtx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
					return apperrors.Wrap(err, fmt.Sprintf("failed to clear table %s", table))
				}
			}
		}

		applied := 0
		for _, table := range s.tables {
			records, ok := snap.Tables[table]
			if !ok {
				continue
			}
			for _, record := range records {
				if err := s.insertRecord(txCtx, table, record); err != nil {
					return err
				}
			}
			applied += len(records)
		}

		s.logger.Info("snapshot applied",
			slog.Bool("overwrite", overwrite),
			slog.Int("records", applied),
		)
		return nil
	})
}

func (s *Store) insertRecord(ctx context.Context, table string, record backupDomain.Record) error {
	if len(record) == 0 {
		return nil
	}

	columns := make([]string, 0, len(record))
	for column := range record {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		placeholders[i] = database.Placeholder(s.driver, i+1)
		args[i] = record[column]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	querier := database.GetTx(ctx, s.db)
	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, fmt.Sprintf("failed to insert into table %s", table))
	}
	return nil
}

// scopeColumnFor picks the column to filter on for a scoped export, or ""
// when the table is not scoped.
func scopeColumnFor(table string, columns []string, scope string) string {
	if scope == "" {
		return ""
	}
	if table == "users" {
		return "id"
	}
	for _, column := range columns {
		if column == userScopeColumn {
			return userScopeColumn
		}
	}
	return ""
}

// normalizeValue converts driver byte slices into strings so snapshots
// round-trip through JSON cleanly.
func normalizeValue(value any) any {
	if raw, ok := value.([]byte); ok {
		return string(raw)
	}
	return value
}
