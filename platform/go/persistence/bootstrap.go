package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/keraleeyam/swasraya-registry/database"
)

// Bootstrap applies the core DDL in a single transaction, in dependency
// order:
//  1. core/taxonomy.sql
//  2. core/panchayaths.sql
//  3. core/registrations.sql
//  4. core/transfer_requests.sql
//
// SQL is embedded at build time so binaries stay self-contained. The helper
// is idempotent and intended for CLI bootstrap and tests.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.TaxonomySQL)...)
	statements = append(statements, splitStatements(sqlassets.PanchayathsSQL)...)
	statements = append(statements, splitStatements(sqlassets.RegistrationsSQL)...)
	statements = append(statements, splitStatements(sqlassets.TransferRequestsSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func splitStatements(ddl string) []string {
	raw := strings.Split(ddl, ";")
	statements := make([]string, 0, len(raw))
	for _, chunk := range raw {
		stmt := strings.TrimSpace(chunk)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
