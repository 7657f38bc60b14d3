// Package validate decides whether a generated SQL candidate is safe to run.
// Rejection is a normal, structured outcome of the pipeline, never an error:
// callers get back a verdict with the reason for any refusal.
package validate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemarag/schemarag/internal/errors"
)

// ForbiddenKeywords are the mutation operations a generated query is never
// allowed to contain. The generator injects the same list into its prompt, so
// the model is told exactly what this scan will reject.
var ForbiddenKeywords = []string{
	"DROP TABLE",
	"DELETE FROM",
	"INSERT INTO",
	"UPDATE",
	"ALTER TABLE",
}

// Result is the validation verdict for one SQL candidate
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CheckForbiddenKeywords scans the query for banned operations. The match is
// a case-insensitive substring scan, and every matched keyword is reported,
// not just the first.
func CheckForbiddenKeywords(sqlText string) Result {
	upper := strings.ToUpper(sqlText)

	var matched []string

	for _, keyword := range ForbiddenKeywords {
		if strings.Contains(upper, keyword) {
			matched = append(matched, keyword)
		}
	}

	if len(matched) > 0 {
		return Result{
			Valid:  false,
			Reason: fmt.Sprintf("forbidden keywords found: %s", strings.Join(matched, ", ")),
		}
	}

	return Result{Valid: true}
}

// CheckSchemaAndSyntax compiles the query against the live database without
// executing it. EXPLAIN plans the statement, so missing tables or columns and
// syntax errors surface as database errors while data is never touched. The
// database-reported error text becomes the rejection reason verbatim.
func CheckSchemaAndSyntax(ctx context.Context, db *sql.DB, sqlText string) (Result, error) {
	if err := db.PingContext(ctx); err != nil {
		return Result{}, errors.Wrap(err, errors.ErrTypeDatabase, "validation database unavailable")
	}

	rows, err := db.QueryContext(ctx, "EXPLAIN "+sqlText)
	if err != nil {
		return Result{Valid: false, Reason: err.Error()}, nil
	}
	defer rows.Close()

	// Drain the plan rows; the statement never runs.
	for rows.Next() {
	}

	if err := rows.Err(); err != nil {
		return Result{Valid: false, Reason: err.Error()}, nil
	}

	return Result{Valid: true}, nil
}

// Validate runs both checks in order: the keyword scan first, since it needs
// no database, then the compile-only check. The first rejection wins.
func Validate(ctx context.Context, db *sql.DB, sqlText string) (Result, error) {
	if result := CheckForbiddenKeywords(sqlText); !result.Valid {
		return result, nil
	}

	return CheckSchemaAndSyntax(ctx, db, sqlText)
}
