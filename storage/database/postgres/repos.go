// Package pgrepos implements the domain repositories on PostgreSQL via sqlx.
package pgrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
)

// getExec prefers a caller-provided executor (e.g. a transaction) over the
// repo's default one.
func getExec(dflt core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return dflt
}

// trapNoRowsErr maps psql "no rows" to the domain's not-found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if isNoRowsErr(err) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isNoRowsErr(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
