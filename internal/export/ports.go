// Package export defines the outbound ports for the spreadsheet sync
// worker.
package export

import (
	"context"

	"github.com/ceconelo/financaia/internal/core"
)

// TransactionWriter appends one transaction row to the export target.
// Owner is the resolved user so the sheet carries a readable name
// instead of a UUID.
type TransactionWriter interface {
	Append(ctx context.Context, tx core.Transaction, owner core.User) (rowRef string, err error)
}
