// Package usecases implements plan catalog, subscription and limits
// queries for tenants.
package usecases

import (
	"context"
)

// TransactionManager runs fn in one database transaction.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
