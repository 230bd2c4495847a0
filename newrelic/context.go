package newrelic

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// ContextWithTxn starts a transaction with the given name on the application
// and returns a context carrying it. A nil application yields an inert
// transaction, so callers never need to guard for the agent being disabled.
func ContextWithTxn(parent context.Context, name string, app *newrelic.Application) (context.Context, *newrelic.Transaction) {
	txn := &newrelic.Transaction{}
	if app != nil {
		txn = app.StartTransaction(name)
	}

	return newrelic.NewContext(parent, txn), txn
}
