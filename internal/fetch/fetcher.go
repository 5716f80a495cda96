// Package fetch provides access to the six raw financial data sources.
// The pipeline only depends on the Fetcher interface; the file provider
// here serves per-user JSON documents laid out the way the upstream
// aggregator exports them (<dataDir>/<userId>/fetch_net_worth.json and
// friends). Fetch failures surface as errors so callers can log them,
// but every method also returns a safe empty default in that case.
package fetch

import "context"

// Fetcher retrieves raw source data for one user. Implementations must
// never panic; a missing or malformed source yields (nil, err) and the
// caller substitutes an empty default.
type Fetcher interface {
	FetchNetWorth(ctx context.Context, userID string) (any, error)
	FetchCredit(ctx context.Context, userID string) (any, error)
	FetchAssets(ctx context.Context, userID string) (any, error)
	FetchBankTransactions(ctx context.Context, userID string) (any, error)
	FetchMFTransactions(ctx context.Context, userID string) (any, error)
	FetchStockTransactions(ctx context.Context, userID string) (any, error)
	FetchEPFDetails(ctx context.Context, userID string) (any, error)
}
