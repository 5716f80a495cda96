package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Source document filenames, matching the aggregator export layout.
const (
	fileNetWorth = "fetch_net_worth.json"
	fileCredit   = "fetch_credit_report.json"
	fileBank     = "fetch_bank_transactions.json"
	fileMF       = "fetch_mf_transactions.json"
	fileStock    = "fetch_stock_transactions.json"
	fileEPF      = "fetch_epf_details.json"
)

// FileProvider reads raw source documents from <dir>/<userId>/<file>.
type FileProvider struct {
	dir string
	log *zap.Logger
}

// NewFileProvider returns a provider rooted at dir.
func NewFileProvider(dir string, log *zap.Logger) *FileProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileProvider{dir: dir, log: log.Named("fetch")}
}

// Dir returns the data root, for wiring the change watcher.
func (p *FileProvider) Dir() string { return p.dir }

func (p *FileProvider) read(userID, filename string) (any, error) {
	path := filepath.Join(p.dir, userID, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return doc, nil
}

// unwrap returns the first present envelope key of doc, or doc itself
// when it is already a bare list.
func unwrap(doc any, keys ...string) any {
	if m, ok := doc.(map[string]any); ok {
		for _, k := range keys {
			if v, ok := m[k]; ok && v != nil {
				// A second-level {transactions: [...]} wrapper appears in
				// some exports.
				if inner, ok := v.(map[string]any); ok {
					if txns, ok := inner["transactions"]; ok {
						return txns
					}
				}
				return v
			}
		}
	}
	return doc
}

func (p *FileProvider) FetchNetWorth(_ context.Context, userID string) (any, error) {
	return p.read(userID, fileNetWorth)
}

func (p *FileProvider) FetchCredit(_ context.Context, userID string) (any, error) {
	return p.read(userID, fileCredit)
}

// FetchAssets extracts the tagged asset list out of the net-worth
// document; there is no separate asset export.
func (p *FileProvider) FetchAssets(ctx context.Context, userID string) (any, error) {
	doc, err := p.FetchNetWorth(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m, ok := doc.(map[string]any); ok {
		if resp, ok := m["netWorthResponse"].(map[string]any); ok {
			return resp["assetValues"], nil
		}
	}
	return []any{}, nil
}

func (p *FileProvider) FetchBankTransactions(_ context.Context, userID string) (any, error) {
	doc, err := p.read(userID, fileBank)
	if err != nil {
		return nil, err
	}
	return unwrap(doc, "bankTransactions", "transactions"), nil
}

func (p *FileProvider) FetchMFTransactions(_ context.Context, userID string) (any, error) {
	doc, err := p.read(userID, fileMF)
	if err != nil {
		return nil, err
	}
	return unwrap(doc, "mfTransactions", "transactions"), nil
}

func (p *FileProvider) FetchStockTransactions(_ context.Context, userID string) (any, error) {
	doc, err := p.read(userID, fileStock)
	if err != nil {
		return nil, err
	}
	return unwrap(doc, "stockTransactions", "transactions"), nil
}

func (p *FileProvider) FetchEPFDetails(_ context.Context, userID string) (any, error) {
	return p.read(userID, fileEPF)
}
