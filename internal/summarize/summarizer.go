package summarize

import "go.uber.org/zap"

// Transaction type codes shared by the bank, mutual-fund and stock
// sources.
const (
	TxnBuy    = 1 // credit / purchase
	TxnSell   = 2 // debit / sale
	TxnBonus  = 3
	TxnSplit  = 4
	TxnCredit = TxnBuy
	TxnDebit  = TxnSell
)

// Summarizer turns raw source data into per-source summaries. It is
// stateless apart from its logger: for a fixed input every method
// returns the same output, and none of them ever returns an error —
// malformed input produces a zero summary and a log line.
type Summarizer struct {
	log *zap.Logger
}

// New returns a Summarizer logging through log (nop when nil).
func New(log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{log: log.Named("summarize")}
}
