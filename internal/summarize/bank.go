package summarize

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// BankTxn is one normalized bank transaction.
type BankTxn struct {
	Bank      string
	Amount    float64
	Narration string
	Date      time.Time
	Kind      int // TxnCredit or TxnDebit; 0 when unknown
	Balance   float64
	HasDate   bool
}

// BankSummary aggregates all bank accounts for one user.
type BankSummary struct {
	UserID             string             `json:"userId"`
	NumAccounts        int                `json:"numAccounts"`
	TotalCredits       float64            `json:"totalCredits"`
	TotalDebits        float64            `json:"totalDebits"`
	AverageBalance     float64            `json:"averageBalance"`
	ErraticWithdrawals int                `json:"erraticWithdrawals"`
	MonthlyTotals      map[string]float64 `json:"monthlyTotals"`
}

// NormalizeBankTxns flattens raw bank data into typed transactions.
// Two input shapes are accepted per transaction: positional arrays
// [amount, narration, date, typeCode, mode, balance] and keyed objects
// {txnAmount:{amount}, txnDate, txnType}. Rows that fit neither shape
// are skipped individually.
func NormalizeBankTxns(raw any) []BankTxn {
	var out []BankTxn
	for _, acc := range AsSlice(raw) {
		accMap := AsMap(acc)
		if accMap == nil {
			continue
		}
		bank := Str(accMap["bank"])
		for _, t := range AsSlice(accMap["txns"]) {
			if txn, ok := normalizeBankTxn(t, bank); ok {
				out = append(out, txn)
			}
		}
	}
	return out
}

func normalizeBankTxn(t any, bank string) (BankTxn, bool) {
	if row := AsSlice(t); row != nil {
		if len(row) == 0 {
			return BankTxn{}, false
		}
		txn := BankTxn{Bank: bank, Amount: Num(row[0])}
		if len(row) > 1 {
			txn.Narration = Str(row[1])
		}
		if len(row) > 2 {
			if d, ok := ParseDate(Str(row[2])); ok {
				txn.Date, txn.HasDate = d, true
			}
		}
		if len(row) > 3 {
			switch int(Num(row[3])) {
			case TxnCredit:
				txn.Kind = TxnCredit
			case TxnDebit:
				txn.Kind = TxnDebit
			}
		}
		if len(row) > 5 {
			txn.Balance = Num(row[5])
		}
		return txn, true
	}

	obj := AsMap(t)
	if obj == nil {
		return BankTxn{}, false
	}
	txn := BankTxn{Bank: bank}
	txn.Amount = Num(Dig(Field(obj, "txnAmount", "txn_amount"), "amount"))
	if txn.Amount == 0 {
		txn.Amount = Num(Field(obj, "amount"))
	}
	txn.Narration = Str(Field(obj, "narration", "description"))
	if d, ok := ParseDate(Str(Field(obj, "txnDate", "txn_date", "date"))); ok {
		txn.Date, txn.HasDate = d, true
	}
	switch Str(Field(obj, "txnType", "txn_type", "type")) {
	case "CREDIT", "credit":
		txn.Kind = TxnCredit
	case "DEBIT", "debit":
		txn.Kind = TxnDebit
	}
	txn.Balance = Num(Field(obj, "balance"))
	return txn, true
}

// Bank summarizes raw bank transaction data: total credits/debits,
// average running balance, month totals and outlier withdrawals.
func (s *Summarizer) Bank(userID string, raw any) BankSummary {
	summary := BankSummary{UserID: userID, MonthlyTotals: map[string]float64{}}
	summary.NumAccounts = len(AsSlice(raw))

	txns := NormalizeBankTxns(raw)
	if len(txns) == 0 {
		if raw != nil {
			s.log.Warn("bank data yielded no usable transactions", zap.String("user", userID))
		}
		return summary
	}

	var balanceSum, debitSum, debitSquares float64
	var debitCount int
	for _, txn := range txns {
		switch txn.Kind {
		case TxnCredit:
			summary.TotalCredits += txn.Amount
		case TxnDebit:
			summary.TotalDebits += txn.Amount
			debitSum += txn.Amount
			debitSquares += txn.Amount * txn.Amount
			debitCount++
		}
		balanceSum += txn.Balance
		if txn.HasDate {
			summary.MonthlyTotals[MonthKey(txn.Date)] += txn.Amount
		}
	}
	summary.AverageBalance = balanceSum / float64(len(txns))

	if debitCount > 1 {
		mean := debitSum / float64(debitCount)
		variance := debitSquares/float64(debitCount) - mean*mean
		if variance > 0 {
			threshold := mean + 2*math.Sqrt(variance)
			for _, txn := range txns {
				if txn.Kind == TxnDebit && txn.Amount > threshold {
					summary.ErraticWithdrawals++
				}
			}
		}
	}
	return summary
}
