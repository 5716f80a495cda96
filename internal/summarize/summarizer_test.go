package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumCoercion(t *testing.T) {
	assert.Equal(t, 15000.5, Num("15000.50"))
	assert.Equal(t, -3200.0, Num("-3,200"))
	assert.Equal(t, 42.0, Num(42))
	assert.Equal(t, 0.0, Num("not a number"))
	assert.Equal(t, 0.0, Num(nil))
	assert.Equal(t, 0.0, Num(map[string]any{}))
}

func TestDig(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 7.0}},
	}
	assert.Equal(t, 7.0, Num(Dig(doc, "a", "b", "c")))
	assert.Nil(t, Dig(doc, "a", "missing", "c"))
	assert.Nil(t, Dig(nil, "a"))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2025-07-01", "2025-07-01T10:30:00Z", "2025-07-01T10:30:00"} {
		d, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, "2025-07", MonthKey(d))
	}
	_, ok := ParseDate("01/07/2025")
	assert.False(t, ok)
}

func TestBankSummaryBothTxnShapes(t *testing.T) {
	raw := []any{
		map[string]any{
			"bank": "HDFC",
			"txns": []any{
				[]any{50000.0, "SALARY", "2025-07-01", 1.0, "NEFT", 150000.0},
				[]any{1200.0, "GROCERIES", "2025-07-02", 2.0, "UPI", 148800.0},
				map[string]any{
					"txnAmount": map[string]any{"amount": "3000"},
					"txnDate":   "2025-07-05",
					"txnType":   "DEBIT",
					"balance":   145800.0,
				},
			},
		},
	}

	s := New(nil).Bank("u1", raw)
	assert.Equal(t, 1, s.NumAccounts)
	assert.Equal(t, 50000.0, s.TotalCredits)
	assert.Equal(t, 4200.0, s.TotalDebits)
	assert.InDelta(t, 148200.0, s.AverageBalance, 0.01)
	assert.Equal(t, 54200.0, s.MonthlyTotals["2025-07"])
}

func TestBankSummaryErraticWithdrawals(t *testing.T) {
	txns := []any{}
	for i := 0; i < 20; i++ {
		txns = append(txns, []any{1000.0, "USUAL", "2025-07-01", 2.0, "UPI", 50000.0})
	}
	txns = append(txns, []any{90000.0, "ONE OFF", "2025-07-15", 2.0, "NEFT", 10000.0})
	raw := []any{map[string]any{"bank": "X", "txns": txns}}

	s := New(nil).Bank("u1", raw)
	assert.Equal(t, 1, s.ErraticWithdrawals)
}

func TestBankSummaryGarbageInput(t *testing.T) {
	for _, raw := range []any{nil, "oops", map[string]any{}, []any{"x", 1.0}} {
		s := New(nil).Bank("u1", raw)
		assert.Zero(t, s.TotalCredits)
		assert.Zero(t, s.TotalDebits)
	}
}

func TestCreditSummaryEnvelopeShapes(t *testing.T) {
	report := map[string]any{
		"creditReportData": map[string]any{
			"creditAccount": map[string]any{
				"creditAccountSummary": map[string]any{
					"account": map[string]any{
						"creditAccountTotal":  "4",
						"creditAccountActive": "3",
						"creditAccountClosed": "1",
					},
				},
				"creditAccountDetails": []any{
					map[string]any{"creditLimitAmount": "200000", "currentBalance": "150000", "amountPastDue": "500"},
					map[string]any{"creditLimitAmount": "100000", "currentBalance": "50000", "amountPastDue": "0"},
				},
			},
			"score": map[string]any{"bureauScore": "756", "bureau": "CIBIL"},
		},
	}

	shapes := map[string]any{
		"envelope": map[string]any{"creditReports": []any{report}},
		"bare":     report,
		"list":     []any{report},
	}
	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			s := New(nil).Credit("u1", raw)
			assert.Equal(t, 4, s.TotalAccounts)
			assert.Equal(t, 200000.0, s.TotalCurrentBalance)
			assert.InDelta(t, 66.67, s.CreditUtilization, 0.01)
			assert.True(t, s.HighUtilization)
			assert.Equal(t, 250.0, s.AvgOverdueAmount)
			assert.Equal(t, 756, s.CreditScore)
			assert.Equal(t, "CIBIL", s.Bureau)
		})
	}
}

func TestCreditSummaryEmpty(t *testing.T) {
	s := New(nil).Credit("u1", nil)
	assert.Equal(t, "N/A", s.Bureau)
	assert.Zero(t, s.CreditScore)
}

func TestMutualFundSummary(t *testing.T) {
	raw := []any{
		map[string]any{
			"schemeName": "Nimbus ELSS Tax Saver",
			"txns": []any{
				[]any{1.0, "2025-05-01", 95.0, 100.0, 9500.0},
				[]any{1.0, "2025-06-01", 100.0, 30.0, 3000.0}, // SIP band
				[]any{2.0, "2025-07-01", 110.0, 20.0, 2200.0},
				[]any{1.0, "bad-date", 100.0, 10.0, 1000.0}, // skipped
				[]any{1.0, "2025-07-02"},                    // short row skipped
			},
		},
	}

	s := New(nil).MutualFund("u1", raw)
	// 110 units at the latest NAV of 110.
	assert.InDelta(t, 12100.0, s.TotalValue, 0.01)
	assert.InDelta(t, 12100.0, s.SummaryByType["ELSS"], 0.01)
	assert.Equal(t, 1, s.SIPCount)
	assert.Equal(t, 9500.0, s.MonthlyReturns["2025-05"])
}

func TestStockSummary(t *testing.T) {
	raw := []any{
		map[string]any{
			"isin": "INE000A01001",
			"txns": []any{
				[]any{1.0, "2025-04-01", 10.0, 250.0},
				[]any{3.0, "2025-05-01", 5.0}, // bonus, quantity only
				[]any{2.0, "2025-06-01", 4.0, 300.0},
				[]any{1.0, "2025-06-15", 2.0}, // buy without price, skipped
			},
		},
	}

	s := New(nil).Stock("u1", raw)
	assert.Equal(t, 2500.0, s.TotalInvested)
	assert.Equal(t, 1200.0, s.TotalRealized)
	h := s.Holdings["INE000A01001"]
	assert.Equal(t, 11.0, h.Quantity)
	assert.Equal(t, 2500.0, s.MonthlyTrend["2025-04"])
}

func TestStockSummaryMapKeyedInstruments(t *testing.T) {
	raw := map[string]any{
		"acc-1": map[string]any{
			"isin": "INE000A01001",
			"txns": []any{[]any{1.0, "2025-04-01", 10.0, 100.0}},
		},
	}
	s := New(nil).Stock("u1", raw)
	assert.Equal(t, 1000.0, s.TotalInvested)
}

func TestEPFSummary(t *testing.T) {
	raw := map[string]any{
		"uanAccounts": []any{
			map[string]any{
				"rawDetails": map[string]any{
					"overall_pf_balance": map[string]any{
						"current_pf_balance":   "211111",
						"pension_balance":      "35000",
						"employee_share_total": map[string]any{"balance": "100000"},
						"employer_share_total": map[string]any{"balance": "76111"},
					},
					"est_details": []any{map[string]any{}, map[string]any{}},
				},
			},
		},
	}

	s := New(nil).EPF("u1", raw)
	assert.Equal(t, 211111.0, s.TotalBalance)
	assert.Equal(t, 35000.0, s.PensionBalance)
	assert.Equal(t, 100000.0, s.EmployeeTotal)
	assert.Equal(t, 2, s.EstablishmentCount)
}

func TestNetWorthSummaryFullShape(t *testing.T) {
	raw := map[string]any{
		"netWorthResponse": map[string]any{
			"totalNetWorthValue": map[string]any{"units": "450000"},
			"assetValues": []any{
				map[string]any{"netWorthAttribute": "SAVINGS_ACCOUNTS", "value": map[string]any{"units": 100000.0}},
				map[string]any{"netWorthAttribute": "epf_balance", "value": map[string]any{"units": "80000"}},
				map[string]any{"netWorthAttribute": "LIABILITY_LOAN", "value": map[string]any{"units": -30000.0}},
			},
		},
	}

	s := New(nil).NetWorth("u1", raw)
	assert.Equal(t, 450000.0, s.Total)
	assert.Equal(t, 80000.0, s.AssetBreakdown["EPF_BALANCE"])
	assert.Equal(t, -30000.0, s.LiabilityBreakdown["LIABILITY_LOAN"])
	assert.InDelta(t, 6.0, s.AssetToLiabilityRatio, 0.01)

	assets := NetWorthAssets(raw)
	require.Len(t, assets, 3)
	assert.Equal(t, "EPF_BALANCE", assets[1].Attribute)
}

func TestNetWorthSummaryDegradedShape(t *testing.T) {
	raw := map[string]any{"netWorth": map[string]any{"units": 90000.0}}
	s := New(nil).NetWorth("u1", raw)
	assert.Equal(t, 90000.0, s.Total)
	assert.Equal(t, 90000.0, s.AssetBreakdown["TOTAL"])
}
