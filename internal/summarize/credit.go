package summarize

import "go.uber.org/zap"

// CreditSummary aggregates the user's credit report.
type CreditSummary struct {
	UserID              string  `json:"userId"`
	TotalAccounts       int     `json:"totalAccounts"`
	ActiveAccounts      int     `json:"activeAccounts"`
	ClosedAccounts      int     `json:"closedAccounts"`
	DefaultedAccounts   int     `json:"defaultedAccounts"`
	TotalCreditLimit    float64 `json:"totalCreditLimit"`
	TotalCurrentBalance float64 `json:"totalCurrentBalance"`
	CreditUtilization   float64 `json:"creditUtilization"`
	AvgOverdueAmount    float64 `json:"avgOverdueAmount"`
	CreditScore         int     `json:"creditScore"`
	Bureau              string  `json:"bureau"`
	HighUtilization     bool    `json:"highUtilization"`
}

// Credit summarizes a raw credit report. The report may arrive as a
// {creditReports: [...]} envelope, a bare report object, or a list whose
// first element is the report; all three are accepted.
func (s *Summarizer) Credit(userID string, raw any) CreditSummary {
	summary := CreditSummary{UserID: userID, Bureau: "N/A"}

	doc := AsMap(raw)
	if doc == nil {
		if list := AsSlice(raw); len(list) > 0 {
			doc = AsMap(list[0])
		}
	}
	if doc == nil {
		if raw != nil {
			s.log.Warn("credit data has no usable shape", zap.String("user", userID))
		}
		return summary
	}

	report := doc
	if reports := AsSlice(doc["creditReports"]); len(reports) > 0 {
		report = AsMap(reports[0])
	}
	profile := AsMap(Dig(report, "creditReportData"))
	if profile == nil {
		s.log.Warn("credit report missing creditReportData", zap.String("user", userID))
		return summary
	}

	account := AsMap(Dig(profile, "creditAccount", "creditAccountSummary", "account"))
	summary.TotalAccounts = int(Num(Field(account, "creditAccountTotal")))
	summary.ActiveAccounts = int(Num(Field(account, "creditAccountActive")))
	summary.ClosedAccounts = int(Num(Field(account, "creditAccountClosed")))
	summary.DefaultedAccounts = int(Num(Field(account, "creditAccountDefault")))

	var overdueSum float64
	var overdueCount int
	for _, d := range AsSlice(Dig(profile, "creditAccount", "creditAccountDetails")) {
		detail := AsMap(d)
		if detail == nil {
			continue
		}
		summary.TotalCreditLimit += Num(detail["creditLimitAmount"])
		summary.TotalCurrentBalance += Num(detail["currentBalance"])
		overdueSum += Num(detail["amountPastDue"])
		overdueCount++
	}
	if summary.TotalCreditLimit > 0 {
		summary.CreditUtilization = summary.TotalCurrentBalance / summary.TotalCreditLimit * 100
	}
	if overdueCount > 0 {
		summary.AvgOverdueAmount = overdueSum / float64(overdueCount)
	}
	summary.HighUtilization = summary.CreditUtilization > 60

	score := AsMap(profile["score"])
	summary.CreditScore = int(Num(Field(score, "bureauScore")))
	if b := Str(Field(score, "bureau")); b != "" {
		summary.Bureau = b
	}
	return summary
}
