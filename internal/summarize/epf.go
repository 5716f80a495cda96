package summarize

import "go.uber.org/zap"

// EPFSummary aggregates the user's provident-fund position.
type EPFSummary struct {
	UserID             string  `json:"userId"`
	TotalBalance       float64 `json:"totalPFBalance"`
	PensionBalance     float64 `json:"pensionBalance"`
	EmployeeTotal      float64 `json:"employeeTotal"`
	EmployerTotal      float64 `json:"employerTotal"`
	EstablishmentCount int     `json:"establishmentCount"`
}

// EPF summarizes raw EPF details from the first UAN account.
func (s *Summarizer) EPF(userID string, raw any) EPFSummary {
	summary := EPFSummary{UserID: userID}

	accounts := AsSlice(Dig(raw, "uanAccounts"))
	if len(accounts) == 0 {
		if raw != nil {
			s.log.Warn("epf data has no uanAccounts", zap.String("user", userID))
		}
		return summary
	}

	details := AsMap(Dig(accounts[0], "rawDetails"))
	overall := AsMap(Dig(details, "overall_pf_balance"))
	summary.TotalBalance = Num(Field(overall, "current_pf_balance"))
	summary.PensionBalance = Num(Field(overall, "pension_balance"))
	summary.EmployeeTotal = Num(Dig(overall, "employee_share_total", "balance"))
	summary.EmployerTotal = Num(Dig(overall, "employer_share_total", "balance"))
	summary.EstablishmentCount = len(AsSlice(Field(details, "est_details")))
	return summary
}
