package core

// Dashboard is the landing page view model.
type Dashboard struct {
	Balance      BalanceReport `json:"balance"`
	PendingCount int           `json:"pending_count"`
	Month        MonthReport   `json:"month"`
	ProfitSplit  []Slice       `json:"profit_split"`
}

// BuildDashboard derives the dashboard from the raw rows. allEntries feeds the
// running balance; monthEntries feeds the month report.
func BuildDashboard(year, month0 int, bankroll *Money, allEntries, monthEntries []FinancialEntry, accounts []VerificationAccount) Dashboard {
	balance := Balance(bankroll, allEntries)
	return Dashboard{
		Balance:      balance,
		PendingCount: len(PendingAccounts(accounts)),
		Month:        AggregateMonth(year, month0, monthEntries),
		ProfitSplit:  ProfitSplit(balance),
	}
}
