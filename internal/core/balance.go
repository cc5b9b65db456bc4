package core

// BalanceReport is the all-time running balance of a user.
type BalanceReport struct {
	Bankroll        Money `json:"bankroll"`
	TotalProfit     Money `json:"total_profit"`
	TotalWithdrawal Money `json:"total_withdrawal"`
	Balance         Money `json:"balance"`
}

// Slice is one segment of the profit/withdrawal pie chart.
type Slice struct {
	Name    string  `json:"name"`
	Value   Money   `json:"value"`
	Percent float64 `json:"percent"`
}

// Balance computes bankroll + Σprofit − Σwithdrawal over all entries.
// A nil bankroll counts as zero.
func Balance(bankroll *Money, entries []FinancialEntry) BalanceReport {
	var r BalanceReport
	if bankroll != nil {
		r.Bankroll = *bankroll
	}
	for _, e := range entries {
		r.TotalProfit = r.TotalProfit.Add(e.Profit)
		r.TotalWithdrawal = r.TotalWithdrawal.Add(e.Withdrawal)
	}
	r.Balance = r.Bankroll.Add(r.TotalProfit).Sub(r.TotalWithdrawal)
	return r
}

// ProfitSplit returns the chart slices for total profit and total
// withdrawn. Slices that are not positive are omitted.
func ProfitSplit(r BalanceReport) []Slice {
	candidates := []Slice{
		{Name: "Total Profit", Value: r.TotalProfit},
		{Name: "Total Withdrawn", Value: r.TotalWithdrawal},
	}
	total := Zero
	for _, c := range candidates {
		if c.Value.IsPositive() {
			total = total.Add(c.Value)
		}
	}

	slices := make([]Slice, 0, len(candidates))
	for _, c := range candidates {
		if !c.Value.IsPositive() {
			continue
		}
		pct, _ := c.Value.Decimal().Div(total.Decimal()).Shift(2).Round(2).Float64()
		c.Percent = pct
		slices = append(slices, c)
	}
	return slices
}
