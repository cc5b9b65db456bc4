package core

import "fmt"

// DayBucket holds the totals of one calendar day.
type DayBucket struct {
	Day        int    `json:"day"`
	Label      string `json:"label"`
	Profit     Money  `json:"profit"`
	Withdrawal Money  `json:"withdrawal"`
	Net        Money  `json:"net"`
}

// MonthReport is the day-by-day breakdown of a calendar month.
type MonthReport struct {
	Year            int         `json:"year"`
	Month           int         `json:"month"` // 0-based
	Days            []DayBucket `json:"days"`
	TotalProfit     Money       `json:"total_profit"`
	TotalWithdrawal Money       `json:"total_withdrawal"`
	Net             Money       `json:"net"`
}

// AggregateMonth buckets entries into every day of the zero-based month.
// Days without entries are zero, entries sharing a date are summed and
// entries outside the month are ignored.
func AggregateMonth(year, month0 int, entries []FinancialEntry) MonthReport {
	n := DaysIn(year, month0)
	days := make([]DayBucket, n)
	for i := range days {
		days[i] = DayBucket{Day: i + 1, Label: fmt.Sprintf("%02d", i+1)}
	}

	from, to := MonthRange(year, month0)
	for _, e := range entries {
		if e.Date.Before(from.Time) || !e.Date.Before(to.Time) {
			continue
		}
		b := &days[e.Date.Day()-1]
		b.Profit = b.Profit.Add(e.Profit)
		b.Withdrawal = b.Withdrawal.Add(e.Withdrawal)
	}

	report := MonthReport{Year: year, Month: month0, Days: days}
	for i := range days {
		days[i].Net = days[i].Profit.Sub(days[i].Withdrawal)
		report.TotalProfit = report.TotalProfit.Add(days[i].Profit)
		report.TotalWithdrawal = report.TotalWithdrawal.Add(days[i].Withdrawal)
	}
	report.Net = report.TotalProfit.Sub(report.TotalWithdrawal)
	return report
}
