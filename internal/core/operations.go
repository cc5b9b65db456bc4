package core

// OperationRow is the table view of a single operation.
type OperationRow struct {
	Operation  BettingOperation `json:"operation"`
	StakeShown *Money           `json:"stake_shown"` // nil for freebets
	Spent      Money            `json:"spent"`
	Profit     Money            `json:"profit"`
}

// AmountSpent is stake + orbit for a standard bet and orbit alone for a freebet.
func AmountSpent(stake Money, op BettingOperation) Money {
	if op.BetType == BetFreebet {
		return op.Orbit
	}
	return stake.Add(op.Orbit)
}

// Profit is gain minus the amount spent.
func Profit(stake Money, op BettingOperation) Money {
	return op.Gain.Sub(AmountSpent(stake, op))
}

// MarkLost sets the gain to the amount spent, so the operation breaks even.
func MarkLost(stake Money, op BettingOperation) BettingOperation {
	op.Gain = AmountSpent(stake, op)
	return op
}

// TotalProfit sums the profit of every operation.
func TotalProfit(stake Money, ops []BettingOperation) Money {
	total := Zero
	for _, op := range ops {
		total = total.Add(Profit(stake, op))
	}
	return total
}

// OperationRows builds the table rows for an account's operations, keeping their order.
func OperationRows(account BettingAccount, ops []BettingOperation) []OperationRow {
	rows := make([]OperationRow, 0, len(ops))
	for _, op := range ops {
		row := OperationRow{
			Operation: op,
			Spent:     AmountSpent(account.FixedStake, op),
			Profit:    Profit(account.FixedStake, op),
		}
		if op.BetType != BetFreebet {
			stake := account.FixedStake
			row.StakeShown = &stake
		}
		rows = append(rows, row)
	}
	return rows
}
