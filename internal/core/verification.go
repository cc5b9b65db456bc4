package core

import "strings"

// AccountFilter selects verification accounts by status.
type AccountFilter string

const (
	FilterAll     AccountFilter = "all"
	FilterDone    AccountFilter = "done"
	FilterPending AccountFilter = "pending"
	FilterDeleted AccountFilter = "deleted"
)

// AccountStats are the summary counters shown above the accounts table.
type AccountStats struct {
	Total    int `json:"total"`
	Done     int `json:"done"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
}

// ParseAccountFilter maps a query value to a filter; unknown values mean all.
func ParseAccountFilter(s string) AccountFilter {
	switch f := AccountFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterDone, FilterPending, FilterDeleted:
		return f
	}
	return FilterAll
}

func (f AccountFilter) match(a VerificationAccount) bool {
	switch f {
	case FilterDone:
		return a.DoneStatus.IsDone()
	case FilterPending:
		return a.VerificationStatus == StatusPending
	case FilterDeleted:
		return a.IsDeleted
	}
	return true
}

// FilterAccounts keeps accounts whose name contains search (case-insensitive)
// and that match filter. Relative order is preserved.
func FilterAccounts(accounts []VerificationAccount, search string, filter AccountFilter) []VerificationAccount {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]VerificationAccount, 0, len(accounts))
	for _, a := range accounts {
		if needle != "" && !strings.Contains(strings.ToLower(a.Name), needle) {
			continue
		}
		if !filter.match(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ComputeAccountStats counts over base. Callers pass the full collection,
// deleted rows included, so the numbers do not move with the active filter.
func ComputeAccountStats(base []VerificationAccount) AccountStats {
	s := AccountStats{Total: len(base)}
	for _, a := range base {
		if a.DoneStatus.IsDone() {
			s.Done++
		}
		switch a.VerificationStatus {
		case StatusVerified:
			s.Verified++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// PendingAccounts returns accounts awaiting verification that are not deleted.
func PendingAccounts(accounts []VerificationAccount) []VerificationAccount {
	out := make([]VerificationAccount, 0)
	for _, a := range accounts {
		if a.VerificationStatus == StatusPending && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out
}
