package core

import "testing"

func names(accounts []VerificationAccount) []string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.Name
	}
	return out
}

func TestFilterAccounts(t *testing.T) {
	accounts := []VerificationAccount{
		{Name: "A", VerificationStatus: StatusPending, DoneStatus: DoneNo},
		{Name: "B", VerificationStatus: StatusVerified, DoneStatus: DoneYesWon},
		{Name: "Alpha", VerificationStatus: StatusNotVerified, DoneStatus: DoneYesLost, IsDeleted: true},
		{Name: "Carl", VerificationStatus: StatusPending, DoneStatus: DoneNo, IsDeleted: true},
	}

	tests := []struct {
		name   string
		search string
		filter AccountFilter
		want   []string
	}{
		{"search is case-insensitive", "a", FilterAll, []string{"A", "Alpha", "Carl"}},
		{"search upper", "ALP", FilterAll, []string{"Alpha"}},
		{"pending", "", FilterPending, []string{"A", "Carl"}},
		{"done", "", FilterDone, []string{"B", "Alpha"}},
		{"deleted", "", FilterDeleted, []string{"Alpha", "Carl"}},
		{"search and filter", "a", FilterDeleted, []string{"Alpha", "Carl"}},
		{"no match", "zzz", FilterAll, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(FilterAccounts(accounts, tt.search, tt.filter))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFilterAccountsTwoAccountExample(t *testing.T) {
	accounts := []VerificationAccount{
		{Name: "A", VerificationStatus: StatusPending},
		{Name: "B", VerificationStatus: StatusVerified},
	}
	if got := names(FilterAccounts(accounts, "a", FilterAll)); len(got) != 1 || got[0] != "A" {
		t.Fatalf("search: %v", got)
	}
	if got := names(FilterAccounts(accounts, "", FilterPending)); len(got) != 1 || got[0] != "A" {
		t.Fatalf("pending: %v", got)
	}
}

func TestParseAccountFilter(t *testing.T) {
	cases := map[string]AccountFilter{
		"done": FilterDone, "PENDING": FilterPending, "deleted": FilterDeleted,
		"all": FilterAll, "": FilterAll, "bogus": FilterAll,
	}
	for in, want := range cases {
		if got := ParseAccountFilter(in); got != want {
			t.Errorf("ParseAccountFilter(%q)=%q want %q", in, got, want)
		}
	}
}

func TestAccountStatsUseFullCollection(t *testing.T) {
	accounts := []VerificationAccount{
		{Name: "A", VerificationStatus: StatusPending},
		{Name: "B", VerificationStatus: StatusVerified, DoneStatus: DoneYesWon},
		{Name: "C", VerificationStatus: StatusVerified, DoneStatus: DoneYesLost, IsDeleted: true},
	}
	want := AccountStats{Total: 3, Done: 2, Verified: 2, Pending: 1}
	if got := ComputeAccountStats(accounts); got != want {
		t.Fatalf("stats=%+v want %+v", got, want)
	}
}

func TestPendingAccounts(t *testing.T) {
	accounts := []VerificationAccount{
		{Name: "A", VerificationStatus: StatusPending},
		{Name: "B", VerificationStatus: StatusPending, IsDeleted: true},
		{Name: "C", VerificationStatus: StatusVerified},
	}
	if got := names(PendingAccounts(accounts)); len(got) != 1 || got[0] != "A" {
		t.Fatalf("pending=%v", got)
	}
}

func TestBuildDashboard(t *testing.T) {
	bankroll := MoneyFromInt(100)
	all := []FinancialEntry{entry("2024-01-05", 50, 0), entry("2024-02-10", 0, 30)}
	month := []FinancialEntry{entry("2024-02-10", 0, 30)}
	d := BuildDashboard(2024, 1, &bankroll, all, month, []VerificationAccount{{VerificationStatus: StatusPending}})
	if !d.Balance.Balance.Equal(MoneyFromInt(120)) || d.PendingCount != 1 || len(d.Month.Days) != 29 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if len(d.ProfitSplit) != 2 {
		t.Fatalf("split=%+v", d.ProfitSplit)
	}
}
