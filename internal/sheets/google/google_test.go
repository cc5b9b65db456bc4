package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"betledger/internal/core"
	"betledger/internal/log"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, log.Discard())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "id"}, log.Discard())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Entries", 2024, "2024 Entries"},
		{"2023 Entries", 2024, "2023 Entries"},
		{"  Ledger ", 2025, "2025 Ledger"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestMirrorEntry_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if err := c.MirrorEntry(context.Background(), core.FinancialEntry{}); err == nil {
		t.Fatal("expected error without a service")
	}
}

func TestMirrorEntry_AppendsRow(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  struct {
			Values [][]string `json:"values"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRows":1}}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", SheetName: "Entries"}, log.Discard(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	profit, _ := core.ParseAmount("12,5")
	err = c.MirrorEntry(context.Background(), core.FinancialEntry{
		UserID: "u1",
		Date:   core.NewDate(2024, 2, 29),
		Profit: profit,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-id/values/2024 Entries!A:E") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") {
		t.Errorf("query = %q", gotQuery)
	}
	want := []string{"2024-02-29", "u1", "12.50", "0.00", "2024-03-01T09:30:00Z"}
	if len(gotBody.Values) != 1 || strings.Join(gotBody.Values[0], "|") != strings.Join(want, "|") {
		t.Errorf("values = %v, want %v", gotBody.Values, want)
	}
}
