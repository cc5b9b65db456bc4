package csvimport

import (
	"errors"
	"strings"
	"testing"

	"betledger/internal/core"
)

func TestParsePortugueseHeaders(t *testing.T) {
	in := "Data,Ganho,Levantamento\n" +
		"01/03/2024,\"12,50\",0\n" +
		"\n" +
		"31/02/2024,5,0\n" +
		",7,0\n" +
		"2/3/2024,3.25,\"1,5\"\n"
	res, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(res.Rows), res.Rows)
	}
	if res.Rows[0].Date.String() != "2024-03-01" || !res.Rows[0].Profit.Equal(core.MoneyFromFloat(12.5)) {
		t.Fatalf("row 0: %+v", res.Rows[0])
	}
	if res.Rows[1].Date.String() != "2024-03-02" || !res.Rows[1].Withdrawal.Equal(core.MoneyFromFloat(1.5)) {
		t.Fatalf("row 1: %+v", res.Rows[1])
	}
	if res.Skipped != 2 {
		t.Fatalf("skipped=%d want 2", res.Skipped)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], `invalid date "31/02/2024"`) {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	if !strings.HasPrefix(res.Warnings[0], "row 4:") {
		t.Fatalf("warning should carry the file line: %q", res.Warnings[0])
	}
}

func TestParseInvalidDateDoesNotAbort(t *testing.T) {
	in := "Date,Gain,Withdrawal\nnot-a-date,1,0\n05/01/2024,2,0\n06/01/2024,3,0\n"
	res, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 2 || res.Skipped != 1 || len(res.Warnings) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestParseSemicolonAndBOM(t *testing.T) {
	in := "\ufeffDATA;GANHO;LEVANTAMENTO\n10/02/2024;1.234,56;20\n"
	res, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows=%+v", res.Rows)
	}
	want, _ := core.ParseAmount("1234.56")
	if !res.Rows[0].Profit.Equal(want) || !res.Rows[0].Withdrawal.Equal(core.MoneyFromInt(20)) {
		t.Fatalf("row=%+v", res.Rows[0])
	}
}

func TestParseBadAmountsBecomeZero(t *testing.T) {
	in := "Data,Ganho,Levantamento\n01/01/2024,abc,-5\n01/02/2024\n"
	res, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows=%+v", res.Rows)
	}
	if !res.Rows[0].Profit.IsZero() || !res.Rows[0].Withdrawal.IsZero() {
		t.Fatalf("bad amounts should be zero: %+v", res.Rows[0])
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	if !res.Rows[1].Profit.IsZero() {
		t.Fatalf("missing columns should be zero: %+v", res.Rows[1])
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := Parse(strings.NewReader("Ganho,Levantamento\n1,2\n")); !errors.Is(err, ErrMissingDateColumn) {
		t.Fatalf("missing date: %v", err)
	}
}
