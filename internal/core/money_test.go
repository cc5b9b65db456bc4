package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12.34", "12.34", false},
		{"12,34", "12.34", false},
		{" 7 ", "7", false},
		{"", "0", false},
		{"-3,5", "-3.5", false},
		{"1.234,56", "1234.56", false},
		{"1,234.56", "1234.56", false},
		{"0.1", "0.1", false},
		{"1,2,3", "", true},
		{"abc", "", true},
		{"1e3", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseAmount(%q) err=%v, want ErrInvalidAmount", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) unexpected err: %v", tt.in, err)
			continue
		}
		want, _ := ParseAmount(tt.want)
		if !got.Equal(want) {
			t.Errorf("ParseAmount(%q)=%s want %s", tt.in, got.Decimal(), tt.want)
		}
	}
}

func TestMoneyArithmeticKeepsPrecision(t *testing.T) {
	a, _ := ParseAmount("0.1")
	b, _ := ParseAmount("0.2")
	c, _ := ParseAmount("0.3")
	if !a.Add(b).Equal(c) {
		t.Fatalf("0.1+0.2 should equal 0.3, got %s", a.Add(b).Decimal())
	}
}

func TestMoneyString(t *testing.T) {
	if got := MoneyFromFloat(12.345).String(); got != "€12.35" {
		t.Fatalf("got %q", got)
	}
	if got := MoneyFromInt(-2).String(); got != "-€2.00" {
		t.Fatalf("got %q", got)
	}
	if got := Zero.String(); got != "€0.00" {
		t.Fatalf("got %q", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 10.5, "b": "3,25", "c": null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.A.Equal(MoneyFromFloat(10.5)) || !v.B.Equal(MoneyFromFloat(3.25)) || !v.C.IsZero() {
		t.Fatalf("unexpected values: %+v", v)
	}
	out, err := json.Marshal(v.A)
	if err != nil || string(out) != "10.5" {
		t.Fatalf("marshal: %s %v", out, err)
	}
	if err := json.Unmarshal([]byte(`{"a": "x"}`), &v); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestMoneyScan(t *testing.T) {
	var m Money
	if err := m.Scan("42.10"); err != nil || !m.Equal(MoneyFromFloat(42.1)) {
		t.Fatalf("scan string: %v %s", err, m)
	}
	if err := m.Scan(nil); err != nil || !m.IsZero() {
		t.Fatalf("scan nil: %v %s", err, m)
	}
	if err := m.Scan(int64(7)); err != nil || !m.Equal(MoneyFromInt(7)) {
		t.Fatalf("scan int: %v %s", err, m)
	}
}
