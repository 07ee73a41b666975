package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12.345", 1234, false}, // rounds down
		{"12.346", 1235, false}, // rounds up
		{"150", 15000, false},
		{".50", 50, false},
		{"", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	cases := []struct {
		cents int64
		json  string
	}{
		{15000, "150.00"},
		{1234, "12.34"},
		{5, "0.05"},
		{0, "0.00"},
		{-350, "-3.50"},
	}
	for _, tc := range cases {
		b, err := json.Marshal(Money{Cents: tc.cents})
		if err != nil {
			t.Fatalf("marshal %d: %v", tc.cents, err)
		}
		if string(b) != tc.json {
			t.Fatalf("marshal %d = %s, want %s", tc.cents, b, tc.json)
		}
		var m Money
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if m.Cents != tc.cents {
			t.Fatalf("round trip %d -> %d", tc.cents, m.Cents)
		}
	}
}

func TestMoneyUnmarshalFromPayload(t *testing.T) {
	var tx Transaction
	payload := []byte(`{"id":"t1","amount":75.5,"type":"CREDIT","date":"2025-06-15T10:00:00Z"}`)
	if err := json.Unmarshal(payload, &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.Amount.Cents != 7550 {
		t.Fatalf("amount = %d, want 7550", tx.Amount.Cents)
	}
}

func TestFromFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{75.5, 7550},
		{0.1, 10},
		{19.99, 1999},
		{-2.5, -250},
	}
	for _, tc := range cases {
		if got := FromFloat(tc.in).Cents; got != tc.want {
			t.Fatalf("FromFloat(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
