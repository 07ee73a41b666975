package importer

import (
	"testing"
	"time"

	"fiado/internal/core"
)

var existing = []core.Customer{
	{ID: "c1", Name: "Juan Pérez", CreatedAt: time.Now()},
	{ID: "c2", Name: "María de los Ángeles", CreatedAt: time.Now()},
	{ID: "c3", Name: "Ana", CreatedAt: time.Now()},
}

func TestReconcileExactMatch(t *testing.T) {
	items := []ExtractedItem{{CustomerName: "juan pérez", Amount: 50, Type: "CREDIT"}}
	staged := Reconcile(items, existing)
	if len(staged) != 1 {
		t.Fatalf("expected 1 staged item, got %d", len(staged))
	}
	s := staged[0]
	if s.Status != StatusMatched {
		t.Fatalf("status = %v, want MATCHED", s.Status)
	}
	if s.CustomerName != "Juan Pérez" {
		t.Fatalf("name not normalized to canonical: %q", s.CustomerName)
	}
	if s.Amount.Cents != 5000 {
		t.Fatalf("amount = %d, want 5000", s.Amount.Cents)
	}
}

func TestReconcileSubstringFallback(t *testing.T) {
	cases := []struct {
		name      string
		extracted string
		wantName  string
	}{
		// Existing name contains the extracted fragment.
		{"fragment of existing", "maría", "María de los Ángeles"},
		// Extracted name contains the existing name.
		{"existing inside extracted", "ana la del mercado", "Ana"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			staged := Reconcile([]ExtractedItem{{CustomerName: tc.extracted, Amount: 10, Type: "PAYMENT"}}, existing)
			if staged[0].Status != StatusMatched {
				t.Fatalf("status = %v, want MATCHED", staged[0].Status)
			}
			if staged[0].CustomerName != tc.wantName {
				t.Fatalf("name = %q, want %q", staged[0].CustomerName, tc.wantName)
			}
		})
	}
}

func TestReconcileFirstMatchWins(t *testing.T) {
	customers := []core.Customer{
		{ID: "c1", Name: "José Luis"},
		{ID: "c2", Name: "José"},
	}
	staged := Reconcile([]ExtractedItem{{CustomerName: "josé", Amount: 5, Type: "CREDIT"}}, customers)
	// "José Luis" contains "josé" and comes first in iteration order.
	if staged[0].CustomerName != "José Luis" {
		t.Fatalf("name = %q, want first match José Luis", staged[0].CustomerName)
	}
}

func TestReconcileUnknownIsNew(t *testing.T) {
	staged := Reconcile([]ExtractedItem{{CustomerName: "Roberto", Amount: 20, Type: "CREDIT"}}, existing)
	s := staged[0]
	if s.Status != StatusNew {
		t.Fatalf("status = %v, want NEW", s.Status)
	}
	if s.CustomerName != "Roberto" {
		t.Fatalf("name = %q", s.CustomerName)
	}
	if s.Description != "Importado de archivo" {
		t.Fatalf("default description missing: %q", s.Description)
	}
	if s.Type != core.Credit {
		t.Fatalf("type = %v", s.Type)
	}
}

func TestRematchIsExactOnly(t *testing.T) {
	item := StagedItem{ID: "i1", CustomerName: "maría", Amount: core.Money{Cents: 100}, Type: core.Credit, Status: StatusNew}

	// A fragment that would loose-match must stay NEW after an edit.
	got := Rematch(item, existing)
	if got.Status != StatusNew {
		t.Fatalf("substring fallback must not apply after edit, got %v", got.Status)
	}

	// Exact (case-insensitive) still matches and normalizes.
	item.CustomerName = "maría de los ángeles"
	got = Rematch(item, existing)
	if got.Status != StatusMatched {
		t.Fatalf("status = %v, want MATCHED", got.Status)
	}
	if got.CustomerName != "María de los Ángeles" {
		t.Fatalf("name = %q", got.CustomerName)
	}

	// Rematch with the canonical name again is a no-op.
	again := Rematch(got, existing)
	if again != got {
		t.Fatalf("rematch not idempotent: %+v vs %+v", got, again)
	}
}

func TestValidateBatch(t *testing.T) {
	good := []ExtractedItem{
		{CustomerName: "Juan", Amount: 10.5, Type: "CREDIT", Description: "Refrescos"},
		{CustomerName: "Ana", Amount: 3, Type: "PAYMENT"},
	}
	if err := ValidateBatch(good); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := [][]ExtractedItem{
		{{CustomerName: "", Amount: 10, Type: "CREDIT"}},
		{{CustomerName: "Juan", Amount: 0, Type: "CREDIT"}},
		{{CustomerName: "Juan", Amount: -5, Type: "PAYMENT"}},
		{{CustomerName: "Juan", Amount: 5, Type: "REFUND"}},
		// One bad item rejects the whole batch.
		{
			{CustomerName: "Juan", Amount: 10, Type: "CREDIT"},
			{CustomerName: "Ana", Amount: 10, Type: "BAD"},
		},
	}
	for i, batch := range bads {
		if err := ValidateBatch(batch); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	items := []ExtractedItem{{CustomerName: "juan pérez", Amount: 50, Type: "CREDIT"}}
	Reconcile(items, existing)
	if items[0].CustomerName != "juan pérez" {
		t.Fatal("extracted item was mutated")
	}
	if existing[0].Name != "Juan Pérez" {
		t.Fatal("customer list was mutated")
	}
}
