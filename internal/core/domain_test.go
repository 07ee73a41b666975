package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	good := Transaction{ID: "t1", Amount: Money{Cents: 100}, Type: Credit, Date: now}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{ID: "t", Amount: Money{Cents: 100}, Type: "REFUND", Date: now},
		{ID: "t", Amount: Money{Cents: 0}, Type: Payment, Date: now},
		{ID: "t", Amount: Money{Cents: -100}, Type: Credit, Date: now},
		{ID: "t", Amount: Money{Cents: 100}, Type: Credit},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCustomerValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	good := Customer{ID: "c1", Name: "Juan Pérez", CreatedAt: now}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Customer{ID: "c", Name: "  ", CreatedAt: now}).Validate(); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Customer{ID: "c", Name: "Ana"}).Validate(); err != ErrZeroDate {
		t.Fatalf("expected ErrZeroDate, got %v", err)
	}
}
