package extract

import (
	"errors"
	"testing"
)

func TestTextExtract(t *testing.T) {
	data := []byte("nombre,monto,tipo,descripcion\n" +
		"Juan Pérez, 150.00, CREDIT, Mandado\n" +
		"Ana; 75,50; PAYMENT\n" +
		"Roberto, 20\n")

	items, err := Text{}.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].CustomerName != "Juan Pérez" || items[0].Amount != 150 || items[0].Type != "CREDIT" || items[0].Description != "Mandado" {
		t.Fatalf("item 0 = %+v", items[0])
	}
	if items[1].CustomerName != "Ana" || items[1].Amount != 75.5 || items[1].Type != "PAYMENT" {
		t.Fatalf("item 1 = %+v", items[1])
	}
	if items[2].Type != "CREDIT" {
		t.Fatalf("missing type must default to CREDIT, got %+v", items[2])
	}
}

func TestTextExtractFailsWholeBatch(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad amount mid-file", "Juan, 10\nAna, veinte\n"},
		{"missing amount", "Juan, 10\nAna\n"},
		{"empty file", ""},
		{"header only", "nombre,monto\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := Text{}.Extract([]byte(tc.data))
			if !errors.Is(err, ErrExtractionFailed) {
				t.Fatalf("expected ErrExtractionFailed, got %v", err)
			}
			if items != nil {
				t.Fatalf("failed extraction must stage nothing, got %v", items)
			}
		})
	}
}

func TestForFilename(t *testing.T) {
	if _, ok := ForFilename("libreta.XLSX").(XLSX); !ok {
		t.Fatal("expected XLSX extractor for .XLSX")
	}
	if _, ok := ForFilename("libreta.csv").(Text); !ok {
		t.Fatal("expected Text extractor for .csv")
	}
	if _, ok := ForFilename("notas.txt").(Text); !ok {
		t.Fatal("expected Text extractor for .txt")
	}
}
