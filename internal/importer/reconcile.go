package importer

import (
	"fmt"
	"strings"
	"time"

	"fiado/internal/core"
)

// Reconcile matches extracted items against the existing customer base.
//
// Initial matching is deliberately looser than post-edit matching: a
// case-insensitive exact match wins, otherwise substring containment in
// either direction (existing name contains extracted name or vice versa).
// The first existing customer that matches, in iteration order, wins.
// Matched items take the existing customer's canonical name.
//
// Inputs are never mutated.
func Reconcile(items []ExtractedItem, customers []core.Customer) []StagedItem {
	staged := make([]StagedItem, 0, len(items))
	now := time.Now().UnixMilli()
	for i, item := range items {
		s := StagedItem{
			ID:           fmt.Sprintf("import-%d-%d", now, i),
			CustomerName: strings.TrimSpace(item.CustomerName),
			Amount:       core.FromFloat(item.Amount),
			Type:         txType(item.Type),
			Description:  item.Description,
			Status:       StatusNew,
		}
		if s.Description == "" {
			s.Description = "Importado de archivo"
		}
		if match, ok := findLoose(s.CustomerName, customers); ok {
			s.CustomerName = match.Name
			s.Status = StatusMatched
		}
		staged = append(staged, s)
	}
	return staged
}

// Rematch re-evaluates a staged item after the user edited its name.
// Post-edit matching is exact-only: the substring fallback applies only
// to the initial extraction pass. (Intentional asymmetry carried over
// from the original product; do not "fix" silently.)
func Rematch(item StagedItem, customers []core.Customer) StagedItem {
	item.CustomerName = strings.TrimSpace(item.CustomerName)
	if match, ok := findExact(item.CustomerName, customers); ok {
		item.CustomerName = match.Name
		item.Status = StatusMatched
	} else {
		item.Status = StatusNew
	}
	return item
}

func findExact(name string, customers []core.Customer) (core.Customer, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return core.Customer{}, false
	}
	for _, c := range customers {
		if strings.ToLower(c.Name) == needle {
			return c, true
		}
	}
	return core.Customer{}, false
}

func findLoose(name string, customers []core.Customer) (core.Customer, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return core.Customer{}, false
	}
	for _, c := range customers {
		existing := strings.ToLower(c.Name)
		if existing == needle || strings.Contains(existing, needle) || strings.Contains(needle, existing) {
			return c, true
		}
	}
	return core.Customer{}, false
}

func txType(s string) core.TxType {
	if s == string(core.Payment) {
		return core.Payment
	}
	// Extraction defaults ambiguous records to CREDIT.
	return core.Credit
}
