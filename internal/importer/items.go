// Package importer turns externally extracted ledger records into staged
// items matched against the existing customer base. Extraction itself is
// a collaborator behind the extract package; this package owns payload
// validation and name reconciliation.
package importer

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"fiado/internal/core"
)

// ExtractedItem is one record returned by the extraction collaborator.
// The payload is untrusted: it is validated as a whole batch before
// reconciliation ever sees it.
type ExtractedItem struct {
	CustomerName string  `json:"customerName" validate:"required,min=1,max=120"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Type         string  `json:"type" validate:"required,oneof=CREDIT PAYMENT"`
	Description  string  `json:"description" validate:"max=200"`
}

// Status labels a staged item after matching.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusMatched Status = "MATCHED"
	StatusNew     Status = "NEW"
)

// StagedItem is an extracted record ready for user review. MATCHED items
// carry the existing customer's canonical name; the user may still edit
// any field before committing.
type StagedItem struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customerName"`
	Amount       core.Money  `json:"amount"`
	Type         core.TxType `json:"type"`
	Description  string      `json:"description"`
	Status       Status      `json:"status"`
}

var validate = validator.New()

// ValidateBatch checks every extracted item. Any invalid item rejects the
// whole batch: imports are all-or-nothing up to the staging step.
func ValidateBatch(items []ExtractedItem) error {
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			return fmt.Errorf("extracted item %d: %w", i, err)
		}
	}
	return nil
}
