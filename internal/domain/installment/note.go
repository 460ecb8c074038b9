package installment

import (
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Note is a free-text annotation on a contract, append-only and ordered by
// creation time.
type Note struct {
	shared.BaseEntity
	ContractID uuid.UUID
	Category   string
	Author     string
	Body       string
}

// NewNote creates a contract note
func NewNote(contractID uuid.UUID, category, author, body string) (*Note, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Note must reference a contract")
	}
	if body == "" {
		return nil, shared.NewDomainError("EMPTY_NOTE", "Note body cannot be empty")
	}

	return &Note{
		BaseEntity: shared.NewBaseEntity(),
		ContractID: contractID,
		Category:   category,
		Author:     author,
		Body:       body,
	}, nil
}
