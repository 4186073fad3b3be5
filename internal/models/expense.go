package models

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/pkg/money"
)

// DefaultDescription is used when an expense is recorded without one.
const DefaultDescription = "Untitled expense"

// Expense represents one purchase shared by some members of a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Payer is the name of the member who paid.
	Payer string

	// Amount is the total paid, in minor units. Always positive.
	Amount money.Amount

	// Description is what the money was spent on (e.g., "Hotel", "Groceries").
	Description string

	// Beneficiaries are the members who share the cost equally.
	// The payer may or may not be among them.
	Beneficiaries []string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Clone returns a copy with its own beneficiary slice.
func (e Expense) Clone() Expense {
	e.Beneficiaries = append([]string(nil), e.Beneficiaries...)
	return e
}

// ForCalculator converts the expense into the calculator's input shape.
func (e Expense) ForCalculator() calculator.Expense {
	return calculator.Expense{
		ID:            e.ID,
		Payer:         e.Payer,
		Amount:        e.Amount,
		Description:   e.Description,
		Beneficiaries: append([]string(nil), e.Beneficiaries...),
	}
}
